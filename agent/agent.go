// Package agent answers questions about registered lawyers by letting a chat
// model call the oab_search tool.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/use-agent/oab/llm"
)

// SystemPrompt instructs the model how to behave.
const SystemPrompt = `Você é um assistente especializado em consultas sobre advogados cadastrados na OAB (Ordem dos Advogados do Brasil).

Você tem acesso à ferramenta oab_search, que recebe o nome completo do advogado e a UF/Seccional.

Instruções importantes:
1. Sempre responda em português do Brasil.
2. Seja claro e objetivo nas respostas.
3. Se não encontrar dados, explique o motivo.
4. Para buscar um advogado, você precisa do nome completo e da UF/Seccional.
5. Se a pergunta não fornecer o nome completo ou a UF/Seccional, pergunte ao usuário.
6. Formate as respostas de forma amigável e profissional, pode usar emojis se achar necessário.`

// ErrMaxIterations is returned when the model keeps calling tools past the
// iteration limit.
var ErrMaxIterations = errors.New("agent stopped due to iteration limit")

// Tool is something the model may call.
type Tool interface {
	Spec() llm.ToolSpec
	Call(ctx context.Context, arguments string) string
}

// Agent runs a bounded tool-calling loop against a model.
type Agent struct {
	model         llm.Model
	tools         map[string]Tool
	specs         []llm.ToolSpec
	maxIterations int
	verbose       bool
}

// Option configures an Agent.
type Option func(*Agent)

// WithMaxIterations bounds the number of model calls per question.
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithVerbose logs every step at info level instead of debug.
func WithVerbose(v bool) Option {
	return func(a *Agent) { a.verbose = v }
}

// New creates an agent over model with the given tools.
func New(model llm.Model, tools []Tool, opts ...Option) *Agent {
	a := &Agent{
		model:         model,
		tools:         make(map[string]Tool, len(tools)),
		maxIterations: 5,
	}
	for _, t := range tools {
		spec := t.Spec()
		a.tools[spec.Function.Name] = t
		a.specs = append(a.specs, spec)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run answers question, calling tools as the model requests.
func (a *Agent) Run(ctx context.Context, question string) (string, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: SystemPrompt},
		{Role: llm.RoleUser, Content: question},
	}

	for i := 0; i < a.maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		reply, err := a.model.Chat(ctx, messages, a.specs)
		if err != nil {
			return "", fmt.Errorf("model call: %w", err)
		}
		messages = append(messages, *reply)

		if len(reply.ToolCalls) == 0 {
			a.log("final answer", "iteration", i+1)
			return strings.TrimSpace(reply.Content), nil
		}

		for _, call := range reply.ToolCalls {
			observation := a.call(ctx, call)
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    observation,
				ToolCallID: call.ID,
			})
		}
	}
	return "", ErrMaxIterations
}

// Query is Run with errors turned into a reply for the user.
func (a *Agent) Query(ctx context.Context, question string) string {
	slog.Info("processing question", "question", question)

	answer, err := a.Run(ctx, question)
	if err != nil {
		slog.Error("agent failed", "error", err)
		return fmt.Sprintf("Desculpe, ocorreu um erro ao processar a pergunta: %v", err)
	}
	if answer == "" {
		return "Não foi possível processar a pergunta"
	}

	slog.Info("answer generated", "answer", answer)
	return answer
}

func (a *Agent) call(ctx context.Context, call llm.ToolCall) string {
	t, ok := a.tools[call.Function.Name]
	if !ok {
		a.log("unknown tool requested", "tool", call.Function.Name)
		return fmt.Sprintf("unknown tool: %s", call.Function.Name)
	}

	a.log("calling tool", "tool", call.Function.Name, "arguments", call.Function.Arguments)
	observation := t.Call(ctx, call.Function.Arguments)
	a.log("tool observation", "tool", call.Function.Name, "observation", observation)
	return observation
}

func (a *Agent) log(msg string, args ...any) {
	if a.verbose {
		slog.Info(msg, args...)
		return
	}
	slog.Debug(msg, args...)
}
