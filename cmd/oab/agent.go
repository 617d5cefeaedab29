package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/use-agent/oab/agent"
	"github.com/use-agent/oab/llm"
	"github.com/use-agent/oab/tool"
)

var exitWords = map[string]bool{"sair": true, "exit": true, "quit": true}

func (a *app) newAgent() (*agent.Agent, error) {
	initLogger(a.cfg.Log, a.stderr)

	a.cfg.Agent.Validate()
	model, err := llm.New(a.cfg.Agent)
	if err != nil {
		return nil, err
	}

	return agent.New(model,
		[]agent.Tool{tool.NewSearchTool(a.cfg.Tool)},
		agent.WithMaxIterations(a.cfg.Agent.MaxIterations),
		agent.WithVerbose(a.cfg.Agent.Verbose),
	), nil
}

func (a *app) ask(ctx context.Context, ag *agent.Agent, question string) string {
	if a.cfg.Agent.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Agent.Timeout)
		defer cancel()
	}
	return ag.Query(ctx, question)
}

func (a *app) newAgentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agent",
		Short: "Chat with the OAB assistant (type 'sair' to quit)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ag, err := a.newAgent()
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "Agente OAB (%s)\n", a.cfg.Agent.Provider)
			fmt.Fprintln(a.stdout, "Digite suas perguntas sobre advogados da OAB (Ordem dos Advogados do Brasil)")
			fmt.Fprintln(a.stdout, "Digite 'sair' para encerrar")
			fmt.Fprintln(a.stdout)

			ctx := cmd.Context()
			scanner := bufio.NewScanner(a.stdin)
			for {
				fmt.Fprint(a.stdout, "Pergunta: ")
				if !scanner.Scan() {
					break
				}
				question := strings.TrimSpace(scanner.Text())
				if question == "" {
					continue
				}
				if exitWords[strings.ToLower(question)] {
					break
				}

				answer := a.ask(ctx, ag, question)
				fmt.Fprintf(a.stdout, "\nResposta: %s\n\n%s\n", answer, strings.Repeat("-", 50))

				if ctx.Err() != nil {
					break
				}
			}

			fmt.Fprintln(a.stdout, "\nEncerrando o agente...")
			return scanner.Err()
		},
	}
}

func (a *app) newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "query <question>",
		Short:   "Ask the OAB assistant a single question",
		Example: `  oab query "Busque o advogado Maria Souza na UF SP"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ag, err := a.newAgent()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, a.ask(cmd.Context(), ag, strings.Join(args, " ")))
			return nil
		},
	}
}
