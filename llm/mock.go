package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
)

const (
	mockToolName = "oab_search"

	replyNeedMore = "Para buscar um advogado, você precisa do nome completo e da UF/Seccional."
	replyGreeting = "Como posso ajudá-lo com consultas sobre advogados da OAB?"
)

var (
	reMockName     = regexp.MustCompile(`(?i)\bnome[:\s]+([A-Za-zÀ-ÿ\s]+)`)
	reMockUF       = regexp.MustCompile(`(?i)\buf[:\s]+([A-Z]{2})\b`)
	reMockAdvogado = regexp.MustCompile(`(?i)\badvogad[oa]\s+([A-Za-zÀ-ÿ\s]+?)\s+na\s+UF\s+([A-Z]{2})\b`)
)

// stopWords end a name captured by the "nome:" pattern.
var stopWords = map[string]bool{"uf": true, "na": true, "seccional": true, "e": true}

// Mock is a rule-based Model for running the agent without an LLM.
// It understands "nome: <name> uf: XX" and "advogado <name> na UF XX".
type Mock struct {
	calls atomic.Int64
}

// NewMock creates a Mock model.
func NewMock() *Mock {
	return &Mock{}
}

// Chat answers from the last message: a tool observation becomes the final
// answer, a question with name and UF becomes an oab_search call.
func (m *Mock) Chat(_ context.Context, messages []Message, _ []ToolSpec) (*Message, error) {
	if len(messages) == 0 {
		return &Message{Role: RoleAssistant, Content: replyGreeting}, nil
	}

	last := messages[len(messages)-1]
	if last.Role == RoleTool {
		return &Message{Role: RoleAssistant, Content: summarize(last.Content)}, nil
	}

	question := lastUserContent(messages)
	name, uf := parseQuestion(question)

	switch {
	case name != "" && uf != "":
		args, err := json.Marshal(map[string]string{"name": name, "uf": uf})
		if err != nil {
			return nil, err
		}
		id := m.calls.Add(1)
		return &Message{
			Role: RoleAssistant,
			ToolCalls: []ToolCall{{
				ID:   fmt.Sprintf("call_%d", id),
				Type: "function",
				Function: FunctionCall{
					Name:      mockToolName,
					Arguments: string(args),
				},
			}},
		}, nil
	case name != "" || uf != "":
		return &Message{Role: RoleAssistant, Content: replyNeedMore}, nil
	}

	lower := strings.ToLower(question)
	if strings.Contains(lower, "buscar") || strings.Contains(lower, "consultar") {
		return &Message{Role: RoleAssistant, Content: replyNeedMore}, nil
	}
	return &Message{Role: RoleAssistant, Content: replyGreeting}, nil
}

func lastUserContent(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

func parseQuestion(q string) (name, uf string) {
	if m := reMockAdvogado.FindStringSubmatch(q); m != nil {
		return strings.Join(strings.Fields(m[1]), " "), strings.ToUpper(m[2])
	}
	if m := reMockName.FindStringSubmatch(q); m != nil {
		var words []string
		for _, w := range strings.Fields(m[1]) {
			if stopWords[strings.ToLower(w)] {
				break
			}
			words = append(words, w)
		}
		name = strings.Join(words, " ")
	}
	if m := reMockUF.FindStringSubmatch(q); m != nil {
		uf = strings.ToUpper(m[1])
	}
	return name, uf
}

// summarize turns an oab_search observation into a reply in Portuguese.
func summarize(observation string) string {
	var rec map[string]string
	if err := json.Unmarshal([]byte(observation), &rec); err != nil {
		return "Não foi possível obter os dados do advogado: " + observation
	}

	var b strings.Builder
	b.WriteString("Aqui estão os dados do advogado solicitado ✅\n")
	fmt.Fprintf(&b, "Nome: %s\n", rec["name"])
	fmt.Fprintf(&b, "OAB: %s/%s\n", rec["oab"], rec["uf"])
	fmt.Fprintf(&b, "Categoria: %s\n", rec["categoria"])
	fmt.Fprintf(&b, "Data de inscrição: %s\n", rec["data_inscricao"])
	fmt.Fprintf(&b, "Situação: %s", rec["situacao"])
	return b.String()
}
