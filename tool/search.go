// Package tool exposes the registry lookup as a conversational tool that
// forwards to the HTTP API.
package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/use-agent/oab/config"
	"github.com/use-agent/oab/llm"
	"github.com/use-agent/oab/models"
)

const (
	// Name is the tool name advertised to language models.
	Name = "oab_search"

	// Description tells a language model when to call the tool.
	Description = "Busca informações de advogados na OAB. Recebe o nome completo do advogado e a UF/Seccional " +
		"(ex: SP, MS, MG) e retorna os dados do advogado: número OAB, nome, UF, categoria, data de inscrição e situação."

	notAvailable = "N/A"
)

// parameters is the JSON Schema of the tool's arguments.
const parameters = `{
  "type": "object",
  "properties": {
    "name": {"type": "string", "description": "Nome completo do advogado"},
    "uf": {"type": "string", "description": "UF/Seccional do advogado (ex: SP, MS, MG)"}
  },
  "required": ["name", "uf"]
}`

var reInlineUF = regexp.MustCompile(`(?i)\buf[\s:]+([A-Z]{2})\b`)

// Observation is what the tool reports back for a found record.
// Missing values are "N/A".
type Observation struct {
	OAB           string `json:"oab"`
	Name          string `json:"name"`
	UF            string `json:"uf"`
	Categoria     string `json:"categoria"`
	DataInscricao string `json:"data_inscricao"`
	Situacao      string `json:"situacao"`
}

// JSON encodes the observation without escaping HTML characters.
func (o *Observation) JSON() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(o); err != nil {
		return fmt.Sprintf("unexpected error: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

// SearchTool calls POST /fetch_oab on the lookup API.
type SearchTool struct {
	apiURL string
	apiKey string
	client *http.Client
}

// NewSearchTool creates a tool for the API described by cfg.
func NewSearchTool(cfg config.ToolConfig) *SearchTool {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &SearchTool{
		apiURL: strings.TrimRight(cfg.APIURL, "/"),
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}
}

// Run looks up name in uf and returns either the JSON observation or a
// human-readable error. It never returns a Go error so the text can be fed
// straight back to a language model.
func (t *SearchTool) Run(ctx context.Context, name, uf string) string {
	obs, err := t.Search(ctx, name, uf)
	if err != nil {
		return err.Error()
	}
	return obs.JSON()
}

// RunInput accepts the single-string form some models emit: either a JSON
// object {"name": ..., "uf": ...} or free text holding the name.
func (t *SearchTool) RunInput(ctx context.Context, input string) string {
	return t.Run(ctx, input, "")
}

// Spec describes the tool for function-calling models.
func (t *SearchTool) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Type: "function",
		Function: llm.FunctionSpec{
			Name:        Name,
			Description: Description,
			Parameters:  json.RawMessage(parameters),
		},
	}
}

// Call runs the tool with the raw arguments string of a model's tool call.
func (t *SearchTool) Call(ctx context.Context, arguments string) string {
	return t.RunInput(ctx, arguments)
}

// Search is Run with the error kept separate.
func (t *SearchTool) Search(ctx context.Context, name, uf string) (*Observation, error) {
	name, uf = normalizeArgs(name, uf)

	payload, err := json.Marshal(models.LookupRequest{Name: name, UF: uf})
	if err != nil {
		return nil, fmt.Errorf("unexpected error: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiURL+"/fetch_oab", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("unexpected error: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		req.Header.Set("X-API-Key", t.apiKey)
	}

	slog.Debug("oab_search calling API", "name", name, "uf", uf)
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API connection error: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("API connection error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error: %d - %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out models.LookupResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("unexpected error: %v", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("lookup error: %s", out.Error)
	}

	return &Observation{
		OAB:           orNA(out.OAB),
		Name:          orNA(out.Name),
		UF:            orNA(out.UF),
		Categoria:     orNA(out.Categoria),
		DataInscricao: orNA(out.DataInscricao),
		Situacao:      orNA(out.Situacao),
	}, nil
}

// normalizeArgs repairs the argument shapes language models produce:
// the whole call packed as JSON into name, and a "uf: XX" fragment inside
// the name instead of a separate uf.
func normalizeArgs(name, uf string) (string, string) {
	trimmed := strings.TrimSpace(name)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		var packed map[string]any
		if err := json.Unmarshal([]byte(trimmed), &packed); err == nil {
			if v, ok := packed["name"].(string); ok {
				name = v
			}
			if v, ok := packed["uf"].(string); ok {
				uf = v
			}
		}
	}

	if strings.TrimSpace(uf) == "" {
		if m := reInlineUF.FindStringSubmatchIndex(name); m != nil {
			uf = name[m[2]:m[3]]
			name = strings.Join(strings.Fields(name[:m[0]]+" "+name[m[1]:]), " ")
			name = strings.TrimRight(name, " ,;-")
		}
	}
	return strings.TrimSpace(name), strings.ToUpper(strings.TrimSpace(uf))
}

func orNA(v string) string {
	if v == "" {
		return notAvailable
	}
	return v
}
