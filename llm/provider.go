package llm

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/use-agent/oab/config"
)

const cloudflareAPI = "https://api.cloudflare.com/client/v4/accounts/%s/ai/v1"

// New returns the model selected by cfg.Provider. Call cfg.Validate first
// so providers with missing credentials have already fallen back to mock.
func New(cfg config.AgentConfig) (Model, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewClient(httpClient, cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	case config.ProviderOllama:
		base := strings.TrimRight(cfg.OllamaBaseURL, "/") + "/v1"
		return NewClient(httpClient, base, "", cfg.OllamaModel), nil
	case config.ProviderCloudflare:
		base := fmt.Sprintf(cloudflareAPI, cfg.CFAccountID)
		return NewClient(httpClient, base, cfg.CFAPIToken, cfg.CFModel), nil
	case config.ProviderMock, "":
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
