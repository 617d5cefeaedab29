package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/oab/config"
	"github.com/use-agent/oab/models"
)

func TestClientChat_ToolCall(t *testing.T) {
	var got chatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"","tool_calls":[
			{"id":"call_1","type":"function","function":{"name":"oab_search","arguments":"{\"name\":\"Maria\",\"uf\":\"SP\"}"}}]}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL+"/v1/", "sk-test", "gpt-test")
	tools := []ToolSpec{{Type: "function", Function: FunctionSpec{Name: "oab_search", Parameters: json.RawMessage(`{"type":"object"}`)}}}

	msg, err := c.Chat(context.Background(), []Message{{Role: RoleUser, Content: "oi"}}, tools)
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "gpt-test", got.Model)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "oab_search", got.Tools[0].Function.Name)

	assert.Equal(t, RoleAssistant, msg.Role)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "call_1", msg.ToolCalls[0].ID)
	assert.JSONEq(t, `{"name":"Maria","uf":"SP"}`, msg.ToolCalls[0].Function.Arguments)
}

func TestClientChat_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, models.ErrCodeLLMAuthFailure},
		{"rate limited", http.StatusTooManyRequests, `{}`, models.ErrCodeLLMRateLimited},
		{"server error", http.StatusBadGateway, `oops`, models.ErrCodeLLMFailure},
		{"no choices", http.StatusOK, `{"choices":[]}`, models.ErrCodeLLMFailure},
		{"bad json", http.StatusOK, `{`, models.ErrCodeLLMFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(nil, srv.URL, "", "m").Chat(context.Background(), nil, nil)
			var se *models.ScrapeError
			require.True(t, errors.As(err, &se), "%v", err)
			assert.Equal(t, tt.code, se.Code)
		})
	}
}

func TestNew_Providers(t *testing.T) {
	m, err := New(config.AgentConfig{Provider: config.ProviderMock})
	require.NoError(t, err)
	assert.IsType(t, &Mock{}, m)

	m, err = New(config.AgentConfig{Provider: config.ProviderOllama, OllamaBaseURL: "http://ollama:11434/", OllamaModel: "llama2"})
	require.NoError(t, err)
	require.IsType(t, &Client{}, m)
	assert.Equal(t, "http://ollama:11434/v1", m.(*Client).baseURL)

	m, err = New(config.AgentConfig{Provider: config.ProviderCloudflare, CFAccountID: "acc", CFAPIToken: "tok", CFModel: "@cf/x"})
	require.NoError(t, err)
	assert.Equal(t, "https://api.cloudflare.com/client/v4/accounts/acc/ai/v1", m.(*Client).baseURL)
	assert.Equal(t, "tok", m.(*Client).apiKey)

	_, err = New(config.AgentConfig{Provider: "bard"})
	assert.Error(t, err)
}
