package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	OCR       OCRConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Tool      ToolConfig
	Agent     AgentConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8000
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the per-lookup Chromium instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is an optional proxy URL for the browser and image downloads.
	Proxy string

	// Stealth masks navigator.webdriver and friends on every page.
	Stealth bool // default: false

	// BlockedResourceTypes lists resource types the page never loads.
	// default: ["Font", "Media"]
	BlockedResourceTypes []string
}

// ScraperConfig controls the registry lookup flow.
type ScraperConfig struct {
	// TargetURL is the registry search page.
	TargetURL string // default: "https://cna.oab.org.br/"

	// NavigationTimeout bounds the initial page load.
	NavigationTimeout time.Duration // default: 120s

	// SettleDelay is the fixed pause after submitting the search form.
	SettleDelay time.Duration // default: 5s

	// DetailTimeout bounds the wait for the status image in the detail modal.
	DetailTimeout time.Duration // default: 10s
}

// OCRConfig selects the engine that reads the image-rendered status.
// The status resolver runs whenever an engine is usable.
type OCRConfig struct {
	// Engine is "auto", "tesseract", "ocrspace" or "off". auto tries a
	// local Tesseract, then OCR.space when APIKey is set.
	Engine string // default: "auto"

	// URL is the OCR.space parse endpoint.
	URL    string // default: "https://api.ocr.space/parse/image"
	APIKey string

	Timeout  time.Duration // default: 30s
	Language string        // default: "por"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key or client IP.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per identity.
	Burst int // default: 5

	// MaxConcurrent caps lookups running at once across all callers; each
	// one launches its own Chromium. 0 disables the cap.
	MaxConcurrent int // default: 4
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// ToolConfig controls the oab_search tool's connection to the HTTP API.
type ToolConfig struct {
	APIURL  string        // default: "http://localhost:8000"
	APIKey  string        // sent as X-API-Key when set
	Timeout time.Duration // default: 120s
}

// Provider names accepted by LLM_PROVIDER.
const (
	ProviderOpenAI     = "openai"
	ProviderOllama     = "ollama"
	ProviderCloudflare = "cloudflare"
	ProviderMock       = "mock"
)

// AgentConfig controls the conversational agent and its LLM provider.
type AgentConfig struct {
	Provider string // default: "mock"

	OpenAIAPIKey  string
	OpenAIModel   string // default: "gpt-3.5-turbo"
	OpenAIBaseURL string // default: "https://api.openai.com/v1"

	OllamaModel   string // default: "llama2"
	OllamaBaseURL string // default: "http://localhost:11434"

	CFAccountID string
	CFAPIToken  string
	CFModel     string // default: "@cf/meta/llama-2-7b-chat-int8"

	MaxIterations int           // default: 5
	Timeout       time.Duration // default: 120s
	Verbose       bool          // default: true
}

// Validate downgrades the provider to mock when its credentials are missing.
func (a *AgentConfig) Validate() {
	switch a.Provider {
	case ProviderOpenAI:
		if a.OpenAIAPIKey == "" {
			slog.Warn("OPENAI_API_KEY not set, falling back to mock LLM")
			a.Provider = ProviderMock
		}
	case ProviderCloudflare:
		if a.CFAccountID == "" || a.CFAPIToken == "" {
			slog.Warn("CF_ACCOUNT_ID or CF_API_TOKEN not set, falling back to mock LLM")
			a.Provider = ProviderMock
		}
	case ProviderOllama, ProviderMock:
	default:
		slog.Warn("unknown LLM provider, falling back to mock LLM", "provider", a.Provider)
		a.Provider = ProviderMock
	}
	if a.MaxIterations < 1 {
		a.MaxIterations = 1
	}
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	timeout := envSecondsOr("TIMEOUT", 120*time.Second)
	return &Config{
		Server: ServerConfig{
			Host: envOr("OAB_HOST", "0.0.0.0"),
			Port: envIntOr("OAB_PORT", 8000),
			Mode: envOr("OAB_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("OAB_HEADLESS", true),
			NoSandbox:  envBoolOr("OAB_NO_SANDBOX", false),
			BrowserBin: os.Getenv("OAB_BROWSER_BIN"),
			Proxy:      os.Getenv("OAB_PROXY"),
			Stealth:    envBoolOr("OAB_STEALTH", false),
			BlockedResourceTypes: envSliceOr("OAB_BLOCKED_RESOURCES", []string{
				"Font", "Media",
			}),
		},
		Scraper: ScraperConfig{
			TargetURL:         envOr("OAB_TARGET_URL", "https://cna.oab.org.br/"),
			NavigationTimeout: envDurationOr("OAB_NAV_TIMEOUT", 120*time.Second),
			SettleDelay:       envDurationOr("OAB_SETTLE_DELAY", 5*time.Second),
			DetailTimeout:     envDurationOr("OAB_DETAIL_TIMEOUT", 10*time.Second),
		},
		OCR: OCRConfig{
			Engine:   envOr("OAB_OCR_ENGINE", "auto"),
			URL:      envOr("OAB_OCR_URL", "https://api.ocr.space/parse/image"),
			APIKey:   os.Getenv("OAB_OCR_API_KEY"),
			Timeout:  envDurationOr("OAB_OCR_TIMEOUT", 30*time.Second),
			Language: envOr("OAB_OCR_LANG", "por"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("OAB_AUTH_ENABLED", false),
			APIKeys: envSliceOr("OAB_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("OAB_RATE_RPS", 1.0),
			Burst:             envIntOr("OAB_RATE_BURST", 5),
			MaxConcurrent:     envIntOr("OAB_MAX_CONCURRENT", 4),
		},
		Log: LogConfig{
			Level:  envOr("OAB_LOG_LEVEL", "info"),
			Format: envOr("OAB_LOG_FORMAT", "json"),
		},
		Tool: ToolConfig{
			APIURL:  envOr("SCRAPER_API_URL", "http://localhost:8000"),
			APIKey:  os.Getenv("SCRAPER_API_KEY"),
			Timeout: timeout,
		},
		Agent: AgentConfig{
			Provider:      envOr("LLM_PROVIDER", ProviderMock),
			OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
			OpenAIModel:   envOr("OPENAI_MODEL", "gpt-3.5-turbo"),
			OpenAIBaseURL: envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OllamaModel:   envOr("OLLAMA_MODEL", "llama2"),
			OllamaBaseURL: envOr("OLLAMA_BASE_URL", "http://localhost:11434"),
			CFAccountID:   os.Getenv("CF_ACCOUNT_ID"),
			CFAPIToken:    os.Getenv("CF_API_TOKEN"),
			CFModel:       envOr("CF_MODEL", "@cf/meta/llama-2-7b-chat-int8"),
			MaxIterations: envIntOr("MAX_ITERATIONS", 5),
			Timeout:       timeout,
			Verbose:       envBoolOr("VERBOSE", true),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envSecondsOr accepts either a Go duration ("90s") or a bare number of seconds ("90").
func envSecondsOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
