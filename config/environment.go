package config

import (
	"os"
	"strconv"

	"github.com/fiszkiapp/fiszki-api/openrouter"
)

type Environment struct {
	IsDevelopment bool
	Domain        string
	CookieSecure  bool
}

var Env Environment

func init() {
	// Get domain from environment variable
	domain := os.Getenv("COOKIE_DOMAIN")

	// If no domain is set, we're in development
	isDev := domain == ""
	if isDev {
		domain = "localhost"
	}

	Env = Environment{
		IsDevelopment: isDev,
		Domain:        domain,
		CookieSecure:  !isDev,
	}
}

const defaultOpenRouterEndpoint = "https://openrouter.ai/api/v1/chat/completions"

// OpenRouterConfig assembles the gateway configuration from the environment.
// Validation happens in openrouter.New, so a missing key is caught at startup.
func OpenRouterConfig() openrouter.Config {
	endpoint := os.Getenv("OPENROUTER_API_ENDPOINT")
	if endpoint == "" {
		endpoint = defaultOpenRouterEndpoint
	}

	model := os.Getenv("OPENROUTER_MODEL")
	if model == "" {
		model = "anthropic/claude-3-sonnet"
	}

	maxTokens := 0
	if v := os.Getenv("OPENROUTER_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			maxTokens = n
		}
	}

	var temperature float32
	if v := os.Getenv("OPENROUTER_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			temperature = float32(f)
		}
	}

	return openrouter.Config{
		APIEndpoint: endpoint,
		APIKey:      os.Getenv("OPENROUTER_API_KEY"),
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		HTTPReferer: os.Getenv("APP_URL"),
		AppTitle:    os.Getenv("APP_NAME"),
	}
}
