// Package config reads settings and credentials through viper.
package config

import (
	"os"

	"github.com/spf13/viper"
)

// Credential environment variables.
const (
	FinnhubKeyEnv         = "FINNHUB_API_KEY"
	OpenRouterKeyEnv      = "OPEN_ROUTER_KEY"
	OpenRouterKeyAliasEnv = "OPENROUTER_API_KEY"
	GeminiKeyEnv          = "GEMINI_API_KEY"
)

// GetString is a helper to get string values from Viper.
// It checks both OS environment variables and Viper configuration.
func GetString(key string) string {
	osValue := os.Getenv(key)
	viperValue := viper.GetString(key)

	if viperValue == "" && osValue != "" {
		return osValue
	}
	return viperValue
}

// Credentials holds the API keys providers need. It is read once and passed
// into provider constructors.
type Credentials struct {
	Finnhub    string
	OpenRouter string
	Gemini     string
}

// LoadCredentials reads credentials from viper and the environment.
func LoadCredentials() *Credentials {
	openRouter := GetString(OpenRouterKeyEnv)
	if openRouter == "" {
		openRouter = GetString(OpenRouterKeyAliasEnv)
	}
	return &Credentials{
		Finnhub:    GetString(FinnhubKeyEnv),
		OpenRouter: openRouter,
		Gemini:     GetString(GeminiKeyEnv),
	}
}

// Has reports whether the key backing a credential env var is set.
func (c *Credentials) Has(env string) bool {
	if c == nil {
		return false
	}
	switch env {
	case FinnhubKeyEnv:
		return c.Finnhub != ""
	case OpenRouterKeyEnv, OpenRouterKeyAliasEnv:
		return c.OpenRouter != ""
	case GeminiKeyEnv:
		return c.Gemini != ""
	}
	return false
}
