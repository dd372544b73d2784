package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestGetStringPrefersViper(t *testing.T) {
	t.Setenv("EVENTMAP_TEST_KEY", "from-env")
	assert.Equal(t, "from-env", GetString("EVENTMAP_TEST_KEY"))

	viper.Set("EVENTMAP_TEST_KEY", "from-viper")
	t.Cleanup(viper.Reset)
	assert.Equal(t, "from-viper", GetString("EVENTMAP_TEST_KEY"))
}

func TestLoadCredentials(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv(FinnhubKeyEnv, "fh")
	t.Setenv(OpenRouterKeyEnv, "")
	t.Setenv(OpenRouterKeyAliasEnv, "or")
	t.Setenv(GeminiKeyEnv, "")

	creds := LoadCredentials()
	assert.Equal(t, "fh", creds.Finnhub)
	assert.Equal(t, "or", creds.OpenRouter)
	assert.True(t, creds.Has(FinnhubKeyEnv))
	assert.True(t, creds.Has(OpenRouterKeyEnv))
	assert.False(t, creds.Has(GeminiKeyEnv))
	assert.False(t, creds.Has("UNKNOWN"))

	var none *Credentials
	assert.False(t, none.Has(FinnhubKeyEnv))
}
