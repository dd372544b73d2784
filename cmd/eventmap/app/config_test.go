package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/eventmap/internal/sources"
	"github.com/agentstation/eventmap/pkg/events"
	pkgsources "github.com/agentstation/eventmap/pkg/sources"
)

// isolate points HOME at an empty directory and resets viper afterwards.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	viper.Reset()
	t.Cleanup(viper.Reset)
}

// TestLoadConfig verifies basic config loading.
func TestLoadConfig(t *testing.T) {
	isolate(t)

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 5, config.RetentionYears)
	assert.True(t, config.RetainUnknownDates)
	assert.Equal(t, 4, config.Concurrency)
	assert.Equal(t, sources.Defaults(), config.Chains)
	assert.Equal(t, "auto", config.LogFormat)
	assert.NotNil(t, config.Credentials)
}

// TestLoadConfigFile verifies overlaying chains and trust markers from a file.
func TestLoadConfigFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "eventmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
retention_years: 3
retain_unknown_dates: false
trust:
  a: ["acme wire"]
sources:
  news:
    providers: [google_news]
    timeout: 5s
  archive:
    providers: ["local:/tmp/archive.json"]
`), 0o600))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, config.ConfigFile)
	assert.Equal(t, 3, config.RetentionYears)
	assert.False(t, config.RetainUnknownDates)

	require.Len(t, config.Chains, 4)
	news := config.Chains[1]
	assert.Equal(t, pkgsources.NewsID, news.ID)
	assert.Equal(t, []string{"google_news"}, news.Providers)
	assert.Equal(t, 5*time.Second, news.Timeout)

	archive := config.Chains[3]
	assert.Equal(t, pkgsources.ID("archive"), archive.ID)
	assert.Equal(t, 20*time.Second, archive.Timeout)

	table, err := config.TrustTable()
	require.NoError(t, err)
	require.NotNil(t, table)
	assert.Equal(t, events.TierA, table.Classify("Acme Wire Service").Tier)
	assert.Equal(t, events.TierA, table.Classify("Reuters").Tier)
}

// TestLoadConfigMissingFile verifies an explicit config file must exist.
func TestLoadConfigMissingFile(t *testing.T) {
	isolate(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// TestConfig_EnvironmentVariables verifies environment variable loading.
func TestConfig_EnvironmentVariables(t *testing.T) {
	isolate(t)
	t.Setenv("RETENTION_YEARS", "2")
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("FINNHUB_API_KEY", "fh-key")

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 2, config.RetentionYears)
	assert.Equal(t, "or-key", config.Credentials.OpenRouter)
	assert.Equal(t, "fh-key", config.Credentials.Finnhub)
}

// TestConfig_Validate verifies rejected values.
func TestConfig_Validate(t *testing.T) {
	assert.Error(t, (&Config{RetentionYears: -1, Concurrency: 1}).Validate())
	assert.Error(t, (&Config{Concurrency: 0}).Validate())
	assert.NoError(t, (&Config{RetentionYears: 0, Concurrency: 1}).Validate())
}

// TestConfig_UpdateFromFlags verifies flags win over loaded values.
func TestConfig_UpdateFromFlags(t *testing.T) {
	c := &Config{Format: "yaml", LogLevel: ""}
	c.UpdateFromFlags(true, false, true, "", "trace")
	assert.True(t, c.Verbose)
	assert.True(t, c.NoColor)
	assert.Equal(t, "yaml", c.Format)
	assert.Equal(t, "trace", c.LogLevel)

	c.UpdateFromFlags(false, false, false, "json", "")
	assert.Equal(t, "json", c.Format)
	assert.Equal(t, "trace", c.LogLevel)
}

// TestTrustTableEmpty verifies no table is built without extra markers.
func TestTrustTableEmpty(t *testing.T) {
	table, err := (&Config{}).TrustTable()
	require.NoError(t, err)
	assert.Nil(t, table)
}
