package app

import (
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/eventmap/internal/config"
	"github.com/agentstation/eventmap/internal/sources"
	"github.com/agentstation/eventmap/pkg/authority"
	"github.com/agentstation/eventmap/pkg/constants"
	"github.com/agentstation/eventmap/pkg/errors"
	"github.com/agentstation/eventmap/pkg/events"
	pkgsources "github.com/agentstation/eventmap/pkg/sources"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Pipeline configuration
	RetentionYears     int
	RetainUnknownDates bool
	Concurrency        int
	TrustA             []string
	TrustB             []string
	Chains             []sources.ChainConfig

	// Credentials read once at startup
	Credentials *config.Credentials

	// Logging configuration; LogLevel is the --log-level flag, LOG_LEVEL
	// is consulted after the -v/-q shortcuts
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (path, or ~/.eventmap.yaml or ./.eventmap.yaml)
// 5. Defaults
func LoadConfig(path string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	bindAPIKeys()
	setDefaults()

	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "cannot read "+path, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".eventmap")
		// a missing default config file is fine
		_ = viper.ReadInConfig()
	}

	chains, err := loadChains()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),
		Format:  viper.GetString("format"),

		ConfigFile: viper.ConfigFileUsed(),

		RetentionYears:     viper.GetInt("retention_years"),
		RetainUnknownDates: viper.GetBool("retain_unknown_dates"),
		Concurrency:        viper.GetInt("concurrency"),
		TrustA:             viper.GetStringSlice("trust.a"),
		TrustB:             viper.GetStringSlice("trust.b"),
		Chains:             chains,

		Credentials: config.LoadCredentials(),

		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("retention_years", constants.DefaultRetentionYears)
	viper.SetDefault("retain_unknown_dates", true)
	viper.SetDefault("concurrency", constants.MaxConcurrentSources)
}

// Validate checks values that would make the pipeline misbehave.
func (c *Config) Validate() error {
	if c.RetentionYears < 0 {
		return &errors.ConfigError{Component: "retention_years", Message: "cannot be negative"}
	}
	if c.Concurrency < 1 {
		return &errors.ConfigError{Component: "concurrency", Message: "must be at least 1"}
	}
	return nil
}

// TrustTable returns the default trust markers plus any configured ones.
// It returns nil when nothing was added.
func (c *Config) TrustTable() (*authority.Table, error) {
	if len(c.TrustA) == 0 && len(c.TrustB) == 0 {
		return nil, nil
	}
	markers := authority.DefaultMarkers()
	for _, p := range c.TrustA {
		markers = append(markers, authority.Marker{Pattern: p, Tier: events.TierA})
	}
	for _, p := range c.TrustB {
		markers = append(markers, authority.Marker{Pattern: p, Tier: events.TierB})
	}
	t, err := authority.New(markers...)
	if err != nil {
		return nil, errors.NewConfigError("trust", "invalid marker", err)
	}
	return t, nil
}

// loadChains overlays sources.<id>.providers and sources.<id>.timeout on the
// default chains. Unknown IDs become new chains after the defaults, sorted.
func loadChains() ([]sources.ChainConfig, error) {
	configured := make(map[string]sources.ChainConfig)
	if err := viper.UnmarshalKey("sources", &configured); err != nil {
		return nil, errors.NewConfigError("sources", "invalid chain configuration", err)
	}

	chains := sources.Defaults()
	seen := make(map[string]bool, len(chains))
	for i, ch := range chains {
		id := string(ch.ID)
		seen[id] = true
		over, ok := configured[id]
		if !ok {
			continue
		}
		if len(over.Providers) > 0 {
			chains[i].Providers = over.Providers
		}
		if over.Timeout > 0 {
			chains[i].Timeout = over.Timeout
		}
	}

	var extra []string
	for id := range configured {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		ch := configured[id]
		ch.ID = pkgsources.ID(id)
		if ch.Timeout == 0 {
			ch.Timeout = constants.ProviderTimeout
		}
		chains = append(chains, ch)
	}
	return chains, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
func loadEnvFiles() {
	// Load never overrides a variable that is already set, so .env.local
	// goes first to take precedence over .env
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// bindAPIKeys explicitly binds the credential environment variables to Viper.
func bindAPIKeys() {
	for _, key := range []string{
		config.FinnhubKeyEnv,
		config.OpenRouterKeyEnv,
		config.OpenRouterKeyAliasEnv,
		config.GeminiKeyEnv,
	} {
		_ = viper.BindEnv(key)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
