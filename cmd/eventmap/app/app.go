// Package app provides the application context and dependency management
// for the eventmap CLI. It centralizes configuration, dependency injection,
// and lifecycle management.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/eventmap"
	"github.com/agentstation/eventmap/internal/appcontext"
	"github.com/agentstation/eventmap/internal/config"
	"github.com/agentstation/eventmap/internal/sources"
	"github.com/agentstation/eventmap/pkg/errors"
)

// Ensure App implements appcontext.Interface at compile time.
var _ appcontext.Interface = (*App)(nil)

// App represents the eventmap application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Client instance (lazy-initialized, singleton)
	mu     sync.RWMutex
	client eventmap.Client
}

// New creates a new App instance with the given version information.
// The app is initialized with configuration from the environment and the
// default config file, which can be customized using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	cfg, err := LoadConfig("")
	if err != nil {
		return nil, err
	}
	app.config = cfg

	logger := NewLogger(cfg)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Verbose reports whether verbose output was requested.
func (a *App) Verbose() bool {
	return a.config.Verbose
}

// Chains returns the configured fallback chains.
func (a *App) Chains() []sources.ChainConfig {
	return a.config.Chains
}

// Credentials returns the API keys read at startup.
func (a *App) Credentials() *config.Credentials {
	return a.config.Credentials
}

// Client returns the client instance, creating it lazily if needed.
// This is thread-safe and ensures only one instance is created.
func (a *App) Client() (eventmap.Client, error) {
	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.client != nil {
		return a.client, nil
	}

	c, err := a.ClientWithOptions()
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

// ClientWithOptions returns a new client built from the configuration
// followed by opts. Later options win, so a command can override the
// configured chains or window. The caller closes it.
func (a *App) ClientWithOptions(opts ...eventmap.Option) (eventmap.Client, error) {
	base, err := a.buildClientOptions()
	if err != nil {
		return nil, err
	}
	c, err := eventmap.New(append(base, opts...)...)
	if err != nil {
		return nil, errors.NewConfigError("client", "cannot create client", err)
	}
	return c, nil
}

// Shutdown performs graceful shutdown of the application.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	c := a.client
	a.client = nil
	a.mu.Unlock()

	if c != nil {
		if err := c.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close providers during shutdown")
			return err
		}
	}
	return nil
}

// buildClientOptions constructs client options from the app configuration.
func (a *App) buildClientOptions() ([]eventmap.Option, error) {
	cfg := a.config
	opts := []eventmap.Option{
		eventmap.WithRetentionYears(cfg.RetentionYears),
		eventmap.WithRetainUnknownDates(cfg.RetainUnknownDates),
		eventmap.WithConcurrency(cfg.Concurrency),
	}

	trust, err := cfg.TrustTable()
	if err != nil {
		return nil, err
	}
	if trust != nil {
		opts = append(opts, eventmap.WithTrustTable(trust))
	}

	chains, err := sources.Build(cfg.Chains, cfg.Credentials)
	if err != nil {
		return nil, err
	}
	opts = append(opts, eventmap.WithChains(chains...))

	return opts, nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a custom client instance (useful for testing).
func WithClient(c eventmap.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}
