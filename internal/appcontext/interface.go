// Package appcontext provides the shared application context interface
// used by all commands. Commands accept this interface rather than the
// concrete App type so they can be tested with Mock.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/eventmap"
	"github.com/agentstation/eventmap/internal/config"
	"github.com/agentstation/eventmap/internal/sources"
)

// Interface defines the application context interface that commands need.
type Interface interface {
	// Client returns the default client, creating it lazily if needed.
	Client() (eventmap.Client, error)

	// ClientWithOptions creates a new client from the configured options
	// followed by opts. The caller closes it.
	ClientWithOptions(...eventmap.Option) (eventmap.Client, error)

	// Chains returns the configured fallback chains in merge order.
	Chains() []sources.ChainConfig

	// Credentials returns the API keys read at startup.
	Credentials() *config.Credentials

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml, csv).
	OutputFormat() string

	// Verbose reports whether -v was given.
	Verbose() bool

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
