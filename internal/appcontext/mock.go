package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/eventmap"
	"github.com/agentstation/eventmap/internal/config"
	"github.com/agentstation/eventmap/internal/sources"
)

// Mock provides a mock implementation of Interface for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	ClientFunc            func() (eventmap.Client, error)
	ClientWithOptionsFunc func(...eventmap.Option) (eventmap.Client, error)
	ChainsFunc            func() []sources.ChainConfig
	CredentialsFunc       func() *config.Credentials
	LoggerFunc            func() *zerolog.Logger
	Format                string
	VerboseOutput         bool
	VersionFunc           func() string
	CommitFunc            func() string
	DateFunc              func() string
	BuiltByFunc           func() string
}

// Client returns a client using the mock function or nil.
func (m *Mock) Client() (eventmap.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc()
	}
	return nil, nil
}

// ClientWithOptions returns a client using the mock function or nil.
func (m *Mock) ClientWithOptions(opts ...eventmap.Option) (eventmap.Client, error) {
	if m.ClientWithOptionsFunc != nil {
		return m.ClientWithOptionsFunc(opts...)
	}
	return nil, nil
}

// Chains returns chains using the mock function or the defaults.
func (m *Mock) Chains() []sources.ChainConfig {
	if m.ChainsFunc != nil {
		return m.ChainsFunc()
	}
	return sources.Defaults()
}

// Credentials returns credentials using the mock function or an empty set.
func (m *Mock) Credentials() *config.Credentials {
	if m.CredentialsFunc != nil {
		return m.CredentialsFunc()
	}
	return &config.Credentials{}
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns Format.
func (m *Mock) OutputFormat() string {
	return m.Format
}

// Verbose returns VerboseOutput.
func (m *Mock) Verbose() bool {
	return m.VerboseOutput
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}

// Ensure Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
