// Package registry maps provider names to constructors. Provider packages
// register themselves in init().
package registry

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/agentstation/eventmap/internal/config"
	"github.com/agentstation/eventmap/pkg/errors"
	"github.com/agentstation/eventmap/pkg/sources"
)

// Spec is everything a factory needs to build one provider.
type Spec struct {
	// Name is the full configured name, e.g. "openrouter:deepseek/deepseek-chat".
	Name string
	// Kind is the part before the first colon.
	Kind string
	// Arg is the part after the first colon (a model or a path).
	Arg string

	Credentials *config.Credentials
	// HTTPClient and BaseURL override the upstream, for tests.
	HTTPClient *http.Client
	BaseURL    string
}

// Factory builds a provider from a spec.
type Factory func(Spec) (sources.Provider, error)

// Entry describes a registered provider kind.
type Entry struct {
	Kind string
	// Credential is the env var holding the key the kind needs; empty when
	// none is required.
	Credential string
	// NeedsArg reports whether the name must carry ":<arg>".
	NeedsArg bool
	New      Factory
}

var (
	mu      sync.RWMutex
	entries = make(map[string]Entry)
)

// Register adds a provider kind. Registering a kind twice replaces it.
func Register(e Entry) {
	mu.Lock()
	defer mu.Unlock()
	entries[e.Kind] = e
}

// Parse splits a provider name into kind and argument.
func Parse(name string) (kind, arg string) {
	kind, arg, _ = strings.Cut(strings.TrimSpace(name), ":")
	return strings.ToLower(kind), arg
}

// Lookup returns the entry for a provider name.
func Lookup(name string) (Entry, bool) {
	kind, _ := Parse(name)
	mu.RLock()
	defer mu.RUnlock()
	e, ok := entries[kind]
	return e, ok
}

// New builds the provider a name refers to.
func New(name string, creds *config.Credentials, opts ...Option) (sources.Provider, error) {
	e, ok := Lookup(name)
	if !ok {
		return nil, &errors.NotFoundError{Resource: "provider", ID: name}
	}
	kind, arg := Parse(name)
	if e.NeedsArg && arg == "" {
		return nil, errors.NewValidationError("provider", name, fmt.Sprintf("%s providers need a \"%s:<arg>\" name", kind, kind))
	}

	spec := Spec{Name: strings.TrimSpace(name), Kind: kind, Arg: arg, Credentials: creds}
	for _, opt := range opts {
		opt(&spec)
	}
	if spec.Credentials == nil {
		spec.Credentials = &config.Credentials{}
	}
	return e.New(spec)
}

// Option adjusts a Spec before the factory sees it.
type Option func(*Spec)

// WithHTTPClient sets the HTTP client handed to the provider.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Spec) { s.HTTPClient = hc }
}

// WithBaseURL points the provider at a different upstream.
func WithBaseURL(url string) Option {
	return func(s *Spec) { s.BaseURL = url }
}

// Kinds returns the registered kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(entries))
	for k := range entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// HasCredentials reports whether the credentials a provider name needs are
// present. Names of unknown kinds report false.
func HasCredentials(name string, creds *config.Credentials) bool {
	e, ok := Lookup(name)
	if !ok {
		return false
	}
	return e.Credential == "" || creds.Has(e.Credential)
}
