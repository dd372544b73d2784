// Package sources defines the provider and fallback-chain abstractions the
// reconciliation pipeline fetches raw event records through.
//
// A Provider is one way of obtaining records (an API endpoint, a model, a
// file). A Chain groups interchangeable providers for one logical source
// and tries them in order until one returns a non-empty result.
//
// Example usage:
//
//	chain, err := sources.NewChain("news", 20*time.Second, yahoo, googleNews)
//	if err != nil {
//	    return err
//	}
//	outcome := chain.Fetch(ctx, sources.Query{Company: "Acme Corp", Years: 5})
//	if !outcome.OK() {
//	    // every provider failed or returned nothing
//	}
package sources

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/agentstation/eventmap/pkg/events"
)

// ID identifies a logical source (one fallback chain).
type ID string

// String returns the string representation of a source ID.
func (id ID) String() string {
	return string(id)
}

// Common source IDs.
const (
	FinancialID ID = "financial"
	NewsID      ID = "news"
	LLMID       ID = "llm"
)

// Query describes what to fetch.
type Query struct {
	Company string
	// Symbol is the ticker when known; providers that need one fall back to Company.
	Symbol string
	// Years is the retention window the caller will apply.
	Years int
	// Now anchors relative date ranges.
	Now time.Time
}

// Ticker returns Symbol, or Company when no symbol was given.
func (q Query) Ticker() string {
	if q.Symbol != "" {
		return q.Symbol
	}
	return q.Company
}

// Since returns January 1 of the first year inside the window.
func (q Query) Since() time.Time {
	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}
	return time.Date(now.Year()-q.Years, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// Provider fetches raw records for a query. Implementations must honor ctx
// cancellation and must not retain the returned slice.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]events.RawRecord, error)
}

// FetchFunc is the signature of Provider.Fetch.
type FetchFunc func(ctx context.Context, q Query) ([]events.RawRecord, error)

type funcProvider struct {
	name string
	fn   FetchFunc
}

func (p *funcProvider) Name() string { return p.name }

func (p *funcProvider) Fetch(ctx context.Context, q Query) ([]events.RawRecord, error) {
	return p.fn(ctx, q)
}

// NewProviderFunc adapts a function to a Provider.
func NewProviderFunc(name string, fn FetchFunc) Provider {
	return &funcProvider{name: name, fn: fn}
}

// Source is anything the pipeline can fetch one batch from.
type Source interface {
	ID() ID
	Fetch(ctx context.Context, q Query) Outcome
	io.Closer
}

// Sources is a thread-safe, insertion-ordered container of sources.
type Sources struct {
	mu      sync.RWMutex
	order   []ID
	sources map[ID]Source
}

// NewSources creates a new Sources instance.
func NewSources(srcs ...Source) *Sources {
	s := &Sources{sources: make(map[ID]Source)}
	for _, src := range srcs {
		s.Set(src)
	}
	return s
}

// Get returns a source by ID.
func (s *Sources) Get(id ID) (Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, found := s.sources[id]
	return src, found
}

// Set adds a source, replacing any source with the same ID in place.
func (s *Sources) Set(src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sources[src.ID()]; !exists {
		s.order = append(s.order, src.ID())
	}
	s.sources[src.ID()] = src
}

// Len returns the number of sources.
func (s *Sources) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sources)
}

// List returns the sources in insertion order.
func (s *Sources) List() []Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Source, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.sources[id])
	}
	return out
}

// IDs returns the source IDs in insertion order.
func (s *Sources) IDs() []ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ID(nil), s.order...)
}

// Close closes every source and returns the combined error.
func (s *Sources) Close() error {
	var errs []error
	for _, src := range s.List() {
		if err := src.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return joinErrors(errs)
}
