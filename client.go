// Package eventmap provides the main entry point for the eventmap corporate
// event reconciliation system. It fetches raw event records for a company
// from several unreliable sources and merges them into one deduplicated,
// graded, ranked, time-windowed list.
//
// A Client wraps the reconciliation core with:
// - Fallback chains per logical source, each provider under its own timeout
// - A concurrent fetch phase followed by a deterministic merge phase
// - Hooks for source failures and finished runs
// - Flexible configuration through functional options
//
// Example usage:
//
//	// Create a client over the default chains
//	em, err := eventmap.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer em.Close()
//
//	// Log sources that came back empty
//	em.OnSourceFailed(func(o sources.Outcome) {
//	    log.Printf("source %s unavailable: %v", o.Source, o.Err())
//	})
//
//	result, err := em.Events(ctx, "Acme Corp")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, ev := range result.Events {
//	    fmt.Printf("%s %s [%s]\n", ev.Date, ev.Title, ev.Confidence)
//	}
//
//	// Configure with custom options
//	em, err = eventmap.New(
//	    eventmap.WithRetentionYears(3),
//	    eventmap.WithConcurrency(2),
//	    eventmap.WithChains(financial, news),
//	)
package eventmap

import (
	"context"
	"time"

	"github.com/agentstation/eventmap/pkg/events"
	"github.com/agentstation/eventmap/pkg/logging"
	"github.com/agentstation/eventmap/pkg/reconciler"
	"github.com/agentstation/eventmap/pkg/sources"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Client fetches and reconciles corporate events.
type Client interface {

	// Events runs the full pipeline for a company
	Events(ctx context.Context, company string, opts ...EventsOption) (*Result, error)

	// Reconcile runs the merge phase alone over pre-collected batches
	Reconcile(ctx context.Context, company string, batches []events.Batch) (*Result, error)

	// Sources returns the configured sources in merge order
	Sources() []sources.Source

	// Hooks provides access to event callback registration
	Hooks

	// Close releases provider resources
	Close() error
}

// client is the internal implementation of the Client interface.
type client struct {

	// options are the configured options for the client
	options *options

	// sources are fetched concurrently and merged in insertion order
	sources *sources.Sources

	// reconciler runs the merge phase
	reconciler reconciler.Reconciler

	// hooks for source outcomes and finished runs
	hooks *hooks
}

// New creates a new Client instance with the given options.
func New(opts ...Option) (Client, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	rec, err := reconciler.New(options.reconcilerOptions()...)
	if err != nil {
		return nil, err
	}

	chains := options.chains
	if chains == nil {
		if chains, err = defaultChains(); err != nil {
			return nil, err
		}
	}
	srcs := sources.NewSources()
	for _, ch := range chains {
		srcs.Set(ch)
	}

	logging.Debug().
		Int("chains", len(chains)).
		Int("concurrency", options.concurrency).
		Int("retention_years", options.retentionYears).
		Msg("Client created")

	return &client{
		options:    options,
		sources:    srcs,
		reconciler: rec,
		hooks:      newHooks(),
	}, nil
}

// Sources returns the configured sources in merge order.
func (c *client) Sources() []sources.Source {
	return c.sources.List()
}

// Close closes every source and returns the combined error.
func (c *client) Close() error {
	return c.sources.Close()
}

func (c *client) now() time.Time {
	return c.options.now()
}
