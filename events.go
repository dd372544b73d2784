package eventmap

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/eventmap/pkg/errors"
	"github.com/agentstation/eventmap/pkg/events"
	"github.com/agentstation/eventmap/pkg/export"
	"github.com/agentstation/eventmap/pkg/logging"
	"github.com/agentstation/eventmap/pkg/sources"
)

// Events fetches from every chain and reconciles the batches. Source
// failures never fail the run; the error return is reserved for invalid
// input and is a *errors.ValidationError.
func (c *client) Events(ctx context.Context, company string, opts ...EventsOption) (*Result, error) {
	// Step 0: Set context
	if ctx == nil {
		ctx = context.Background()
	}

	// Step 1: Validate input
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, errors.NewValidationError("company", company, "cannot be empty")
	}
	eo := &eventsOptions{}
	for _, opt := range opts {
		opt(eo)
	}

	start := c.now()
	ctx = logging.WithCompany(ctx, company)
	ctx = logging.WithOperation(ctx, "events")
	logger := logging.FromContext(ctx)

	// Step 2: Fetch from all chains
	q := sources.Query{
		Company: company,
		Symbol:  eo.symbol,
		Years:   c.options.retentionYears,
		Now:     start,
	}
	outcomes := fetch(ctx, c.sources.List(), q, c.options.concurrency)
	fetched := c.now()
	c.hooks.triggerOutcomes(outcomes)

	// Step 3: Reconcile in chain order
	batches := make([]events.Batch, 0, len(outcomes))
	for _, o := range outcomes {
		if o.OK() {
			batches = append(batches, o.Batch())
		}
	}
	result := c.reconcile(ctx, company, batches)
	result.Outcomes = outcomes

	stats := &result.Stats
	for _, o := range outcomes {
		stats.Attempts += len(o.Attempts)
		if o.OK() {
			stats.Sources++
		} else {
			stats.FailedSources++
			result.Warnings = append(result.Warnings, "source "+string(o.Source)+" unavailable")
		}
	}
	stats.FetchDuration = fetched.Sub(start)
	stats.Duration = c.now().Sub(start)

	// Step 4: Log summary
	if stats.Sources == 0 && len(outcomes) > 0 {
		logger.Warn().Int("chains", len(outcomes)).Msg("No source returned records")
	}
	logger.Info().
		Int("events", len(result.Events)).
		Int("verified", result.VerifiedCount()).
		Int("sources", stats.Sources).
		Int("failed_sources", stats.FailedSources).
		Dur("duration", stats.Duration).
		Msg("Events reconciled")

	c.hooks.triggerReconciled(result)
	return result, nil
}

// Reconcile runs the merge phase over batches collected elsewhere.
func (c *client) Reconcile(ctx context.Context, company string, batches []events.Batch) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, errors.NewValidationError("company", company, "cannot be empty")
	}
	ctx = logging.WithCompany(ctx, company)
	ctx = logging.WithOperation(ctx, "reconcile")

	start := c.now()
	result := c.reconcile(ctx, company, batches)
	result.Stats.Sources = len(batches)
	result.Stats.Duration = c.now().Sub(start)

	c.hooks.triggerReconciled(result)
	return result, nil
}

func (c *client) reconcile(ctx context.Context, company string, batches []events.Batch) *Result {
	rr := c.reconciler.Reconcile(ctx, batches)
	return &Result{
		Company:    company,
		Events:     rr.Events,
		Document:   export.NewDocument(company, rr.Events, c.now()),
		Stats:      Stats{Reconcile: rr.Metadata.Stats},
		Provenance: rr.Provenance,
		Warnings:   rr.Warnings,
	}
}

// fetch runs every source, at most limit at a time. Outcome i belongs to
// source i whatever order the sources finish in.
func fetch(ctx context.Context, srcs []sources.Source, q sources.Query, limit int) []sources.Outcome {
	logger := logging.FromContext(ctx)
	outcomes := make([]sources.Outcome, len(srcs))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, src := range srcs {
		g.Go(func() error {
			logger.Debug().Str("source", string(src.ID())).Msg("Fetching")
			started := time.Now()
			outcomes[i] = src.Fetch(ctx, q)
			logger.Debug().
				Str("source", string(src.ID())).
				Str("provider", outcomes[i].Provider).
				Int("records", len(outcomes[i].Records)).
				Dur("duration", time.Since(started)).
				Msg("Fetched")
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}
