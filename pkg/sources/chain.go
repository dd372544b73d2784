package sources

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/agentstation/eventmap/pkg/constants"
	"github.com/agentstation/eventmap/pkg/errors"
	"github.com/agentstation/eventmap/pkg/events"
	"github.com/agentstation/eventmap/pkg/logging"
)

// DefaultTimeout bounds one provider call when a chain sets none.
const DefaultTimeout = constants.ProviderTimeout

// Attempt is the result of calling one provider.
type Attempt struct {
	Provider string
	Records  int
	Duration time.Duration
	// Err is a *errors.SourceUnavailableError when the attempt failed.
	Err error
}

// OK reports whether the attempt produced records.
func (a Attempt) OK() bool {
	return a.Err == nil && a.Records > 0
}

// Outcome is the uniform result of fetching from a source.
type Outcome struct {
	Source ID
	// Provider is the chain member whose records were kept.
	Provider string
	Records  []events.RawRecord
	Attempts []Attempt
}

// OK reports whether some provider produced a non-empty result.
func (o Outcome) OK() bool {
	return o.Provider != "" && len(o.Records) > 0
}

// Err combines the errors of failed attempts; nil when the outcome is OK.
func (o Outcome) Err() error {
	if o.OK() {
		return nil
	}
	var errs []error
	for _, a := range o.Attempts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	if len(errs) == 0 {
		return errors.NewSourceUnavailableError(string(o.Source), "", errors.New("no providers"))
	}
	return joinErrors(errs)
}

// Batch returns the kept records as a batch.
func (o Outcome) Batch() events.Batch {
	return events.Batch{Source: string(o.Source), Provider: o.Provider, Records: o.Records}
}

var _ Source = (*Chain)(nil)

// Chain is an ordered fallback list of providers for one logical source.
type Chain struct {
	id        ID
	timeout   time.Duration
	providers []Provider
}

// NewChain creates a chain. A zero timeout uses DefaultTimeout.
func NewChain(id ID, timeout time.Duration, providers ...Provider) (*Chain, error) {
	if id == "" {
		return nil, errors.NewValidationError("id", id, "cannot be empty")
	}
	if len(providers) == 0 {
		return nil, errors.NewValidationError("providers", string(id), "chain needs at least one provider")
	}
	for _, p := range providers {
		if p == nil {
			return nil, errors.NewValidationError("providers", string(id), "provider cannot be nil")
		}
	}
	if timeout < 0 {
		return nil, errors.NewValidationError("timeout", timeout, "cannot be negative")
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Chain{id: id, timeout: timeout, providers: providers}, nil
}

// ID returns the source ID.
func (c *Chain) ID() ID { return c.id }

// Timeout returns the per-call timeout.
func (c *Chain) Timeout() time.Duration { return c.timeout }

// Providers returns the provider names in fallback order.
func (c *Chain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Fetch tries each provider in order and returns the first non-empty
// result. Errors, timeouts, cancellation, and empty results all advance to
// the next provider. An exhausted chain returns an Outcome with no records.
func (c *Chain) Fetch(ctx context.Context, q Query) Outcome {
	ctx = logging.WithSource(ctx, string(c.id))
	logger := logging.FromContext(ctx)
	out := Outcome{Source: c.id}

	for i, p := range c.providers {
		if err := ctx.Err(); err != nil {
			// the caller gave up; the rest of the chain is unavailable too
			for _, rest := range c.providers[i:] {
				out.Attempts = append(out.Attempts, Attempt{
					Provider: rest.Name(),
					Err:      errors.NewSourceUnavailableError(string(c.id), rest.Name(), canceled(err)),
				})
			}
			break
		}

		attempt, records := c.try(ctx, p, q)
		out.Attempts = append(out.Attempts, attempt)

		if attempt.OK() {
			logger.Debug().
				Str("provider", attempt.Provider).
				Int("records", attempt.Records).
				Dur("duration", attempt.Duration).
				Msg("Provider returned records")
			out.Provider = attempt.Provider
			out.Records = records
			return out
		}

		logger.Warn().
			Err(attempt.Err).
			Str("provider", attempt.Provider).
			Dur("duration", attempt.Duration).
			Msg("Provider failed, trying next in chain")
	}

	logger.Warn().Int("attempts", len(out.Attempts)).Msg("Fallback chain exhausted")
	return out
}

type fetchResult struct {
	records []events.RawRecord
	err     error
}

// try calls one provider under the chain timeout. A provider that ignores
// its context is abandoned when the deadline passes.
func (c *Chain) try(ctx context.Context, p Provider, q Query) (Attempt, []events.RawRecord) {
	name := p.Name()
	callCtx, cancel := context.WithTimeout(logging.WithProvider(ctx, name), c.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetchResult{err: fmt.Errorf("provider panicked: %v", r)}
			}
		}()
		recs, err := p.Fetch(callCtx, q)
		done <- fetchResult{records: recs, err: err}
	}()

	var res fetchResult
	select {
	case res = <-done:
	case <-callCtx.Done():
		res = fetchResult{err: callCtx.Err()}
	}
	attempt := Attempt{Provider: name, Duration: time.Since(start)}

	switch {
	case res.err != nil:
		attempt.Err = errors.NewSourceUnavailableError(string(c.id), name, c.classify(ctx, res.err))
		return attempt, nil
	case len(res.records) == 0:
		attempt.Err = errors.NewSourceUnavailableError(string(c.id), name, errors.ErrEmptyResult)
		return attempt, nil
	}

	records := make([]events.RawRecord, len(res.records))
	for i, r := range res.records {
		if r.Producer == "" {
			r.Producer = name
		}
		records[i] = r
	}
	attempt.Records = len(records)
	return attempt, records
}

// classify turns context errors into the package error types.
func (c *Chain) classify(parent context.Context, err error) error {
	switch {
	case parent.Err() != nil:
		return canceled(parent.Err())
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewTimeoutError("fetch", c.timeout.String(), err.Error())
	default:
		return err
	}
}

// Close closes providers that hold resources.
func (c *Chain) Close() error {
	var errs []error
	for _, p := range c.providers {
		if closer, ok := p.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return joinErrors(errs)
}

func canceled(err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewTimeoutError("fetch", "", err.Error())
	}
	return stderrors.Join(errors.ErrCanceled, err)
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return stderrors.Join(errs...)
}
