package eventmap

import (
	"time"

	"github.com/agentstation/eventmap/internal/config"
	isources "github.com/agentstation/eventmap/internal/sources"
	"github.com/agentstation/eventmap/pkg/authority"
	"github.com/agentstation/eventmap/pkg/constants"
	"github.com/agentstation/eventmap/pkg/errors"
	"github.com/agentstation/eventmap/pkg/normalize"
	"github.com/agentstation/eventmap/pkg/reconciler"
	"github.com/agentstation/eventmap/pkg/sources"
)

// Option is a function that configures a Client instance.
type Option func(*options) error

// options holds the client configuration.
type options struct {
	chains         []*sources.Chain
	concurrency    int
	retentionYears int
	retainUnknown  bool
	provenance     bool
	trust          *authority.Table
	mappings       map[string]normalize.Mapping
	mappingOrder   []string
	normalizer     *normalize.Normalizer
	now            func() time.Time
}

func defaults() *options {
	return &options{
		concurrency:    constants.MaxConcurrentSources,
		retentionYears: constants.DefaultRetentionYears,
		retainUnknown:  true,
		provenance:     true,
		mappings:       make(map[string]normalize.Mapping),
		now:            time.Now,
	}
}

func newOptions(opts ...Option) (*options, error) {
	o := defaults()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if len(o.mappingOrder) > 0 {
		nopts := make([]normalize.Option, 0, len(o.mappingOrder))
		for _, producer := range o.mappingOrder {
			nopts = append(nopts, normalize.WithMapping(producer, o.mappings[producer]))
		}
		n, err := normalize.New(nopts...)
		if err != nil {
			return nil, err
		}
		o.normalizer = n
	}
	return o, nil
}

// reconcilerOptions translates client options for the merge phase.
func (o *options) reconcilerOptions() []reconciler.Option {
	opts := []reconciler.Option{
		reconciler.WithRetentionYears(o.retentionYears),
		reconciler.WithRetainUnknownDates(o.retainUnknown),
		reconciler.WithProvenance(o.provenance),
		reconciler.WithClock(o.now),
	}
	if o.trust != nil {
		opts = append(opts, reconciler.WithTrustTable(o.trust))
	}
	if o.normalizer != nil {
		opts = append(opts, reconciler.WithNormalizer(o.normalizer))
	}
	return opts
}

// defaultChains builds the default chains with credentials from the environment.
func defaultChains() ([]*sources.Chain, error) {
	return isources.Build(isources.Defaults(), config.LoadCredentials())
}

// WithChains sets the fallback chains. Batches merge in the given order.
// Chain IDs must be unique.
func WithChains(chains ...*sources.Chain) Option {
	return func(o *options) error {
		seen := make(map[sources.ID]bool, len(chains))
		for _, ch := range chains {
			if ch == nil {
				return &errors.ValidationError{Field: "chains", Message: "chain cannot be nil"}
			}
			if seen[ch.ID()] {
				return errors.NewValidationError("chains", ch.ID(), "duplicate source ID")
			}
			seen[ch.ID()] = true
		}
		o.chains = append([]*sources.Chain{}, chains...)
		return nil
	}
}

// WithConcurrency limits how many chains fetch at once.
func WithConcurrency(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return errors.NewValidationError("concurrency", n, "must be at least 1")
		}
		o.concurrency = n
		return nil
	}
}

// WithRetentionYears sets the width of the time window in years.
func WithRetentionYears(years int) Option {
	return func(o *options) error {
		if years < 0 {
			return errors.NewValidationError("retention_years", years, "cannot be negative")
		}
		o.retentionYears = years
		return nil
	}
}

// WithRetainUnknownDates controls whether undated events survive the window.
func WithRetainUnknownDates(retain bool) Option {
	return func(o *options) error {
		o.retainUnknown = retain
		return nil
	}
}

// WithProvenance enables or disables provenance tracking.
func WithProvenance(enabled bool) Option {
	return func(o *options) error {
		o.provenance = enabled
		return nil
	}
}

// WithTrustTable sets the trust markers used to grade sources.
func WithTrustTable(t *authority.Table) Option {
	return func(o *options) error {
		if t == nil {
			return &errors.ValidationError{Field: "trust", Message: "cannot be nil"}
		}
		o.trust = t
		return nil
	}
}

// WithMapping declares the field mapping for one producer.
func WithMapping(producer string, m normalize.Mapping) Option {
	return func(o *options) error {
		if producer == "" {
			return &errors.ValidationError{Field: "producer", Message: "cannot be empty"}
		}
		if _, exists := o.mappings[producer]; !exists {
			o.mappingOrder = append(o.mappingOrder, producer)
		}
		o.mappings[producer] = m
		return nil
	}
}

// WithClock sets the clock used for the time window and timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return &errors.ValidationError{Field: "clock", Message: "cannot be nil"}
		}
		o.now = now
		return nil
	}
}

// EventsOption configures one Events call.
type EventsOption func(*eventsOptions)

type eventsOptions struct {
	symbol string
}

// WithSymbol sets the ticker symbol for providers that query by symbol.
func WithSymbol(symbol string) EventsOption {
	return func(o *eventsOptions) {
		o.symbol = symbol
	}
}
