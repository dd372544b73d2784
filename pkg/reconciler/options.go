package reconciler

import (
	"time"

	"github.com/agentstation/eventmap/pkg/authority"
	"github.com/agentstation/eventmap/pkg/errors"
	"github.com/agentstation/eventmap/pkg/normalize"
)

// options configures a reconciler.
type options struct {
	normalizer     *normalize.Normalizer
	scorer         *authority.Scorer
	retentionYears int
	retainUnknown  bool
	tracking       bool
	now            func() time.Time
}

func defaultOptions() *options {
	return &options{
		retentionYears: DefaultRetentionYears,
		retainUnknown:  true,
		tracking:       true,
		now:            time.Now,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	if o.normalizer == nil {
		if o.normalizer, err = normalize.New(); err != nil {
			return nil, err
		}
	}
	if o.scorer == nil {
		o.scorer = authority.NewScorer(nil)
	}
	return o, nil
}

// WithNormalizer sets the field normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(o *options) error {
		if n == nil {
			return &errors.ValidationError{Field: "normalizer", Message: "cannot be nil"}
		}
		o.normalizer = n
		return nil
	}
}

// WithTrustTable sets the trust markers used to grade sources.
func WithTrustTable(t *authority.Table) Option {
	return func(o *options) error {
		if t == nil {
			return &errors.ValidationError{Field: "trust", Message: "cannot be nil"}
		}
		o.scorer = authority.NewScorer(t)
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

// WithRetainUnknownDates controls whether undated events survive the
// time window. They do by default.
func WithRetainUnknownDates(retain bool) Option {
	return func(o *options) error {
		o.retainUnknown = retain
		return nil
	}
}

// WithProvenance enables provenance tracking.
func WithProvenance(enabled bool) Option {
	return func(o *options) error {
		o.tracking = enabled
		return nil
	}
}

// WithClock sets the clock used for the time window.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return &errors.ValidationError{Field: "clock", Message: "cannot be nil"}
		}
		o.now = now
		return nil
	}
}
