// Package reconciler merges raw event batches into one ranked list.
//
// The merge runs in fixed stages over batches in the order given:
// normalize, deduplicate, grade, rank, and window. Identical input yields
// identical output.
package reconciler

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/eventmap/pkg/authority"
	"github.com/agentstation/eventmap/pkg/dedup"
	"github.com/agentstation/eventmap/pkg/events"
	"github.com/agentstation/eventmap/pkg/logging"
	"github.com/agentstation/eventmap/pkg/normalize"
	"github.com/agentstation/eventmap/pkg/provenance"
)

// Reconciler is the main interface for reconciling batches from many sources.
type Reconciler interface {
	// Reconcile merges batches. It never fails: bad records are dropped or
	// defaulted and reported on the result.
	Reconcile(ctx context.Context, batches []events.Batch) *Result
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	normalizer    *normalize.Normalizer
	scorer        *authority.Scorer
	years         int
	retainUnknown bool
	tracking      bool
	now           func() time.Time
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{
		normalizer:    options.normalizer,
		scorer:        options.scorer,
		years:         options.retentionYears,
		retainUnknown: options.retainUnknown,
		tracking:      options.tracking,
		now:           options.now,
	}, nil
}

// origin remembers which batch produced a normalized event.
type origin struct {
	source   string
	provider string
}

// Reconcile performs the merge stages in order.
func (r *reconciler) Reconcile(ctx context.Context, batches []events.Batch) *Result {
	start := r.now()
	logger := logging.FromContext(ctx).With().Str("operation", "reconcile").Logger()
	tracker := provenance.NewTrackerWithClock(r.tracking, r.now)
	result := &Result{Metadata: ResultMetadata{StartTime: start}}
	stats := &result.Metadata.Stats

	// Step 1: normalize
	normalized, origins := r.normalize(&logger, batches, result)

	// Step 2: deduplicate, first occurrence wins
	unique, drops := dedup.Deduplicate(normalized)
	stats.Duplicates = len(drops)
	for _, d := range drops {
		o := origins[d.Index]
		tracker.Track(d.Key.String(), provenance.FieldDuplicate, provenance.Provenance{
			Source:   o.source,
			Provider: o.provider,
			Value:    d.Event.Source,
			Reason:   "same title, date and source as an earlier record",
		})
	}
	first := make(map[dedup.Key]origin, len(unique))
	for i, ev := range normalized {
		k := dedup.KeyOf(ev)
		if _, ok := first[k]; !ok {
			first[k] = origins[i]
		}
	}

	// Step 3: grade
	matches := r.scorer.Score(unique)
	for i, ev := range unique {
		k := dedup.KeyOf(ev)
		o := first[k]
		tracker.Track(k.String(), provenance.FieldOrigin, provenance.Provenance{
			Source:   o.source,
			Provider: o.provider,
			Value:    ev.Source,
		})
		tracker.Track(k.String(), provenance.FieldConfidence, provenance.Provenance{
			Source: o.source,
			Value:  string(ev.Confidence),
			Reason: matches[i].Reason(),
		})
	}

	// Step 4: rank
	Rank(unique)

	// Step 5: window
	w := newWindow(start, r.years, r.retainUnknown)
	kept, outside := w.apply(unique)
	stats.OutOfWindow = outside

	result.Events = kept
	stats.Verified = result.VerifiedCount()
	result.Provenance = tracker.Map()
	result.Metadata.LowerBoundYear = w.lower
	result.Metadata.EndTime = r.now()
	result.Metadata.Duration = result.Metadata.EndTime.Sub(start)

	logger.Info().
		Int("records", stats.RecordsIn).
		Int("events", len(kept)).
		Int("dropped", stats.Dropped).
		Int("duplicates", stats.Duplicates).
		Int("out_of_window", stats.OutOfWindow).
		Int("verified", stats.Verified).
		Msg("Reconciliation complete")

	return result
}

// normalize converts every record of every batch, in batch order.
func (r *reconciler) normalize(logger *zerolog.Logger, batches []events.Batch, result *Result) ([]events.Event, []origin) {
	stats := &result.Metadata.Stats
	var out []events.Event
	var origins []origin

	for _, b := range batches {
		result.Metadata.Sources = append(result.Metadata.Sources, b.Source)
		drift := make(map[string]bool)
		conflicts := make(map[string]bool)

		for _, rec := range b.Records {
			stats.RecordsIn++
			ev, diag := r.normalizer.Normalize(rec)

			if len(diag.Unmapped) > 0 {
				stats.Drifted++
				for _, k := range diag.Unmapped {
					drift[k] = true
				}
			}
			for _, k := range diag.Collisions {
				conflicts[k] = true
			}
			if diag.Dropped {
				stats.Dropped++
				logger.Debug().Err(diag.Err).Str("source", b.Source).Msg("Dropped record")
				continue
			}
			if diag.Err != nil {
				stats.Malformed++
				logger.Debug().Err(diag.Err).Str("source", b.Source).Msg("Substituted defaults for malformed fields")
			}

			stats.Normalized++
			out = append(out, ev)
			origins = append(origins, origin{source: b.Source, provider: b.Provider})
		}

		if len(drift) > 0 {
			keys := sortedKeys(drift)
			logger.Warn().
				Str("source", b.Source).
				Str("provider", b.Provider).
				Strs("fields", keys).
				Msg("Records carry fields the mapping does not declare")
			result.Warnings = append(result.Warnings,
				"schema drift in "+b.Source+": undeclared fields "+strings.Join(keys, ", "))
		}
		if len(conflicts) > 0 {
			keys := sortedKeys(conflicts)
			logger.Warn().
				Str("source", b.Source).
				Str("provider", b.Provider).
				Strs("fields", keys).
				Msg("Records carry conflicting spellings of one field")
			result.Warnings = append(result.Warnings,
				"schema drift in "+b.Source+": conflicting values for "+strings.Join(keys, ", "))
		}
	}
	return out, origins
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
