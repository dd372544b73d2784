package eventmap

import (
	"fmt"
	"time"

	"github.com/agentstation/eventmap/pkg/events"
	"github.com/agentstation/eventmap/pkg/export"
	"github.com/agentstation/eventmap/pkg/provenance"
	"github.com/agentstation/eventmap/pkg/reconciler"
	"github.com/agentstation/eventmap/pkg/sources"
)

// Result is the outcome of one run.
type Result struct {
	Company string

	// Events is the reconciled list. It is never nil.
	Events []events.Event

	// Document is the serializable form of Events.
	Document *export.Document

	Stats      Stats
	Provenance provenance.Map

	// Outcomes holds one entry per chain in merge order. Empty for Reconcile.
	Outcomes []sources.Outcome

	// Warnings describe recoverable problems such as schema drift.
	Warnings []string
}

// Stats summarizes a run.
type Stats struct {
	// Reconcile counts what the merge phase did with the records.
	Reconcile reconciler.ResultStatistics

	// Sources is the number of chains that produced records.
	Sources int
	// FailedSources is the number of exhausted chains.
	FailedSources int
	// Attempts is the number of provider calls across all chains.
	Attempts int

	FetchDuration time.Duration
	Duration      time.Duration
}

// VerifiedCount returns the number of tier-A events.
func (r *Result) VerifiedCount() int {
	if r.Document == nil {
		return 0
	}
	return r.Document.VerifiedCount
}

// Failed returns the outcomes of exhausted chains.
func (r *Result) Failed() []sources.Outcome {
	var failed []sources.Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Summary returns a one-line description of the run.
func (r *Result) Summary() string {
	s := r.Stats
	return fmt.Sprintf("%s: %d events (%d verified) from %d records, %d/%d sources answered, %d duplicates, %d outside window, in %s",
		r.Company, len(r.Events), r.VerifiedCount(), s.Reconcile.RecordsIn,
		s.Sources, s.Sources+s.FailedSources, s.Reconcile.Duplicates, s.Reconcile.OutOfWindow,
		s.Duration.Round(time.Millisecond))
}
