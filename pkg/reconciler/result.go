package reconciler

import (
	"fmt"
	"time"

	"github.com/agentstation/eventmap/pkg/events"
	"github.com/agentstation/eventmap/pkg/provenance"
)

// Result represents the outcome of a reconciliation.
type Result struct {
	// Events is the reconciled list. It is never nil.
	Events []events.Event

	Metadata   ResultMetadata
	Provenance provenance.Map

	// Warnings describe recoverable problems such as schema drift.
	Warnings []string
}

// ResultMetadata contains metadata about the reconciliation process.
type ResultMetadata struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Sources that contributed batches, in merge order.
	Sources []string

	// LowerBoundYear is the earliest year the window kept.
	LowerBoundYear int

	Stats ResultStatistics
}

// ResultStatistics counts what happened at each stage.
type ResultStatistics struct {
	RecordsIn   int
	Normalized  int
	Dropped     int // no title or description
	Malformed   int // kept with sentinel substitutions
	Drifted     int // carried undeclared fields
	Duplicates  int
	OutOfWindow int
	Verified    int
}

// VerifiedCount returns the number of tier-A events.
func (r *Result) VerifiedCount() int {
	n := 0
	for _, ev := range r.Events {
		if ev.Confidence.Verified() {
			n++
		}
	}
	return n
}

// IsEmpty reports whether no events survived.
func (r *Result) IsEmpty() bool {
	return len(r.Events) == 0
}

// Summary returns a one-line description of the run.
func (r *Result) Summary() string {
	s := r.Metadata.Stats
	return fmt.Sprintf("%d records -> %d events (%d dropped, %d duplicates, %d outside window, %d verified) in %s",
		s.RecordsIn, len(r.Events), s.Dropped, s.Duplicates, s.OutOfWindow, s.Verified, r.Metadata.Duration)
}
