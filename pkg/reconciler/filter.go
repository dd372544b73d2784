package reconciler

import (
	"strconv"
	"time"

	"github.com/agentstation/eventmap/pkg/constants"
	"github.com/agentstation/eventmap/pkg/events"
)

// DefaultRetentionYears is the default width of the time window.
const DefaultRetentionYears = constants.DefaultRetentionYears

// LowerBound returns the earliest year kept for a retention window.
func LowerBound(now time.Time, years int) int {
	return now.Year() - years
}

// window drops events dated before a lower-bound year.
type window struct {
	lower         int
	retainUnknown bool
}

func newWindow(now time.Time, years int, retainUnknown bool) *window {
	return &window{lower: LowerBound(now, years), retainUnknown: retainUnknown}
}

// keep reports whether an event falls inside the window.
func (w *window) keep(ev events.Event) bool {
	if !ev.HasDate() {
		return w.retainUnknown
	}
	year, err := strconv.Atoi(ev.Year())
	if err != nil {
		return w.retainUnknown
	}
	return year >= w.lower
}

// apply filters evs, preserving order.
func (w *window) apply(evs []events.Event) (kept []events.Event, dropped int) {
	kept = make([]events.Event, 0, len(evs))
	for _, ev := range evs {
		if w.keep(ev) {
			kept = append(kept, ev)
		} else {
			dropped++
		}
	}
	return kept, dropped
}

// FilterWindow keeps events whose year is at least lower. Events with an
// Unknown date are kept.
func FilterWindow(evs []events.Event, lower int) []events.Event {
	w := &window{lower: lower, retainUnknown: true}
	kept, _ := w.apply(evs)
	return kept
}
