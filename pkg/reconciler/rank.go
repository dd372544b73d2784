package reconciler

import (
	"sort"

	"github.com/agentstation/eventmap/pkg/events"
)

// Completeness weights.
const (
	weightDate         = 3
	weightType         = 2
	weightCounterparty = 1
	weightAmount       = 1
)

// MaxCompleteness is the score of an event with every field resolved.
const MaxCompleteness = weightDate + weightType + weightCounterparty + weightAmount

// Completeness scores how many informative fields an event carries.
func Completeness(ev events.Event) int {
	score := 0
	if ev.HasDate() {
		score += weightDate
	}
	if ev.Type != "" && ev.Type != events.TypeOther {
		score += weightType
	}
	if ev.Counterparty != "" && ev.Counterparty != events.NoCounterparty {
		score += weightCounterparty
	}
	if ev.Amount != "" && ev.Amount != events.UndisclosedAmount {
		score += weightAmount
	}
	return score
}

// Rank orders events by completeness, then by date, both descending.
// Unknown dates sort as the earliest. Equal events keep their input order.
func Rank(evs []events.Event) {
	sort.SliceStable(evs, func(i, j int) bool {
		si, sj := Completeness(evs[i]), Completeness(evs[j])
		if si != sj {
			return si > sj
		}
		return dateKey(evs[i]) > dateKey(evs[j])
	})
}

// dateKey compares lexically; ISO dates order chronologically and the
// empty key of an unknown date sorts before all of them.
func dateKey(ev events.Event) string {
	if !ev.HasDate() {
		return ""
	}
	return ev.Date
}
