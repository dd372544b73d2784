package authority_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/eventmap/pkg/authority"
	"github.com/agentstation/eventmap/pkg/errors"
	"github.com/agentstation/eventmap/pkg/events"
)

func TestClassifyDefaults(t *testing.T) {
	table := authority.Default()

	tests := []struct {
		source string
		tier   events.Tier
	}{
		{"Reuters", events.TierA},
		{"reuters.com", events.TierA},
		{"Thomson Reuters", events.TierA},
		{"Finnhub API", events.TierA},
		{"https://www.sec.gov/cgi-bin/browse-edgar", events.TierA},
		{"Bloomberg News", events.TierA},
		{"PR Newswire", events.TierB},
		{"prnewswire.com", events.TierB},
		{"Business Wire", events.TierB},
		{"CNBC", events.TierB},
		{"Yahoo Finance", events.TierB},
		{"Mint", events.TierC},
		{"Security Week", events.TierC},
		{"Unknown", events.TierC},
		{"", events.TierC},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.tier, table.Classify(tt.source).Tier)
		})
	}
}

func TestClassifyPrefersTierA(t *testing.T) {
	m := authority.Default().Classify("Reuters via Yahoo Finance")
	assert.Equal(t, events.TierA, m.Tier)
	assert.Equal(t, "reuters", m.Marker)
	assert.Equal(t, "matched trust marker reuters", m.Reason())
}

func TestClassifyWildcard(t *testing.T) {
	table, err := authority.New(authority.Marker{Pattern: "*newswire", Tier: events.TierB})
	require.NoError(t, err)
	assert.Equal(t, events.TierB, table.Classify("GlobeNewswire").Tier)
	assert.Equal(t, events.TierC, table.Classify("Newsweek").Tier)
}

func TestNewValidates(t *testing.T) {
	_, err := authority.New(authority.Marker{Pattern: "blog", Tier: events.TierC})
	assert.True(t, errors.IsValidationError(err))

	_, err = authority.New(authority.Marker{Pattern: " ", Tier: events.TierA})
	assert.True(t, errors.IsValidationError(err))

	_, err = authority.New(authority.Marker{Pattern: "[", Tier: events.TierA})
	assert.Error(t, err)
}

func TestScorer(t *testing.T) {
	s := authority.NewScorer(nil)

	evs := []events.Event{
		{Title: "a", Source: "Reuters"},
		{Title: "b", Source: "PR Newswire"},
		{Title: "c", Source: "Mint"},
		{Title: "d", Source: "Mint", Confidence: events.TierA},
	}
	matches := s.Score(evs)

	assert.Equal(t, []events.Tier{events.TierA, events.TierB, events.TierC, events.TierA},
		[]events.Tier{evs[0].Confidence, evs[1].Confidence, evs[2].Confidence, evs[3].Confidence})
	assert.Equal(t, "preset", matches[3].Marker)
	assert.Equal(t, "no trust marker matched", matches[2].Reason())
}

func TestScorerIsIdempotent(t *testing.T) {
	s := authority.NewScorer(nil)
	ev, _ := s.ScoreEvent(events.Event{Source: "Bloomberg"})
	again, _ := s.ScoreEvent(ev)
	assert.Equal(t, ev, again)
}
