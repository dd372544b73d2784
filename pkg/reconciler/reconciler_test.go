package reconciler_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/eventmap/pkg/authority"
	"github.com/agentstation/eventmap/pkg/dedup"
	pkgerrors "github.com/agentstation/eventmap/pkg/errors"
	"github.com/agentstation/eventmap/pkg/events"
	"github.com/agentstation/eventmap/pkg/logging"
	"github.com/agentstation/eventmap/pkg/provenance"
	"github.com/agentstation/eventmap/pkg/reconciler"
)

func TestScenarioSingleDescriptionOnlyRecord(t *testing.T) {
	r := newReconciler(t)
	res := r.Reconcile(context.Background(), []events.Batch{
		batch("news", map[string]any{"description": "Acquired Widget Corp", "date": "2024-03-01", "source": "Reuters"}),
	})

	require.Len(t, res.Events, 1)
	ev := res.Events[0]
	assert.Equal(t, "Acquired Widget Corp", ev.Title)
	assert.Equal(t, "2024-03-01", ev.Date)
	assert.Equal(t, events.TypeOther, ev.Type)
	assert.Equal(t, events.UndisclosedAmount, ev.Amount)
	assert.Equal(t, events.NoCounterparty, ev.Counterparty)
	assert.Equal(t, events.TierA, ev.Confidence)
	assert.Equal(t, 1, res.VerifiedCount())
}

func TestScenarioSourceSpellingsCollapse(t *testing.T) {
	r := newReconciler(t)
	res := r.Reconcile(context.Background(), []events.Batch{
		batch("news", map[string]any{"description": "Tata acquires X", "date": "2023-05-01", "source": "Reuters"}),
		batch("llm", map[string]any{"description": "Tata acquires X", "date": "2023-05-01", "source": "reuters.com"}),
	})

	require.Len(t, res.Events, 1)
	assert.Equal(t, "Reuters", res.Events[0].Source)
	assert.Equal(t, 1, res.Metadata.Stats.Duplicates)

	key := dedup.KeyOf(res.Events[0]).String()
	dups := res.Provenance[key+":"+provenance.FieldDuplicate]
	require.Len(t, dups, 1)
	assert.Equal(t, "llm", dups[0].Source)
	assert.Equal(t, "reuters.com", dups[0].Value)

	origin := res.Provenance[key+":"+provenance.FieldOrigin]
	require.Len(t, origin, 1)
	assert.Equal(t, "news", origin[0].Source)
	assert.Equal(t, "news-provider", origin[0].Provider)
}

func TestScenarioMonthYearInsideWindow(t *testing.T) {
	r := newReconciler(t, reconciler.WithRetentionYears(5))
	res := r.Reconcile(context.Background(), []events.Batch{
		batch("news", map[string]any{"title": "Partnership with Globex", "date": "March 2022", "source": "Mint"}),
	})

	require.Len(t, res.Events, 1)
	assert.Equal(t, "2022-03-01", res.Events[0].Date)
	assert.Equal(t, 2020, res.Metadata.LowerBoundYear)
}

func TestScenarioBareYearOutsideWindow(t *testing.T) {
	r := newReconciler(t, reconciler.WithRetentionYears(5))
	res := r.Reconcile(context.Background(), []events.Batch{
		batch("news", map[string]any{"title": "Old deal", "date": "2015", "source": "Mint"}),
	})

	assert.Empty(t, res.Events)
	assert.NotNil(t, res.Events)
	assert.Equal(t, 1, res.Metadata.Stats.OutOfWindow)
}

func TestScenarioAllSourcesEmpty(t *testing.T) {
	r := newReconciler(t)

	for _, batches := range [][]events.Batch{nil, {{Source: "news"}, {Source: "llm"}}} {
		res := r.Reconcile(context.Background(), batches)
		require.NotNil(t, res)
		assert.NotNil(t, res.Events)
		assert.Empty(t, res.Events)
		assert.Equal(t, 0, res.VerifiedCount())
		assert.True(t, res.IsEmpty())
	}
}

func TestUnknownDatesRetainedByDefault(t *testing.T) {
	input := []events.Batch{batch("news", map[string]any{"title": "Undated deal", "source": "Mint"})}

	res := newReconciler(t).Reconcile(context.Background(), input)
	require.Len(t, res.Events, 1)
	assert.Equal(t, events.UnknownDate, res.Events[0].Date)

	strict := newReconciler(t, reconciler.WithRetainUnknownDates(false))
	assert.Empty(t, strict.Reconcile(context.Background(), input).Events)
}

func TestReconcileIsIdempotent(t *testing.T) {
	r := newReconciler(t, reconciler.WithProvenance(false))
	input := []events.Batch{
		batch("financial",
			map[string]any{"title": "Acme acquires Initech", "date": "2024-02-10", "type": "Acquisition", "counterparty": "Initech", "amount": "$2B", "source": "Finnhub"},
			map[string]any{"title": "Acme Q3 bond issue", "date": "2023-09-01", "type": "Bond Issue", "source": "SEC"},
		),
		batch("news",
			map[string]any{"title": "Acme partners with Globex", "date": "Jan 5, 2024", "source": "PR Newswire"},
			map[string]any{"title": "Acme acquires Initech", "date": "2024-02-10", "source": "finnhub.io"},
			map[string]any{"title": "Acme mystery", "source": "blog"},
			map[string]any{"title": "Acme 2012 spinoff", "date": "2012", "source": "Mint"},
		),
		batch("llm",
			map[string]any{"event_name": "Acme funding round", "date_announced": "2022-11-30", "event_type": "Funding", "investment": "$50M"},
			map[string]any{"description": ""},
		),
	}

	first := r.Reconcile(context.Background(), input)
	for range 5 {
		again := r.Reconcile(context.Background(), input)
		if diff := cmp.Diff(first.Events, again.Events); diff != "" {
			t.Fatalf("reconcile not idempotent (-first +again):\n%s", diff)
		}
	}

	stats := first.Metadata.Stats
	assert.Equal(t, 8, stats.RecordsIn)
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, 1, stats.OutOfWindow)
	assert.Len(t, first.Events, 5)
	assert.Equal(t, []string{"financial", "news", "llm"}, first.Metadata.Sources)

	titles := make([]string, len(first.Events))
	for i, ev := range first.Events {
		titles[i] = ev.Title
	}
	assert.Equal(t, []string{
		"Acme acquires Initech",     // 7
		"Acme funding round",        // 6
		"Acme Q3 bond issue",        // 5
		"Acme partners with Globex", // 3
		"Acme mystery",              // 0
	}, titles)

	for _, ev := range first.Events {
		assert.True(t, ev.Confidence.Valid())
		assert.NotEmpty(t, ev.Date)
		assert.NotEmpty(t, ev.Type)
		assert.NotEmpty(t, ev.Counterparty)
		assert.NotEmpty(t, ev.Amount)
		assert.NotEmpty(t, ev.Source)
		assert.NotEmpty(t, ev.URL)
	}
	assert.Equal(t, 2, first.VerifiedCount())
	assert.Empty(t, first.Provenance)
}

func TestReconcilePresetTierKept(t *testing.T) {
	r := newReconciler(t)
	res := r.Reconcile(context.Background(), []events.Batch{
		batch("llm", map[string]any{"title": "Acme buys Z", "source": "Reuters", "confidence": "C"}),
	})
	require.Len(t, res.Events, 1)
	assert.Equal(t, events.TierC, res.Events[0].Confidence)
}

func TestReconcileCustomTrustTable(t *testing.T) {
	table, err := authority.New(append(authority.DefaultMarkers(), authority.Marker{Pattern: "mint", Tier: events.TierB})...)
	require.NoError(t, err)

	r := newReconciler(t, reconciler.WithTrustTable(table))
	res := r.Reconcile(context.Background(), []events.Batch{
		batch("news", map[string]any{"title": "Acme buys Z", "source": "Mint"}),
	})
	require.Len(t, res.Events, 1)
	assert.Equal(t, events.TierB, res.Events[0].Confidence)
}

func TestReconcileReportsSchemaDrift(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	res := newReconciler(t).Reconcile(ctx, []events.Batch{
		batch("yahoo", map[string]any{"title": "Acme buys Z", "providerPublishTime": 1686787200}),
	})

	require.Len(t, res.Events, 1)
	assert.Equal(t, 1, res.Metadata.Stats.Drifted)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "providerpublishtime")
	assert.True(t, tl.Contains("Records carry fields the mapping does not declare"))
	assert.Contains(t, res.Summary(), "1 records -> 1 events")
}

func TestReconcileReportsConflictingSpellings(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	res := newReconciler(t).Reconcile(ctx, []events.Batch{
		batch("news", map[string]any{"title": "Acme buys Z", "Date": "2015", "date": "2024-03-01"}),
	})

	require.Len(t, res.Events, 1)
	assert.Equal(t, events.UnknownDate, res.Events[0].Date)
	assert.Equal(t, 0, res.Metadata.Stats.OutOfWindow)
	assert.Equal(t, 1, res.Metadata.Stats.Malformed)
	assert.Contains(t, res.Warnings, "schema drift in news: conflicting values for date")
	assert.True(t, tl.Contains("Records carry conflicting spellings of one field"))
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := reconciler.New(reconciler.WithRetentionYears(-1))
	assert.True(t, pkgerrors.IsValidationError(err))

	_, err = reconciler.New(reconciler.WithNormalizer(nil))
	assert.True(t, pkgerrors.IsValidationError(err))

	_, err = reconciler.New(reconciler.WithTrustTable(nil))
	assert.Error(t, err)

	_, err = reconciler.New(reconciler.WithClock(nil))
	assert.Error(t, err)
}
