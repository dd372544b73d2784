package reconciler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentstation/eventmap/pkg/events"
	"github.com/agentstation/eventmap/pkg/reconciler"
)

// now2025 is the clock used by the scenario tests.
func now2025() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newReconciler(t *testing.T, opts ...reconciler.Option) reconciler.Reconciler {
	t.Helper()
	r, err := reconciler.New(append([]reconciler.Option{reconciler.WithClock(now2025)}, opts...)...)
	require.NoError(t, err)
	return r
}

func batch(source string, records ...map[string]any) events.Batch {
	b := events.Batch{Source: source, Provider: source + "-provider"}
	for _, fields := range records {
		b.Records = append(b.Records, events.NewRawRecord(source, fields))
	}
	return b
}

func canonical(date string, typ events.Type, counterparty, amount string) events.Event {
	return events.Event{
		Date:         date,
		Title:        "t",
		Description:  "t",
		Type:         typ,
		Counterparty: counterparty,
		Amount:       amount,
		Source:       "s",
		URL:          events.NoURL,
	}
}
