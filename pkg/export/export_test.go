package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/eventmap/pkg/events"
)

func sample() []events.Event {
	return []events.Event{
		{Date: "2024-03-04", Title: "Acme invests in Delta", Description: "d", Type: events.TypeInvestment, Counterparty: "Delta", Amount: "$50M", Source: "Reuters", URL: events.NoURL, Confidence: events.TierA},
		{Date: "2023-06-15", Title: "Acme acquires Widget, Inc.", Description: "d", Type: events.TypeAcquisition, Counterparty: "Widget", Amount: events.UndisclosedAmount, Source: "PR Newswire", URL: events.NoURL, Confidence: events.TierB},
		{Date: events.UnknownDate, Title: "Acme spin-off", Description: "d", Type: events.TypeSpinOff, Counterparty: events.NoCounterparty, Amount: events.UndisclosedAmount, Source: "blog", URL: events.NoURL, Confidence: events.TierC},
		{Date: "2024-01-10", Title: "Acme buyback", Description: "d", Type: events.TypeBuyback, Counterparty: events.NoCounterparty, Amount: "$1B", Source: "Finnhub", URL: events.NoURL, Confidence: events.TierA},
	}
}

var now = time.Date(2025, 6, 1, 12, 30, 0, 0, time.FixedZone("X", 3600))

func TestNewDocument(t *testing.T) {
	doc := NewDocument("Acme Corp", sample(), now)
	assert.Equal(t, 2, doc.VerifiedCount)
	assert.Equal(t, "2025-06-01T11:30:00Z", doc.LastUpdated)

	empty := NewDocument("Acme Corp", nil, now)
	assert.NotNil(t, empty.Events)
	assert.Zero(t, empty.VerifiedCount)
}

func TestWriteJSONShape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, NewDocument("Acme", nil, now)))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, map[string]any{
		"company":        "Acme",
		"events":         []any{},
		"verified_count": float64(0),
		"last_updated":   "2025-06-01T11:30:00Z",
	}, got)
}

func TestWriteJSONEventFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, NewDocument("Acme", sample()[:1], now)))

	var got struct {
		Events []map[string]any `json:"events"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got.Events, 1)
	for _, k := range []string{"date", "title", "description", "event_type", "counterparty", "amount", "source", "url", "confidence"} {
		assert.Contains(t, got.Events[0], k)
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, NewDocument("Acme", sample(), now)))

	var doc Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "Acme", doc.Company)
	assert.Equal(t, 2, doc.VerifiedCount)
	require.Len(t, doc.Events, 4)
	assert.Equal(t, events.TypeSpinOff, doc.Events[2].Type)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Date", "Title", "Type", "Counterparty", "Amount", "Source"}, rows[0])
	assert.Equal(t, []string{"2023-06-15", "Acme acquires Widget, Inc.", "Acquisition", "Widget", "Undisclosed", "PR Newswire"}, rows[2])
}

func TestGroupByYear(t *testing.T) {
	groups := GroupByYear(sample())
	require.Len(t, groups, 3)
	assert.Equal(t, "2024", groups[0].Year)
	assert.Equal(t, "2023", groups[1].Year)
	assert.Equal(t, events.UnknownDate, groups[2].Year)

	// input order kept inside a year
	require.Len(t, groups[0].Events, 2)
	assert.Equal(t, "Acme invests in Delta", groups[0].Events[0].Title)
	assert.Equal(t, "Acme buyback", groups[0].Events[1].Title)
}

func TestWriteYearTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYearTable(&buf, sample()))
	out := buf.String()

	i2024 := strings.Index(out, "2024 (2)")
	i2023 := strings.Index(out, "2023 (1)")
	iUnknown := strings.Index(out, "Unknown (1)")
	require.NotEqual(t, -1, i2024)
	assert.Less(t, i2024, i2023)
	assert.Less(t, i2023, iUnknown)
	assert.Contains(t, out, "Acme buyback")
}

func TestWriteYearTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYearTable(&buf, nil))
	assert.Equal(t, "No events found.\n", buf.String())
}

func TestFileStem(t *testing.T) {
	tests := map[string]string{
		"Acme Corp":        "Acme_Corp",
		"  S&P   Global ":  "S&P_Global",
		"../etc/passwd":    "etcpasswd",
		"Alphabet Inc.":    "Alphabet_Inc",
		"":                 "company",
		"Société Générale": "Société_Générale",
	}
	for in, want := range tests {
		assert.Equal(t, want, FileStem(in), in)
	}
}

func TestSaveFiles(t *testing.T) {
	dir := t.TempDir() + "/out"
	paths, err := SaveFiles(dir, NewDocument("Acme Corp", sample(), now))
	require.NoError(t, err)
	assert.Equal(t, dir+"/Acme_Corp_events.json", paths.JSON)
	assert.Equal(t, dir+"/Acme_Corp_events.csv", paths.CSV)

	data, err := os.ReadFile(paths.JSON)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"verified_count": 2`)

	data, err = os.ReadFile(paths.CSV)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Date,Title,Type,Counterparty,Amount,Source\n"))
}
