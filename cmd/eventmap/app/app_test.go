package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/eventmap"
	"github.com/agentstation/eventmap/pkg/events"
	"github.com/agentstation/eventmap/pkg/sources"
)

func testClient(t *testing.T) eventmap.Client {
	t.Helper()
	p := sources.NewProviderFunc("stub", func(context.Context, sources.Query) ([]events.RawRecord, error) {
		return []events.RawRecord{events.NewRawRecord("", map[string]any{
			"title": "Acme acquires Beta", "date": "2024-02-01", "source": "Reuters",
		})}, nil
	})
	ch, err := sources.NewChain(sources.NewsID, time.Second, p)
	require.NoError(t, err)
	c, err := eventmap.New(eventmap.WithChains(ch), eventmap.WithClock(func() time.Time {
		return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}))
	require.NoError(t, err)
	return c
}

func newTestApp(t *testing.T, opts ...Option) *App {
	t.Helper()
	isolate(t)
	nop := zerolog.Nop()
	a, err := New("1.0.0", "abc123", "2024-01-01", "test", append([]Option{WithLogger(&nop)}, opts...)...)
	require.NoError(t, err)
	return a
}

// execute runs the root command and returns its stdout.
func execute(t *testing.T, a *App, args ...string) (string, error) {
	t.Helper()
	root := a.createRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// TestApp_New verifies app initialization.
func TestApp_New(t *testing.T) {
	a := newTestApp(t)
	assert.Equal(t, "1.0.0", a.Version())
	assert.Equal(t, "abc123", a.Commit())
	assert.Equal(t, "2024-01-01", a.Date())
	assert.Equal(t, "test", a.BuiltBy())
	assert.NotNil(t, a.Logger())
	assert.NotNil(t, a.Config())
	assert.Len(t, a.Chains(), 3)
}

// TestApp_Client_Singleton verifies that Client() returns the same instance.
func TestApp_Client_Singleton(t *testing.T) {
	a := newTestApp(t)

	c1, err := a.Client()
	require.NoError(t, err)
	c2, err := a.Client()
	require.NoError(t, err)
	assert.Same(t, c1, c2)
	assert.Len(t, c1.Sources(), 3)

	require.NoError(t, a.Shutdown(context.Background()))
}

// TestApp_ClientWithOptions verifies later options win.
func TestApp_ClientWithOptions(t *testing.T) {
	a := newTestApp(t)
	c, err := a.ClientWithOptions(eventmap.WithChains())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	assert.Empty(t, c.Sources())
}

// TestExecute_Version verifies the version command output.
func TestExecute_Version(t *testing.T) {
	a := newTestApp(t)
	out, err := execute(t, a, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "eventmap version 1.0.0\n"))
	assert.Contains(t, out, "commit: abc123")
}

// TestExecute_EventsJSON runs the events command against a stub client.
func TestExecute_EventsJSON(t *testing.T) {
	a := newTestApp(t, WithClient(testClient(t)))
	out, err := execute(t, a, "events", "Acme", "Corp", "-o", "json")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "Acme Corp", doc["company"])
	assert.Equal(t, float64(1), doc["verified_count"])
	assert.Equal(t, "json", a.OutputFormat())
}

// TestExecute_EventsOutDir verifies result files are written.
func TestExecute_EventsOutDir(t *testing.T) {
	a := newTestApp(t, WithClient(testClient(t)))
	dir := t.TempDir()
	_, err := execute(t, a, "events", "Acme Corp", "-o", "csv", "--out-dir", dir, "--provenance", filepath.Join(dir, "prov.yaml"))
	require.NoError(t, err)

	for _, name := range []string{"Acme_Corp_events.json", "Acme_Corp_events.csv", "prov.yaml"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

// TestExecute_InvalidFormat verifies format validation.
func TestExecute_InvalidFormat(t *testing.T) {
	a := newTestApp(t)
	_, err := execute(t, a, "sources", "-o", "wide")
	assert.Error(t, err)
}

// TestExecute_Sources lists the default chains.
func TestExecute_Sources(t *testing.T) {
	a := newTestApp(t)
	out, err := execute(t, a, "sources", "-o", "json")
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.NotEmpty(t, rows)
	assert.Equal(t, "financial", rows[0]["source"])
	assert.Equal(t, "finnhub_mna", rows[0]["provider"])
}

// TestExecute_Reconcile merges local files.
func TestExecute_Reconcile(t *testing.T) {
	a := newTestApp(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "filings.yaml")
	require.NoError(t, os.WriteFile(first, []byte(`
company: Acme Corp
source: filings
records:
  - title: Acme acquires Beta
    date: "2024-02-01"
    source: SEC
`), 0o600))
	second := filepath.Join(dir, "news.json")
	require.NoError(t, os.WriteFile(second, []byte(`[
		{"title": "Acme acquires Beta", "date": "2024-02-01", "source": "sec.gov"},
		{"title": "Acme partners with Gamma", "date": "Unknown", "source": "blog"}
	]`), 0o600))

	out, err := execute(t, a, "reconcile", first, second, "-o", "json")
	require.NoError(t, err)

	var doc struct {
		Company string         `json:"company"`
		Events  []events.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "Acme Corp", doc.Company)
	require.Len(t, doc.Events, 2)
	assert.Equal(t, "Acme acquires Beta", doc.Events[0].Title)
	assert.Equal(t, events.TierA, doc.Events[0].Confidence)
}

// TestExecute_ReconcileNeedsCompany verifies the company is required.
func TestExecute_ReconcileNeedsCompany(t *testing.T) {
	a := newTestApp(t)
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"title": "Acme buyback"}]`), 0o600))

	_, err := execute(t, a, "reconcile", path)
	assert.Error(t, err)
}
