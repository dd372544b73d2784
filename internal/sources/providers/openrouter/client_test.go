package openrouter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/eventmap/internal/config"
	"github.com/agentstation/eventmap/internal/sources/providers/registry"
	"github.com/agentstation/eventmap/internal/sources/providers/testhelper"
	"github.com/agentstation/eventmap/pkg/errors"
	"github.com/agentstation/eventmap/pkg/logging"
	"github.com/agentstation/eventmap/pkg/sources"
)

var query = sources.Query{
	Company: "Acme Corp",
	Years:   5,
	Now:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
}

func TestFetch(t *testing.T) {
	up := testhelper.Serve(t, map[string]testhelper.Route{
		"/chat/completions": testhelper.JSON(testhelper.LoadTestdata(t, "completion.json")),
	})
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	c := New("deepseek/deepseek-chat", "k", WithURL(up.URL+"/chat/completions"))
	recs, err := c.Fetch(ctx, query)
	require.NoError(t, err)

	// the block with a markdown label is rejected whole
	require.Len(t, recs, 2)
	assert.Equal(t, "openrouter:deepseek/deepseek-chat", recs[0].Producer)
	assert.Equal(t, "Acme acquires Widget Co", recs[0].Fields["description"])
	assert.Equal(t, "Widget Co", recs[0].Fields["other_counterparty"])
	assert.Equal(t, "$1.2B", recs[0].Fields["investment"])
	assert.Equal(t, SourceLabel, recs[0].Fields["source"])
	assert.Equal(t, "Joint Venture", recs[1].Fields["type"])
	assert.True(t, tl.Contains("Discarded malformed event blocks"))

	req := up.Last()
	assert.Equal(t, "Bearer k", req.Header.Get("Authorization"))
}

func TestFetchLogsAnswerWithoutBlocks(t *testing.T) {
	up := testhelper.Serve(t, map[string]testhelper.Route{
		"/chat/completions": testhelper.JSON([]byte(`{"choices":[{"message":{"content":"I could not find any verified events for this company."}}]}`)),
	})
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	recs, err := New("m", "k", WithURL(up.URL+"/chat/completions")).Fetch(ctx, query)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.True(t, tl.Contains("Model answer contained no event blocks"))
}

func TestFetchSendsModelAndPrompt(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"No events found."}}]}`))
	}))
	defer srv.Close()

	recs, err := New("openai/gpt-4.1-mini", "k", WithURL(srv.URL)).Fetch(context.Background(), query)
	require.NoError(t, err)
	assert.Empty(t, recs)

	assert.Equal(t, "openai/gpt-4.1-mini", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Contains(t, got.Messages[1].Content, "Acme Corp")
	assert.Contains(t, got.Messages[1].Content, "Period: 2020 to present.")
	assert.Contains(t, got.Messages[1].Content, "- Event:\n  Description:\n")
}

func TestFetchErrorPayload(t *testing.T) {
	up := testhelper.Serve(t, map[string]testhelper.Route{
		"/c": testhelper.JSON([]byte(`{"error":{"code":402,"message":"Insufficient credits"}}`)),
	})

	_, err := New("m", "k", WithURL(up.URL+"/c")).Fetch(context.Background(), query)
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 402, apiErr.StatusCode)
	assert.Equal(t, "Insufficient credits", apiErr.Message)
}

func TestFetchWithoutKey(t *testing.T) {
	_, err := New("m", "").Fetch(context.Background(), query)
	assert.True(t, errors.IsAPIKeyError(err))
}

func TestRegistered(t *testing.T) {
	creds := &config.Credentials{OpenRouter: "k"}
	for _, model := range DefaultModels {
		p, err := registry.New(Kind+":"+model, creds)
		require.NoError(t, err)
		assert.Equal(t, Kind+":"+model, p.Name())
	}

	_, err := registry.New(Kind, creds)
	assert.True(t, errors.IsValidationError(err))
}
