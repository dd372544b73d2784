package gemini

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/agentstation/eventmap/internal/config"
	"github.com/agentstation/eventmap/internal/sources/providers/registry"
	"github.com/agentstation/eventmap/pkg/errors"
	"github.com/agentstation/eventmap/pkg/sources"
)

type fakeModels struct {
	answer string
	err    error
	model  string
	config *genai.GenerateContentConfig
	prompt string
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = cfg
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: f.answer}}},
		}},
	}, nil
}

var query = sources.Query{
	Company: "Acme Corp",
	Years:   5,
	Now:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
}

func TestFetch(t *testing.T) {
	fake := &fakeModels{answer: `{"events": [
		{"date": "2023-06-15", "event_name": "Acme acquires Widget Co", "description": "Acme bought Widget Co.", "counterparty": "Widget Co", "value": "$1.2B", "event_type": "Acquisition"},
		"not an object"
	]}`}
	c := New("gemini-2.5-pro", "k", withGenerator(fake))

	recs, err := c.Fetch(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "gemini:gemini-2.5-pro", recs[0].Producer)
	assert.Equal(t, "Acme acquires Widget Co", recs[0].Fields["event_name"])
	assert.Equal(t, SourceLabel, recs[0].Fields["source"])

	assert.Equal(t, "gemini-2.5-pro", fake.model)
	assert.Equal(t, "application/json", fake.config.ResponseMIMEType)
	assert.Contains(t, fake.prompt, "Acme Corp")
	assert.Contains(t, fake.prompt, "from January 1, 2020")
	assert.Contains(t, fake.prompt, "June 1, 2025")
}

func TestFetchAcceptsFencedJSON(t *testing.T) {
	fake := &fakeModels{answer: "```json\n{\"events\": [{\"event_name\": \"Acme IPO\", \"date\": \"2021\"}]}\n```"}
	recs, err := New("m", "k", withGenerator(fake)).Fetch(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestFetchRejectsNonJSON(t *testing.T) {
	tests := []string{
		`Here are the events: {"events": []}`,
		`{"items": []}`,
		`{"events": {}}`,
	}
	for _, answer := range tests {
		t.Run(answer, func(t *testing.T) {
			_, err := New("m", "k", withGenerator(&fakeModels{answer: answer})).Fetch(context.Background(), query)
			var pe *errors.ParseError
			require.ErrorAs(t, err, &pe)
		})
	}
}

func TestFetchEmptyEvents(t *testing.T) {
	recs, err := New("m", "k", withGenerator(&fakeModels{answer: `{"events": []}`})).Fetch(context.Background(), query)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestFetchGenerateError(t *testing.T) {
	_, err := New("m", "k", withGenerator(&fakeModels{err: errors.New("quota exceeded")})).Fetch(context.Background(), query)
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, err.Error(), "gemini:m")
}

func TestFetchWithoutKey(t *testing.T) {
	_, err := New("m", "").Fetch(context.Background(), query)
	assert.True(t, errors.IsAPIKeyError(err))
}

func TestRegistered(t *testing.T) {
	p, err := registry.New(Kind, &config.Credentials{Gemini: "k"})
	require.NoError(t, err)
	assert.Equal(t, "gemini:"+DefaultModel, p.Name())

	p, err = registry.New("gemini:gemini-2.5-flash", nil)
	require.NoError(t, err)
	assert.Equal(t, "gemini:gemini-2.5-flash", p.Name())
}
