// Package gemini asks Gemini models for a company's corporate events in
// JSON mode through the genai SDK.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"google.golang.org/genai"

	"github.com/agentstation/eventmap/internal/config"
	"github.com/agentstation/eventmap/internal/sources/providers/registry"
	"github.com/agentstation/eventmap/pkg/errors"
	"github.com/agentstation/eventmap/pkg/events"
	"github.com/agentstation/eventmap/pkg/logging"
	"github.com/agentstation/eventmap/pkg/sources"
)

// Kind is the provider kind; names take the form "gemini:<model>".
const Kind = "gemini"

// DefaultModel is used for a bare "gemini" name.
const DefaultModel = "gemini-2.5-pro"

// SourceLabel is the source attributed to model answers.
const SourceLabel = "Gemini"

// Generation settings.
const (
	Temperature     = 0.1
	MaxOutputTokens = 32768
)

func init() {
	registry.Register(registry.Entry{
		Kind:       Kind,
		Credential: config.GeminiKeyEnv,
		New: func(s registry.Spec) (sources.Provider, error) {
			var opts []Option
			if s.BaseURL != "" {
				opts = append(opts, WithBaseURL(s.BaseURL))
			}
			if s.HTTPClient != nil {
				opts = append(opts, WithHTTPClient(s.HTTPClient))
			}
			model := s.Arg
			if model == "" {
				model = DefaultModel
			}
			return New(model, s.Credentials.Gemini, opts...), nil
		},
	})
}

// generator is the part of *genai.Models the provider uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements sources.Provider for one model.
type Client struct {
	model   string
	apiKey  string
	baseURL string
	http    *http.Client

	mu     sync.Mutex
	models generator
}

type options struct {
	baseURL string
	http    *http.Client
	models  generator
}

// Option configures a Client.
type Option func(*options)

// WithBaseURL points the SDK at a different API root.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithHTTPClient sets the HTTP client the SDK uses.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.http = hc }
}

func withGenerator(g generator) Option {
	return func(o *options) { o.models = g }
}

// New creates a provider for one model.
func New(model, apiKey string, opts ...Option) *Client {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return &Client{
		model:   model,
		apiKey:  apiKey,
		baseURL: o.baseURL,
		http:    o.http,
		models:  o.models,
	}
}

// Name returns "gemini:<model>".
func (c *Client) Name() string {
	return Kind + ":" + c.model
}

// Close drops the SDK client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models = nil
	return nil
}

// getOrCreateModels creates the SDK client on first use.
func (c *Client) getOrCreateModels(ctx context.Context) (generator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.models != nil {
		return c.models, nil
	}
	if c.apiKey == "" {
		return nil, &errors.AuthenticationError{
			Provider: c.Name(),
			Method:   "api_key",
			Message:  config.GeminiKeyEnv + " not set",
			Err:      errors.ErrAPIKeyRequired,
		}
	}

	cfg := &genai.ClientConfig{
		Backend:    genai.BackendGeminiAPI,
		APIKey:     c.apiKey,
		HTTPClient: c.http,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, errors.NewConfigError(c.Name(), "failed to create genai client", err)
	}
	c.models = client.Models
	return c.models, nil
}

// Fetch asks the model for the window's events. Only a strict JSON answer
// of the form {"events": [...]} is accepted.
func (c *Client) Fetch(ctx context.Context, q sources.Query) ([]events.RawRecord, error) {
	if strings.TrimSpace(q.Company) == "" {
		return nil, errors.NewValidationError("company", q.Company, "cannot be empty")
	}
	models, err := c.getOrCreateModels(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := models.GenerateContent(ctx, c.model, genai.Text(Prompt(q)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](Temperature),
		MaxOutputTokens:  MaxOutputTokens,
	})
	if err != nil {
		return nil, &errors.APIError{Provider: c.Name(), Message: "generate content failed", Err: err}
	}

	recs, err := c.parse(resp.Text())
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug().Str("model", c.model).Int("records", len(recs)).Msg("Gemini answered")
	return recs, nil
}

func (c *Client) parse(text string) ([]events.RawRecord, error) {
	raw := strings.TrimSpace(text)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	}
	if !gjson.Valid(raw) {
		return nil, errors.NewParseError("json", c.Name(), "answer is not valid JSON", nil)
	}
	list := gjson.Get(raw, "events")
	if !list.IsArray() {
		return nil, errors.NewParseError("json", c.Name(), `answer has no "events" array`, nil)
	}

	name := c.Name()
	var out []events.RawRecord
	for _, item := range list.Array() {
		fields, ok := item.Value().(map[string]any)
		if !ok {
			continue
		}
		if _, ok := fields["source"]; !ok {
			fields["source"] = SourceLabel
		}
		out = append(out, events.NewRawRecord(name, fields))
	}
	return out, nil
}

// Prompt builds the request text for a query.
func Prompt(q sources.Query) string {
	now := q.Now
	if now.IsZero() {
		now = q.Since().AddDate(q.Years, 0, 0)
	}
	return fmt.Sprintf(`Today's date is %s.
You are a senior corporate-finance analyst.

List all verifiable, publicly announced corporate events for %s
from January 1, %d up to today.

Include only acquisitions, mergers, divestitures, spin-offs, strategic
investments, partnerships, joint ventures, debt or equity offerings, bond
issues, and share-repurchase programs. Exclude earnings releases,
dividends, and management hires.

Return strictly valid JSON only:
{"events": [
  {
    "date": "YYYY-MM-DD",
    "event_name": "...",
    "description": "...",
    "counterparty": "...",
    "value": "...",
    "event_type": "..."
  }
]}`, now.Format("January 2, 2006"), q.Company, q.Since().Year())
}
