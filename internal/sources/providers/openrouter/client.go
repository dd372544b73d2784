// Package openrouter asks chat models on OpenRouter for a company's
// corporate events and reads the labelled blocks they answer with.
package openrouter

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/agentstation/eventmap/internal/config"
	"github.com/agentstation/eventmap/internal/sources/providers/registry"
	"github.com/agentstation/eventmap/internal/transport"
	"github.com/agentstation/eventmap/pkg/constants"
	"github.com/agentstation/eventmap/pkg/errors"
	"github.com/agentstation/eventmap/pkg/events"
	"github.com/agentstation/eventmap/pkg/logging"
	"github.com/agentstation/eventmap/pkg/sources"
	"github.com/agentstation/eventmap/pkg/textblock"
)

// Kind is the provider kind; names take the form "openrouter:<model>".
const Kind = "openrouter"

// SourceLabel is the source attributed to model answers.
const SourceLabel = "AI"

// DefaultModels is the fallback order used when no chain is configured.
var DefaultModels = []string{
	"openai/gpt-4.1-mini",
	"deepseek/deepseek-chat",
	"anthropic/claude-3-haiku",
}

// DefaultTemperature keeps answers close to the record.
const DefaultTemperature = 0.25

func init() {
	registry.Register(registry.Entry{
		Kind:       Kind,
		Credential: config.OpenRouterKeyEnv,
		NeedsArg:   true,
		New: func(s registry.Spec) (sources.Provider, error) {
			var opts []Option
			if s.BaseURL != "" {
				opts = append(opts, WithURL(s.BaseURL))
			}
			if s.HTTPClient != nil {
				opts = append(opts, WithHTTPClient(s.HTTPClient))
			}
			return New(s.Arg, s.Credentials.OpenRouter, opts...), nil
		},
	})
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// Client implements sources.Provider for one model.
type Client struct {
	model     string
	apiKey    string
	url       string
	transport *transport.Client
}

type options struct {
	url  string
	http *http.Client
}

// Option configures a Client.
type Option func(*options)

// WithURL overrides the chat completions endpoint.
func WithURL(u string) Option {
	return func(o *options) { o.url = u }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.http = hc }
}

// New creates a provider for one model.
func New(model, apiKey string, opts ...Option) *Client {
	o := &options{url: constants.OpenRouterChatURL}
	for _, opt := range opts {
		opt(o)
	}
	topts := []transport.Option{transport.WithAuth(&transport.BearerAuth{}, apiKey)}
	if o.http != nil {
		topts = append(topts, transport.WithHTTPClient(o.http))
	}
	return &Client{
		model:     model,
		apiKey:    apiKey,
		url:       o.url,
		transport: transport.New(Kind, topts...),
	}
}

// Name returns "openrouter:<model>".
func (c *Client) Name() string {
	return Kind + ":" + c.model
}

// Model returns the model ID.
func (c *Client) Model() string {
	return c.model
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.transport.Close()
}

// Fetch asks the model for events and parses its answer. Blocks that break
// the grammar are discarded and logged.
func (c *Client) Fetch(ctx context.Context, q sources.Query) ([]events.RawRecord, error) {
	if c.apiKey == "" {
		return nil, errors.NewAuthenticationError(c.Name(), "bearer", config.OpenRouterKeyEnv+" not set", errors.ErrAPIKeyRequired)
	}
	if strings.TrimSpace(q.Company) == "" {
		return nil, errors.NewValidationError("company", q.Company, "cannot be empty")
	}

	body, err := c.transport.PostJSON(ctx, c.url, chatRequest{
		Model:       c.model,
		Messages:    Prompt(q),
		Temperature: DefaultTemperature,
		MaxTokens:   constants.MaxLLMTokens,
	})
	if err != nil {
		return nil, err
	}

	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
		return nil, &errors.APIError{
			Provider:   c.Name(),
			StatusCode: int(gjson.GetBytes(body, "error.code").Int()),
			Message:    msg.String(),
			Endpoint:   c.url,
		}
	}
	content := gjson.GetBytes(body, "choices.0.message.content")
	if !content.Exists() {
		return nil, errors.NewParseError("json", c.url, "response has no choices", nil)
	}

	blocks, perr := textblock.Parse(content.String())
	logger := logging.FromContext(ctx)
	switch {
	case perr != nil:
		logger.Warn().Err(perr).Str("model", c.model).Int("blocks", len(blocks)).Msg("Discarded malformed event blocks")
	case len(blocks) == 0 && strings.TrimSpace(content.String()) != "":
		logger.Warn().Str("model", c.model).Int("length", len(content.String())).Msg("Model answer contained no event blocks")
	}

	name := c.Name()
	out := make([]events.RawRecord, 0, len(blocks))
	for _, fields := range textblock.Records(blocks) {
		if _, ok := fields["source"]; !ok {
			fields["source"] = SourceLabel
		}
		out = append(out, events.NewRawRecord(name, fields))
	}
	return out, nil
}

// outputLabels is the block layout the model is asked to follow.
var outputLabels = []string{
	"Description",
	"Date",
	"Type",
	"Other Counterparty",
	"Counterparty Status",
	"Investment",
	"Enterprise Value",
	"Advisors",
}

// Prompt builds the chat messages for a query.
func Prompt(q sources.Query) []Message {
	layout := textblock.Format([]map[string]string{{}}, outputLabels...)

	since := q.Since().Year()
	user := fmt.Sprintf("Corporate events for: %s\n"+
		"Period: %d to present.\n"+
		"List acquisitions, mergers, divestitures, spin-offs, strategic investments, "+
		"partnerships, joint ventures, equity and debt offerings, and buybacks.\n"+
		"Use YYYY-MM-DD dates. Write Unknown for anything you cannot state.\n"+
		"Output format, one block per event:\n%s", q.Company, since, layout)

	return []Message{
		{
			Role: "system",
			Content: "You are an expert in corporate intelligence.\n" +
				"Only report publicly announced, verifiable events.\n" +
				"Return ONLY the structured blocks, with no other text.",
		},
		{Role: "user", Content: user},
	}
}
