// Package finnhub fetches M&A records and company news from the Finnhub API.
package finnhub

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/agentstation/eventmap/internal/config"
	"github.com/agentstation/eventmap/internal/sources/providers/registry"
	"github.com/agentstation/eventmap/internal/sources/relevance"
	"github.com/agentstation/eventmap/internal/transport"
	"github.com/agentstation/eventmap/pkg/constants"
	"github.com/agentstation/eventmap/pkg/errors"
	"github.com/agentstation/eventmap/pkg/events"
	"github.com/agentstation/eventmap/pkg/logging"
	"github.com/agentstation/eventmap/pkg/sources"
)

// Provider names.
const (
	MNAName  = "finnhub_mna"
	NewsName = "finnhub_news"
)

// SourceLabel is the source attributed to M&A records.
const SourceLabel = "Finnhub"

func init() {
	registry.Register(registry.Entry{
		Kind:       MNAName,
		Credential: config.FinnhubKeyEnv,
		New: func(s registry.Spec) (sources.Provider, error) {
			return NewMNA(s.Credentials.Finnhub, specOptions(s)...), nil
		},
	})
	registry.Register(registry.Entry{
		Kind:       NewsName,
		Credential: config.FinnhubKeyEnv,
		New: func(s registry.Spec) (sources.Provider, error) {
			return NewNews(s.Credentials.Finnhub, specOptions(s)...), nil
		},
	})
}

func specOptions(s registry.Spec) []Option {
	var opts []Option
	if s.BaseURL != "" {
		opts = append(opts, WithBaseURL(s.BaseURL))
	}
	if s.HTTPClient != nil {
		opts = append(opts, WithHTTPClient(s.HTTPClient))
	}
	return opts
}

type endpoint int

const (
	mergers endpoint = iota
	companyNews
)

// Client implements sources.Provider for one Finnhub endpoint.
type Client struct {
	name      string
	endpoint  endpoint
	apiKey    string
	baseURL   string
	transport *transport.Client
	now       func() time.Time
}

type options struct {
	baseURL string
	http    *http.Client
	now     func() time.Time
}

// Option configures a Client.
type Option func(*options)

// WithBaseURL overrides the API root.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.http = hc }
}

// WithClock sets the clock used for the news date range.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewMNA creates the merger-records provider.
func NewMNA(apiKey string, opts ...Option) *Client {
	return newClient(MNAName, mergers, apiKey, opts...)
}

// NewNews creates the company-news provider. Headlines are kept only when
// they read like corporate actions.
func NewNews(apiKey string, opts ...Option) *Client {
	return newClient(NewsName, companyNews, apiKey, opts...)
}

func newClient(name string, ep endpoint, apiKey string, opts ...Option) *Client {
	o := &options{baseURL: constants.FinnhubBaseURL, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	topts := []transport.Option{transport.WithAuth(&transport.QueryAuth{Param: "token"}, apiKey)}
	if o.http != nil {
		topts = append(topts, transport.WithHTTPClient(o.http))
	}
	return &Client{
		name:      name,
		endpoint:  ep,
		apiKey:    apiKey,
		baseURL:   o.baseURL,
		transport: transport.New(name, topts...),
		now:       o.now,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return c.name
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.transport.Close()
}

// Fetch queries the endpoint for the query's ticker.
func (c *Client) Fetch(ctx context.Context, q sources.Query) ([]events.RawRecord, error) {
	if c.apiKey == "" {
		return nil, errors.NewAuthenticationError(c.name, "query", config.FinnhubKeyEnv+" not set", errors.ErrAPIKeyRequired)
	}
	symbol := strings.ToUpper(strings.TrimSpace(q.Ticker()))
	if symbol == "" {
		return nil, errors.NewValidationError("symbol", q.Ticker(), "cannot be empty")
	}

	switch c.endpoint {
	case companyNews:
		return c.fetchNews(ctx, symbol, q)
	default:
		return c.fetchMergers(ctx, symbol)
	}
}

func (c *Client) fetchMergers(ctx context.Context, symbol string) ([]events.RawRecord, error) {
	body, err := c.transport.Get(ctx, c.baseURL+"/merger", url.Values{"symbol": {symbol}})
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.NewParseError("json", "/merger", "invalid response body", nil)
	}

	logger := logging.FromContext(ctx)
	var out []events.RawRecord
	gjson.GetBytes(body, "data").ForEach(func(_, item gjson.Result) bool {
		headline := strings.TrimSpace(item.Get("headline").String())
		if headline == "" || !relevance.Relevant(headline) {
			return true
		}
		fields := map[string]any{
			"description": headline,
			"type":        "M&A",
			"source":      SourceLabel,
		}
		set(fields, "date", item.Get("date"))
		set(fields, "other_party", item.Get("partner"))
		set(fields, "investment", item.Get("value"))
		out = append(out, events.NewRawRecord(c.name, fields))
		return true
	})
	logger.Debug().Int("records", len(out)).Msg("Fetched Finnhub merger records")
	return out, nil
}

func (c *Client) fetchNews(ctx context.Context, symbol string, q sources.Query) ([]events.RawRecord, error) {
	if q.Now.IsZero() {
		q.Now = c.now()
	}
	params := url.Values{
		"symbol": {symbol},
		"from":   {q.Since().Format(events.DateLayout)},
		"to":     {q.Now.UTC().Format(events.DateLayout)},
	}
	body, err := c.transport.Get(ctx, c.baseURL+"/company-news", params)
	if err != nil {
		return nil, err
	}
	root := gjson.ParseBytes(body)
	if !gjson.ValidBytes(body) || !root.IsArray() {
		return nil, errors.NewParseError("json", "/company-news", "expected an array of articles", nil)
	}

	var out []events.RawRecord
	root.ForEach(func(_, item gjson.Result) bool {
		headline := strings.TrimSpace(item.Get("headline").String())
		if headline == "" || !relevance.Relevant(headline) {
			return true
		}
		fields := map[string]any{"title": headline}
		set(fields, "description", item.Get("summary"))
		set(fields, "source", item.Get("source"))
		set(fields, "url", item.Get("url"))
		if ts := item.Get("datetime"); ts.Exists() {
			fields["date"] = ts.Int()
		}
		out = append(out, events.NewRawRecord(c.name, fields))
		return true
	})
	return out, nil
}

func set(fields map[string]any, key string, v gjson.Result) {
	if v.Exists() && v.Type != gjson.Null {
		fields[key] = v.Value()
	}
}
