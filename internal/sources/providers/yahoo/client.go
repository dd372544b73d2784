// Package yahoo reads corporate-action headlines from the Yahoo Finance
// search endpoint.
package yahoo

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/agentstation/eventmap/internal/sources/providers/registry"
	"github.com/agentstation/eventmap/internal/sources/relevance"
	"github.com/agentstation/eventmap/internal/transport"
	"github.com/agentstation/eventmap/pkg/constants"
	"github.com/agentstation/eventmap/pkg/errors"
	"github.com/agentstation/eventmap/pkg/events"
	"github.com/agentstation/eventmap/pkg/sources"
)

// Name is the provider name.
const Name = "yahoo_finance"

// SourceLabel is the source attributed to every record.
const SourceLabel = "Yahoo Finance"

func init() {
	registry.Register(registry.Entry{
		Kind: Name,
		New: func(s registry.Spec) (sources.Provider, error) {
			var opts []Option
			if s.BaseURL != "" {
				opts = append(opts, WithURL(s.BaseURL))
			}
			if s.HTTPClient != nil {
				opts = append(opts, WithHTTPClient(s.HTTPClient))
			}
			return New(opts...), nil
		},
	})
}

// Client implements sources.Provider.
type Client struct {
	url       string
	transport *transport.Client
}

type options struct {
	url  string
	http *http.Client
}

// Option configures a Client.
type Option func(*options)

// WithURL overrides the search endpoint.
func WithURL(u string) Option {
	return func(o *options) { o.url = u }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.http = hc }
}

// New creates a Yahoo Finance provider. It needs no credentials.
func New(opts ...Option) *Client {
	o := &options{url: constants.YahooSearchURL}
	for _, opt := range opts {
		opt(o)
	}
	var topts []transport.Option
	if o.http != nil {
		topts = append(topts, transport.WithHTTPClient(o.http))
	}
	return &Client{url: o.url, transport: transport.New(Name, topts...)}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return Name
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.transport.Close()
}

// Fetch searches news for the company and keeps relevant headlines.
func (c *Client) Fetch(ctx context.Context, q sources.Query) ([]events.RawRecord, error) {
	company := strings.TrimSpace(q.Company)
	if company == "" {
		return nil, errors.NewValidationError("company", q.Company, "cannot be empty")
	}

	body, err := c.transport.Get(ctx, c.url, url.Values{"q": {company}})
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.NewParseError("json", c.url, "invalid response body", nil)
	}

	var out []events.RawRecord
	gjson.GetBytes(body, "news").ForEach(func(_, item gjson.Result) bool {
		title := strings.TrimSpace(item.Get("title").String())
		published := item.Get("providerPublishTime")
		if title == "" || !published.Exists() || !relevance.Relevant(title) {
			return true
		}
		fields := map[string]any{
			"description": title,
			"date":        published.Int(),
			"source":      SourceLabel,
		}
		if link := item.Get("link").String(); link != "" {
			fields["url"] = link
		}
		out = append(out, events.NewRawRecord(Name, fields))
		return true
	})
	return out, nil
}
