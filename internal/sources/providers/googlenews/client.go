// Package googlenews reads corporate-action headlines from the Google News
// RSS search feed.
package googlenews

import (
	"bytes"
	"context"
	"encoding/xml"
	"net/http"
	"net/url"
	"strings"

	"github.com/agentstation/eventmap/internal/sources/providers/registry"
	"github.com/agentstation/eventmap/internal/sources/relevance"
	"github.com/agentstation/eventmap/internal/transport"
	"github.com/agentstation/eventmap/pkg/constants"
	"github.com/agentstation/eventmap/pkg/errors"
	"github.com/agentstation/eventmap/pkg/events"
	"github.com/agentstation/eventmap/pkg/sources"
)

// Name is the provider name.
const Name = "google_news"

// SourceLabel is used when an item names no publisher.
const SourceLabel = "Google News"

// queryTerms narrows the feed to deal coverage.
const queryTerms = " acquisition OR invest OR merger"

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

type feed struct {
	Items []item `xml:"channel>item"`
}

type item struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
	Source  string `xml:"source"`
}

// Client implements sources.Provider.
type Client struct {
	url       string
	locale    Locale
	transport *transport.Client
}

// Locale selects the feed edition.
type Locale struct {
	Language string // hl
	Country  string // gl
}

// DefaultLocale is the US English edition.
var DefaultLocale = Locale{Language: "en-US", Country: "US"}

type options struct {
	url    string
	locale Locale
	http   *http.Client
}

// Option configures a Client.
type Option func(*options)

// WithURL overrides the feed endpoint.
func WithURL(u string) Option {
	return func(o *options) { o.url = u }
}

// WithLocale selects the feed edition.
func WithLocale(l Locale) Option {
	return func(o *options) { o.locale = l }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.http = hc }
}

// New creates a Google News provider. It needs no credentials.
func New(opts ...Option) *Client {
	o := &options{url: constants.GoogleNewsRSSURL, locale: DefaultLocale}
	for _, opt := range opts {
		opt(o)
	}
	var topts []transport.Option
	if o.http != nil {
		topts = append(topts, transport.WithHTTPClient(o.http))
	}
	return &Client{url: o.url, locale: o.locale, transport: transport.New(Name, topts...)}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return Name
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.transport.Close()
}

// Fetch searches the feed for the company and keeps relevant headlines.
func (c *Client) Fetch(ctx context.Context, q sources.Query) ([]events.RawRecord, error) {
	company := strings.TrimSpace(q.Company)
	if company == "" {
		return nil, errors.NewValidationError("company", q.Company, "cannot be empty")
	}

	params := url.Values{
		"q":    {company + queryTerms},
		"hl":   {c.locale.Language},
		"gl":   {c.locale.Country},
		"ceid": {c.locale.Country + ":" + strings.SplitN(c.locale.Language, "-", 2)[0]},
	}
	body, err := c.transport.Get(ctx, c.url, params)
	if err != nil {
		return nil, err
	}

	var f feed
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&f); err != nil {
		return nil, errors.NewParseError("rss", c.url, "invalid feed", err)
	}

	var out []events.RawRecord
	for _, it := range f.Items {
		title := strings.TrimSpace(it.Title)
		if title == "" || strings.TrimSpace(it.PubDate) == "" || !relevance.Relevant(title) {
			continue
		}
		source := strings.TrimSpace(it.Source)
		if source == "" {
			source = SourceLabel
		}
		fields := map[string]any{
			"description": trimPublisher(title, source),
			"date":        strings.TrimSpace(it.PubDate),
			"source":      source,
		}
		if link := strings.TrimSpace(it.Link); link != "" {
			fields["url"] = link
		}
		out = append(out, events.NewRawRecord(Name, fields))
	}
	return out, nil
}

// trimPublisher drops the " - Publisher" suffix Google appends to titles.
func trimPublisher(title, publisher string) string {
	if t, ok := strings.CutSuffix(title, " - "+publisher); ok {
		return strings.TrimSpace(t)
	}
	return title
}
