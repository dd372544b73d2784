// Package transport is the HTTP layer shared by the network event providers.
// It applies authentication, retries transient failures inside the caller's
// deadline, and maps error statuses to *errors.APIError.
package transport

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/agentstation/eventmap/pkg/constants"
	"github.com/agentstation/eventmap/pkg/errors"
	"github.com/agentstation/eventmap/pkg/logging"
)

// Defaults for a transport client.
const (
	DefaultHTTPTimeout = constants.DefaultHTTPTimeout
	DefaultRetries     = constants.MaxRetries
	DefaultBackoff     = constants.RetryBackoff
	DefaultUserAgent   = "eventmap/1.0"

	// maxErrorBody bounds how much of an error response ends up in messages.
	maxErrorBody = 512
)

// Client performs authenticated requests against one upstream API.
type Client struct {
	name    string
	rc      *resty.Client
	auth    Authenticator
	apiKey  string
	retries uint64
	backoff time.Duration
}

type options struct {
	auth      Authenticator
	apiKey    string
	retries   uint64
	backoff   time.Duration
	timeout   time.Duration
	http      *http.Client
	userAgent string
	headers   map[string]string
}

// Option configures a Client.
type Option func(*options)

// WithAuth sets the authenticator and the key it applies.
func WithAuth(a Authenticator, apiKey string) Option {
	return func(o *options) {
		o.auth = a
		o.apiKey = apiKey
	}
}

// WithRetries sets how many times a transient failure is retried.
func WithRetries(n uint64) Option {
	return func(o *options) { o.retries = n }
}

// WithBackoff sets the base delay of the exponential backoff.
func WithBackoff(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.backoff = d
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.http = hc }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(o *options) { o.headers[key] = value }
}

// New creates a transport client. Name identifies the upstream in errors
// and logs.
func New(name string, opts ...Option) *Client {
	o := &options{
		auth:      &NoAuth{},
		retries:   DefaultRetries,
		backoff:   DefaultBackoff,
		timeout:   DefaultHTTPTimeout,
		userAgent: DefaultUserAgent,
		headers:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.auth == nil {
		o.auth = &NoAuth{}
	}

	rc := resty.New()
	if o.http != nil {
		rc = resty.NewWithClient(o.http)
	}
	rc.SetTimeout(o.timeout).
		SetHeader("User-Agent", o.userAgent).
		SetHeaders(o.headers).
		SetLogger(restyLogger{logger: logging.Default()})

	c := &Client{
		name:    name,
		rc:      rc,
		auth:    o.auth,
		apiKey:  o.apiKey,
		retries: o.retries,
		backoff: o.backoff,
	}
	if o.apiKey != "" {
		rc.SetPreRequestHook(func(_ *resty.Client, req *http.Request) error {
			c.auth.Apply(req, c.apiKey)
			return nil
		})
	}
	return c
}

// Name returns the upstream name.
func (c *Client) Name() string {
	return c.name
}

// Get performs a GET request and returns the response body.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, endpoint, func(r *resty.Request) {
		r.SetHeader("Accept", "application/json, application/xml;q=0.9, */*;q=0.8")
		if len(query) > 0 {
			r.SetQueryParamsFromValues(query)
		}
	})
}

// PostJSON sends body as JSON and returns the response body.
func (c *Client) PostJSON(ctx context.Context, endpoint string, body any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, endpoint, func(r *resty.Request) {
		r.SetHeader("Accept", "application/json").
			SetHeader("Content-Type", "application/json").
			SetBody(body)
	})
}

func (c *Client) do(ctx context.Context, method, endpoint string, build func(*resty.Request)) ([]byte, error) {
	logger := logging.FromContext(ctx)
	backoff := retry.WithMaxRetries(c.retries, retry.NewExponential(c.backoff))

	var body []byte
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		req := c.rc.R().SetContext(ctx)
		build(req)

		resp, err := req.Execute(method, endpoint)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Debug().Err(err).Str("endpoint", endpoint).Int("attempt", attempt).Msg("Request failed")
			return retry.RetryableError(&errors.APIError{
				Provider: c.name,
				Message:  "request failed",
				Endpoint: endpoint,
				Err:      err,
			})
		}

		if code := resp.StatusCode(); code >= http.StatusBadRequest {
			apiErr := &errors.APIError{
				Provider:   c.name,
				StatusCode: code,
				Message:    truncate(strings.TrimSpace(resp.String())),
				Endpoint:   endpoint,
			}
			if apiErr.Retryable() {
				logger.Debug().Int("status", code).Str("endpoint", endpoint).Int("attempt", attempt).Msg("Retrying request")
				return retry.RetryableError(apiErr)
			}
			return apiErr
		}

		body = resp.Body()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.rc.GetClient().CloseIdleConnections()
	return nil
}

func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	return s[:maxErrorBody] + "..."
}

// restyLogger routes resty's internal messages to zerolog.
type restyLogger struct {
	logger *zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Error().Msgf(strings.TrimSpace(format), v...)
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn().Msgf(strings.TrimSpace(format), v...)
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug().Msgf(strings.TrimSpace(format), v...)
}
