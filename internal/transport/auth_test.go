package transport

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(t *testing.T, raw string) *http.Request {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return &http.Request{URL: u, Header: make(http.Header)}
}

func TestNoAuth(t *testing.T) {
	req := newRequest(t, "https://example.com/api")
	(&NoAuth{}).Apply(req, "test-api-key")

	assert.Empty(t, req.Header)
	assert.Empty(t, req.URL.RawQuery)
}

func TestBearerAuth(t *testing.T) {
	req := newRequest(t, "https://example.com/api")
	(&BearerAuth{}).Apply(req, "test-api-key")

	assert.Equal(t, "Bearer test-api-key", req.Header.Get("Authorization"))
}

func TestHeaderAuth(t *testing.T) {
	req := newRequest(t, "https://example.com/api")
	(&HeaderAuth{Header: "X-Finnhub-Token"}).Apply(req, "test-api-key")

	assert.Equal(t, "test-api-key", req.Header.Get("X-Finnhub-Token"))
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestQueryAuth(t *testing.T) {
	auth := &QueryAuth{Param: "token"}

	t.Run("adds param", func(t *testing.T) {
		req := newRequest(t, "https://finnhub.io/api/v1/merger")
		auth.Apply(req, "test-api-key")
		assert.Equal(t, "test-api-key", req.URL.Query().Get("token"))
	})

	t.Run("keeps existing params", func(t *testing.T) {
		req := newRequest(t, "https://finnhub.io/api/v1/merger?symbol=ACME")
		auth.Apply(req, "test-api-key")
		q := req.URL.Query()
		assert.Equal(t, "test-api-key", q.Get("token"))
		assert.Equal(t, "ACME", q.Get("symbol"))
	})

	t.Run("nil URL", func(t *testing.T) {
		req := &http.Request{Header: make(http.Header)}
		assert.NotPanics(t, func() { auth.Apply(req, "test-api-key") })
	})
}
