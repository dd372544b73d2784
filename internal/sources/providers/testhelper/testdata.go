// Package testhelper serves recorded upstream responses to provider tests.
package testhelper

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// LoadTestdata loads a file from the caller's testdata directory.
func LoadTestdata(t *testing.T, filename string) []byte {
	t.Helper()

	testdataPath := filepath.Join("testdata", filename)
	data, err := os.ReadFile(testdataPath) //nolint:gosec // Test file paths are controlled
	if err != nil {
		t.Fatalf("Failed to load testdata file %s: %v", testdataPath, err)
	}
	return data
}

// Upstream is a fake API that answers each path with a fixed status and
// body, and records the requests it saw.
type Upstream struct {
	*httptest.Server

	mu       sync.Mutex
	requests []*http.Request
}

// Route is a canned response.
type Route struct {
	Status      int
	Body        []byte
	ContentType string
}

// Serve starts an Upstream. Paths without a route answer 404.
func Serve(t *testing.T, routes map[string]Route) *Upstream {
	t.Helper()

	u := &Upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.requests = append(u.requests, r.Clone(r.Context()))
		u.mu.Unlock()

		route, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if route.ContentType != "" {
			w.Header().Set("Content-Type", route.ContentType)
		}
		if route.Status != 0 {
			w.WriteHeader(route.Status)
		}
		_, _ = w.Write(route.Body)
	}))
	t.Cleanup(u.Close)
	return u
}

// JSON is a 200 route with a JSON body.
func JSON(body []byte) Route {
	return Route{Body: body, ContentType: "application/json"}
}

// Requests returns the requests received so far.
func (u *Upstream) Requests() []*http.Request {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]*http.Request(nil), u.requests...)
}

// Last returns the most recent request, or nil.
func (u *Upstream) Last() *http.Request {
	reqs := u.Requests()
	if len(reqs) == 0 {
		return nil
	}
	return reqs[len(reqs)-1]
}
