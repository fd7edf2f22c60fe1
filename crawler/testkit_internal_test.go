package crawler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

const fixtureBaseURL = "https://example.com"

var fixtureTime = time.Date(2024, time.June, 1, 12, 34, 56, 0, time.UTC)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (fn roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return fn(req) }

type roundTripResponder func(*http.Request) (*http.Response, error)

// requestLog counts requests per host+path.
type requestLog struct {
	mu   sync.Mutex
	hits map[string]int
}

func newRequestLog() *requestLog {
	return &requestLog{hits: map[string]int{}}
}

func (l *requestLog) record(req *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.hits[req.URL.Host+requestPath(req)]++
}

func (l *requestLog) count(hostPath string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.hits[hostPath]
}

// newFixtureClientWithRoutes returns an http.Client that routes by path for
// host "example.com"; unknown paths and other hosts answer 404.
func newFixtureClientWithRoutes(t *testing.T, log *requestLog, routes map[string]roundTripResponder) *http.Client {
	t.Helper()

	return &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if log != nil {
				log.record(req)
			}

			if !strings.EqualFold(req.URL.Host, "example.com") {
				return responseForRequest(req, http.StatusNotFound, "not found", nil), nil
			}

			h, ok := routes[requestPath(req)]
			if !ok {
				return responseForRequest(req, http.StatusNotFound, "not found", nil), nil
			}

			return h(req)
		}),
	}
}

func requestPath(req *http.Request) string {
	path := req.URL.EscapedPath()
	if path == "" {
		path = "/"
	}

	return path
}

func htmlPage(body string) roundTripResponder {
	return func(req *http.Request) (*http.Response, error) {
		return responseForRequest(req, http.StatusOK, body, htmlHeader()), nil
	}
}

func htmlHeader() http.Header {
	return http.Header{"Content-Type": []string{"text/html; charset=utf-8"}}
}

func responseWithBody(status int, body []byte, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}

	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(body)),
	}
}

func responseForRequest(req *http.Request, status int, body string, header http.Header) *http.Response {
	resp := responseWithBody(status, []byte(body), header)
	resp.Request = req

	return resp
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Sleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func testOptions(client *http.Client) Options {
	return Options{
		URL:        fixtureBaseURL,
		Timeout:    time.Second,
		UserAgent:  "test-agent",
		HTTPClient: client,
		Clock:      &testClock{now: fixtureTime},
	}
}

func pageURLs(pages []Page) []string {
	urls := make([]string, 0, len(pages))
	for _, page := range pages {
		urls = append(urls, page.URL)
	}

	return urls
}
