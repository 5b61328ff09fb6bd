package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func testConfig(ts *httptest.Server) Config {
	return Config{
		APIKey:     "test-key",
		BaseURL:    ts.URL,
		RatePerSec: 1000,
		HTTPClient: ts.Client(),
	}
}

func TestSearchParsesResults(t *testing.T) {
	var gotToken, gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Subscription-Token")
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"web":{"results":[
			{"title":"Monash IVF auditor","url":"https://example.com/a","description":"BDO signed the accounts"},
			{"title":"no url","url":"","description":"dropped"},
			{"title":"Second","url":"https://example.com/b","description":"More"}
		]}}`))
	}))
	defer ts.Close()

	c, err := NewClient(testConfig(ts))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	results, err := c.Search(context.Background(), "Monash IVF auditor")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results (blank URL dropped), got %+v", results)
	}
	if results[0].Title != "Monash IVF auditor" || results[0].Snippet != "BDO signed the accounts" {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
	if gotToken != "test-key" {
		t.Fatalf("missing subscription token, got %q", gotToken)
	}
	if gotQuery != "Monash IVF auditor" {
		t.Fatalf("unexpected query param: %q", gotQuery)
	}
}

func TestSearchRespectsMaxResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"web":{"results":[
			{"title":"a","url":"https://example.com/a"},
			{"title":"b","url":"https://example.com/b"},
			{"title":"c","url":"https://example.com/c"}
		]}}`))
	}))
	defer ts.Close()

	cfg := testConfig(ts)
	cfg.MaxResults = 2
	c, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	results, err := c.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected clamp to 2, got %d", len(results))
	}
}

func TestSearchRetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"web":{"results":[{"title":"a","url":"https://example.com/a"}]}}`))
	}))
	defer ts.Close()

	c, err := NewClient(testConfig(ts))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	results, err := c.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || calls.Load() != 2 {
		t.Fatalf("expected retry then success, results=%d calls=%d", len(results), calls.Load())
	}
}

func TestSearchAuthFailureDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	c, err := NewClient(testConfig(ts))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = c.Search(context.Background(), "q")
	if err == nil || !strings.Contains(err.Error(), "authentication") {
		t.Fatalf("expected auth error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("auth failures must not retry, calls=%d", calls.Load())
	}
}

func TestSearchMalformedResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer ts.Close()

	c, err := NewClient(testConfig(ts))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.Search(context.Background(), "q"); err == nil {
		t.Fatal("expected error on malformed body")
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestClampCutsOnRuneBoundary(t *testing.T) {
	if got := clamp([]byte("héllo"), 2); got != "h" {
		t.Fatalf("clamp = %q, want %q", got, "h")
	}
	if got := clamp([]byte("héllo"), 3); got != "hé" {
		t.Fatalf("clamp = %q, want %q", got, "hé")
	}
	if got := clamp([]byte("ok"), 10); got != "ok" {
		t.Fatalf("clamp = %q, want %q", got, "ok")
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	c, err := NewClient(Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.Search(context.Background(), "   "); err == nil {
		t.Fatal("expected error on empty query")
	}
}
