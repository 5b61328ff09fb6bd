// Package websearch is a thin client for a Brave-style web search JSON API.
// It is one of the replaceable data sources feeding the discovery pipeline:
// failures surface as errors to the adapter, which degrades them.
package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/jpcallaghan/whocares/internal/discovery"
)

const (
	DefaultBaseURL    = "https://api.search.brave.com/res/v1/web/search"
	DefaultMaxResults = 8
	DefaultRatePerSec = 1
)

type Config struct {
	APIKey     string
	BaseURL    string
	MaxResults int
	RatePerSec float64
	HTTPClient *http.Client
}

type Client struct {
	cfg     Config
	limiter *rate.Limiter
}

func NewClient(cfg Config) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("SEARCH_API_KEY not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = DefaultRatePerSec
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{cfg: cfg, limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)}, nil
}

type apiResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search issues one rate-limited query with retry on 429/5xx.
func (c *Client) Search(ctx context.Context, query string) ([]discovery.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("empty query")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		results, code, retryAfter, err := c.searchOnce(ctx, query)
		if err == nil {
			return results, nil
		}
		lastErr = err
		if code == http.StatusUnauthorized || code == http.StatusForbidden {
			return nil, fmt.Errorf("search authentication failed: %w", err)
		}
		retryable := code == http.StatusTooManyRequests || code >= 500 || code == 0
		if !retryable || attempt == 3 {
			break
		}
		sleep := retryAfter
		if sleep <= 0 {
			sleep = time.Duration(attempt) * time.Second
		}
		t := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return nil, lastErr
}

func (c *Client) searchOnce(ctx context.Context, query string) ([]discovery.SearchResult, int, time.Duration, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, 0, 0, err
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("count", strconv.Itoa(c.cfg.MaxResults))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, 0, 0, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.cfg.APIKey)

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, 0, err
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(res.Body, 2<<20))

	retryAfter := parseRetryAfter(res.Header.Get("Retry-After"))
	if res.StatusCode >= 400 {
		return nil, res.StatusCode, retryAfter, fmt.Errorf("status code: %d body=%s", res.StatusCode, clamp(body, 200))
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, res.StatusCode, retryAfter, fmt.Errorf("malformed search response: %w", err)
	}

	out := make([]discovery.SearchResult, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		out = append(out, discovery.SearchResult{
			Title:   strings.TrimSpace(r.Title),
			URL:     r.URL,
			Snippet: strings.TrimSpace(r.Description),
		})
		if len(out) >= c.cfg.MaxResults {
			break
		}
	}
	return out, res.StatusCode, retryAfter, nil
}

func parseRetryAfter(v string) time.Duration {
	if strings.TrimSpace(v) == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func clamp(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	for n > 0 && !utf8.RuneStart(b[n]) {
		n--
	}
	return string(b[:n])
}
