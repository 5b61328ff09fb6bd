// Package webfetch renders pages in headless Chromium and extracts readable
// text for the deep-fetch extraction strategy.
package webfetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

const (
	DefaultPageTimeout = 25 * time.Second
	maxTextBytes       = 200_000
)

type Fetcher struct {
	chromePath  string
	pageTimeout time.Duration
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		chromePath:  detectChromePath(),
		pageTimeout: DefaultPageTimeout,
	}
}

// FetchText navigates to url, waits for the document body, and returns the
// page's visible text with scripts, styles and navigation chrome removed.
func (f *Fetcher) FetchText(ctx context.Context, url string) (string, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", fmt.Errorf("unsupported url scheme: %s", url)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, f.pageTimeout)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if f.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(f.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var rendered string
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &rendered, chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return ExtractText(rendered)
}

// ExtractText strips non-content elements from an HTML document and returns
// the collapsed visible text.
func ExtractText(htmlDoc string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlDoc))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, nav, header, footer, iframe, svg").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		return "", errors.New("document has no body")
	}
	text := strings.Join(strings.Fields(body.Text()), " ")
	if len(text) > maxTextBytes {
		text = text[:maxTextBytes]
	}
	return text, nil
}

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
