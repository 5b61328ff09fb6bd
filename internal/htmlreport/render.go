// Package htmlreport converts a markdown batch report into a standalone
// HTML document.
package htmlreport

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const styleCSS = `body{font-family:Georgia,serif;max-width:900px;margin:0 auto;padding:1.5rem;color:#1c1917;background:#fff;}
h1{border-bottom:2px solid #92400e;padding-bottom:0.3rem;}
h2{margin-top:2rem;color:#44403c;}
table{width:100%;border-collapse:collapse;font-size:0.85rem;}
th,td{border:1px solid #a8a29e;padding:0.35rem 0.5rem;text-align:left;vertical-align:top;}
thead th{background:#f1f5f9;font-weight:700;}
code{background:#f9f7f3;padding:0.1rem 0.25rem;}`

// Render converts report markdown to a full HTML page.
func Render(markdown string) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return "<!doctype html><html><head><meta charset='utf-8'><title>Who Cares Report</title>" +
		"<style>" + styleCSS + "</style></head><body>" +
		content.String() +
		"</body></html>", nil
}
