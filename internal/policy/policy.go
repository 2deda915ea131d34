// Package policy acquires and normalises privacy policy text.
package policy

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/jonathan/privacy-lens/internal/fetch"
)

// MaxTextLength caps stored policy text, in bytes.
const MaxTextLength = 200_000

var strict = bluemonday.StrictPolicy()

// Normalize strips markup from policy text, decodes entities, collapses
// whitespace and caps the length. Plain text passes through with only
// whitespace changes.
func Normalize(text string) string {
	if strings.ContainsAny(text, "<>") {
		text = strict.Sanitize(text)
	}
	text = html.UnescapeString(text)

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	text = strings.Join(out, "\n")

	if len(text) > MaxTextLength {
		text = truncateUTF8(text, MaxTextLength)
	}
	return text
}

func truncateUTF8(s string, n int) string {
	for n > 0 && n < len(s) && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// Fetcher downloads a policy page and returns its normalised text.
type Fetcher struct {
	pages   *fetch.CachedFetcher
	render  Renderer
	verbose bool
}

// NewFetcher creates a Fetcher. render may be nil to disable the browser
// fallback for script-rendered pages.
func NewFetcher(pages *fetch.CachedFetcher, render Renderer, verbose bool) *Fetcher {
	if pages == nil {
		pages = fetch.NewCachedFetcher(nil)
	}
	return &Fetcher{pages: pages, render: render, verbose: verbose}
}

// Fetch returns the policy text at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	res, err := f.pages.Fetch(ctx, url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch policy: %w", err)
	}

	text, err := fetch.ExtractMainText(res.HTML, fetch.PolicySelectors())
	if err != nil {
		return "", fmt.Errorf("failed to extract policy text: %w", err)
	}

	if needsRendering(text) && f.render != nil {
		if f.verbose {
			log.Printf("[POLICY] Only %d chars extracted from %s, rendering in browser", len(text), url)
		}
		rendered, rerr := f.render(ctx, url)
		if rerr != nil {
			log.Printf("[POLICY] Warning: browser render failed for %s: %v", url, rerr)
		} else if rtext, xerr := fetch.ExtractMainText(rendered, fetch.PolicySelectors()); xerr == nil && len(rtext) > len(text) {
			text = rtext
		}
	}

	text = Normalize(text)
	if f.verbose {
		log.Printf("[POLICY] Fetched %d chars of policy text from %s", len(text), url)
	}
	return text, nil
}
