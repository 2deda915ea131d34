package policy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jonathan/privacy-lens/internal/crawling"
)

// minStaticText is the shortest extracted text accepted without rendering
// the page in a browser.
const minStaticText = 500

// settleDelay lets client-side scripts finish writing the page.
const settleDelay = 2 * time.Second

func needsRendering(text string) bool {
	return len(strings.TrimSpace(text)) < minStaticText
}

// Renderer renders a JavaScript page and returns its HTML.
type Renderer func(ctx context.Context, url string) (string, error)

// BrowserRenderer renders pages with a fresh session from launcher. Requests
// seen by the session are discarded.
func BrowserRenderer(launcher crawling.Launcher, timeout time.Duration, verbose bool) Renderer {
	if timeout <= 0 {
		timeout = crawling.DefaultNavigationTimeout
	}
	return func(ctx context.Context, url string) (string, error) {
		if verbose {
			log.Printf("[BROWSER] Rendering policy page: %s", url)
		}

		session, err := launcher.Launch(ctx, crawling.DefaultLaunchOptions())
		if err != nil {
			return "", fmt.Errorf("browser rendering failed: %w", err)
		}
		defer func() { _ = session.Close() }()

		go func() {
			for range session.Requests() {
			}
		}()

		navCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		// A page that never finishes loading may still have rendered its text.
		if err := session.Navigate(navCtx, url); err != nil && !navTimedOut(ctx, err) {
			return "", fmt.Errorf("browser rendering failed: %w", err)
		}

		select {
		case <-time.After(settleDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}

		var html string
		if err := session.Evaluate(ctx, "document.documentElement.outerHTML", &html); err != nil {
			return "", fmt.Errorf("failed to read rendered page: %w", err)
		}
		if verbose {
			log.Printf("[BROWSER] Rendered HTML: %d bytes", len(html))
		}
		return html, nil
	}
}

func navTimedOut(parent context.Context, err error) bool {
	if errors.Is(err, crawling.ErrNavigationTimeout) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil
}
