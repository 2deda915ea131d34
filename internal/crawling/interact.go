package crawling

import (
	"context"
	"fmt"
	"log"
)

// ConsentSelectors is tried in order; the first visible match is clicked.
var ConsentSelectors = []string{
	"#onetrust-accept-btn-handler",
	"#didomi-notice-agree-button",
	"#CybotCookiebotDialogBodyLevelButtonLevelOptinAllowAll",
	".fc-cta-consent",
	"#truste-consent-button",
	".qc-cmp2-summary-buttons button[mode='primary']",
	"button[aria-label*='Accept']",
	"button[id*='accept']",
	"button[class*='accept']",
	"[data-testid*='accept']",
	".cc-allow",
	".cookie-consent button",
}

// simulate scrolls, accepts a consent banner, moves the pointer and scrolls
// back to surface lazily loaded trackers. Each step is independent; a
// failure is logged and the next step runs.
func (d *Detector) simulate(ctx context.Context, s Session) {
	steps := []struct {
		name string
		run  func() error
	}{
		{"scroll down", func() error {
			return s.Evaluate(ctx, "window.scrollTo(0, document.body.scrollHeight / 2)", nil)
		}},
		{"accept consent", func() error {
			_, err := clickConsent(ctx, s)
			return err
		}},
		{"move pointer", func() error {
			w, h, err := s.Viewport(ctx)
			if err != nil {
				return err
			}
			return s.MoveMouse(ctx, w/2, h/2)
		}},
		{"scroll up", func() error {
			return s.Evaluate(ctx, "window.scrollTo(0, 0)", nil)
		}},
	}

	for _, step := range steps {
		if err := runStep(step.run); err != nil && d.verbose {
			log.Printf("[CRAWL] Interaction %q failed: %v", step.name, err)
		}
		sleep(ctx, d.delays.Step)
	}
}

func runStep(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// clickConsent clicks the first visible consent button and returns its
// selector, or "" when none is visible.
func clickConsent(ctx context.Context, s Session) (string, error) {
	for _, sel := range ConsentSelectors {
		visible, err := s.Visible(ctx, sel)
		if err != nil || !visible {
			continue
		}
		if err := s.Click(ctx, sel); err != nil {
			return sel, fmt.Errorf("click %s: %w", sel, err)
		}
		return sel, nil
	}
	return "", nil
}
