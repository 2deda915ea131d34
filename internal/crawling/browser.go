package crawling

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/privacy-lens/internal/types"
)

// DefaultUserAgent is a current desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// Network quiescence after load is awaited for at most maxIdleWait. Pages
// that poll forever never go idle.
const (
	maxIdleWait = 10 * time.Second
	idleQuiet   = 500 * time.Millisecond
)

// LaunchOptions configures a browser session.
type LaunchOptions struct {
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	Headless       bool
}

// DefaultLaunchOptions returns a realistic desktop profile.
func DefaultLaunchOptions() LaunchOptions {
	return LaunchOptions{
		UserAgent:      DefaultUserAgent,
		ViewportWidth:  1366,
		ViewportHeight: 768,
		Headless:       true,
	}
}

// Launcher creates isolated browser sessions.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Session, error)
}

// Session is a single browser tab. Observation starts at launch, before any
// navigation. Requests is closed by Close; Close is idempotent.
type Session interface {
	Requests() <-chan types.TrackerObservation
	Navigate(ctx context.Context, url string) error
	Evaluate(ctx context.Context, js string, out any) error
	Visible(ctx context.Context, selector string) (bool, error)
	Click(ctx context.Context, selector string) error
	MoveMouse(ctx context.Context, x, y float64) error
	Viewport(ctx context.Context) (width, height float64, err error)
	Close() error
}

// requestStream fans browser events into a channel that is safe to close
// while event callbacks may still fire.
type requestStream struct {
	mu     sync.Mutex
	ch     chan types.TrackerObservation
	closed bool
}

func newRequestStream() *requestStream {
	return &requestStream{ch: make(chan types.TrackerObservation, 256)}
}

func (s *requestStream) emit(rawURL, resourceType, method string) {
	obs, ok := observation(rawURL, resourceType, method)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.ch <- obs
}

func (s *requestStream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// observation builds a TrackerObservation for network URLs. Requests without
// a host (data:, blob:, about:) are skipped.
func observation(rawURL, resourceType, method string) (types.TrackerObservation, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return types.TrackerObservation{}, false
	}
	return types.TrackerObservation{
		URL:          rawURL,
		Hostname:     strings.ToLower(u.Hostname()),
		ResourceType: strings.ToLower(resourceType),
		Method:       strings.ToUpper(method),
	}, true
}

// visibleJS returns an expression that is true when selector matches a
// rendered, non-hidden element.
func visibleJS(selector string) string {
	quoted, _ := json.Marshal(selector)
	return `(() => {
	const el = document.querySelector(` + string(quoted) + `);
	if (!el) return false;
	const r = el.getBoundingClientRect();
	const st = window.getComputedStyle(el);
	return r.width > 0 && r.height > 0 && st.visibility !== "hidden" && st.display !== "none";
})()`
}

const viewportJS = `[window.innerWidth, window.innerHeight]`

// awaitIdle waits until idle is closed, giving up quietly after limit. It
// fails only when ctx ends first.
func awaitIdle(ctx context.Context, idle <-chan struct{}, limit time.Duration) error {
	timer := time.NewTimer(limit)
	defer timer.Stop()
	select {
	case <-idle:
		return ctx.Err()
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
