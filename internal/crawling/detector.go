package crawling

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/privacy-lens/internal/types"
)

// DefaultNavigationTimeout bounds a page load when Options.Timeout is unset.
const DefaultNavigationTimeout = 30 * time.Second

// Options controls a single detection.
type Options struct {
	// Timeout bounds navigation. Expiry is a soft failure.
	Timeout              time.Duration
	SimulateInteractions bool
	IncludeFirstParty    bool
	// Verbose records every observed request in Result.Requests.
	Verbose bool
}

// Delays are the fixed pauses used while detecting.
type Delays struct {
	// Step follows each simulated interaction.
	Step time.Duration
	// Settle waits for late network activity before the session closes.
	Settle time.Duration
	// Batch separates URLs in DetectBatch.
	Batch time.Duration
}

// DefaultDelays returns the production pauses.
func DefaultDelays() Delays {
	return Delays{
		Step:   500 * time.Millisecond,
		Settle: 2 * time.Second,
		Batch:  time.Second,
	}
}

// Result is the outcome of a successful Detect.
type Result struct {
	URL      string                `json:"url"`
	Trackers []string              `json:"trackers"`
	Requests []types.RequestRecord `json:"requests,omitempty"`
	// TimedOut is set when navigation hit its deadline and the tracker set
	// may be partial.
	TimedOut bool `json:"timedOut,omitempty"`
}

// Detector runs tracker detection against a browser launcher.
type Detector struct {
	launcher Launcher
	launch   LaunchOptions
	delays   Delays
	verbose  bool
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithLaunchOptions overrides DefaultLaunchOptions.
func WithLaunchOptions(opts LaunchOptions) DetectorOption {
	return func(d *Detector) {
		d.launch = opts
	}
}

// WithDelays overrides DefaultDelays.
func WithDelays(delays Delays) DetectorOption {
	return func(d *Detector) {
		d.delays = delays
	}
}

// WithVerbose enables progress logging.
func WithVerbose(verbose bool) DetectorOption {
	return func(d *Detector) {
		d.verbose = verbose
	}
}

// NewDetector creates a Detector backed by launcher.
func NewDetector(launcher Launcher, opts ...DetectorOption) *Detector {
	d := &Detector{
		launcher: launcher,
		launch:   DefaultLaunchOptions(),
		delays:   DefaultDelays(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect loads pageURL and returns the tracker hostnames it contacted, in
// first-seen order. Launch failures return a *BrowserError and other
// navigation failures a *NavigationError. A navigation timeout is not an
// error. The session is closed on every path.
func (d *Detector) Detect(ctx context.Context, pageURL string, opts Options) (*Result, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultNavigationTimeout
	}

	u, err := url.Parse(pageURL)
	if err != nil || u.Hostname() == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, &NavigationError{URL: pageURL, Cause: fmt.Errorf("invalid URL")}
	}

	if d.verbose {
		log.Printf("[CRAWL] Launching browser for %s", pageURL)
	}
	session, err := d.launcher.Launch(ctx, d.launch)
	if err != nil {
		return nil, &BrowserError{Message: "failed to launch browser", Cause: err}
	}

	obs := newObserver(pageURL, strings.ToLower(u.Hostname()), opts)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for o := range session.Requests() {
			obs.record(o)
		}
	}()

	var once sync.Once
	closeSession := func() {
		once.Do(func() {
			if err := session.Close(); err != nil {
				log.Printf("[CRAWL] Warning: failed to close browser for %s: %v", pageURL, err)
			}
			<-drained
		})
	}
	defer closeSession()

	navCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	err = session.Navigate(navCtx, pageURL)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil, &NavigationError{URL: pageURL, Cause: ctx.Err()}
		}
		if !isTimeout(err) {
			return nil, &NavigationError{URL: pageURL, Cause: err}
		}
		obs.timedOut = true
		if d.verbose {
			log.Printf("[CRAWL] Navigation timed out after %v for %s, continuing with partial results", opts.Timeout, pageURL)
		}
	}

	if opts.SimulateInteractions {
		d.simulate(ctx, session)
	}

	sleep(ctx, d.delays.Settle)
	closeSession()

	result := obs.result()
	if d.verbose {
		log.Printf("[CRAWL] %s: %d trackers", pageURL, len(result.Trackers))
	}
	return result, nil
}

func isTimeout(err error) bool {
	return errors.Is(err, ErrNavigationTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// observer accumulates requests. It is written by a single goroutine and read
// only after that goroutine has finished.
type observer struct {
	pageURL  string
	pageHost string
	opts     Options
	seen     map[string]bool
	trackers []string
	requests []types.RequestRecord
	timedOut bool
}

func newObserver(pageURL, pageHost string, opts Options) *observer {
	return &observer{
		pageURL:  pageURL,
		pageHost: pageHost,
		opts:     opts,
		seen:     make(map[string]bool),
	}
}

func (o *observer) record(req types.TrackerObservation) {
	firstParty := req.Hostname == o.pageHost
	tracker := IsTracker(req.URL, req.Hostname)

	if o.opts.Verbose {
		o.requests = append(o.requests, types.RequestRecord{
			URL:          req.URL,
			Hostname:     req.Hostname,
			ResourceType: req.ResourceType,
			Method:       req.Method,
			IsTracker:    tracker,
			FirstParty:   firstParty,
		})
	}

	if !tracker || (firstParty && !o.opts.IncludeFirstParty) || o.seen[req.Hostname] {
		return
	}
	o.seen[req.Hostname] = true
	o.trackers = append(o.trackers, req.Hostname)
}

func (o *observer) result() *Result {
	trackers := o.trackers
	if trackers == nil {
		trackers = []string{}
	}
	return &Result{
		URL:      o.pageURL,
		Trackers: trackers,
		Requests: o.requests,
		TimedOut: o.timedOut,
	}
}
