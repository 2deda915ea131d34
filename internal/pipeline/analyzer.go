package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/privacy-lens/internal/crawling"
	"github.com/jonathan/privacy-lens/internal/policy"
	"github.com/jonathan/privacy-lens/internal/scoring"
	"github.com/jonathan/privacy-lens/internal/types"
)

// Staleness windows for stored analyses.
const (
	DefaultSuccessTTL = 48 * time.Hour
	DefaultFailureTTL = 30 * time.Minute
)

// Store persists analysed sites. FindByURL returns nil, nil for unknown URLs.
type Store interface {
	FindByURL(ctx context.Context, url string) (*types.Site, error)
	UpsertByURL(ctx context.Context, url string, site *types.Site) (*types.Site, error)
}

// Detector finds the trackers a page contacts.
type Detector interface {
	Detect(ctx context.Context, url string, opts crawling.Options) (*crawling.Result, error)
}

// Summarizer produces the privacy summary. It must not fail.
type Summarizer interface {
	Summarize(ctx context.Context, trackers []string, siteURL string) *types.AISummary
}

// PolicyFetcher downloads policy text from a URL.
type PolicyFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ProgressEvent represents a progress update during an analysis
type ProgressEvent struct {
	Step    string `json:"step"`
	URL     string `json:"url"`
	Message string `json:"message"`
}

// ProgressCallback is called when analysis progress occurs
type ProgressCallback func(event ProgressEvent)

type progressKey struct{}

// ContextWithProgress attaches a per-request progress callback. Callers that
// join an in-flight analysis receive no events.
func ContextWithProgress(ctx context.Context, cb ProgressCallback) context.Context {
	return context.WithValue(ctx, progressKey{}, cb)
}

// Outcome is the result of AnalyzeSite.
type Outcome struct {
	Site *types.Site `json:"site"`
	// Warning is set when the result could not be read from or written to
	// storage, or a policy URL could not be fetched.
	Warning string `json:"warning,omitempty"`
	// Cached is true when Site is a stored result returned unchanged.
	Cached bool `json:"cached"`
}

// Analyzer runs site analyses. It is safe for concurrent use. Concurrent
// calls with the same request share a single run.
type Analyzer struct {
	detector      Detector
	summarizer    Summarizer
	store         Store
	policy        PolicyFetcher
	detectOptions crawling.Options
	detectTimeout time.Duration
	successTTL    time.Duration
	failureTTL    time.Duration
	now           func() time.Time
	onProgress    ProgressCallback
	verbose       bool
	group         singleflight.Group
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithStore sets the persistence collaborator. Without one, every request
// runs a fresh analysis and nothing is saved.
func WithStore(s Store) Option {
	return func(a *Analyzer) { a.store = s }
}

// WithPolicyFetcher enables AnalysisRequest.PolicyURL.
func WithPolicyFetcher(p PolicyFetcher) Option {
	return func(a *Analyzer) { a.policy = p }
}

// WithDetectOptions sets the options passed to every Detect call.
func WithDetectOptions(opts crawling.Options) Option {
	return func(a *Analyzer) { a.detectOptions = opts }
}

// WithDetectTimeout bounds each Detect call as a whole. Zero disables it.
func WithDetectTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.detectTimeout = d }
}

// WithTTLs overrides the staleness windows.
func WithTTLs(success, failure time.Duration) Option {
	return func(a *Analyzer) {
		a.successTTL = success
		a.failureTTL = failure
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// WithProgress registers a progress callback.
func WithProgress(cb ProgressCallback) Option {
	return func(a *Analyzer) { a.onProgress = cb }
}

// WithVerbose enables progress logging.
func WithVerbose(verbose bool) Option {
	return func(a *Analyzer) { a.verbose = verbose }
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(detector Detector, summarizer Summarizer, opts ...Option) *Analyzer {
	a := &Analyzer{
		detector:   detector,
		summarizer: summarizer,
		successTTL: DefaultSuccessTTL,
		failureTTL: DefaultFailureTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeSite returns a fresh stored analysis for req.URL or runs a new one.
// Invalid requests return a *RequestError and failed detections a
// *DetectionError. Storage failures never fail the call.
func (a *Analyzer) AnalyzeSite(ctx context.Context, req types.AnalysisRequest) (*Outcome, error) {
	req.URL = strings.TrimSpace(req.URL)
	if err := req.Validate(); err != nil {
		return nil, &RequestError{Message: "invalid analysis request", Cause: err}
	}

	// The shared run outlives any single caller; each caller stops waiting
	// when its own context ends.
	runCtx := context.WithoutCancel(ctx)
	ch := a.group.DoChan(flightKey(req), func() (any, error) {
		return a.analyze(runCtx, req)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared && a.verbose {
		log.Printf("[ANALYZE] Joined in-flight analysis of %s", req.URL)
	}

	out := *res.Val.(*Outcome)
	out.Site = out.Site.Clone()
	return &out, nil
}

// flightKey identifies requests that would produce the same analysis.
func flightKey(req types.AnalysisRequest) string {
	h := sha256.New()
	h.Write([]byte(req.URL))
	h.Write([]byte{0})
	h.Write([]byte(req.PolicyText))
	h.Write([]byte{0})
	h.Write([]byte(req.PolicyURL))
	if req.ForceRefresh {
		h.Write([]byte{1})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// IsStale reports whether a stored site needs re-analysis at now. Sites with a
// successful summary stay fresh for successTTL, others for failureTTL.
func (a *Analyzer) IsStale(site *types.Site, now time.Time) bool {
	ttl := a.failureTTL
	if site.SummarySucceeded() {
		ttl = a.successTTL
	}
	return now.Sub(site.LastAnalyzed) >= ttl
}

func (a *Analyzer) analyze(ctx context.Context, req types.AnalysisRequest) (*Outcome, error) {
	var warnings []string

	var existing *types.Site
	if a.store != nil {
		site, err := a.store.FindByURL(ctx, req.URL)
		if err != nil {
			serr := &StorageError{Op: "read", Cause: err}
			log.Printf("[STORE] Warning: %v", serr)
			warnings = append(warnings, serr.Error())
		}
		existing = site
	}

	if existing != nil && !req.ForceRefresh && !a.IsStale(existing, a.now()) {
		a.emit(ctx, "cache", req.URL, "returning stored analysis")
		return &Outcome{Site: existing, Cached: true}, nil
	}

	a.emit(ctx, "detect", req.URL, "detecting trackers")
	result, fetchedPolicy, policyWarning, err := a.detect(ctx, req)
	if err != nil {
		return nil, err
	}
	if policyWarning != "" {
		warnings = append(warnings, policyWarning)
	}

	policyText := req.PolicyText
	if policyText == "" {
		policyText = fetchedPolicy
	}
	policyText = policy.Normalize(policyText)

	a.emit(ctx, "summarize", req.URL, "summarizing data practices")
	summary := a.summarizer.Summarize(ctx, result.Trackers, req.URL)

	a.emit(ctx, "score", req.URL, "computing score")
	score := scoring.Compute(scoring.ServerProfile(), scoring.Input{
		URL:        req.URL,
		PolicyText: policyText,
		Trackers:   result.Trackers,
		Summary:    summary,
	})

	site := &types.Site{
		URL:          req.URL,
		Score:        score.Score,
		Grade:        score.Grade,
		Category:     score.Category,
		Trackers:     result.Trackers,
		PolicyText:   policyText,
		AISummary:    summary,
		LastAnalyzed: a.now().UTC(),
	}
	if existing != nil {
		site.ID = existing.ID
	}

	if a.store != nil {
		a.emit(ctx, "store", req.URL, "saving analysis")
		stored, err := a.store.UpsertByURL(ctx, req.URL, site)
		if err != nil {
			serr := &StorageError{Op: "write", Cause: err}
			log.Printf("[STORE] Warning: %v", serr)
			warnings = append(warnings, serr.Error())
		} else if stored != nil {
			site = stored
		}
	}

	if a.verbose {
		log.Printf("[ANALYZE] %s: score %d (%s), %d trackers", req.URL, site.Score, site.Grade, len(site.Trackers))
	}

	return &Outcome{Site: site, Warning: strings.Join(warnings, "; ")}, nil
}

// detect runs tracker detection and, when requested, the policy download
// concurrently. A policy failure only produces a warning.
func (a *Analyzer) detect(ctx context.Context, req types.AnalysisRequest) (*crawling.Result, string, string, error) {
	g, gctx := errgroup.WithContext(ctx)

	var result *crawling.Result
	g.Go(func() error {
		detectCtx := gctx
		if a.detectTimeout > 0 {
			var cancel context.CancelFunc
			detectCtx, cancel = context.WithTimeout(gctx, a.detectTimeout)
			defer cancel()
		}
		r, err := a.detector.Detect(detectCtx, req.URL, a.detectOptions)
		if err != nil {
			return &DetectionError{URL: req.URL, Cause: err}
		}
		result = r
		return nil
	})

	var fetched, warning string
	if req.PolicyText == "" && req.PolicyURL != "" && a.policy != nil {
		g.Go(func() error {
			a.emit(ctx, "policy", req.URL, "fetching policy from "+req.PolicyURL)
			text, err := a.policy.Fetch(gctx, req.PolicyURL)
			if err != nil {
				log.Printf("[POLICY] Warning: %v", err)
				warning = "policy not fetched: " + err.Error()
				return nil
			}
			fetched = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, "", "", err
	}
	return result, fetched, warning, nil
}

func (a *Analyzer) emit(ctx context.Context, step, url, message string) {
	if a.verbose {
		log.Printf("[ANALYZE] %s: %s", url, message)
	}
	event := ProgressEvent{Step: step, URL: url, Message: message}
	if a.onProgress != nil {
		a.onProgress(event)
	}
	if cb, ok := ctx.Value(progressKey{}).(ProgressCallback); ok && cb != nil {
		cb(event)
	}
}
