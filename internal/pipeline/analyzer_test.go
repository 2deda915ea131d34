package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/privacy-lens/internal/crawling"
	"github.com/jonathan/privacy-lens/internal/types"
)

type fakeStore struct {
	mu       sync.Mutex
	sites    map[string]*types.Site
	readErr  error
	writeErr error
	writes   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{sites: map[string]*types.Site{}}
}

func (s *fakeStore) FindByURL(_ context.Context, url string) (*types.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	return s.sites[url].Clone(), nil
}

func (s *fakeStore) UpsertByURL(_ context.Context, url string, site *types.Site) (*types.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	s.writes++
	stored := site.Clone()
	if existing, ok := s.sites[url]; ok {
		stored.ID = existing.ID
	} else {
		stored.ID = uuid.New()
	}
	s.sites[url] = stored
	return stored.Clone(), nil
}

type fakeDetector struct {
	calls    atomic.Int32
	trackers []string
	err      error
	gate     chan struct{}
	lastOpts crawling.Options
}

func (d *fakeDetector) Detect(ctx context.Context, url string, opts crawling.Options) (*crawling.Result, error) {
	d.calls.Add(1)
	d.lastOpts = opts
	if d.gate != nil {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return &crawling.Result{URL: url, Trackers: append([]string(nil), d.trackers...)}, nil
}

type fakeSummarizer struct {
	success bool
	share   []string
	risks   []string
	calls   atomic.Int32
}

func (f *fakeSummarizer) Summarize(_ context.Context, trackers []string, _ string) *types.AISummary {
	f.calls.Add(1)
	return &types.AISummary{
		Success: f.success,
		Summary: types.PrivacySummary{
			WhatTheyCollect:  []string{"Browsing activity"},
			WhoTheyShareWith: f.share,
			HowLongTheyKeep:  "Information not available",
			KeyRisks:         f.risks,
		},
	}
}

type fakePolicy struct {
	text string
	err  error
}

func (f *fakePolicy) Fetch(context.Context, string) (string, error) {
	return f.text, f.err
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestAnalyzeSite_FreshAnalysisIsStored(t *testing.T) {
	store := newFakeStore()
	det := &fakeDetector{trackers: []string{"www.google-analytics.com"}}
	sum := &fakeSummarizer{success: true, risks: []string{"Cross-site tracking"}}
	clock := newClock()

	a := NewAnalyzer(det, sum, WithStore(store), WithClock(clock.Now))
	out, err := a.AnalyzeSite(context.Background(), types.AnalysisRequest{URL: "https://example.com"})
	require.NoError(t, err)

	assert.False(t, out.Cached)
	assert.Empty(t, out.Warning)
	assert.NotEqual(t, uuid.Nil, out.Site.ID)
	assert.Equal(t, []string{"www.google-analytics.com"}, out.Site.Trackers)
	assert.Equal(t, clock.Now(), out.Site.LastAnalyzed)
	// 35 trackers + 10 https + 15 one risk
	assert.Equal(t, 60, out.Site.Score)
	assert.Equal(t, 1, store.writes)
}

func TestAnalyzeSite_UnavailableSummaryScore(t *testing.T) {
	det := &fakeDetector{trackers: []string{"www.google-analytics.com", "connect.facebook.net"}}
	sum := &fakeSummarizer{success: false, share: []string{"Google", "Meta"}, risks: []string{"a", "b"}}

	a := NewAnalyzer(det, sum)
	out, err := a.AnalyzeSite(context.Background(), types.AnalysisRequest{URL: "https://example.com"})
	require.NoError(t, err)

	// summary-dependent components only count for a successful summary
	assert.Equal(t, 45, out.Site.Score)
	assert.Equal(t, "D", out.Site.Grade)
	assert.Equal(t, "Poor", out.Site.Category)
}

func TestAnalyzeSite_Staleness(t *testing.T) {
	tests := []struct {
		name       string
		success    bool
		age        time.Duration
		wantCached bool
	}{
		{"successful summary within window", true, 47*time.Hour + 59*time.Minute, true},
		{"successful summary at window", true, 48 * time.Hour, false},
		{"failed summary within window", false, 29*time.Minute + 59*time.Second, true},
		{"failed summary at window", false, 30 * time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			det := &fakeDetector{}
			sum := &fakeSummarizer{success: tt.success}
			clock := newClock()

			a := NewAnalyzer(det, sum, WithStore(store), WithClock(clock.Now))
			req := types.AnalysisRequest{URL: "https://example.com"}

			first, err := a.AnalyzeSite(context.Background(), req)
			require.NoError(t, err)

			clock.Advance(tt.age)
			second, err := a.AnalyzeSite(context.Background(), req)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCached, second.Cached)
			assert.Equal(t, first.Site.ID, second.Site.ID)
			if tt.wantCached {
				assert.Equal(t, int32(1), det.calls.Load())
			} else {
				assert.Equal(t, int32(2), det.calls.Load())
				assert.Equal(t, clock.Now(), second.Site.LastAnalyzed)
			}
		})
	}
}

func TestAnalyzeSite_ForceRefreshBypassesStoredResult(t *testing.T) {
	store := newFakeStore()
	det := &fakeDetector{}
	a := NewAnalyzer(det, &fakeSummarizer{success: true}, WithStore(store))

	_, err := a.AnalyzeSite(context.Background(), types.AnalysisRequest{URL: "https://example.com"})
	require.NoError(t, err)
	out, err := a.AnalyzeSite(context.Background(), types.AnalysisRequest{URL: "https://example.com", ForceRefresh: true})
	require.NoError(t, err)

	assert.False(t, out.Cached)
	assert.Equal(t, int32(2), det.calls.Load())
	assert.Equal(t, 2, store.writes)
}

func TestAnalyzeSite_StorageFailuresAreWarnings(t *testing.T) {
	t.Run("read", func(t *testing.T) {
		store := newFakeStore()
		store.readErr = errors.New("connection refused")
		a := NewAnalyzer(&fakeDetector{}, &fakeSummarizer{}, WithStore(store))

		out, err := a.AnalyzeSite(context.Background(), types.AnalysisRequest{URL: "https://example.com"})
		require.NoError(t, err)
		assert.Contains(t, out.Warning, "storage read failed")
		assert.NotNil(t, out.Site)
	})

	t.Run("write", func(t *testing.T) {
		store := newFakeStore()
		store.writeErr = errors.New("disk full")
		a := NewAnalyzer(&fakeDetector{}, &fakeSummarizer{}, WithStore(store))

		out, err := a.AnalyzeSite(context.Background(), types.AnalysisRequest{URL: "https://example.com"})
		require.NoError(t, err)
		assert.Contains(t, out.Warning, "storage write failed")
		assert.Equal(t, uuid.Nil, out.Site.ID)
		assert.Equal(t, 50, out.Site.Score)
	})
}

func TestAnalyzeSite_DetectionFailure(t *testing.T) {
	store := newFakeStore()
	cause := &crawling.NavigationError{URL: "https://example.com", Cause: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	sum := &fakeSummarizer{}
	a := NewAnalyzer(&fakeDetector{err: cause}, sum, WithStore(store))

	out, err := a.AnalyzeSite(context.Background(), types.AnalysisRequest{URL: "https://example.com"})
	require.Error(t, err)
	assert.Nil(t, out)

	var detErr *DetectionError
	require.ErrorAs(t, err, &detErr)
	var navErr *crawling.NavigationError
	assert.ErrorAs(t, err, &navErr)
	assert.Equal(t, 0, store.writes)
	assert.Equal(t, int32(0), sum.calls.Load())
}

func TestAnalyzeSite_InvalidRequest(t *testing.T) {
	det := &fakeDetector{}
	a := NewAnalyzer(det, &fakeSummarizer{})

	for _, url := range []string{"", "not a url", "ftp://example.com"} {
		_, err := a.AnalyzeSite(context.Background(), types.AnalysisRequest{URL: url})
		var reqErr *RequestError
		assert.ErrorAs(t, err, &reqErr, url)
	}
	assert.Equal(t, int32(0), det.calls.Load())
}

func TestAnalyzeSite_PolicyText(t *testing.T) {
	t.Run("provided text is normalized", func(t *testing.T) {
		a := NewAnalyzer(&fakeDetector{}, &fakeSummarizer{})
		out, err := a.AnalyzeSite(context.Background(), types.AnalysisRequest{
			URL:        "https://example.com",
			PolicyText: "<p>We use   GDPR</p> controls",
		})
		require.NoError(t, err)
		assert.Equal(t, "We use GDPR controls", out.Site.PolicyText)
		// 40 + 10 + 4 for "gdpr"
		assert.Equal(t, 54, out.Site.Score)
	})

	t.Run("fetched from url", func(t *testing.T) {
		a := NewAnalyzer(&fakeDetector{}, &fakeSummarizer{},
			WithPolicyFetcher(&fakePolicy{text: "We sell data to advertisers"}))
		out, err := a.AnalyzeSite(context.Background(), types.AnalysisRequest{
			URL:       "https://example.com",
			PolicyURL: "https://example.com/privacy",
		})
		require.NoError(t, err)
		assert.Equal(t, "We sell data to advertisers", out.Site.PolicyText)
		assert.Equal(t, 44, out.Site.Score)
	})

	t.Run("fetch failure is a warning", func(t *testing.T) {
		a := NewAnalyzer(&fakeDetector{}, &fakeSummarizer{},
			WithPolicyFetcher(&fakePolicy{err: errors.New("404")}))
		out, err := a.AnalyzeSite(context.Background(), types.AnalysisRequest{
			URL:       "https://example.com",
			PolicyURL: "https://example.com/privacy",
		})
		require.NoError(t, err)
		assert.Contains(t, out.Warning, "policy not fetched")
		assert.Empty(t, out.Site.PolicyText)
	})
}

func TestAnalyzeSite_ConcurrentCallsShareOneRun(t *testing.T) {
	det := &fakeDetector{gate: make(chan struct{}), trackers: []string{"t.example"}}
	a := NewAnalyzer(det, &fakeSummarizer{})

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*Outcome, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := a.AnalyzeSite(context.Background(), types.AnalysisRequest{URL: "https://example.com"})
			assert.NoError(t, err)
			results[i] = out
		}(i)
	}

	require.Eventually(t, func() bool { return det.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(det.gate)
	wg.Wait()

	assert.Equal(t, int32(1), det.calls.Load())
	for _, out := range results {
		require.NotNil(t, out)
		assert.Equal(t, []string{"t.example"}, out.Site.Trackers)
	}
	// callers get independent copies
	results[0].Site.Trackers[0] = "changed"
	assert.Equal(t, "t.example", results[1].Site.Trackers[0])
}

func TestAnalyzeSite_CancelledCallerDoesNotFailOthers(t *testing.T) {
	det := &fakeDetector{gate: make(chan struct{}), trackers: []string{"t.example"}}
	a := NewAnalyzer(det, &fakeSummarizer{})
	req := types.AnalysisRequest{URL: "https://example.com"}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := a.AnalyzeSite(leaderCtx, req)
		leaderErr <- err
	}()
	require.Eventually(t, func() bool { return det.calls.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		out *Outcome
		err error
	}
	joined := make(chan result, 1)
	go func() {
		out, err := a.AnalyzeSite(context.Background(), req)
		joined <- result{out, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	select {
	case err := <-leaderErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(det.gate)
	select {
	case r := <-joined:
		require.NoError(t, r.err)
		assert.Equal(t, []string{"t.example"}, r.out.Site.Trackers)
	case <-time.After(time.Second):
		t.Fatal("joined caller did not return")
	}
	assert.Equal(t, int32(1), det.calls.Load())
}

func TestAnalyzeSite_DetectTimeout(t *testing.T) {
	det := &fakeDetector{gate: make(chan struct{})}
	a := NewAnalyzer(det, &fakeSummarizer{}, WithDetectTimeout(10*time.Millisecond))

	_, err := a.AnalyzeSite(context.Background(), types.AnalysisRequest{URL: "https://example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAnalyzeSite_ProgressAndOptions(t *testing.T) {
	det := &fakeDetector{}
	var steps []string
	a := NewAnalyzer(det, &fakeSummarizer{},
		WithStore(newFakeStore()),
		WithDetectOptions(crawling.Options{SimulateInteractions: true}),
		WithProgress(func(e ProgressEvent) { steps = append(steps, e.Step) }),
	)

	_, err := a.AnalyzeSite(context.Background(), types.AnalysisRequest{URL: "https://example.com"})
	require.NoError(t, err)

	assert.Equal(t, []string{"detect", "summarize", "score", "store"}, steps)
	assert.True(t, det.lastOpts.SimulateInteractions)
}

func TestAnalyzeSite_ContextProgress(t *testing.T) {
	store := newFakeStore()
	a := NewAnalyzer(&fakeDetector{}, &fakeSummarizer{success: true}, WithStore(store))

	var first []string
	ctx := ContextWithProgress(context.Background(), func(e ProgressEvent) {
		assert.Equal(t, "https://example.com", e.URL)
		first = append(first, e.Step)
	})
	_, err := a.AnalyzeSite(ctx, types.AnalysisRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"detect", "summarize", "score", "store"}, first)

	var second []string
	ctx = ContextWithProgress(context.Background(), func(e ProgressEvent) { second = append(second, e.Step) })
	out, err := a.AnalyzeSite(ctx, types.AnalysisRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.True(t, out.Cached)
	assert.Equal(t, []string{"cache"}, second)
}
