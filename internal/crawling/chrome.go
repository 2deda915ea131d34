package crawling

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/jonathan/privacy-lens/internal/types"
)

// ChromeLauncher starts a local Chrome through chromedp. Requires
// Chrome/Chromium to be installed on the system unless ControlURL is set.
type ChromeLauncher struct {
	// ExecPath overrides the browser binary lookup.
	ExecPath string
	// ControlURL attaches to an already running browser's DevTools
	// websocket instead of launching one.
	ControlURL string
}

// Launch starts a browser and attaches the request listener before
// returning, so no navigation can precede observation.
func (l *ChromeLauncher) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(opts.UserAgent),
		chromedp.WindowSize(opts.ViewportWidth, opts.ViewportHeight),
	)
	if l.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(l.ExecPath))
	}

	var allocCtx context.Context
	var cancelAlloc context.CancelFunc
	if l.ControlURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(ctx, l.ControlURL)
	} else {
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(ctx, allocOpts...)
	}
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	s := &chromeSession{
		ctx:           browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		stream:        newRequestStream(),
	}

	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		if e, ok := ev.(*network.EventRequestWillBeSent); ok && e.Request != nil {
			s.stream.emit(e.Request.URL, string(e.Type), e.Request.Method)
		}
	})

	// The first Run starts the browser process.
	actions := []chromedp.Action{
		network.Enable(),
		page.SetLifecycleEventsEnabled(true),
		chromedp.EmulateViewport(int64(opts.ViewportWidth), int64(opts.ViewportHeight)),
	}
	if opts.UserAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(opts.UserAgent))
	}
	err := chromedp.Run(browserCtx, actions...)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	return s, nil
}

type chromeSession struct {
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	stream        *requestStream
	closeOnce     sync.Once
	closeErr      error
}

func (s *chromeSession) Requests() <-chan types.TrackerObservation {
	return s.stream.ch
}

// scope derives a chromedp context that also honours ctx's deadline and
// cancellation.
func (s *chromeSession) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(s.ctx)
	stop := context.AfterFunc(ctx, cancel)
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		return runCtx, func() {
			cancelDeadline()
			stop()
			cancel()
		}
	}
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := s.scope(ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// Navigate loads url and then waits for the main frame's networkIdle
// lifecycle event.
func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := s.scope(ctx)
	defer cancel()

	mainFrame := cdp.FrameID(chromedp.FromContext(runCtx).Target.TargetID)
	idle := make(chan struct{})
	var once sync.Once
	// Events arrive on a single goroutine; loading needs no lock.
	loading := false
	chromedp.ListenTarget(runCtx, func(ev interface{}) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok || e.FrameID != mainFrame {
			return
		}
		switch e.Name {
		case "init":
			loading = true
		case "networkIdle":
			if loading {
				once.Do(func() { close(idle) })
			}
		}
	})

	err := chromedp.Run(runCtx, chromedp.Navigate(url), chromedp.WaitReady("body"))
	if err == nil {
		err = awaitIdle(runCtx, idle, maxIdleWait)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrNavigationTimeout, err)
	}
	return err
}

func (s *chromeSession) Evaluate(ctx context.Context, js string, out any) error {
	return s.run(ctx, chromedp.Evaluate(js, out))
}

func (s *chromeSession) Visible(ctx context.Context, selector string) (bool, error) {
	var visible bool
	err := s.Evaluate(ctx, visibleJS(selector), &visible)
	return visible, err
}

func (s *chromeSession) Click(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

func (s *chromeSession) MoveMouse(ctx context.Context, x, y float64) error {
	return s.run(ctx, chromedp.MouseEvent(input.MouseMoved, x, y))
}

func (s *chromeSession) Viewport(ctx context.Context) (float64, float64, error) {
	var dims []float64
	if err := s.Evaluate(ctx, viewportJS, &dims); err != nil {
		return 0, 0, err
	}
	if len(dims) != 2 {
		return 0, 0, fmt.Errorf("unexpected viewport result %v", dims)
	}
	return dims[0], dims[1], nil
}

func (s *chromeSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = chromedp.Cancel(s.ctx)
		s.cancelBrowser()
		s.cancelAlloc()
		s.stream.close()
	})
	if errors.Is(s.closeErr, context.Canceled) {
		return nil
	}
	return s.closeErr
}
