package crawling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/jonathan/privacy-lens/internal/types"
)

// RodLauncher starts a local Chrome through go-rod with stealth patches
// applied to the page.
type RodLauncher struct {
	// BinPath overrides the browser binary lookup.
	BinPath string
	// ControlURL connects to an already running browser instead of
	// launching one.
	ControlURL string
}

// Launch starts a browser, opens a stealth page and subscribes to network
// events before returning.
func (l *RodLauncher) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	s := &rodSession{stream: newRequestStream()}

	wsURL := l.ControlURL
	if wsURL == "" {
		s.launcher = launcher.New().
			Context(ctx).
			Headless(opts.Headless).
			Set("disable-blink-features", "AutomationControlled")
		if l.BinPath != "" {
			s.launcher = s.launcher.Bin(l.BinPath)
		}
		u, err := s.launcher.Launch()
		if err != nil {
			s.stream.close()
			return nil, fmt.Errorf("launch: %w", err)
		}
		wsURL = u
	}

	s.browser = rod.New().ControlURL(wsURL)
	if err := s.browser.Connect(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}

	page, err := stealth.Page(s.browser)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}
	s.page = page

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("set user agent: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.ViewportWidth,
		Height:            opts.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("enable network: %w", err)
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	s.stopListening = cancel
	wait := page.Context(listenCtx).EachEvent(func(e *proto.NetworkRequestWillBeSent) {
		if e.Request != nil {
			s.stream.emit(e.Request.URL, string(e.Type), e.Request.Method)
		}
	})
	s.listening = make(chan struct{})
	go func() {
		defer close(s.listening)
		wait()
	}()

	return s, nil
}

type rodSession struct {
	launcher      *launcher.Launcher
	browser       *rod.Browser
	page          *rod.Page
	stream        *requestStream
	stopListening context.CancelFunc
	listening     chan struct{}
	closeOnce     sync.Once
	closeErr      error
}

func (s *rodSession) Requests() <-chan types.TrackerObservation {
	return s.stream.ch
}

// Navigate loads url and then waits until no request has been in flight for
// idleQuiet.
func (s *rodSession) Navigate(ctx context.Context, url string) error {
	idleCtx, stopIdle := context.WithCancel(ctx)
	defer stopIdle()
	waitIdle := s.page.Context(idleCtx).WaitRequestIdle(idleQuiet, nil, nil, nil)

	page := s.page.Context(ctx)
	err := page.Navigate(url)
	if err == nil {
		err = page.WaitLoad()
	}
	if err == nil {
		idle := make(chan struct{})
		go func() {
			defer close(idle)
			waitIdle()
		}()
		err = awaitIdle(ctx, idle, maxIdleWait)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrNavigationTimeout, err)
	}
	return err
}

func (s *rodSession) Evaluate(ctx context.Context, js string, out any) error {
	res, err := proto.RuntimeEvaluate{
		Expression:    js,
		ReturnByValue: true,
		AwaitPromise:  true,
	}.Call(s.page.Context(ctx))
	if err != nil {
		return err
	}
	if res.ExceptionDetails != nil {
		return fmt.Errorf("script exception: %s", res.ExceptionDetails.Text)
	}
	if out == nil || res.Result == nil {
		return nil
	}
	return json.Unmarshal([]byte(res.Result.Value.JSON("", "")), out)
}

func (s *rodSession) Visible(ctx context.Context, selector string) (bool, error) {
	var visible bool
	err := s.Evaluate(ctx, visibleJS(selector), &visible)
	return visible, err
}

func (s *rodSession) Click(ctx context.Context, selector string) error {
	has, el, err := s.page.Context(ctx).Has(selector)
	if err != nil {
		return err
	}
	if !has {
		return fmt.Errorf("element %q not found", selector)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (s *rodSession) MoveMouse(ctx context.Context, x, y float64) error {
	return s.page.Context(ctx).Mouse.MoveTo(proto.Point{X: x, Y: y})
}

func (s *rodSession) Viewport(ctx context.Context) (float64, float64, error) {
	var dims []float64
	if err := s.Evaluate(ctx, viewportJS, &dims); err != nil {
		return 0, 0, err
	}
	if len(dims) != 2 {
		return 0, 0, fmt.Errorf("unexpected viewport result %v", dims)
	}
	return dims[0], dims[1], nil
}

func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		if s.stopListening != nil {
			s.stopListening()
			<-s.listening
		}
		if s.browser != nil {
			s.closeErr = s.browser.Close()
		}
		if s.launcher != nil {
			s.launcher.Cleanup()
		}
		s.stream.close()
	})
	return s.closeErr
}
