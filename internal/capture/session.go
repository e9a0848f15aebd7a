// Package capture drives headless-browser rendering of variant pages.
package capture

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config controls a browser session.
type Config struct {
	WindowWidth  int
	WindowHeight int
	NavTimeout   time.Duration
	Settle       time.Duration
	NavPerSecond float64
	UserAgent    string
}

// Snapshot is the output of one page capture: the rendered document plus
// the screenshot file written for it.
type Snapshot struct {
	HTML           string
	ScreenshotFile string
}

// Session owns one headless Chrome instance. A session belongs to exactly
// one worker and is never shared. Start is idempotent and Close is safe to
// call any number of times, in any state.
type Session struct {
	cfg Config

	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	pacer         *rate.Limiter

	started bool
	closed  bool
}

// NewSession prepares a session without launching the browser.
func NewSession(cfg Config) *Session {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 30 * time.Second
	}
	if cfg.WindowWidth <= 0 {
		cfg.WindowWidth = 1920
	}
	if cfg.WindowHeight <= 0 {
		cfg.WindowHeight = 1080
	}
	return &Session{cfg: cfg}
}

// Start launches the browser. Calling Start on an already started session
// is a no-op.
func (s *Session) Start(ctx context.Context) error {
	if s.started {
		return nil
	}
	if s.closed {
		return eris.New("capture: session already shut down")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("enable-automation", false),
		chromedp.WindowSize(s.cfg.WindowWidth, s.cfg.WindowHeight),
	)
	if s.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(s.cfg.UserAgent))
	}

	s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(ctx, opts...)
	s.browserCtx, s.browserCancel = chromedp.NewContext(s.allocCtx)

	// Launch the browser eagerly so a broken Chrome install fails Setup,
	// not the first item.
	if err := chromedp.Run(s.browserCtx); err != nil {
		s.teardown()
		return eris.Wrap(err, "capture: launch browser")
	}

	if s.cfg.NavPerSecond > 0 {
		s.pacer = rate.NewLimiter(rate.Limit(s.cfg.NavPerSecond), 1)
	}

	s.started = true
	return nil
}

// Close shuts the browser down. Safe to call repeatedly and from any state.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.started = false
	s.teardown()
}

func (s *Session) teardown() {
	if s.browserCancel != nil {
		s.browserCancel()
		s.browserCancel = nil
	}
	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
	}
}

// CapturePage navigates to url, waits for the document to become ready,
// dismisses a cookie-consent overlay if one is present, writes a full-page
// screenshot to screenshotPath and returns the rendered HTML.
func (s *Session) CapturePage(ctx context.Context, url, screenshotPath string) (Snapshot, error) {
	if !s.started {
		return Snapshot{}, eris.New("capture: session not started")
	}

	if s.pacer != nil {
		if err := s.pacer.Wait(ctx); err != nil {
			return Snapshot{}, eris.Wrap(err, "capture: navigation pacing")
		}
	}

	tabCtx, cancelTab := chromedp.NewContext(s.browserCtx)
	defer cancelTab()
	tabCtx, cancel := context.WithTimeout(tabCtx, s.cfg.NavTimeout)
	defer cancel()

	// Auto-dismiss JS dialogs so a stray alert() can't hang the capture
	// until the navigation timeout.
	chromedp.ListenTarget(tabCtx, func(ev any) {
		if _, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			go func() {
				if err := chromedp.Run(tabCtx, page.HandleJavaScriptDialog(false)); err != nil {
					zap.L().Debug("capture: dismiss dialog", zap.Error(err))
				}
			}()
		}
	})

	var html string
	var shot []byte
	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.cfg.Settle),
		dismissCookieBanner(),
		chromedp.FullScreenshot(&shot, 85),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return Snapshot{}, eris.Wrapf(err, "capture: render %s", url)
	}

	if err := os.WriteFile(screenshotPath, shot, 0o644); err != nil {
		return Snapshot{}, eris.Wrap(err, "capture: write screenshot")
	}

	return Snapshot{HTML: html, ScreenshotFile: filepath.Base(screenshotPath)}, nil
}

// dismissCookieBanner clicks the first button that looks like a consent
// accept. Pages without a banner, or banners we can't find, are fine.
func dismissCookieBanner() chromedp.Action {
	const clickScript = `(() => {
		const btn = [...document.querySelectorAll('button')]
			.find(b => /accepteren|accept|akkoord/i.test(b.textContent || ''));
		if (btn) { btn.click(); return true; }
		return false;
	})()`

	return chromedp.ActionFunc(func(ctx context.Context) error {
		var clicked bool
		if err := chromedp.Evaluate(clickScript, &clicked).Do(ctx); err != nil {
			zap.L().Debug("capture: cookie banner probe failed", zap.Error(err))
			return nil
		}
		if clicked {
			return chromedp.Sleep(time.Second).Do(ctx)
		}
		return nil
	})
}

// ScreenshotName builds the deterministic screenshot filename for an item
// variant: the 3-digit item index, the variant name and a short hash of
// the exact URL rendered.
func ScreenshotName(index int, variant, url string) string {
	sum := md5.Sum([]byte(url))
	return fmt.Sprintf("url_%03d_%s_%s.png", index, variant, hex.EncodeToString(sum[:])[:8])
}
