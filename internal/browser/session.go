// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/formpilot/formpilot-cli/api/schemas"
	"github.com/formpilot/formpilot-cli/internal/config"
)

// Session is a single browser automation context (one tab in one dedicated
// browser process). All DOM operations against the live page go through it
// and are strictly sequential; a Session is not safe for concurrent use.
type Session struct {
	id     string
	ctx    context.Context
	logger *zap.Logger
	cfg    *config.Config
	mode   AcquisitionMode

	onClose   func()
	closeOnce sync.Once
}

func newSession(tabCtx context.Context, cfg *config.Config, mode AcquisitionMode, logger *zap.Logger) *Session {
	id := uuid.New().String()
	return &Session{
		id:     id,
		ctx:    tabCtx,
		cfg:    cfg,
		mode:   mode,
		logger: logger.Named("session").With(zap.String("session_id", id)),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Mode returns the acquisition mode the session actually runs under.
func (s *Session) Mode() AcquisitionMode { return s.mode }

// Close terminates the session and its browser process. Safe to call more
// than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.logger.Debug("Closing session.")
		if s.onClose != nil {
			s.onClose()
		}
	})
}

// run executes chromedp actions under a combined session+caller context with
// the given timeout.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	opCtx, opCancel := combineContext(s.ctx, ctx)
	defer opCancel()

	runCtx, runCancel := context.WithTimeout(opCtx, timeout)
	defer runCancel()

	return chromedp.Run(runCtx, actions...)
}

// Navigate loads the target URL and waits for the post-load quiet period.
// Load failures and timeouts surface as a schemas.NavigationError; the
// session does not retry, retry policy belongs to the caller.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating.", zap.String("url", url))

	timeout := s.cfg.Network.NavigationTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if err := s.run(ctx, timeout, chromedp.Navigate(url)); err != nil {
		return &schemas.NavigationError{URL: url, Err: err}
	}

	if wait := s.cfg.Network.PostLoadWait; wait > 0 {
		if err := s.run(ctx, wait+time.Second, chromedp.Sleep(wait)); err != nil {
			// The quiet period is best effort; only cancellation matters.
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
	return nil
}

// Location returns the current page URL.
func (s *Session) Location(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, 10*time.Second, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return url, nil
}

// HTML returns the serialized DOM of the current page.
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, 15*time.Second, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to capture page HTML: %w", err)
	}
	return html, nil
}

// WaitVisible blocks until the selector is visible or the timeout elapses.
func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := s.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("element %q did not become visible within %s: %w", selector, timeout, err)
	}
	return nil
}

// WaitAny polls until at least one of the selectors matches an element, or
// the timeout elapses.
func (s *Session) WaitAny(ctx context.Context, selectors []string, timeout time.Duration) error {
	quoted := make([]string, len(selectors))
	for i, sel := range selectors {
		quoted[i] = jsString(sel)
	}
	expr := fmt.Sprintf(`[%s].some(s => document.querySelector(s) !== null)`, strings.Join(quoted, ","))
	if err := s.run(ctx, timeout, chromedp.Poll(expr, nil, chromedp.WithPollingInterval(200*time.Millisecond))); err != nil {
		return fmt.Errorf("none of %d selectors appeared within %s: %w", len(selectors), timeout, err)
	}
	return nil
}

// Click scrolls the element into view and clicks it.
func (s *Session) Click(ctx context.Context, selector string) error {
	action := chromedp.Tasks{
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	}
	if err := s.run(ctx, 15*time.Second, action); err != nil {
		return fmt.Errorf("click failed for selector %q: %w", selector, err)
	}
	return nil
}

// SetValue writes a value directly into the first element matching the
// selector and fires input/change events so framework listeners observe it.
func (s *Session) SetValue(ctx context.Context, selector, value string) error {
	action := chromedp.Tasks{
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SetValue(selector, value, chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(`(() => {
			const el = document.querySelector(%s);
			if (el) {
				el.dispatchEvent(new Event('input', {bubbles: true}));
				el.dispatchEvent(new Event('change', {bubbles: true}));
			}
		})()`, jsString(selector)), nil),
	}
	if err := s.run(ctx, 15*time.Second, action); err != nil {
		return fmt.Errorf("value write failed for selector %q: %w", selector, err)
	}
	return nil
}

// Exists reports whether the selector matches at least one element.
func (s *Session) Exists(ctx context.Context, selector string) (bool, error) {
	var found bool
	expr := fmt.Sprintf(`document.querySelector(%s) !== null`, jsString(selector))
	if err := s.run(ctx, 10*time.Second, chromedp.Evaluate(expr, &found)); err != nil {
		return false, err
	}
	return found, nil
}

// Evaluate runs a JavaScript expression and unmarshals its result into res
// (pass nil to discard).
func (s *Session) Evaluate(ctx context.Context, expr string, res any) error {
	return s.run(ctx, 15*time.Second, chromedp.Evaluate(expr, res))
}

// ScrollToBottom performs n scroll-to-bottom passes with a short pause
// between each, letting lazily rendered content attach.
func (s *Session) ScrollToBottom(ctx context.Context, passes int) error {
	for i := 0; i < passes; i++ {
		err := s.run(ctx, 10*time.Second,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight);`, nil),
			chromedp.Sleep(2*time.Second),
		)
		if err != nil {
			return fmt.Errorf("scroll pass %d failed: %w", i+1, err)
		}
	}
	return nil
}

// Screenshot captures a full-page PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	capture := chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithCaptureBeyondViewport(true).
			WithFormat(page.CaptureScreenshotFormatPng).
			Do(ctx)
		return err
	})
	if err := s.run(ctx, 20*time.Second, capture); err != nil {
		return nil, fmt.Errorf("screenshot capture failed: %w", err)
	}
	return buf, nil
}

// IsNavigationError reports whether err carries a NavigationError anywhere in
// its chain.
func IsNavigationError(err error) bool {
	var navErr *schemas.NavigationError
	return errors.As(err, &navErr)
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)
	return "'" + replacer.Replace(s) + "'"
}

// combineContext creates a context canceled when either parent is canceled.
// Operations must respect both the session lifecycle and the caller deadline.
func combineContext(parentCtx, secondaryCtx context.Context) (context.Context, context.CancelFunc) {
	combinedCtx, cancel := context.WithCancel(parentCtx)

	go func() {
		select {
		case <-secondaryCtx.Done():
			cancel()
		case <-combinedCtx.Done():
		}
	}()

	return combinedCtx, cancel
}
