package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"content-pipeline/config"
)

var (
	// ErrDisabled is returned by Open when the browser is turned off in configuration.
	ErrDisabled = errors.New("browser disabled")
	// ErrUnresolved means the page never left the redirector within the timeout.
	ErrUnresolved = errors.New("redirect not resolved")
)

// Resolver is the part of a Session that discovery depends on.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (string, error)
	RenderHTML(ctx context.Context, rawURL string) (string, error)
	Close()
}

// redirectorHosts serve interstitial pages that forward to the real article.
var redirectorHosts = []string{
	"duckduckgo.com",
	"news.google.com",
	"consent.google.com",
	"www.google.com",
}

// NeedsResolution reports whether rawURL points at a known redirector.
func NeedsResolution(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return isRedirectorHost(u.Hostname())
}

func isRedirectorHost(host string) bool {
	host = strings.ToLower(host)
	for _, h := range redirectorHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// isResolved reports whether the browser location counts as a final destination.
func isResolved(original, current string) bool {
	if current == "" || current == "about:blank" || current == original {
		return false
	}
	if strings.HasPrefix(current, "data:") || strings.HasPrefix(current, "chrome-error:") {
		return false
	}
	u, err := url.Parse(current)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	return !isRedirectorHost(u.Hostname())
}

type Launcher struct {
	cfg       config.BrowserConfig
	userAgent string
}

func NewLauncher(cfg config.BrowserConfig, userAgent string) *Launcher {
	return &Launcher{cfg: cfg, userAgent: userAgent}
}

// Open starts one headless browser. The caller owns the session and must Close it.
func (l *Launcher) Open(ctx context.Context) (*Session, error) {
	if l == nil || !l.cfg.Enabled {
		return nil, ErrDisabled
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(l.userAgent),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-crashpad", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.Flag("headless", true),
	)
	if l.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(l.cfg.ChromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:            browserCtx,
		cancel:         func() { cancelBrowser(); cancelAlloc() },
		resolveTimeout: l.cfg.ResolveTimeout,
		renderTimeout:  l.cfg.RenderTimeout,
	}

	// 빈 Run 으로 브라우저 프로세스를 실제로 띄운다.
	startCtx, cancelStart := s.callContext(ctx, l.cfg.ResolveTimeout)
	defer cancelStart()
	if err := chromedp.Run(startCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	return s, nil
}

// OpenResolver is Open behind the Resolver interface.
func (l *Launcher) OpenResolver(ctx context.Context) (Resolver, error) {
	s, err := l.Open(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Session is one browser process with a single tab, shared by every call of a batch.
type Session struct {
	ctx            context.Context
	cancel         context.CancelFunc
	resolveTimeout time.Duration
	renderTimeout  time.Duration

	mu        sync.Mutex
	closeOnce sync.Once
}

// callContext derives a tab context bounded by timeout that also ends with the caller's ctx.
func (s *Session) callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	tctx, cancel := context.WithTimeout(s.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return tctx, func() {
		stop()
		cancel()
	}
}

// Resolve navigates to rawURL and waits until the tab lands outside the redirector.
func (s *Session) Resolve(ctx context.Context, rawURL string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tctx, cancel := s.callContext(ctx, s.resolveTimeout)
	defer cancel()

	if err := chromedp.Run(tctx, chromedp.Navigate(rawURL)); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		var location string
		if err := chromedp.Run(tctx, chromedp.Location(&location)); err != nil {
			return "", fmt.Errorf("read location: %w", err)
		}
		if isResolved(rawURL, location) {
			return location, nil
		}

		select {
		case <-tctx.Done():
			return "", fmt.Errorf("%w: %s", ErrUnresolved, rawURL)
		case <-ticker.C:
		}
	}
}

// RenderHTML loads rawURL with JavaScript enabled and returns the rendered document.
func (s *Session) RenderHTML(ctx context.Context, rawURL string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tctx, cancel := s.callContext(ctx, s.renderTimeout)
	defer cancel()

	var htmlContent string
	err := chromedp.Run(tctx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(1*time.Second),
		chromedp.OuterHTML("html", &htmlContent),
	)
	if err != nil {
		return "", err
	}
	return htmlContent, nil
}

// Close shuts the browser down. Safe to call more than once.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}
