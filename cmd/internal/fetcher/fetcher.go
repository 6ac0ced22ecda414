package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"content-pipeline/config"
)

// ErrNoContent means the page had no usable article text.
var ErrNoContent = errors.New("no usable content")

const maxBodyBytes = 5 << 20

// Page is the extracted main content of a web page.
type Page struct {
	URL         string
	Title       string
	Text        string
	PublishedAt time.Time
	Extractor   string
}

// Fetcher downloads a page and extracts its main article text.
type Fetcher struct {
	client        *http.Client
	userAgent     string
	timeout       time.Duration
	minLength     int
	maxParagraphs int
	extractors    []extractor
}

func New(cfg config.FetcherConfig) *Fetcher {
	f := &Fetcher{
		client:        &http.Client{Timeout: cfg.Timeout},
		userAgent:     cfg.UserAgent,
		timeout:       cfg.Timeout,
		minLength:     cfg.MinContentLength,
		maxParagraphs: cfg.MaxParagraphs,
	}
	f.extractors = []extractor{
		{name: "selectors", fn: f.extractWithSelectors},
		{name: "readability", fn: extractWithReadability},
		{name: "trafilatura", fn: extractWithTrafilatura},
		{name: "goose", fn: extractWithGoose},
	}
	return f
}

// Fetch downloads url and extracts it. Any error means the page is not a usable source.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "es-ES,es;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return nil, fmt.Errorf("fetch %s: unsupported content type %q", url, ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return f.Extract(finalURL, string(body))
}

// Extract runs the extractor chain over rawHTML; the first extractor that yields
// acceptable text wins. Title and publication date fall back to page metadata.
func (f *Fetcher) Extract(pageURL string, rawHTML string) (*Page, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, ErrNoContent
	}

	meta := readMetadata(rawHTML)

	for _, ex := range f.extractors {
		out, err := ex.fn(pageURL, rawHTML)
		if err != nil {
			continue
		}
		text := normalizeSpace(out.Text)
		if !f.acceptable(text) {
			continue
		}

		page := &Page{
			URL:         pageURL,
			Title:       firstNonEmpty(meta.title, out.Title),
			Text:        text,
			PublishedAt: meta.publishedAt,
			Extractor:   ex.name,
		}
		if page.PublishedAt.IsZero() {
			page.PublishedAt = out.PublishedAt
		}
		return page, nil
	}
	return nil, ErrNoContent
}

var (
	cookieWallMarkers    = []string{"aceptar cookies", "accept cookies", "accept all cookies"}
	subscribeWallMarkers = []string{"suscríbete", "suscribete", "subscribe to continue", "subscribe to read"}
)

func (f *Fetcher) acceptable(text string) bool {
	if len(text) < f.minLength {
		return false
	}
	lower := strings.ToLower(text)
	for _, m := range cookieWallMarkers {
		if strings.Contains(lower, m) {
			return false
		}
	}
	head := lower
	if len(head) > 200 {
		head = head[:200]
	}
	for _, m := range subscribeWallMarkers {
		if strings.Contains(head, m) {
			return false
		}
	}
	return true
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
