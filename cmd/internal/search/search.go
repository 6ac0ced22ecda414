package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"content-pipeline/cmd/internal/logger"
	"content-pipeline/config"
)

// Candidate is one search hit before redirect resolution and extraction.
type Candidate struct {
	URL         string
	Title       string
	PublishedAt time.Time
	Provider    string
}

// Searcher returns candidate article URLs for a topic.
type Searcher interface {
	FindCandidates(ctx context.Context, topic string) ([]Candidate, error)
}

// New builds the searcher chain named by cfg.Providers.
func New(cfg config.SearchConfig, userAgent string) (Searcher, error) {
	var providers []Searcher
	for _, name := range cfg.Providers {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "duckduckgo", "ddg":
			providers = append(providers, NewDuckDuckGo(cfg, userAgent))
		case "google_news", "googlenews":
			providers = append(providers, NewGoogleNewsRSS(cfg, userAgent))
		default:
			return nil, fmt.Errorf("unknown search provider %q", name)
		}
	}
	if len(providers) == 0 {
		return nil, errors.New("no search providers configured")
	}
	if len(providers) == 1 {
		return providers[0], nil
	}
	return NewMulti(cfg.MaxCandidates, providers...), nil
}

// Multi queries every provider in order and merges their results.
// A failing provider is logged and skipped; Multi fails only when all of them do.
type Multi struct {
	providers []Searcher
	limit     int
}

func NewMulti(limit int, providers ...Searcher) *Multi {
	return &Multi{providers: providers, limit: limit}
}

func (m *Multi) FindCandidates(ctx context.Context, topic string) ([]Candidate, error) {
	var (
		out  []Candidate
		errs []error
		seen = make(map[string]bool)
	)
	for _, p := range m.providers {
		found, err := p.FindCandidates(ctx, topic)
		if err != nil {
			logger.Log.Warnf("search provider %T failed for %q: %v", p, topic, err)
			errs = append(errs, err)
			continue
		}
		for _, c := range found {
			if seen[c.URL] {
				continue
			}
			seen[c.URL] = true
			out = append(out, c)
		}
	}

	if len(out) == 0 && len(errs) == len(m.providers) && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if m.limit > 0 && len(out) > m.limit {
		out = out[:m.limit]
	}
	return out, nil
}

var excludedDomains = []string{
	"youtube.com",
	"youtu.be",
	"facebook.com",
	"twitter.com",
	"x.com",
	"linkedin.com",
	"instagram.com",
	"tiktok.com",
}

var nonArticlePatterns = []string{
	"/tag/",
	"/tags/",
	"/temas/",
	"/category/",
	"?page=",
	"&page=",
	"#",
	".pdf",
	".zip",
}

// IsExcluded reports whether rawURL is a social/video platform or does not look like an article.
func IsExcluded(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range excludedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}

	lower := strings.ToLower(rawURL)
	for _, p := range nonArticlePatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// BuildQuery restricts the topic to Spanish and international sites published recently.
func BuildQuery(topic string, now time.Time) string {
	return fmt.Sprintf("%s site:.es OR site:.com after:%d", strings.TrimSpace(topic), now.Year()-1)
}
