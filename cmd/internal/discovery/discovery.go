package discovery

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"content-pipeline/cmd/internal/analyzer"
	"content-pipeline/cmd/internal/browser"
	"content-pipeline/cmd/internal/fetcher"
	"content-pipeline/cmd/internal/logger"
	"content-pipeline/cmd/internal/search"
	"content-pipeline/models"
)

type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Page, error)
	Extract(pageURL string, rawHTML string) (*fetcher.Page, error)
}

type Judge interface {
	Judge(ctx context.Context, in analyzer.Input) analyzer.Judgment
}

// SourceLookup is the dedup check against already stored sources.
type SourceLookup interface {
	ExistsByURL(ctx context.Context, url string) (bool, error)
}

// BrowserOpener starts a browser session. A nil opener disables resolution and rendering.
type BrowserOpener interface {
	OpenResolver(ctx context.Context) (browser.Resolver, error)
}

type Options struct {
	// MaxCandidates caps how many search results are examined. Zero means all.
	MaxCandidates  int
	MaxToFetch     int
	ScoreThreshold int
	AnalyzerPrompt string
}

type Service struct {
	searcher search.Searcher
	browser  BrowserOpener
	fetcher  PageFetcher
	judge    Judge
	sources  SourceLookup
}

func New(searcher search.Searcher, opener BrowserOpener, f PageFetcher, judge Judge, sources SourceLookup) *Service {
	return &Service{
		searcher: searcher,
		browser:  opener,
		fetcher:  f,
		judge:    judge,
		sources:  sources,
	}
}

// Discover searches, resolves, extracts and scores candidate pages for topic.
// The returned sources are not persisted. Failures on a single candidate are logged and
// skipped; only context cancellation is returned as an error.
func (s *Service) Discover(ctx context.Context, topic string, opts Options) ([]models.SourceArticle, error) {
	candidates, err := s.searcher.FindCandidates(ctx, topic)
	if err != nil {
		logger.Log.Warnf("search failed for topic %q: %v", topic, err)
		return nil, ctx.Err()
	}
	if opts.MaxCandidates > 0 && len(candidates) > opts.MaxCandidates {
		candidates = candidates[:opts.MaxCandidates]
	}
	logger.InfoWithFields("discovery candidates found", logger.Fields{
		"topic":      topic,
		"candidates": len(candidates),
	})

	session := &lazySession{opener: s.browser}
	defer session.Close()

	seen := make(map[string]bool, len(candidates))
	var judged []models.SourceArticle
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		src, ok := s.processCandidate(ctx, topic, cand, opts, session, seen)
		if !ok {
			continue
		}
		judged = append(judged, src)
	}

	return SelectTop(judged, opts.ScoreThreshold, opts.MaxToFetch), nil
}

func (s *Service) processCandidate(
	ctx context.Context,
	topic string,
	cand search.Candidate,
	opts Options,
	session *lazySession,
	seen map[string]bool,
) (models.SourceArticle, bool) {
	resolved := cand.URL
	if browser.NeedsResolution(cand.URL) {
		if r := session.Get(ctx); r != nil {
			final, err := r.Resolve(ctx, cand.URL)
			if err != nil {
				logger.Log.Warnf("redirect resolution failed, using original url %s: %v", cand.URL, err)
			} else {
				resolved = final
			}
		}
	}

	if search.IsExcluded(resolved) {
		logger.Log.Debugf("skip excluded url %s", resolved)
		return models.SourceArticle{}, false
	}
	if seen[resolved] {
		return models.SourceArticle{}, false
	}
	seen[resolved] = true

	exists, err := s.sources.ExistsByURL(ctx, resolved)
	if err != nil {
		logger.Log.Warnf("source lookup failed for %s: %v", resolved, err)
		return models.SourceArticle{}, false
	}
	if exists {
		logger.Log.Debugf("skip stored url %s", resolved)
		return models.SourceArticle{}, false
	}

	page, err := s.fetch(ctx, resolved, session)
	if err != nil {
		logger.Log.Warnf("skip %s: %v", resolved, err)
		return models.SourceArticle{}, false
	}

	j := s.judge.Judge(ctx, analyzer.Input{
		Topic:          topic,
		Text:           page.Text,
		PromptTemplate: opts.AnalyzerPrompt,
	})
	logger.InfoWithFields("source analyzed", logger.Fields{
		"topic": topic,
		"url":   resolved,
		"score": j.Score,
	})

	return NewSourceArticle(topic, resolved, cand, page, j), true
}

// fetch tries a plain HTTP fetch first and falls back to a browser render for
// pages that only produce content with JavaScript.
func (s *Service) fetch(ctx context.Context, pageURL string, session *lazySession) (*fetcher.Page, error) {
	page, err := s.fetcher.Fetch(ctx, pageURL)
	if err == nil {
		return page, nil
	}

	r := session.Get(ctx)
	if r == nil {
		return nil, err
	}
	html, rerr := r.RenderHTML(ctx, pageURL)
	if rerr != nil {
		return nil, fmt.Errorf("fetch: %v; render: %w", err, rerr)
	}
	return s.fetcher.Extract(pageURL, html)
}

// NewSourceArticle folds a judgment and page metadata into an unsaved source.
func NewSourceArticle(topic, pageURL string, cand search.Candidate, page *fetcher.Page, j analyzer.Judgment) models.SourceArticle {
	title := strings.TrimSpace(page.Title)
	if title == "" {
		title = strings.TrimSpace(cand.Title)
	}
	if title == "" {
		title = "Article about " + topic
	}

	summary := j.Summary
	if summary == "" {
		summary = j.Reason
	}

	published := page.PublishedAt
	if published.IsZero() {
		published = cand.PublishedAt
	}

	tags := j.Tags
	if tags == nil {
		tags = []string{}
	}

	return models.SourceArticle{
		URL:            pageURL,
		Title:          title,
		RelevanceScore: j.Score,
		Reason:         j.Reason,
		Summary:        summary,
		OriginDomain:   OriginDomain(pageURL),
		PublishedAt:    published,
		Tags:           tags,
	}
}

// OriginDomain is the host of rawURL without a leading "www.".
func OriginDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// SelectTop keeps sources scoring at least threshold, ordered by score then recency,
// capped at limit when limit > 0.
func SelectTop(sources []models.SourceArticle, threshold, limit int) []models.SourceArticle {
	out := make([]models.SourceArticle, 0, len(sources))
	for _, s := range sources {
		if s.RelevanceScore >= threshold {
			out = append(out, s)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RelevanceScore != out[j].RelevanceScore {
			return out[i].RelevanceScore > out[j].RelevanceScore
		}
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// lazySession opens the browser on first use and at most once per batch.
type lazySession struct {
	opener BrowserOpener

	once     sync.Once
	resolver browser.Resolver
}

func (l *lazySession) Get(ctx context.Context) browser.Resolver {
	if l.opener == nil {
		return nil
	}
	l.once.Do(func() {
		r, err := l.opener.OpenResolver(ctx)
		if err != nil {
			logger.Log.Warnf("browser unavailable, continuing without it: %v", err)
			return
		}
		l.resolver = r
	})
	return l.resolver
}

// Close releases the session if one was opened. Later Get calls return nil.
func (l *lazySession) Close() {
	l.once.Do(func() {})
	if l.resolver != nil {
		l.resolver.Close()
		l.resolver = nil
	}
}
