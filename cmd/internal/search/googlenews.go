package search

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"content-pipeline/config"
)

const googleNewsRSSURL = "https://news.google.com/rss/search"

// GoogleNewsRSS reads the Google News search feed. Its links point at news.google.com
// and need browser resolution to reach the publisher.
type GoogleNewsRSS struct {
	client    *http.Client
	baseURL   string
	region    string
	userAgent string
	limit     int
}

func NewGoogleNewsRSS(cfg config.SearchConfig, userAgent string) *GoogleNewsRSS {
	return &GoogleNewsRSS{
		client:    &http.Client{Timeout: cfg.Timeout},
		baseURL:   googleNewsRSSURL,
		region:    cfg.Region,
		userAgent: userAgent,
		limit:     cfg.MaxCandidates,
	}
}

func (g *GoogleNewsRSS) FindCandidates(ctx context.Context, topic string) ([]Candidate, error) {
	lang, country := splitRegion(g.region)
	q := url.Values{}
	q.Set("q", strings.TrimSpace(topic)+" when:1y")
	q.Set("hl", lang)
	q.Set("gl", strings.ToUpper(country))
	q.Set("ceid", strings.ToUpper(country)+":"+lang)

	fp := gofeed.NewParser()
	fp.Client = g.client
	fp.UserAgent = g.userAgent

	feed, err := fp.ParseURLWithContext(g.baseURL+"?"+q.Encode(), ctx)
	if err != nil {
		return nil, err
	}

	var out []Candidate
	for _, item := range feed.Items {
		if item.Link == "" || IsExcluded(item.Link) {
			continue
		}
		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}

		out = append(out, Candidate{
			URL:         item.Link,
			Title:       strings.TrimSpace(item.Title),
			PublishedAt: published,
			Provider:    "google_news",
		})
		if g.limit > 0 && len(out) >= g.limit {
			break
		}
	}
	return out, nil
}

// splitRegion turns "es-es" into ("es", "es").
func splitRegion(region string) (string, string) {
	lang, country, ok := strings.Cut(strings.ToLower(region), "-")
	if !ok || lang == "" || country == "" {
		return "es", "es"
	}
	return lang, country
}
