package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"content-pipeline/config"
)

const duckDuckGoHTMLURL = "https://duckduckgo.com/html/"

// DuckDuckGo scrapes the HTML results page.
type DuckDuckGo struct {
	client    *http.Client
	baseURL   string
	region    string
	userAgent string
	limit     int
	now       func() time.Time
}

func NewDuckDuckGo(cfg config.SearchConfig, userAgent string) *DuckDuckGo {
	return &DuckDuckGo{
		client:    &http.Client{Timeout: cfg.Timeout},
		baseURL:   duckDuckGoHTMLURL,
		region:    cfg.Region,
		userAgent: userAgent,
		limit:     cfg.MaxCandidates,
		now:       time.Now,
	}
}

func (d *DuckDuckGo) FindCandidates(ctx context.Context, topic string) ([]Candidate, error) {
	q := url.Values{}
	q.Set("q", BuildQuery(topic, d.now()))
	q.Set("kl", d.region)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo: unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	var out []Candidate
	doc.Find("a.result__url").EachWithBreak(func(i int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}
		link := unwrapRedirect(absoluteURL(strings.TrimSpace(href)))
		if IsExcluded(link) {
			return true
		}

		title := strings.TrimSpace(a.Closest(".result").Find("a.result__a").First().Text())
		out = append(out, Candidate{URL: link, Title: title, Provider: "duckduckgo"})
		return d.limit <= 0 || len(out) < d.limit
	})
	return out, nil
}

func absoluteURL(href string) string {
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}

// unwrapRedirect returns the target of a duckduckgo /l/?uddg= link, or link unchanged.
func unwrapRedirect(link string) string {
	u, err := url.Parse(link)
	if err != nil || !strings.HasSuffix(u.Hostname(), "duckduckgo.com") || !strings.HasPrefix(u.Path, "/l/") {
		return link
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return link
}
