package fetcher

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/advancedlogic/GoOse/pkg/goose"
	"github.com/go-shiori/go-readability"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

type extraction struct {
	Title       string
	Text        string
	PublishedAt time.Time
}

type extractor struct {
	name string
	fn   func(pageURL, rawHTML string) (extraction, error)
}

var noiseSelectors = "script, style, noscript, nav, footer, iframe, aside, header, form, .sidebar"

// contentSelectors are tried in order; the first match is the article container.
var contentSelectors = []string{
	"article",
	".article-content",
	".entry-content",
	".post-content",
	"#main-content",
	"#content",
	`div[itemprop="articleBody"]`,
	"div.body",
	"div.story",
	"div.text",
	"div.content",
}

// extractWithSelectors finds the main content block by well-known selectors and joins
// its paragraphs. Without paragraphs it falls back to headings, list items and quotes.
func (f *Fetcher) extractWithSelectors(_ string, rawHTML string) (extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return extraction{}, err
	}
	doc.Find(noiseSelectors).Remove()

	var block *goquery.Selection
	for _, sel := range contentSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			block = s
			break
		}
	}
	if block == nil {
		block = doc.Find("body").First()
	}
	if block.Length() == 0 {
		block = doc.Find("div").First()
	}
	if block.Length() == 0 {
		return extraction{}, ErrNoContent
	}

	var parts []string
	block.Find("p").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
		return len(parts) < f.maxParagraphs
	})
	if len(parts) == 0 {
		block.Find("h1, h2, h3, h4, h5, li, blockquote, pre").Each(func(i int, s *goquery.Selection) {
			if t := strings.TrimSpace(s.Text()); t != "" {
				parts = append(parts, t)
			}
		})
	}

	text := strings.Join(parts, " ")
	if len(text) <= 100 {
		return extraction{}, ErrNoContent
	}
	return extraction{
		Title: strings.TrimSpace(doc.Find("h1").First().Text()),
		Text:  text,
	}, nil
}

func extractWithReadability(pageURL string, rawHTML string) (extraction, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return extraction{}, err
	}

	u, _ := url.Parse(pageURL)
	article, err := readability.FromDocument(doc, u)
	if err != nil {
		return extraction{}, err
	}
	return extraction{Title: article.Title, Text: article.TextContent}, nil
}

func extractWithTrafilatura(pageURL string, rawHTML string) (extraction, error) {
	opts := trafilatura.Options{EnableFallback: false}
	if u, err := url.Parse(pageURL); err == nil {
		opts.OriginalURL = u
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return extraction{}, err
	}
	return extraction{
		Title:       result.Metadata.Title,
		Text:        result.ContentText,
		PublishedAt: result.Metadata.Date,
	}, nil
}

func extractWithGoose(pageURL string, rawHTML string) (extraction, error) {
	g := goose.New()
	article, err := g.ExtractFromRawHTML(rawHTML, pageURL)
	if err != nil {
		return extraction{}, err
	}
	return extraction{Title: article.Title, Text: article.CleanedText}, nil
}
