package fetcher

import (
	"strings"
	"time"

	"golang.org/x/net/html"
)

type pageMetadata struct {
	title       string
	publishedAt time.Time
}

var publishedMetaKeys = map[string]bool{
	"article:published_time": true,
	"og:published_time":      true,
	"datepublished":          true,
	"date":                   true,
	"pubdate":                true,
	"dc.date.issued":         true,
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// readMetadata walks the document for og:title/<title> and a publication date
// from meta tags or the first <time datetime>.
func readMetadata(rawHTML string) pageMetadata {
	var meta pageMetadata
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return meta
	}

	var ogTitle, docTitle, timeAttr string
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				key := strings.ToLower(firstNonEmpty(attr(n, "property"), attr(n, "name"), attr(n, "itemprop")))
				content := attr(n, "content")
				if key == "og:title" && ogTitle == "" {
					ogTitle = content
				}
				if publishedMetaKeys[key] && meta.publishedAt.IsZero() {
					meta.publishedAt = parseDate(content)
				}
			case "title":
				if docTitle == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					docTitle = n.FirstChild.Data
				}
			case "time":
				if timeAttr == "" {
					timeAttr = attr(n, "datetime")
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(doc)

	meta.title = firstNonEmpty(ogTitle, docTitle)
	if meta.publishedAt.IsZero() && timeAttr != "" {
		meta.publishedAt = parseDate(timeAttr)
	}
	return meta
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
