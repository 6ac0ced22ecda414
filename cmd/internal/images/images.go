package images

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"content-pipeline/config"
)

const (
	unsplashSearchURL = "https://api.unsplash.com/search/photos"
	unsplashLicense   = "Unsplash License"
	unsplashMaxPage   = 30
)

var ErrNoAccessKey = errors.New("unsplash access key is not configured")

// Image is one search result with the attribution data needed to publish it.
type Image struct {
	URL           string `json:"url"`
	AltText       string `json:"alt_text"`
	Caption       string `json:"caption"`
	Author        string `json:"author"`
	AuthorURL     string `json:"author_url"`
	SourcePageURL string `json:"source_page_url"`
	License       string `json:"license"`
}

// Finder searches free-to-use images. An empty result is not an error.
type Finder interface {
	Search(ctx context.Context, query string, max int) ([]Image, error)
}

type UnsplashFinder struct {
	client    *http.Client
	baseURL   string
	accessKey string
}

var _ Finder = (*UnsplashFinder)(nil)

func NewUnsplashFinder(cfg config.ImagesConfig) *UnsplashFinder {
	return &UnsplashFinder{
		client:    &http.Client{Timeout: cfg.Timeout},
		baseURL:   unsplashSearchURL,
		accessKey: cfg.AccessKey,
	}
}

type unsplashSearchResponse struct {
	Total   int             `json:"total"`
	Results []unsplashPhoto `json:"results"`
}

type unsplashPhoto struct {
	Description    string `json:"description"`
	AltDescription string `json:"alt_description"`
	URLs           struct {
		Regular string `json:"regular"`
		Small   string `json:"small"`
	} `json:"urls"`
	Links struct {
		HTML string `json:"html"`
	} `json:"links"`
	User struct {
		Name  string `json:"name"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"user"`
}

func (f *UnsplashFinder) Search(ctx context.Context, query string, max int) ([]Image, error) {
	query = strings.TrimSpace(query)
	if max <= 0 || query == "" {
		return []Image{}, nil
	}
	if f.accessKey == "" {
		return nil, ErrNoAccessKey
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", strconv.Itoa(min(max, unsplashMaxPage)))
	q.Set("orientation", "landscape")
	q.Set("content_filter", "high")
	q.Set("lang", "es")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Client-ID "+f.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unsplash: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload unsplashSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("unsplash: decode response: %w", err)
	}

	out := make([]Image, 0, len(payload.Results))
	for _, p := range payload.Results {
		img, ok := toImage(p, query)
		if !ok {
			continue
		}
		out = append(out, img)
		if len(out) == max {
			break
		}
	}
	return out, nil
}

func toImage(p unsplashPhoto, query string) (Image, bool) {
	src := firstNonEmpty(p.URLs.Regular, p.URLs.Small)
	if src == "" {
		return Image{}, false
	}
	return Image{
		URL:           src,
		AltText:       firstNonEmpty(p.AltDescription, p.Description, "Image about "+query),
		Caption:       firstNonEmpty(p.Description, p.AltDescription),
		Author:        firstNonEmpty(p.User.Name, "Unsplash"),
		AuthorURL:     p.User.Links.HTML,
		SourcePageURL: p.Links.HTML,
		License:       unsplashLicense,
	}, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
