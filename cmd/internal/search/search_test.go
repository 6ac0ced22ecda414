package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content-pipeline/config"
)

const ddgResults = `<html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.elpais.com%2Fciencia%2Ftelescopio.html&rut=x">Nuevo telescopio</a>
  <a class="result__url" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.elpais.com%2Fciencia%2Ftelescopio.html&rut=x">elpais.com</a>
</div>
<div class="result">
  <a class="result__a" href="https://www.youtube.com/watch?v=1">Video</a>
  <a class="result__url" href="https://www.youtube.com/watch?v=1">youtube.com</a>
</div>
<div class="result">
  <a class="result__a" href="https://blog.example.com/tag/astronomia/">Etiqueta</a>
  <a class="result__url" href="https://blog.example.com/tag/astronomia/">blog.example.com</a>
</div>
<div class="result">
  <a class="result__a" href="//www.abc.es/ciencia/galaxias.html">Galaxias</a>
  <a class="result__url" href="//www.abc.es/ciencia/galaxias.html">abc.es</a>
</div>
</body></html>`

const newsFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>astronomía - Google Noticias</title>
<item>
  <title>Una galaxia lejana</title>
  <link>https://news.google.com/rss/articles/CBMiAAA</link>
  <pubDate>Mon, 06 May 2024 08:00:00 GMT</pubDate>
</item>
<item>
  <title>Sin enlace</title>
  <link></link>
</item>
<item>
  <title>Otra noticia</title>
  <link>https://news.google.com/rss/articles/CBMiBBB</link>
</item>
</channel></rss>`

func testConfig() config.SearchConfig {
	cfg := config.Default().Search
	cfg.Timeout = 2 * time.Second
	return cfg
}

func TestDuckDuckGoFindCandidates(t *testing.T) {
	var gotQuery, gotRegion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotRegion = r.URL.Query().Get("kl")
		_, _ = w.Write([]byte(ddgResults))
	}))
	defer srv.Close()

	d := NewDuckDuckGo(testConfig(), "test-agent")
	d.baseURL = srv.URL
	d.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }

	got, err := d.FindCandidates(context.Background(), "astronomía")
	require.NoError(t, err)

	assert.Equal(t, "astronomía site:.es OR site:.com after:2024", gotQuery)
	assert.Equal(t, "es-es", gotRegion)
	require.Len(t, got, 2)
	assert.Equal(t, "https://www.elpais.com/ciencia/telescopio.html", got[0].URL)
	assert.Equal(t, "Nuevo telescopio", got[0].Title)
	assert.Equal(t, "https://www.abc.es/ciencia/galaxias.html", got[1].URL)
}

func TestDuckDuckGoStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	d := NewDuckDuckGo(testConfig(), "test-agent")
	d.baseURL = srv.URL

	_, err := d.FindCandidates(context.Background(), "astronomía")
	assert.Error(t, err)
}

func TestGoogleNewsRSSFindCandidates(t *testing.T) {
	var gotHL, gotCEID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHL = r.URL.Query().Get("hl")
		gotCEID = r.URL.Query().Get("ceid")
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(newsFeed))
	}))
	defer srv.Close()

	g := NewGoogleNewsRSS(testConfig(), "test-agent")
	g.baseURL = srv.URL

	got, err := g.FindCandidates(context.Background(), "astronomía")
	require.NoError(t, err)

	assert.Equal(t, "es", gotHL)
	assert.Equal(t, "ES:es", gotCEID)
	require.Len(t, got, 2)
	assert.Equal(t, "Una galaxia lejana", got[0].Title)
	assert.Equal(t, time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC), got[0].PublishedAt.UTC())
	assert.True(t, got[1].PublishedAt.IsZero())
}

type fakeSearcher struct {
	out []Candidate
	err error
}

func (f fakeSearcher) FindCandidates(context.Context, string) ([]Candidate, error) {
	return f.out, f.err
}

func TestMultiMergesAndDedups(t *testing.T) {
	a := fakeSearcher{out: []Candidate{{URL: "https://a.com/1"}, {URL: "https://a.com/2"}}}
	broken := fakeSearcher{err: errors.New("rate limited")}
	b := fakeSearcher{out: []Candidate{{URL: "https://a.com/2"}, {URL: "https://b.com/1"}}}

	got, err := NewMulti(0, a, broken, b).FindCandidates(context.Background(), "x")
	require.NoError(t, err)

	var urls []string
	for _, c := range got {
		urls = append(urls, c.URL)
	}
	assert.Equal(t, []string{"https://a.com/1", "https://a.com/2", "https://b.com/1"}, urls)

	limited, err := NewMulti(2, a, b).FindCandidates(context.Background(), "x")
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestMultiFailsWhenEveryProviderFails(t *testing.T) {
	_, err := NewMulti(0, fakeSearcher{err: errors.New("a")}, fakeSearcher{err: errors.New("b")}).
		FindCandidates(context.Background(), "x")
	assert.Error(t, err)

	got, err := NewMulti(0, fakeSearcher{}).FindCandidates(context.Background(), "x")
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestIsExcluded(t *testing.T) {
	cases := map[string]bool{
		"https://www.elpais.com/ciencia/telescopio.html":  false,
		"https://m.youtube.com/watch?v=1":                 true,
		"https://x.com/user/status/1":                     true,
		"https://www.linkedin.com/pulse/post":             true,
		"https://blog.example.com/category/astro/":        true,
		"https://blog.example.com/temas/astro":            true,
		"https://blog.example.com/noticias?page=2":        true,
		"https://blog.example.com/post#comentarios":       true,
		"https://blog.example.com/informe.PDF":            true,
		"https://blog.example.com/descarga.zip":           true,
		"not a url":                                       true,
		"https://dropbox.com/box-of-things":               false,
	}
	for raw, want := range cases {
		assert.Equal(t, want, IsExcluded(raw), raw)
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := testConfig()

	s, err := New(cfg, "ua")
	require.NoError(t, err)
	assert.IsType(t, &DuckDuckGo{}, s)

	cfg.Providers = []string{"duckduckgo", "google_news"}
	s, err = New(cfg, "ua")
	require.NoError(t, err)
	assert.IsType(t, &Multi{}, s)

	cfg.Providers = []string{"bing"}
	_, err = New(cfg, "ua")
	assert.Error(t, err)
}
