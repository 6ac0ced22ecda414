package images

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content-pipeline/config"
)

const searchResponse = `{
  "total": 3,
  "results": [
    {
      "description": "Telescopio bajo la Vía Láctea",
      "alt_description": "telescopio de noche",
      "urls": {"regular": "https://images.unsplash.com/regular-1", "small": "https://images.unsplash.com/small-1"},
      "links": {"html": "https://unsplash.com/photos/1"},
      "user": {"name": "Ana Pérez", "links": {"html": "https://unsplash.com/@ana"}}
    },
    {
      "description": null,
      "alt_description": null,
      "urls": {"small": "https://images.unsplash.com/small-2"},
      "links": {"html": "https://unsplash.com/photos/2"},
      "user": {"name": "", "links": {"html": "https://unsplash.com/@anon"}}
    },
    {
      "urls": {},
      "links": {"html": "https://unsplash.com/photos/3"},
      "user": {"name": "Nadie"}
    }
  ]
}`

func newTestFinder(t *testing.T, handler http.HandlerFunc) *UnsplashFinder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	f := NewUnsplashFinder(config.ImagesConfig{Timeout: 2 * time.Second, AccessKey: "key-123"})
	f.baseURL = srv.URL
	return f
}

func TestUnsplashSearchMapsResults(t *testing.T) {
	var got *http.Request
	f := newTestFinder(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchResponse))
	})

	imgs, err := f.Search(context.Background(), "telescopios astronomía", 50)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "Client-ID key-123", got.Header.Get("Authorization"))
	assert.Equal(t, "v1", got.Header.Get("Accept-Version"))
	assert.Equal(t, "30", got.URL.Query().Get("per_page"))
	assert.Equal(t, "landscape", got.URL.Query().Get("orientation"))
	assert.Equal(t, "high", got.URL.Query().Get("content_filter"))
	assert.Equal(t, "telescopios astronomía", got.URL.Query().Get("query"))

	require.Len(t, imgs, 2)
	assert.Equal(t, Image{
		URL:           "https://images.unsplash.com/regular-1",
		AltText:       "telescopio de noche",
		Caption:       "Telescopio bajo la Vía Láctea",
		Author:        "Ana Pérez",
		AuthorURL:     "https://unsplash.com/@ana",
		SourcePageURL: "https://unsplash.com/photos/1",
		License:       "Unsplash License",
	}, imgs[0])

	assert.Equal(t, "https://images.unsplash.com/small-2", imgs[1].URL)
	assert.Equal(t, "Image about telescopios astronomía", imgs[1].AltText)
	assert.Empty(t, imgs[1].Caption)
	assert.Equal(t, "Unsplash", imgs[1].Author)
}

func TestUnsplashSearchRespectsMax(t *testing.T) {
	f := newTestFinder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))
		_, _ = w.Write([]byte(searchResponse))
	})

	imgs, err := f.Search(context.Background(), "telescopios", 1)
	require.NoError(t, err)
	assert.Len(t, imgs, 1)
}

func TestUnsplashSearchEmptyAndErrors(t *testing.T) {
	f := newTestFinder(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("query") {
		case "nada":
			_, _ = w.Write([]byte(`{"total": 0, "results": []}`))
		case "limite":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("Rate Limit Exceeded"))
		default:
			_, _ = w.Write([]byte("not json"))
		}
	})
	ctx := context.Background()

	imgs, err := f.Search(ctx, "nada", 3)
	require.NoError(t, err)
	assert.Empty(t, imgs)

	_, err = f.Search(ctx, "limite", 3)
	assert.ErrorContains(t, err, "403")

	_, err = f.Search(ctx, "roto", 3)
	assert.Error(t, err)

	imgs, err = f.Search(ctx, "telescopios", 0)
	require.NoError(t, err)
	assert.Empty(t, imgs)
}

func TestUnsplashSearchWithoutKey(t *testing.T) {
	f := NewUnsplashFinder(config.ImagesConfig{Timeout: time.Second})
	_, err := f.Search(context.Background(), "telescopios", 2)
	assert.ErrorIs(t, err, ErrNoAccessKey)
}
