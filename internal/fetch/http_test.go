package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/stickerconv/internal/sticker"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestHTTPFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/img/dance.gif":
			w.Header().Set("Content-Type", "image/gif")
			_, _ = w.Write(gifBytes)
		case "/img/cat.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(pngBytes)
		case "/raw/blob":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(gifBytes)
		case "/empty":
			w.Header().Set("Content-Type", "image/png")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(WithBaseBackoff(time.Millisecond))

	t.Run("animated content type", func(t *testing.T) {
		src, err := f.Fetch(context.Background(), srv.URL+"/img/dance.gif")
		require.NoError(t, err)
		assert.Equal(t, "dance", src.Name)
		assert.Equal(t, sticker.HintAnimated, src.Hint)
		assert.Equal(t, gifBytes, src.Data)
	})

	t.Run("static content type", func(t *testing.T) {
		src, err := f.Fetch(context.Background(), srv.URL+"/img/cat.png")
		require.NoError(t, err)
		assert.Equal(t, "cat", src.Name)
		assert.Equal(t, sticker.HintStatic, src.Hint)
	})

	t.Run("sniffs generic content type", func(t *testing.T) {
		src, err := f.Fetch(context.Background(), srv.URL+"/raw/blob")
		require.NoError(t, err)
		assert.Equal(t, "blob", src.Name)
		assert.Equal(t, "image/gif", src.ContentType)
		assert.Equal(t, sticker.HintAnimated, src.Hint)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), srv.URL+"/missing.png")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, ErrFetch)
	})

	t.Run("empty body", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), srv.URL+"/empty")
		assert.ErrorIs(t, err, ErrEmptyBody)
	})

	t.Run("invalid url", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), "ftp://example.com/a.png")
		var fe *FetchError
		assert.ErrorAs(t, err, &fe)
	})
}

func TestHTTPFetcher_SizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(WithMaxBytes(1024))

	_, err := f.Fetch(context.Background(), srv.URL+"/big.png")

	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(WithTimeout(20*time.Millisecond), WithMaxRetries(0))

	_, err := f.Fetch(context.Background(), srv.URL+"/slow.png")

	assert.ErrorIs(t, err, ErrFetch)
}

func TestNameFromURL(t *testing.T) {
	tests := map[string]string{
		"https://example.com/a/b/pepe.gif":     "pepe",
		"https://example.com/a/b/pepe.gif?x=1": "pepe",
		"https://example.com/archive.tar.gz":   "archive.tar",
		"https://example.com/dir/":             "dir",
		"https://example.com":                  "",
	}
	for raw, want := range tests {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, want, nameFromURL(u), raw)
	}
}
