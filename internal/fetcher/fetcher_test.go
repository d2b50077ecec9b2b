package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/scriptwatch/scriptwatch/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(maxSize int) *HTTPFetcher {
	cfg := config.NewDefaultMonitorConfig()
	if maxSize > 0 {
		cfg.MaxContentSize = maxSize
	}
	return NewHTTPFetcher(&cfg, zerolog.Nop())
}

func TestFetchContent_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(`console.log("hi");`))
	}))
	defer server.Close()

	result, err := newTestFetcher(0).FetchContent(context.Background(), Request{URL: server.URL + "/app.js"})

	require.NoError(t, err)
	assert.Equal(t, []byte(`console.log("hi");`), result.Content)
	assert.Equal(t, "application/javascript", result.ContentType)
	assert.Equal(t, `"v1"`, result.ETag)
	assert.Equal(t, http.StatusOK, result.StatusCode)
}

func TestFetchContent_ConditionalGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte("content"))
	}))
	defer server.Close()

	f := newTestFetcher(0)

	first, err := f.FetchContent(context.Background(), Request{URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, `"v1"`, first.ETag)

	_, err = f.FetchContent(context.Background(), Request{URL: server.URL, PreviousETag: `"v1"`})
	assert.ErrorIs(t, err, ErrNotModified)
}

func TestFetchContent_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestFetcher(0).FetchContent(context.Background(), Request{URL: server.URL})
	assert.Error(t, err)
}

func TestFetchContent_SizeGuard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 2048))
	}))
	defer server.Close()

	_, err := newTestFetcher(1024).FetchContent(context.Background(), Request{URL: server.URL})
	assert.Error(t, err)
}

func TestFetchContent_InvalidURL(t *testing.T) {
	_, err := newTestFetcher(0).FetchContent(context.Background(), Request{URL: "http://\x00invalid"})
	assert.Error(t, err)
}
