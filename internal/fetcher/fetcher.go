package fetcher

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"

	"github.com/scriptwatch/scriptwatch/internal/config"
	"github.com/scriptwatch/scriptwatch/internal/errorwrapper"

	"github.com/rs/zerolog"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 scriptwatch/1.0"

// ErrNotModified is returned when a conditional GET answers 304; the caller
// keeps the previously known content for that URL.
var ErrNotModified = errorwrapper.NewError("content not modified")

// Request holds parameters for one content fetch.
type Request struct {
	URL          string
	PreviousETag string
}

// Result holds a successfully fetched file's content and metadata.
type Result struct {
	URL         string
	Content     []byte
	ContentType string
	ETag        string
	StatusCode  int
}

// ContentFetcher supplies raw content for tracked URLs. The pipeline core
// depends only on this boundary.
type ContentFetcher interface {
	FetchContent(ctx context.Context, req Request) (*Result, error)
}

// HTTPFetcher fetches file content over plain HTTP(S) with conditional GET
// support and a content size guard.
type HTTPFetcher struct {
	httpClient *http.Client
	logger     zerolog.Logger
	cfg        *config.MonitorConfig
}

// NewHTTPFetcher creates an HTTPFetcher configured from MonitorConfig.
func NewHTTPFetcher(cfg *config.MonitorConfig, logger zerolog.Logger) *HTTPFetcher {
	transport := &http.Transport{}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &HTTPFetcher{
		httpClient: &http.Client{
			Timeout:   cfg.HTTPTimeout(),
			Transport: transport,
		},
		logger: logger.With().Str("component", "HTTPFetcher").Logger(),
		cfg:    cfg,
	}
}

// FetchContent performs the GET. When a previous ETag is supplied it is sent
// as If-None-Match; a 304 answer yields ErrNotModified with no content read.
func (f *HTTPFetcher) FetchContent(ctx context.Context, req Request) (*Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, errorwrapper.WrapError(err, "creating request for "+req.URL)
	}
	httpReq.Header.Set("User-Agent", userAgent)
	if req.PreviousETag != "" {
		httpReq.Header.Set("If-None-Match", req.PreviousETag)
	}

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return nil, errorwrapper.NewNetworkError(req.URL, "HTTP request failed", err)
	}
	defer resp.Body.Close()

	result := &Result{
		URL:         req.URL,
		ContentType: resp.Header.Get("Content-Type"),
		ETag:        resp.Header.Get("ETag"),
		StatusCode:  resp.StatusCode,
	}

	if resp.StatusCode == http.StatusNotModified {
		f.logger.Debug().Str("url", req.URL).Msg("Content not modified (304)")
		return result, ErrNotModified
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, errorwrapper.NewHTTPErrorWithURL(resp.StatusCode, string(body), req.URL)
	}

	maxSize := int64(f.cfg.MaxContentSize)
	if resp.ContentLength > 0 && resp.ContentLength > maxSize {
		return nil, errorwrapper.NewError("content too large for %s: %d bytes (max %d)", req.URL, resp.ContentLength, maxSize)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to read response body for "+req.URL)
	}
	if int64(len(body)) > maxSize {
		return nil, errorwrapper.NewError("content too large for %s: exceeds %d bytes", req.URL, maxSize)
	}

	result.Content = body
	f.logger.Debug().
		Str("url", req.URL).
		Str("content_type", result.ContentType).
		Int("size", len(body)).
		Msg("File content fetched")
	return result, nil
}
