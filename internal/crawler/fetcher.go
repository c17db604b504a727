package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/masahif/pwascout/internal/config"
)

// HTTPFetcher performs bounded-time GET requests with a rotating User-Agent
type HTTPFetcher struct {
	client       *http.Client
	userAgents   []string
	headers      map[string]string
	maxBodyBytes int64
	logger       *slog.Logger
	metrics      *Metrics
}

// NewHTTPFetcher creates a fetcher from the crawler configuration
func NewHTTPFetcher(cfg *config.Config, logger *slog.Logger, metrics *Metrics) *HTTPFetcher {
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.RequestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	return &HTTPFetcher{
		client:       client,
		userAgents:   append([]string(nil), cfg.UserAgents...),
		headers:      cfg.HeaderMap(),
		maxBodyBytes: cfg.MaxBodyBytes,
		logger:       logger,
		metrics:      metrics,
	}
}

// Fetch returns the decoded body of a 2xx response and "" for anything else.
// Failures are logged, never returned.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		f.logger.Info("Invalid request", "url", url, "error", err)
		f.metrics.observeFetch("invalid_request")
		return ""
	}

	for name, value := range f.headers {
		req.Header.Set(name, value)
	}
	req.Header.Set("User-Agent", f.pickUserAgent())

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Info("Fetch failed", "url", url, "error", err)
		f.metrics.observeFetch("transport_error")
		return ""
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		f.logger.Info("Page not found", "status_code", resp.StatusCode, "url", url)
		f.metrics.observeFetch("not_found")
		return ""
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Info("Unexpected status", "status_code", resp.StatusCode, "url", url)
		f.metrics.observeFetch("unexpected_status")
		return ""
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		f.logger.Info("Failed to read response body", "url", url, "error", err)
		f.metrics.observeFetch("transport_error")
		return ""
	}
	f.metrics.observeFetch("ok")

	return decodeBody(raw, resp.Header.Get("Content-Type"))
}

// Close releases idle connections
func (f *HTTPFetcher) Close() {
	f.client.CloseIdleConnections()
}

func (f *HTTPFetcher) pickUserAgent() string {
	if len(f.userAgents) == 0 {
		return ""
	}
	return f.userAgents[rand.Intn(len(f.userAgents))]
}

// decodeBody converts raw to UTF-8 text using the declared or sniffed charset
func decodeBody(raw []byte, contentType string) string {
	reader, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return string(raw)
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}
