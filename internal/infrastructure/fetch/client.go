// Package fetch downloads product pages for auditing.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/pdpaudit/backend/internal/domain"
	"go.uber.org/zap"
)

// DefaultUserAgent is a desktop browser user agent; many storefronts serve
// bot-filtered or empty pages to unknown clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// DefaultMaxBodySize caps a downloaded page at 10MB
const DefaultMaxBodySize = 10 * 1024 * 1024

// Config holds configuration for the page fetcher
type Config struct {
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
	MaxRedirects   int
	MaxBodySize    int
}

// Client fetches pages over HTTP. It never retries: a failed page is
// reported as-is and the caller degrades that row.
type Client struct {
	resty       *resty.Client
	maxBodySize int
	logger      *zap.Logger
}

// NewClient creates a page fetcher
func NewClient(config Config, logger *zap.Logger) *Client {
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.AcceptLanguage == "" {
		config.AcceptLanguage = "en;q=0.9"
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRedirects <= 0 {
		config.MaxRedirects = 10
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = DefaultMaxBodySize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	restyClient := resty.New().
		SetTimeout(config.Timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(config.MaxRedirects)).
		SetRetryCount(0).
		SetResponseBodyLimit(config.MaxBodySize).
		SetHeaders(map[string]string{
			"User-Agent":      config.UserAgent,
			"Accept":          "text/html,application/xhtml+xml",
			"Accept-Language": config.AcceptLanguage,
			"Cache-Control":   "no-cache",
			"Pragma":          "no-cache",
		})

	return &Client{
		resty:       restyClient,
		maxBodySize: config.MaxBodySize,
		logger:      logger.Named("fetch"),
	}
}

// Fetch downloads rawURL. Invalid URLs return domain.ErrInvalidURL; network
// errors, non-2xx statuses, oversized, empty and binary bodies return
// domain.ErrFetchFailed. A missing Content-Type is sniffed from the body.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*domain.Page, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.resty.R().
		SetContext(ctx).
		Get(rawURL)
	if errors.Is(err, resty.ErrResponseBodyTooLarge) {
		c.logger.Debug("response too large", zap.String("url", rawURL), zap.Int("limit", c.maxBodySize))
		return nil, fmt.Errorf("%w: response body exceeds %d bytes", domain.ErrFetchFailed, c.maxBodySize)
	}
	if err != nil {
		c.logger.Debug("request error", zap.String("url", rawURL), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		c.logger.Debug("non-success status", zap.String("url", rawURL), zap.Int("status", status))
		return nil, fmt.Errorf("%w: HTTP %d", domain.ErrFetchFailed, status)
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty response body", domain.ErrFetchFailed)
	}
	if len(body) > c.maxBodySize {
		return nil, fmt.Errorf("%w: response body exceeds %d bytes", domain.ErrFetchFailed, c.maxBodySize)
	}

	sniffed := mimetype.Detect(body)
	if !isTextual(sniffed) {
		c.logger.Debug("binary response", zap.String("url", rawURL), zap.String("mime", sniffed.String()))
		return nil, fmt.Errorf("%w: unsupported content %s", domain.ErrFetchFailed, sniffed.String())
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType == "" {
		contentType = sniffed.String()
	}

	finalURL := rawURL
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		finalURL = resp.RawResponse.Request.URL.String()
	}

	c.logger.Debug("fetched page",
		zap.String("url", rawURL),
		zap.Int("status", status),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", time.Since(start)),
	)

	return &domain.Page{
		URL:         finalURL,
		StatusCode:  status,
		ContentType: contentType,
		Body:        body,
	}, nil
}

// isTextual reports whether the detected type is text/plain or one of its
// descendants (html, xml, json, ...).
func isTextual(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// validateURL accepts absolute http(s) URLs with a host
func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", domain.ErrInvalidURL)
	}
	return nil
}
