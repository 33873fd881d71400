// Package search queries a Google Custom Search compatible web search API
// for reference listings.
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pdpaudit/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Google Custom Search JSON API endpoint
const DefaultBaseURL = "https://www.googleapis.com/customsearch/v1"

// maxResultsPerRequest is the most results the API returns in one page
const maxResultsPerRequest = 10

// maxResponseSize bounds how much of a search response is read
const maxResponseSize = 2 * 1024 * 1024

// Config holds configuration for the search client
type Config struct {
	APIKey            string
	EngineID          string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
}

// Client handles communication with the web search API
type Client struct {
	httpClient  *retryablehttp.Client
	apiKey      string
	engineID    string
	baseURL     string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
	redactor    *strings.Replacer
}

// redactedKey replaces the API key wherever it would reach logs or errors
const redactedKey = "REDACTED"

type searchResponse struct {
	Items []domain.SearchResult `json:"items"`
}

// NewClient creates a new search client. A client without an API key or
// engine ID is valid but every search returns domain.ErrSearchUnavailable.
func NewClient(config Config, logger *zap.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 1
	}
	if config.Burst <= 0 {
		config.Burst = 5
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryWaitMin <= 0 {
		config.RetryWaitMin = 500 * time.Millisecond
	}
	if config.RetryWaitMax <= 0 {
		config.RetryWaitMax = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("search")
	redactor := newRedactor(config.APIKey)

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = config.MaxRetries
	retryClient.RetryWaitMin = config.RetryWaitMin
	retryClient.RetryWaitMax = config.RetryWaitMax
	retryClient.HTTPClient.Timeout = config.Timeout
	retryClient.Logger = leveledLogger{s: logger.Sugar(), redactor: redactor}
	// hand the last response back instead of a generic "giving up" error
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		httpClient:  retryClient,
		apiKey:      config.APIKey,
		engineID:    config.EngineID,
		baseURL:     config.BaseURL,
		rateLimiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		logger:      logger,
		redactor:    redactor,
	}
}

// newRedactor masks key in both its raw and query-escaped forms
func newRedactor(key string) *strings.Replacer {
	if key == "" {
		return strings.NewReplacer()
	}
	pairs := []string{key, redactedKey}
	if escaped := url.QueryEscape(key); escaped != key {
		pairs = append(pairs, escaped, redactedKey)
	}
	return strings.NewReplacer(pairs...)
}

// redact returns s with the API key masked
func (c *Client) redact(s string) string {
	return c.redactor.Replace(s)
}

// Enabled reports whether the client has credentials
func (c *Client) Enabled() bool {
	return c.apiKey != "" && c.engineID != ""
}

// Search returns up to limit results for query. 5xx and 429 responses are
// retried with backoff; other failures return domain.ErrSearchFailed.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if !c.Enabled() {
		return nil, domain.ErrSearchUnavailable
	}
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidRequest)
	}
	if limit <= 0 || limit > maxResultsPerRequest {
		limit = maxResultsPerRequest
	}

	params := url.Values{}
	params.Add("key", c.apiKey)
	params.Add("cx", c.engineID)
	params.Add("q", query)
	params.Add("num", strconv.Itoa(limit))
	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %s", domain.ErrSearchFailed, c.redact(err.Error()))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// transport errors embed the request URL, key included
		msg := c.redact(err.Error())
		c.logger.Warn("search request error", zap.String("query", query), zap.String("error", msg))
		return nil, fmt.Errorf("%w: %s", domain.ErrSearchFailed, msg)
	}
	defer resp.Body.Close()

	body, err := readLimitedBody(resp.Body, maxResponseSize)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrSearchFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("search API error",
			zap.String("query", query),
			zap.Int("status", resp.StatusCode),
			zap.String("body", c.redact(string(body))),
		)
		return nil, fmt.Errorf("%w: status %d", domain.ErrSearchFailed, resp.StatusCode)
	}

	var parsed searchResponse
	if err := sonic.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrSearchFailed, err)
	}

	results := make([]domain.SearchResult, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.Link == "" {
			continue
		}
		results = append(results, item)
		if len(results) == limit {
			break
		}
	}

	c.logger.Debug("search completed", zap.String("query", query), zap.Int("results", len(results)))
	return results, nil
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

// leveledLogger adapts zap to retryablehttp's logger interface. Values are
// rendered to strings and redacted since retryablehttp logs request URLs.
type leveledLogger struct {
	s        *zap.SugaredLogger
	redactor *strings.Replacer
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, l.redactPairs(keysAndValues)...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Infow(msg, l.redactPairs(keysAndValues)...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, l.redactPairs(keysAndValues)...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.s.Warnw(msg, l.redactPairs(keysAndValues)...)
}

func (l leveledLogger) redactPairs(keysAndValues []interface{}) []interface{} {
	out := make([]interface{}, len(keysAndValues))
	for i, v := range keysAndValues {
		if i%2 == 0 {
			out[i] = v
			continue
		}
		switch val := v.(type) {
		case string:
			out[i] = l.redactor.Replace(val)
		case error:
			out[i] = l.redactor.Replace(val.Error())
		case fmt.Stringer:
			out[i] = l.redactor.Replace(val.String())
		default:
			out[i] = v
		}
	}
	return out
}
