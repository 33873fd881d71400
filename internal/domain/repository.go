package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// PageFetcher retrieves product pages over HTTP
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

// SearchClient runs a web search and returns up to limit results
type SearchClient interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// Auditor audits a batch of product page URLs
type Auditor interface {
	AuditBatch(ctx context.Context, urls []string) []AuditRow
}
