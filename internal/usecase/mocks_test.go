package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/pdpaudit/backend/internal/domain"
)

// MockPageFetcher is a mock implementation of domain.PageFetcher
type MockPageFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	errors map[string]error
	calls  map[string]int
}

func NewMockPageFetcher() *MockPageFetcher {
	return &MockPageFetcher{
		pages:  make(map[string]string),
		errors: make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (m *MockPageFetcher) AddPage(rawURL, html string) {
	m.pages[rawURL] = html
}

func (m *MockPageFetcher) AddError(rawURL string, err error) {
	m.errors[rawURL] = err
}

func (m *MockPageFetcher) Calls(rawURL string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[rawURL]
}

func (m *MockPageFetcher) Fetch(ctx context.Context, rawURL string) (*domain.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[rawURL]++

	if err, ok := m.errors[rawURL]; ok {
		return nil, err
	}
	html, ok := m.pages[rawURL]
	if !ok {
		return nil, domain.ErrFetchFailed
	}
	return &domain.Page{
		URL:         rawURL,
		StatusCode:  200,
		ContentType: "text/html; charset=utf-8",
		Body:        []byte(html),
	}, nil
}

// MockSearchClient is a mock implementation of domain.SearchClient
type MockSearchClient struct {
	mu        sync.Mutex
	results   []domain.SearchResult
	err       error
	calls     int
	lastQuery string
	lastLimit int
}

func (m *MockSearchClient) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastQuery = query
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string][]byte
	getError  error
	setError  error
	setCalled bool
	lastTTL   time.Duration
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalled = true
	m.lastTTL = ttl
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

// MockRecorder is a mock implementation of MetricsRecorder
type MockRecorder struct {
	mu            sync.Mutex
	audits        map[string]int
	fetchFailures int
	resolutions   map[string]int
}

func NewMockRecorder() *MockRecorder {
	return &MockRecorder{
		audits:      make(map[string]int),
		resolutions: make(map[string]int),
	}
}

func (m *MockRecorder) RecordAudit(outcome string, score int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits[outcome]++
}

func (m *MockRecorder) RecordFetchFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchFailures++
}

func (m *MockRecorder) RecordReferenceResolution(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolutions[outcome]++
}
