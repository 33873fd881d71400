package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pdpaudit/backend/config"
	"github.com/pdpaudit/backend/internal/domain"
	"github.com/pdpaudit/backend/internal/infrastructure/monitoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockAuditor is a mock implementation of domain.Auditor
type mockAuditor struct {
	mu       sync.Mutex
	calls    int
	lastURLs []string
	ctxErr   error
	rows     func(urls []string) []domain.AuditRow
}

func (m *mockAuditor) AuditBatch(ctx context.Context, urls []string) []domain.AuditRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastURLs = urls
	m.ctxErr = ctx.Err()
	if m.rows != nil {
		return m.rows(urls)
	}
	rows := make([]domain.AuditRow, len(urls))
	for i, u := range urls {
		rows[i] = domain.AuditRow{URL: u, Audit: domain.AuditResult{Score: 50}}
	}
	return rows
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"chrome-extension://*", "http://localhost:3000"},
		},
		Audit: config.AuditConfig{
			MaxURLs: 3,
		},
		Cache: config.CacheConfig{
			Type: "memory",
		},
		RateLimit: config.RateLimitConfig{
			PerIP: 1000,
		},
	}
}

// setupTestRouter creates a test router around auditor. A nil auditor is
// passed through as an untyped nil.
func setupTestRouter(auditor *mockAuditor) (*gin.Engine, *monitoring.Metrics) {
	cfg := testConfig()

	var a domain.Auditor
	if auditor != nil {
		a = auditor
	}

	handler := NewHandler(a, cfg.Audit.MaxURLs, nil)
	metrics := monitoring.NewMetrics()
	router := SetupRouter(cfg, handler, metrics, nil)
	if router == nil {
		panic("setupTestRouter: SetupRouter returned nil *gin.Engine")
	}
	return router, metrics
}

func postAudit(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/audit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		router, _ := setupTestRouter(&mockAuditor{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "healthy", response["status"])
		assert.Equal(t, "pdp-audit-backend", response["service"])
		assert.NotEmpty(t, response["version"])
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router, _ := setupTestRouter(&mockAuditor{})

		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(method, "/health", nil))
			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

// TestAuditEndpoint tests the batch audit endpoint
func TestAuditEndpoint(t *testing.T) {
	t.Run("returns rows in request order", func(t *testing.T) {
		auditor := &mockAuditor{}
		router, _ := setupTestRouter(auditor)

		w := postAudit(router, `{"urls":["https://a.example/p","https://b.example/p"]}`)
		require.Equal(t, http.StatusOK, w.Code)

		var response domain.AuditResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Rows, 2)
		assert.Equal(t, "https://a.example/p", response.Rows[0].URL)
		assert.Equal(t, "https://b.example/p", response.Rows[1].URL)
		assert.Equal(t, 50, response.Rows[0].Audit.Score)

		assert.Equal(t, 1, auditor.calls)
		assert.NoError(t, auditor.ctxErr)
	})

	t.Run("empty batch returns empty rows", func(t *testing.T) {
		router, _ := setupTestRouter(&mockAuditor{})

		w := postAudit(router, `{"urls":[]}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"rows":[]}`, w.Body.String())
	})

	t.Run("nil rows are reported as an empty list", func(t *testing.T) {
		auditor := &mockAuditor{rows: func([]string) []domain.AuditRow { return nil }}
		router, _ := setupTestRouter(auditor)

		w := postAudit(router, `{"urls":["https://a.example/p"]}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"rows":[]}`, w.Body.String())
	})

	t.Run("degraded rows pass through", func(t *testing.T) {
		auditor := &mockAuditor{rows: func(urls []string) []domain.AuditRow {
			return []domain.AuditRow{{URL: urls[0], Audit: domain.NewFailedAudit(domain.ErrFetchFailed)}}
		}}
		router, _ := setupTestRouter(auditor)

		w := postAudit(router, `{"urls":["https://down.example/p"]}`)
		require.Equal(t, http.StatusOK, w.Code)

		var response domain.AuditResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Rows, 1)
		assert.False(t, response.Rows[0].Audit.Passed)
		assert.Equal(t, domain.FailedReason, response.Rows[0].Audit.Title.Reason)
		assert.Contains(t, response.Rows[0].Audit.Error, domain.FailedReason)
	})

	t.Run("malformed json is rejected", func(t *testing.T) {
		auditor := &mockAuditor{}
		router, _ := setupTestRouter(auditor)

		w := postAudit(router, `{"urls":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.NotEmpty(t, response["error"])
		assert.Zero(t, auditor.calls)
	})

	t.Run("missing urls is rejected", func(t *testing.T) {
		auditor := &mockAuditor{}
		router, _ := setupTestRouter(auditor)

		w := postAudit(router, `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, auditor.calls)
	})

	t.Run("too many urls is rejected", func(t *testing.T) {
		auditor := &mockAuditor{}
		router, _ := setupTestRouter(auditor)

		urls := make([]string, 4)
		for i := range urls {
			urls[i] = fmt.Sprintf("%q", fmt.Sprintf("https://shop.example/p/%d", i))
		}
		w := postAudit(router, `{"urls":[`+strings.Join(urls, ",")+`]}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "too many urls")
		assert.Zero(t, auditor.calls)
	})

	t.Run("unconfigured auditor answers 503", func(t *testing.T) {
		router, _ := setupTestRouter(nil)

		w := postAudit(router, `{"urls":["https://a.example/p"]}`)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("validates HTTP method", func(t *testing.T) {
		router, _ := setupTestRouter(&mockAuditor{})

		for _, method := range []string{"GET", "PUT", "DELETE", "PATCH"} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(method, "/api/v1/audit", nil))
			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

// TestAuditEndpoint_RateLimited tests the per-IP limit on API routes
func TestAuditEndpoint_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.PerIP = 1
	router := SetupRouter(cfg, NewHandler(&mockAuditor{}, cfg.Audit.MaxURLs, nil), nil, nil)

	first := postAudit(router, `{"urls":[]}`)
	second := postAudit(router, `{"urls":[]}`)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// health is outside the limited group
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestCORSIntegration tests CORS headers work end-to-end with full router
func TestCORSIntegration(t *testing.T) {
	t.Run("health endpoint has CORS for Chrome extension", func(t *testing.T) {
		router, _ := setupTestRouter(&mockAuditor{})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "chrome-extension://abcdefghijklmnop")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "chrome-extension://abcdefghijklmnop", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("audit endpoint has CORS for localhost", func(t *testing.T) {
		router, _ := setupTestRouter(&mockAuditor{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/audit", strings.NewReader(`{"urls":[]}`))
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

// TestMetricsEndpoint tests that request metrics are exposed
func TestMetricsEndpoint(t *testing.T) {
	router, _ := setupTestRouter(&mockAuditor{})

	postAudit(router, `{"urls":["https://a.example/p"]}`)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "pdp_http_requests_total")
	assert.Contains(t, body, `path="/api/v1/audit"`)
}

// TestRequestIDIntegration tests that every response carries a request ID
func TestRequestIDIntegration(t *testing.T) {
	router, _ := setupTestRouter(&mockAuditor{})

	w := postAudit(router, `{"urls":[]}`)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

// TestJSONResponses tests that all responses are valid JSON
func TestJSONResponses(t *testing.T) {
	endpoints := []struct {
		method string
		path   string
		body   string
	}{
		{"GET", "/health", ""},
		{"POST", "/api/v1/audit", `{"urls":["https://a.example/p"]}`},
		{"POST", "/api/v1/audit", `not json`},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path+" "+endpoint.body, func(t *testing.T) {
			router, _ := setupTestRouter(&mockAuditor{})

			req := httptest.NewRequest(endpoint.method, endpoint.path, strings.NewReader(endpoint.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

			var response map[string]interface{}
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "response should be valid JSON")
		})
	}
}
