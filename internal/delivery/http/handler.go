package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pdpaudit/backend/internal/domain"
	"go.uber.org/zap"
)

// DefaultMaxURLs caps the batch size when no limit is configured
const DefaultMaxURLs = 50

// Handler holds dependencies for HTTP handlers
type Handler struct {
	auditor domain.Auditor
	maxURLs int
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler. A nil auditor makes the audit
// endpoint answer 503.
func NewHandler(auditor domain.Auditor, maxURLs int, logger *zap.Logger) *Handler {
	if maxURLs <= 0 {
		maxURLs = DefaultMaxURLs
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		auditor: auditor,
		maxURLs: maxURLs,
		logger:  logger.Named("http"),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pdp-audit-backend",
		"version": "1.0.0",
	})
}

// Audit handles batch audit requests
func (h *Handler) Audit(c *gin.Context) {
	if h.auditor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "audit service not configured",
		})
		return
	}

	var req domain.AuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body: " + err.Error(),
		})
		return
	}

	if req.URLs == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "urls is required",
		})
		return
	}

	if len(req.URLs) > h.maxURLs {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "too many urls",
			"max":   h.maxURLs,
		})
		return
	}

	// A client disconnect must not turn half the batch into degraded rows.
	rows := h.auditor.AuditBatch(context.WithoutCancel(c.Request.Context()), req.URLs)
	if rows == nil {
		rows = []domain.AuditRow{}
	}

	h.logger.Info("audit request served",
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Int("urls", len(req.URLs)),
	)

	c.JSON(http.StatusOK, domain.AuditResponse{Rows: rows})
}
