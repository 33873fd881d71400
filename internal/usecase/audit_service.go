package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdpaudit/backend/internal/domain"
	"github.com/pdpaudit/backend/internal/extractor"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Audit outcomes reported to metrics
const (
	OutcomePassed   = "passed"
	OutcomeFailed   = "failed"
	OutcomeDegraded = "degraded"
)

// Reference lookup outcomes reported to metrics
const (
	ResolutionMatched     = "matched"
	ResolutionUnavailable = "unavailable"
	ResolutionNoReference = "no_reference"
	ResolutionError       = "error"
)

// MetricsRecorder receives audit pipeline events
type MetricsRecorder interface {
	RecordAudit(outcome string, score int)
	RecordFetchFailure()
	RecordReferenceResolution(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAudit(string, int)          {}
func (nopRecorder) RecordFetchFailure()              {}
func (nopRecorder) RecordReferenceResolution(string) {}

// AuditServiceConfig holds configuration for the audit service
type AuditServiceConfig struct {
	// MaxConcurrency caps in-flight URL pipelines; 0 means one per URL
	MaxConcurrency int
}

// AuditService runs the fetch -> extract -> resolve -> audit pipeline for
// batches of URLs.
type AuditService struct {
	fetcher        domain.PageFetcher
	coordinator    *extractor.Coordinator
	rules          *RuleEngine
	resolver       *ReferenceResolver
	metrics        MetricsRecorder
	logger         *zap.Logger
	maxConcurrency int
}

// NewAuditService creates an audit service. resolver, metrics and logger
// may be nil; a nil resolver skips reference lookups.
func NewAuditService(
	fetcher domain.PageFetcher,
	coordinator *extractor.Coordinator,
	rules *RuleEngine,
	resolver *ReferenceResolver,
	metrics MetricsRecorder,
	logger *zap.Logger,
	config AuditServiceConfig,
) *AuditService {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AuditService{
		fetcher:        fetcher,
		coordinator:    coordinator,
		rules:          rules,
		resolver:       resolver,
		metrics:        metrics,
		logger:         logger.Named("audit"),
		maxConcurrency: config.MaxConcurrency,
	}
}

// AuditBatch audits every URL concurrently and returns one row per URL in
// input order. A URL that cannot be fetched or parsed yields a degraded row;
// it never fails the batch.
func (s *AuditService) AuditBatch(ctx context.Context, urls []string) []domain.AuditRow {
	rows := make([]domain.AuditRow, len(urls))

	var g errgroup.Group
	if s.maxConcurrency > 0 {
		g.SetLimit(s.maxConcurrency)
	}

	for i, rawURL := range urls {
		g.Go(func() error {
			rows[i] = s.AuditURL(ctx, rawURL)
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("batch audited", zap.Int("urls", len(urls)))
	return rows
}

// AuditURL runs the pipeline for a single URL
func (s *AuditService) AuditURL(ctx context.Context, rawURL string) (row domain.AuditRow) {
	row.URL = rawURL

	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("audit pipeline panic", zap.String("url", rawURL), zap.Any("panic", rec))
			row.Audit = s.degraded(rawURL, fmt.Errorf("internal error: %v", rec))
		}
	}()

	record, err := s.extract(ctx, strings.TrimSpace(rawURL))
	if err != nil {
		row.Audit = s.degraded(rawURL, err)
		return row
	}
	record.URL = rawURL

	result := s.rules.Audit(record)
	if s.resolver != nil && result.Score < 100 {
		result = s.applyReference(ctx, record, result)
	}

	outcome := OutcomeFailed
	if result.Passed {
		outcome = OutcomePassed
	}
	s.metrics.RecordAudit(outcome, result.Score)
	s.logger.Debug("url audited",
		zap.String("url", rawURL),
		zap.Int("score", result.Score),
		zap.Bool("passed", result.Passed),
	)

	row.Audit = result
	return row
}

func (s *AuditService) extract(ctx context.Context, rawURL string) (*domain.ExtractedProduct, error) {
	page, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := extractor.LoadDocument(page.Body, page.ContentType)
	if err != nil {
		return nil, err
	}

	return s.coordinator.Extract(rawURL, doc), nil
}

// applyReference corrects suggestions from an external listing. Lookup
// failures leave the result untouched.
func (s *AuditService) applyReference(ctx context.Context, record *domain.ExtractedProduct, result domain.AuditResult) domain.AuditResult {
	corrected, match, err := s.resolver.Resolve(ctx, record)
	if err != nil {
		outcome := ResolutionError
		switch {
		case errors.Is(err, domain.ErrSearchUnavailable):
			outcome = ResolutionUnavailable
		case errors.Is(err, domain.ErrNoReference):
			outcome = ResolutionNoReference
		}
		s.metrics.RecordReferenceResolution(outcome)
		s.logger.Debug("reference lookup skipped", zap.String("url", record.URL), zap.String("outcome", outcome), zap.Error(err))
		return result
	}

	s.metrics.RecordReferenceResolution(ResolutionMatched)
	s.logger.Info("reference applied",
		zap.String("url", record.URL),
		zap.String("reference", match.SourceURL),
		zap.Float64("score", match.Score),
	)
	return s.rules.ApplyReference(result, corrected)
}

func (s *AuditService) degraded(rawURL string, err error) domain.AuditResult {
	s.metrics.RecordFetchFailure()
	s.metrics.RecordAudit(OutcomeDegraded, 0)
	s.logger.Warn("fetch/parse failed", zap.String("url", rawURL), zap.Error(err))
	return domain.NewFailedAudit(err)
}
