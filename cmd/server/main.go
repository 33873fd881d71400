package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pdpaudit/backend/config"
	httpDelivery "github.com/pdpaudit/backend/internal/delivery/http"
	"github.com/pdpaudit/backend/internal/extractor"
	"github.com/pdpaudit/backend/internal/infrastructure/cache"
	"github.com/pdpaudit/backend/internal/infrastructure/fetch"
	"github.com/pdpaudit/backend/internal/infrastructure/logging"
	"github.com/pdpaudit/backend/internal/infrastructure/monitoring"
	"github.com/pdpaudit/backend/internal/infrastructure/search"
	"github.com/pdpaudit/backend/internal/usecase"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(logging.ConfigFor(cfg.Server.Environment, cfg.Logging.Level))
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting PDP audit backend",
		zap.String("version", "1.0.0"),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("cache_type", cfg.Cache.Type),
		zap.Duration("cache_ttl", cfg.Cache.TTL),
	)

	if err := run(cfg, logger.Logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	metrics := monitoring.NewMetrics()

	// Initialize infrastructure dependencies
	memoryCache := cache.NewMemoryCache(0)
	defer memoryCache.Close()

	fetcher := fetch.NewClient(fetch.Config{
		UserAgent:      cfg.Fetch.UserAgent,
		AcceptLanguage: cfg.Fetch.AcceptLanguage,
		Timeout:        cfg.Fetch.Timeout,
		MaxBodySize:    cfg.Fetch.MaxBodySize,
	}, logger)

	searchClient := search.NewClient(search.Config{
		APIKey:            cfg.Search.APIKey,
		EngineID:          cfg.Search.EngineID,
		BaseURL:           cfg.Search.BaseURL,
		RequestsPerSecond: float64(cfg.RateLimit.Search) / 60,
		Burst:             cfg.Search.Burst,
		MaxRetries:        cfg.Search.MaxRetries,
	}, logger)

	// Initialize usecase layer
	rules, err := usecase.NewRuleEngine(usecase.RuleConfig{
		BrandTokens:  cfg.Audit.BrandTokens,
		ModelPattern: cfg.Audit.ModelPattern,
	})
	if err != nil {
		return fmt.Errorf("rule engine: %w", err)
	}

	coordinator := extractor.NewCoordinator(cfg.Audit.StorefrontDomain)

	var resolver *usecase.ReferenceResolver
	if cfg.Search.SearchConfigured() {
		resolver = usecase.NewReferenceResolver(searchClient, fetcher, memoryCache, rules, logger, usecase.ResolverConfig{
			MaxResults:       cfg.Search.MaxResults,
			Candidates:       cfg.Search.Candidates,
			PreferredDomains: cfg.Audit.PreferredDomains,
			CacheTTL:         cfg.Cache.TTL,
		})
		logger.Info("reference lookups enabled", zap.String("search_url", cfg.Search.BaseURL))
	} else {
		logger.Warn("reference lookups disabled: search API not configured")
	}

	auditService := usecase.NewAuditService(fetcher, coordinator, rules, resolver, metrics, logger,
		usecase.AuditServiceConfig{MaxConcurrency: cfg.Audit.MaxConcurrency})

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(auditService, cfg.Audit.MaxURLs, logger)
	router := httpDelivery.SetupRouter(cfg, handler, metrics, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
