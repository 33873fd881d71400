package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/pdpaudit/backend/internal/domain"
	"github.com/pdpaudit/backend/internal/extractor"
	"github.com/pdpaudit/backend/internal/normalize"
	"go.uber.org/zap"
)

// Package-level compiled regex patterns for performance
var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s-]`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)
)

// Merge thresholds for reference listings
const (
	titleReplaceMaxSimilarity = 0.6
	titleReplaceMinLength     = 40
	aboutReplaceMinGain       = 30
	minReferenceBulletLength  = 5
	maxMergedBullets          = 7
	maxMergedImages           = 6
	minSpecValueLength        = 2
)

// DefaultPreferredDomains are brand and marketplace sites whose listings
// are tried first
var DefaultPreferredDomains = []string{
	"bosch.com", "dewalt.com", "makita.com", "philips.com", "blackanddecker.com",
	"amazon.ae", "amazon.com", "noon.com",
}

// ResolverConfig holds configuration for the reference resolver
type ResolverConfig struct {
	MaxResults       int
	Candidates       int
	PreferredDomains []string
	CacheTTL         time.Duration
}

// ReferenceResolver looks up an external listing of the same product and
// uses it to correct a sparse or low-quality canonical record.
type ReferenceResolver struct {
	search           domain.SearchClient
	fetcher          domain.PageFetcher
	cache            domain.CacheRepository
	rules            *RuleEngine
	generic          extractor.Extractor
	logger           *zap.Logger
	maxResults       int
	candidates       int
	preferredDomains []string
	cacheTTL         time.Duration
}

// NewReferenceResolver creates a resolver. cache may be nil.
func NewReferenceResolver(
	search domain.SearchClient,
	fetcher domain.PageFetcher,
	cache domain.CacheRepository,
	rules *RuleEngine,
	logger *zap.Logger,
	config ResolverConfig,
) *ReferenceResolver {
	maxResults := config.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	candidates := config.Candidates
	if candidates <= 0 {
		candidates = 3
	}

	preferred := config.PreferredDomains
	if len(preferred) == 0 {
		preferred = DefaultPreferredDomains
	}
	domains := make([]string, 0, len(preferred))
	for _, d := range preferred {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			domains = append(domains, d)
		}
	}

	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReferenceResolver{
		search:           search,
		fetcher:          fetcher,
		cache:            cache,
		rules:            rules,
		generic:          extractor.NewGenericExtractor(),
		logger:           logger.Named("resolver"),
		maxResults:       maxResults,
		candidates:       candidates,
		preferredDomains: domains,
		cacheTTL:         cacheTTL,
	}
}

// Resolve finds the best matching reference listing for record and returns
// the corrected record. Any failure returns nil and the cause; callers keep
// the canonical record.
// Flow: build query -> search (cached) -> rank -> fetch candidates -> select -> merge
func (r *ReferenceResolver) Resolve(ctx context.Context, record *domain.ExtractedProduct) (*domain.ExtractedProduct, *domain.ReferenceMatch, error) {
	if record == nil {
		return nil, nil, domain.ErrInvalidRequest
	}

	query := r.BuildQuery(record)
	if query == "" {
		return nil, nil, fmt.Errorf("%w: empty search query", domain.ErrInvalidRequest)
	}

	results, err := r.searchCached(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	if len(results) == 0 {
		return nil, nil, fmt.Errorf("%w: no search results for %q", domain.ErrNoReference, query)
	}

	ranked := r.RankResults(results)
	candidates := r.extractCandidates(ctx, ranked)
	if len(candidates) == 0 {
		return nil, nil, fmt.Errorf("%w: no candidate could be extracted", domain.ErrNoReference)
	}

	match := r.SelectBestMatch(record, candidates)
	r.logger.Debug("reference selected",
		zap.String("url", record.URL),
		zap.String("reference", match.SourceURL),
		zap.Float64("score", match.Score),
	)

	return MergeReference(record, match.Product), match, nil
}

// BuildQuery builds "brand model" from the record, falling back to the full
// title and then the URL.
func (r *ReferenceResolver) BuildQuery(record *domain.ExtractedProduct) string {
	title := normalize.NormalizeWhitespace(record.Title)

	brand := normalize.NormalizeWhitespace(record.Specs["Brand"])
	if brand == "" {
		if fields := strings.Fields(title); len(fields) > 0 {
			brand = fields[0]
		}
	}

	model := r.modelToken(record)

	switch {
	case brand != "" && model != "":
		return brand + " " + model
	case title != "":
		return title
	default:
		return record.URL
	}
}

// modelToken returns the first model-like token in the title, else the
// Model spec.
func (r *ReferenceResolver) modelToken(record *domain.ExtractedProduct) string {
	if token := r.rules.ModelToken(record.Title); token != "" {
		return token
	}
	return normalize.NormalizeWhitespace(record.Specs["Model"])
}

// RankResults moves results on preferred domains to the front. The sort is
// stable so search order is kept within each group.
func (r *ReferenceResolver) RankResults(results []domain.SearchResult) []domain.SearchResult {
	ranked := append([]domain.SearchResult{}, results...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return r.isPreferred(ranked[i].Link) && !r.isPreferred(ranked[j].Link)
	})
	return ranked
}

func (r *ReferenceResolver) isPreferred(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range r.preferredDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// extractCandidates fetches and generically extracts the top results one by
// one. A candidate that fails is logged and skipped.
func (r *ReferenceResolver) extractCandidates(ctx context.Context, ranked []domain.SearchResult) []*domain.ExtractedProduct {
	limit := min(len(ranked), r.candidates)
	candidates := make([]*domain.ExtractedProduct, 0, limit)

	for _, result := range ranked[:limit] {
		page, err := r.fetcher.Fetch(ctx, result.Link)
		if err != nil {
			r.logger.Debug("candidate fetch failed", zap.String("link", result.Link), zap.Error(err))
			continue
		}

		doc, err := extractor.LoadDocument(page.Body, page.ContentType)
		if err != nil {
			r.logger.Debug("candidate parse failed", zap.String("link", result.Link), zap.Error(err))
			continue
		}

		product := r.generic.Extract(doc)
		product.URL = result.Link
		candidates = append(candidates, product)
	}

	return candidates
}

// SelectBestMatch scores each candidate title against the canonical title
// and returns the best one. The first candidate wins ties.
func (r *ReferenceResolver) SelectBestMatch(record *domain.ExtractedProduct, candidates []*domain.ExtractedProduct) *domain.ReferenceMatch {
	model := r.modelToken(record)

	var best *domain.ReferenceMatch
	for _, c := range candidates {
		score := candidateScore(record.Title, c.Title, model)
		if best == nil || score > best.Score {
			best = &domain.ReferenceMatch{SourceURL: c.URL, Score: score, Product: c}
		}
	}
	return best
}

// MergeReference returns a copy of canonical corrected with fields from
// reference. Only specs are merged key by key; other fields are replaced
// wholesale when the reference is clearly better.
func MergeReference(canonical, reference *domain.ExtractedProduct) *domain.ExtractedProduct {
	out := canonical.Clone()
	if reference == nil {
		return out
	}

	if TitleSimilarity(canonical.Title, reference.Title) < titleReplaceMaxSimilarity &&
		utf8.RuneCountInString(reference.Title) >= titleReplaceMinLength {
		out.Title = reference.Title
	}

	if utf8.RuneCountInString(reference.About)-utf8.RuneCountInString(canonical.About) >= aboutReplaceMinGain {
		out.About = reference.About
	}

	if len(canonical.Bullets) < minBulletCount {
		var substantial []string
		for _, b := range reference.Bullets {
			if utf8.RuneCountInString(b) > minReferenceBulletLength {
				substantial = append(substantial, b)
			}
		}
		if len(substantial) >= minBulletCount {
			out.Bullets = substantial[:min(len(substantial), maxMergedBullets)]
		}
	}

	// sorted so keys that trim to the same name resolve the same way every run
	refKeys := make([]string, 0, len(reference.Specs))
	for k := range reference.Specs {
		refKeys = append(refKeys, k)
	}
	sort.Strings(refKeys)
	for _, k := range refKeys {
		key := strings.TrimSpace(k)
		value := strings.TrimSpace(reference.Specs[k])
		if key == "" || utf8.RuneCountInString(value) < minSpecValueLength {
			continue
		}
		if _, exists := out.Specs[key]; !exists {
			out.Specs[key] = value
		}
	}

	if len(canonical.Images) < minImageCount && len(reference.Images) >= minImageCount {
		out.Images = append([]string{}, reference.Images[:min(len(reference.Images), maxMergedImages)]...)
	}

	if out.Price == "" {
		out.Price = reference.Price
	}

	return out
}

// searchCached runs the search through the cache. Cache errors never fail a
// lookup.
func (r *ReferenceResolver) searchCached(ctx context.Context, query string) ([]domain.SearchResult, error) {
	key := searchCacheKey(query)

	if r.cache != nil {
		if data, err := r.cache.Get(ctx, key); err == nil {
			var cached []domain.SearchResult
			if err := sonic.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		} else if !errors.Is(err, domain.ErrCacheMiss) {
			r.logger.Warn("search cache read failed", zap.Error(err))
		}
	}

	results, err := r.search.Search(ctx, query, r.maxResults)
	if err != nil {
		return nil, err
	}

	if r.cache != nil && len(results) > 0 {
		data, err := sonic.Marshal(results)
		if err == nil {
			err = r.cache.Set(ctx, key, data, r.cacheTTL)
		}
		if err != nil {
			r.logger.Warn("search cache write failed", zap.Error(err))
		}
	}

	return results, nil
}

// searchCacheKey creates a normalized cache key from a query.
// Format: "search:{normalized_query}"
func searchCacheKey(query string) string {
	return "search:" + normalizeForCacheKey(query)
}

// normalizeForCacheKey lowercases, drops punctuation other than hyphens and
// collapses whitespace.
func normalizeForCacheKey(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}
