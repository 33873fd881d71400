package usecase

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pdpaudit/backend/internal/domain"
	"github.com/pdpaudit/backend/internal/normalize"
)

// DefaultModelPattern matches model-like tokens such as "MD-1234" or "GSB18V"
const DefaultModelPattern = `(MD-\d+)|([A-Z0-9-]{3,})`

// DefaultBrandTokens are the brands recognized in titles out of the box
var DefaultBrandTokens = []string{
	"philips", "dewalt", "atlas", "bosch", "makita", "black & decker", "black+decker",
}

// Title length bounds and other thresholds
const (
	minTitleLength = 80
	maxTitleLength = 140
	minAboutChars  = 60
	minBulletCount = 3
	maxBulletCount = 7
	minKeySpecs    = 2
	minImageCount  = 3
	passingScore   = 80
	auditedChecks  = 6
)

// Fixed rule descriptions reported on every audit
const (
	titleReason   = "Title should include brand + model and be 80–140 characters."
	aboutReason   = "About/description should be descriptive (≥ 60 characters)."
	bulletsReason = "Provide 3–7 concise, benefit-led bullet points."
	specsReason   = "Include key specs like Brand, Model, Voltage, Color, Warranty."
	imagesReason  = "Provide at least 3 clear product images."
	priceReason   = "Ensure a visible price or clearly mark RFQ."
)

// keySpecNames are the spec keys counted by the specs check
var keySpecNames = []string{"Brand", "Model", "Voltage", "Color"}

var (
	fallbackBullets = []string{
		"High durability for daily use",
		"Quick installation",
		"Backed by manufacturer warranty",
	}
	placeholderImages = []string{"Front view", "Side view", "Packaging"}
)

// RuleConfig holds configuration for the audit rule engine
type RuleConfig struct {
	BrandTokens  []string
	ModelPattern string
}

// RuleEngine scores product records against the listing quality rules
type RuleEngine struct {
	brandTokens []string
	modelRegex  *regexp.Regexp
}

// NewRuleEngine creates a rule engine. Empty config values fall back to
// DefaultBrandTokens and DefaultModelPattern.
func NewRuleEngine(config RuleConfig) (*RuleEngine, error) {
	pattern := config.ModelPattern
	if pattern == "" {
		pattern = DefaultModelPattern
	}
	modelRegex, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: model pattern: %v", domain.ErrInvalidRequest, err)
	}

	tokens := config.BrandTokens
	if len(tokens) == 0 {
		tokens = DefaultBrandTokens
	}
	brandTokens := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.ToLower(normalize.NormalizeWhitespace(t)); t != "" {
			brandTokens = append(brandTokens, t)
		}
	}

	return &RuleEngine{
		brandTokens: brandTokens,
		modelRegex:  modelRegex,
	}, nil
}

// ModelToken returns the first model-like token in s, or ""
func (e *RuleEngine) ModelToken(s string) string {
	return e.modelRegex.FindString(s)
}

// auditInput is a record with every field normalized for auditing
type auditInput struct {
	title   string
	about   string
	bullets []string
	specs   map[string]string
	images  []string
	price   *string
}

func prepareInput(p *domain.ExtractedProduct) auditInput {
	in := auditInput{
		title:   normalize.NormalizeWhitespace(p.Title),
		about:   normalize.NormalizeWhitespace(p.About),
		bullets: []string{},
		specs:   map[string]string{},
		images:  append([]string{}, p.Images...),
	}
	for _, b := range p.Bullets {
		if b = normalize.NormalizeWhitespace(b); b != "" {
			in.bullets = append(in.bullets, b)
		}
	}
	// keys that normalize to the same name keep the first in sorted raw order
	rawKeys := make([]string, 0, len(p.Specs))
	for k := range p.Specs {
		rawKeys = append(rawKeys, k)
	}
	sort.Strings(rawKeys)
	for _, raw := range rawKeys {
		k := normalize.NormalizeWhitespace(raw)
		if k == "" {
			continue
		}
		if _, exists := in.specs[k]; !exists {
			in.specs[k] = normalize.NormalizeWhitespace(p.Specs[raw])
		}
	}
	if price := normalize.NormalizeWhitespace(p.Price); price != "" {
		in.price = &price
	}
	return in
}

// Audit runs the six listing checks on a record and builds suggestions for
// the ones that fail.
func (e *RuleEngine) Audit(p *domain.ExtractedProduct) domain.AuditResult {
	in := prepareInput(p)

	titleOK := e.hasBrand(in.title, in.specs) && e.ModelToken(in.title) != "" &&
		inRange(utf8.RuneCountInString(in.title), minTitleLength, maxTitleLength)
	aboutOK := utf8.RuneCountInString(in.about) >= minAboutChars
	bulletsOK := inRange(len(in.bullets), minBulletCount, maxBulletCount)
	specsOK := countKeySpecs(in.specs) >= minKeySpecs
	imagesOK := len(in.images) >= minImageCount
	priceOK := in.price != nil

	passed := 0
	for _, ok := range []bool{titleOK, aboutOK, bulletsOK, specsOK, imagesOK, priceOK} {
		if ok {
			passed++
		}
	}
	score := int(math.Round(float64(passed) * 100 / auditedChecks))

	result := domain.AuditResult{
		Passed: score >= passingScore,
		Score:  score,
		Title: domain.AuditField[string]{
			OK: titleOK, Current: in.title, Suggested: in.title, Reason: titleReason,
		},
		About: domain.AuditField[string]{
			OK: aboutOK, Current: in.about, Suggested: in.about, Reason: aboutReason,
		},
		Bullets: domain.AuditField[[]string]{
			OK: bulletsOK, Current: in.bullets, Suggested: in.bullets, Reason: bulletsReason,
		},
		Specs: domain.AuditField[map[string]string]{
			OK: specsOK, Current: in.specs, Suggested: in.specs, Reason: specsReason,
		},
		Images: domain.ImagesField{
			OK: imagesOK, CurrentCount: len(in.images), Suggested: in.images, Reason: imagesReason,
		},
		Price: domain.AuditField[*string]{
			OK: priceOK, Current: in.price, Suggested: in.price, Reason: priceReason,
		},
	}

	if !titleOK {
		result.Title.Suggested = fmt.Sprintf("%s %s Professional Grade Tool | %s | %s",
			specOr(in.specs, "Brand", "Brand"),
			specOr(in.specs, "Model", "Model"),
			specOr(in.specs, "Voltage", "220-240V"),
			specOr(in.specs, "Color", "Color"))
	}
	if !aboutOK {
		result.About.Suggested = fmt.Sprintf("%s %s is built for professional use with reliable performance. Includes %s power and %s finish.",
			specOr(in.specs, "Brand", "Brand"),
			specOr(in.specs, "Model", "Model"),
			specOr(in.specs, "Voltage", "220-240V"),
			specOr(in.specs, "Color", "color"))
	}
	if !bulletsOK {
		result.Bullets.Suggested = append([]string{}, fallbackBullets...)
	}
	if !specsOK {
		suggested := make(map[string]string, len(in.specs)+1)
		for k, v := range in.specs {
			suggested[k] = v
		}
		if suggested["Warranty"] == "" {
			suggested["Warranty"] = "1 Year"
		}
		result.Specs.Suggested = suggested
	}
	if !imagesOK {
		source := in.images
		if len(source) == 0 {
			source = placeholderImages
		}
		result.Images.Suggested = append([]string{}, source[:min(len(source), minImageCount)]...)
	}

	return result
}

// ApplyReference swaps in the corrected record's suggestions for every field
// that failed on the original audit. Passing fields are left alone.
func (e *RuleEngine) ApplyReference(original domain.AuditResult, corrected *domain.ExtractedProduct) domain.AuditResult {
	if corrected == nil {
		return original
	}
	ref := e.Audit(corrected)

	if !original.Title.OK {
		original.Title.Suggested = ref.Title.Suggested
	}
	if !original.About.OK {
		original.About.Suggested = ref.About.Suggested
	}
	if !original.Bullets.OK {
		original.Bullets.Suggested = ref.Bullets.Suggested
	}
	if !original.Specs.OK {
		original.Specs.Suggested = ref.Specs.Suggested
	}
	if !original.Images.OK {
		original.Images.Suggested = ref.Images.Suggested
	}
	if !original.Price.OK {
		original.Price.Suggested = ref.Price.Suggested
	}
	return original
}

// hasBrand reports whether the title carries a recognized brand: a configured
// token, or the record's own Brand spec.
func (e *RuleEngine) hasBrand(title string, specs map[string]string) bool {
	lower := strings.ToLower(title)
	if lower == "" {
		return false
	}
	for _, token := range e.brandTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	if brand := strings.ToLower(specs["Brand"]); brand != "" {
		return strings.Contains(lower, brand)
	}
	return false
}

func countKeySpecs(specs map[string]string) int {
	count := 0
	for _, k := range keySpecNames {
		if specs[k] != "" {
			count++
		}
	}
	return count
}

func specOr(specs map[string]string, key, fallback string) string {
	if v := specs[key]; v != "" {
		return v
	}
	return fallback
}

func inRange(n, lo, hi int) bool {
	return n >= lo && n <= hi
}
