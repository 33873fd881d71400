package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pdpaudit/backend/internal/domain"
)

// Extractor turns a parsed page into a partial product record
type Extractor interface {
	Extract(doc *goquery.Document) *domain.ExtractedProduct
}

// Coordinator chooses the primary extractor for a URL and blends the
// secondary sources into one canonical record.
type Coordinator struct {
	storefrontDomain string
	storefront       Extractor
	generic          Extractor
}

// NewCoordinator creates a coordinator for the given storefront domain.
// An empty domain falls back to DefaultStorefrontDomain.
func NewCoordinator(storefrontDomain string) *Coordinator {
	storefrontDomain = strings.ToLower(strings.TrimSpace(storefrontDomain))
	if storefrontDomain == "" {
		storefrontDomain = DefaultStorefrontDomain
	}
	return &Coordinator{
		storefrontDomain: storefrontDomain,
		storefront:       NewStorefrontExtractor(),
		generic:          NewGenericExtractor(),
	}
}

// IsStorefront reports whether rawURL is on the storefront domain or one of
// its subdomains.
func (c *Coordinator) IsStorefront(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == c.storefrontDomain || strings.HasSuffix(host, "."+c.storefrontDomain)
}

// Extract builds the canonical record for rawURL. The returned URL is always
// rawURL.
func (c *Coordinator) Extract(rawURL string, doc *goquery.Document) *domain.ExtractedProduct {
	var out *domain.ExtractedProduct
	if c.IsStorefront(rawURL) {
		out = c.storefront.Extract(doc)
		backfill(out, c.generic.Extract(doc))
	} else {
		out = c.generic.Extract(doc)
		backfill(out, ExtractStructuredData(doc))
	}
	out.URL = rawURL
	return out
}

// backfill fills fields the primary record left empty. Collections are only
// taken when the primary one is empty.
func backfill(primary, secondary *domain.ExtractedProduct) {
	if primary.Title == "" {
		primary.Title = secondary.Title
	}
	if primary.About == "" {
		primary.About = secondary.About
	}
	if len(primary.Bullets) == 0 && len(secondary.Bullets) > 0 {
		primary.Bullets = append([]string{}, secondary.Bullets...)
	}
	if len(primary.Specs) == 0 && len(secondary.Specs) > 0 {
		primary.Specs = make(map[string]string, len(secondary.Specs))
		for k, v := range secondary.Specs {
			primary.Specs[k] = v
		}
	}
	if len(primary.Images) == 0 && len(secondary.Images) > 0 {
		primary.Images = append([]string{}, secondary.Images...)
	}
	if primary.Price == "" {
		primary.Price = secondary.Price
	}
}
