package extractor

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/pdpaudit/backend/internal/domain"
	"github.com/pdpaudit/backend/internal/normalize"
)

// DefaultStorefrontDomain is the storefront whose template StorefrontExtractor targets
const DefaultStorefrontDomain = "fepy.com"

var (
	storefrontTitleSelectors = []string{
		".product-name h1",
		".page-title-wrapper .page-title span",
		"h1",
	}
	storefrontAboutSelectors = []string{
		".product.attribute.description .value",
		"#description .value, #description",
	}
	storefrontPriceSelectors = []string{
		".price-wrapper .price",
		".product-info-main .price",
	}
)

const (
	overviewItemsSelector   = ".product.attribute.overview .value li, .product.attribute.overview li"
	overviewValueSelector   = ".product.attribute.overview .value"
	keyFeaturesSelector     = ".key-features li, .highlights li"
	attributeBlockSelector  = ".product-info-main .product.attribute"
	additionalRowsSelector  = ".additional-attributes-wrapper table tr, table.data.table.additional-attributes tr"
	storefrontImageSelector = ".fotorama__stage__frame img, .gallery-placeholder img, .product.media img"
)

// StorefrontExtractor reads the markup conventions of the known storefront
// (a Magento-style product page).
type StorefrontExtractor struct{}

// NewStorefrontExtractor creates a storefront extractor
func NewStorefrontExtractor() *StorefrontExtractor {
	return &StorefrontExtractor{}
}

// Extract reads the page and merges it with the page's structured data.
func (e *StorefrontExtractor) Extract(doc *goquery.Document) *domain.ExtractedProduct {
	page := e.extractPage(doc)
	return mergeStructured(page, ExtractStructuredData(doc))
}

func (e *StorefrontExtractor) extractPage(doc *goquery.Document) *domain.ExtractedProduct {
	out := domain.NewExtractedProduct()

	out.Title = firstText(doc, storefrontTitleSelectors...)

	for _, selector := range storefrontAboutSelectors {
		if h := innerHTML(doc.Find(selector)); h != "" {
			out.About = normalize.CleanHTMLToText(h)
			break
		}
	}

	out.Bullets = e.bullets(doc)
	out.Specs = e.specs(doc)

	doc.Find(storefrontImageSelector).Each(func(_ int, img *goquery.Selection) {
		if src := imageSource(img); normalize.IsAbsoluteURL(src) {
			out.Images = append(out.Images, src)
		}
	})
	out.Images = normalize.Dedupe(out.Images)

	out.Price = firstText(doc, storefrontPriceSelectors...)

	return out
}

func (e *StorefrontExtractor) bullets(doc *goquery.Document) []string {
	bullets := []string{}

	doc.Find(overviewItemsSelector).Each(func(_ int, li *goquery.Selection) {
		bullets = normalize.PushUnique(bullets, li.Text())
	})

	// overview copy often uses <br> separated lines instead of a list
	for _, fragment := range normalize.SplitFragments(innerHTML(doc.Find(overviewValueSelector))) {
		bullets = normalize.PushUnique(bullets, fragment)
	}

	doc.Find(keyFeaturesSelector).Each(func(_ int, li *goquery.Selection) {
		bullets = normalize.PushUnique(bullets, li.Text())
	})

	return bullets
}

func (e *StorefrontExtractor) specs(doc *goquery.Document) map[string]string {
	specs := map[string]string{}

	doc.Find(attributeBlockSelector).Each(func(_ int, block *goquery.Selection) {
		key := trimLabel(text(block.Find(".type")))
		value := text(block.Find(".value"))
		addSpec(specs, key, value)
	})

	doc.Find(additionalRowsSelector).Each(func(_ int, row *goquery.Selection) {
		key := text(row.Find("th, .col.label"))
		value := text(row.Find("td, .col.data"))
		addSpec(specs, key, value)
	})

	collectTableSpecs(doc, specs)

	return specs
}

// mergeStructured blends structured data into a storefront record: page
// specs win on key collisions, images are unioned, structured bullets top up
// a short list and scalar fields fall back only when the page had nothing.
func mergeStructured(page, ld *domain.ExtractedProduct) *domain.ExtractedProduct {
	out := page.Clone()

	specs := make(map[string]string, len(ld.Specs)+len(page.Specs))
	for k, v := range ld.Specs {
		specs[k] = v
	}
	for k, v := range page.Specs {
		specs[k] = v
	}
	out.Specs = specs

	out.Images = normalize.Dedupe(append(append([]string{}, page.Images...), ld.Images...))

	if len(out.Bullets) < 3 {
		for _, b := range ld.Bullets {
			out.Bullets = normalize.PushUnique(out.Bullets, b)
		}
	}

	if out.Title == "" {
		out.Title = ld.Title
	}
	if out.About == "" {
		out.About = ld.About
	}
	if out.Price == "" {
		out.Price = ld.Price
	}

	return out
}
