package extractor

import (
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/pdpaudit/backend/internal/domain"
	"github.com/pdpaudit/backend/internal/normalize"
)

const (
	// MaxGenericImages caps images collected by the generic extractor
	MaxGenericImages = 12

	minAboutLength = 60
	minBullets     = 3
)

var (
	genericAboutHTMLSelectors = []string{
		"#description",
		".product-description",
		".about, .about-this-item",
	}
	genericAboutMetaSelectors = []string{
		`meta[name="description"]`,
		`meta[property="og:description"]`,
	}

	// bullet containers, most specific first
	genericBulletGroups = []string{
		".features, .key-features, .highlights, .about-this-item",
		"#features",
		"ul:has(li)",
	}

	genericBulletFallbackSelector = ".about, .about-this-item, #description"
)

// GenericExtractor is the fallback extractor for storefronts without a
// dedicated selector set.
type GenericExtractor struct{}

// NewGenericExtractor creates a generic extractor
func NewGenericExtractor() *GenericExtractor {
	return &GenericExtractor{}
}

// Extract reads title, description, bullets, specs, images and price using
// common storefront conventions.
func (e *GenericExtractor) Extract(doc *goquery.Document) *domain.ExtractedProduct {
	out := domain.NewExtractedProduct()

	out.Title = text(doc.Find("h1"))
	if out.Title == "" {
		out.Title = metaContent(doc, `meta[property="og:title"]`)
	}
	if out.Title == "" {
		out.Title = text(doc.Find("title"))
	}

	out.About = e.about(doc)
	out.Bullets = e.bullets(doc)
	out.Specs = e.specs(doc)
	out.Images = e.images(doc)
	out.Price = FindPrice(normalize.NormalizeWhitespace(doc.Find("body").Text()))

	return out
}

// about prefers the first candidate long enough to be a real description
func (e *GenericExtractor) about(doc *goquery.Document) string {
	var candidates []string
	for _, selector := range genericAboutHTMLSelectors {
		candidates = append(candidates, normalize.CleanHTMLToText(innerHTML(doc.Find(selector))))
	}
	for _, selector := range genericAboutMetaSelectors {
		candidates = append(candidates, normalize.CleanHTMLToText(doc.Find(selector).First().AttrOr("content", "")))
	}

	first := ""
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if utf8.RuneCountInString(c) > minAboutLength {
			return c
		}
		if first == "" {
			first = c
		}
	}
	return first
}

func (e *GenericExtractor) bullets(doc *goquery.Document) []string {
	bullets := []string{}

	for _, group := range genericBulletGroups {
		doc.Find(group).Find("li").Each(func(_ int, li *goquery.Selection) {
			bullets = normalize.PushUnique(bullets, li.Text())
		})
		if len(bullets) >= minBullets {
			return bullets
		}
	}

	for _, fragment := range normalize.SplitFragments(innerHTML(doc.Find(genericBulletFallbackSelector))) {
		bullets = normalize.PushUnique(bullets, fragment)
	}
	return bullets
}

func (e *GenericExtractor) specs(doc *goquery.Document) map[string]string {
	specs := map[string]string{}

	collectTableSpecs(doc, specs)

	doc.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		dl.Find("dt").Each(func(_ int, dt *goquery.Selection) {
			key := normalize.NormalizeWhitespace(dt.Text())
			value := normalize.NormalizeWhitespace(dt.NextFiltered("dd").Text())
			addSpec(specs, key, value)
		})
	})

	return specs
}

func (e *GenericExtractor) images(doc *goquery.Document) []string {
	var images []string
	add := func(src string) {
		if normalize.IsAbsoluteURL(src) {
			images = append(images, src)
		}
	}

	add(metaContent(doc, `meta[property="og:image"]`))
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		add(imageSource(img))
	})

	images = normalize.Dedupe(images)
	if len(images) > MaxGenericImages {
		images = images[:MaxGenericImages]
	}
	return images
}
