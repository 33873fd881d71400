package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pdpaudit/backend/internal/normalize"
)

// lazyImageAttrs are checked in order when an img has no usable src
var lazyImageAttrs = []string{"src", "data-src", "data-lazy", "data-original"}

// text returns the normalized text of the first element in sel
func text(sel *goquery.Selection) string {
	return normalize.NormalizeWhitespace(sel.First().Text())
}

// innerHTML returns the inner markup of the first element in sel, or ""
func innerHTML(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	h, err := sel.First().Html()
	if err != nil {
		return ""
	}
	return h
}

// firstText returns the first non-empty text among the selectors, in order
func firstText(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		if t := text(doc.Find(selector)); t != "" {
			return t
		}
	}
	return ""
}

// metaContent returns the normalized content attribute of the first match
func metaContent(doc *goquery.Document, selector string) string {
	return normalize.NormalizeWhitespace(doc.Find(selector).First().AttrOr("content", ""))
}

// imageSource returns the first non-empty source attribute of an img
func imageSource(img *goquery.Selection) string {
	for _, attr := range lazyImageAttrs {
		if v := normalize.NormalizeWhitespace(img.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	return ""
}

// addSpec records key/value unless either is empty, the key is a bare list
// number or the key is already set
func addSpec(specs map[string]string, key, value string) {
	if key == "" || value == "" || normalize.IsNumeralArtifact(key) {
		return
	}
	if _, exists := specs[key]; exists {
		return
	}
	specs[key] = value
}

// collectTableSpecs reads every multi-row table as label -> value rows
// from the first two cells.
func collectTableSpecs(doc *goquery.Document, specs map[string]string) {
	doc.Find("table:has(tr)").Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("th, td")
			key := normalize.NormalizeWhitespace(cells.Eq(0).Text())
			value := normalize.NormalizeWhitespace(cells.Eq(1).Text())
			addSpec(specs, key, value)
		})
	})
}

// trimLabel drops a trailing colon from a spec label
func trimLabel(label string) string {
	return strings.TrimSpace(strings.TrimSuffix(label, ":"))
}
