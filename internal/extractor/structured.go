package extractor

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"
	"github.com/pdpaudit/backend/internal/domain"
	"github.com/pdpaudit/backend/internal/normalize"
)

// ldJSON keeps numeric literals (SKUs, GTINs, prices) exactly as written
var ldJSON = sonic.Config{UseNumber: true}.Froze()

// identifierSpecs maps JSON-LD identifier properties to spec labels
var identifierSpecs = []struct {
	property string
	label    string
}{
	{"sku", "SKU"},
	{"mpn", "Model"},
	{"model", "Model"},
	{"gtin13", "GTIN-13"},
	{"gtin14", "GTIN-14"},
	{"gtin8", "GTIN-8"},
}

// ExtractStructuredData merges every schema.org Product declared in JSON-LD
// blocks into one partial record. Earlier values win. Malformed blocks are
// skipped.
func ExtractStructuredData(doc *goquery.Document) *domain.ExtractedProduct {
	out := domain.NewExtractedProduct()

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}

		var data interface{}
		if err := ldJSON.UnmarshalFromString(raw, &data); err != nil {
			return
		}

		for _, item := range ldItems(data) {
			if !isProductType(item["@type"]) {
				continue
			}
			mergeProductItem(out, item)
		}
	})

	out.Images = normalize.Dedupe(out.Images)
	return out
}

// ldItems flattens a JSON-LD payload into candidate objects: the payload
// itself, members of a top-level array, and members of an @graph.
func ldItems(data interface{}) []map[string]interface{} {
	var items []map[string]interface{}
	switch v := data.(type) {
	case map[string]interface{}:
		items = append(items, v)
		if graph, ok := v["@graph"].([]interface{}); ok {
			items = append(items, ldItems(graph)...)
		}
	case []interface{}:
		for _, el := range v {
			items = append(items, ldItems(el)...)
		}
	}
	return items
}

func isProductType(t interface{}) bool {
	var typeName string
	switch v := t.(type) {
	case string:
		typeName = v
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
		typeName = strings.Join(parts, ",")
	}
	return strings.Contains(strings.ToLower(typeName), "product")
}

func mergeProductItem(out *domain.ExtractedProduct, item map[string]interface{}) {
	if out.Title == "" {
		out.Title = normalize.NormalizeWhitespace(scalarString(item["name"]))
	}

	description := scalarString(item["description"])
	if out.About == "" {
		out.About = normalize.NormalizeWhitespace(description)
	}
	// bullets are sometimes packed into the description
	if strings.ContainsAny(description, "\n•") {
		for _, part := range strings.FieldsFunc(description, func(r rune) bool { return r == '\n' || r == '•' }) {
			out.Bullets = normalize.PushUnique(out.Bullets, part)
		}
	}

	if brand := brandName(item["brand"]); brand != "" {
		addSpec(out.Specs, "Brand", brand)
	}
	for _, id := range identifierSpecs {
		addSpec(out.Specs, id.label, normalize.NormalizeWhitespace(scalarString(item[id.property])))
	}

	if out.Price == "" {
		out.Price = offerPrice(item["offers"])
	}

	out.Images = append(out.Images, imageURLs(item["image"])...)
}

func brandName(v interface{}) string {
	switch b := v.(type) {
	case map[string]interface{}:
		return normalize.NormalizeWhitespace(scalarString(b["name"]))
	case []interface{}:
		if len(b) > 0 {
			return brandName(b[0])
		}
		return ""
	default:
		return normalize.NormalizeWhitespace(scalarString(b))
	}
}

// offerPrice formats the first offer as "{currency} {amount}", or the bare
// amount when no currency is given.
func offerPrice(v interface{}) string {
	if list, ok := v.([]interface{}); ok {
		if len(list) == 0 {
			return ""
		}
		v = list[0]
	}
	offer, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}

	amount := scalarString(offer["price"])
	if amount == "" {
		amount = scalarString(offer["lowPrice"])
	}
	currency := scalarString(offer["priceCurrency"])

	if currency != "" && amount != "" {
		return normalize.NormalizeWhitespace(currency + " " + amount)
	}
	return normalize.NormalizeWhitespace(amount)
}

func imageURLs(v interface{}) []string {
	var out []string
	switch img := v.(type) {
	case string:
		if normalize.IsAbsoluteURL(img) {
			out = append(out, img)
		}
	case []interface{}:
		for _, el := range img {
			out = append(out, imageURLs(el)...)
		}
	case map[string]interface{}:
		out = append(out, imageURLs(img["url"])...)
	}
	return out
}

// scalarString renders JSON strings and numbers; everything else is ""
func scalarString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return ""
	}
}
