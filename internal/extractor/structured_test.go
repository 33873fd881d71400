package extractor

import (
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := LoadDocumentString(html)
	require.NoError(t, err)
	return doc
}

func TestExtractStructuredData_Product(t *testing.T) {
	doc := mustLoad(t, `<html><head>
<script type="application/ld+json">{"@context":"https://schema.org","@type":"Product",
 "name":"  Bosch GSB 180-LI  ","description":"Line one\nLine two • Line three",
 "brand":{"@type":"Brand","name":"Bosch"},"sku":12345,"mpn":"GSB-180","gtin13":"4059952510184",
 "offers":{"@type":"Offer","price":"199.00","priceCurrency":"AED"},
 "image":["https://cdn.example.com/a.jpg","/relative.jpg","https://cdn.example.com/a.jpg"]}</script>
<script type="application/ld+json">{ not json</script>
</head><body></body></html>`)

	got := ExtractStructuredData(doc)

	assert.Equal(t, "", got.URL)
	assert.Equal(t, "Bosch GSB 180-LI", got.Title)
	assert.Equal(t, "Line one Line two • Line three", got.About)
	assert.Equal(t, []string{"Line one", "Line two", "Line three"}, got.Bullets)
	assert.Equal(t, map[string]string{
		"Brand":   "Bosch",
		"SKU":     "12345",
		"Model":   "GSB-180",
		"GTIN-13": "4059952510184",
	}, got.Specs)
	assert.Equal(t, "AED 199.00", got.Price)
	assert.Equal(t, []string{"https://cdn.example.com/a.jpg"}, got.Images)
}

func TestExtractStructuredData_Shapes(t *testing.T) {
	t.Run("array wrapped with multi-typed item", func(t *testing.T) {
		doc := mustLoad(t, `<script type="application/ld+json">[
			{"@type":"BreadcrumbList","name":"Crumbs"},
			{"@type":["Thing","Product"],"name":"Drill","brand":"Makita","offers":[{"price":49},{"price":99}]}
		]</script>`)

		got := ExtractStructuredData(doc)
		assert.Equal(t, "Drill", got.Title)
		assert.Equal(t, "Makita", got.Specs["Brand"])
		assert.Equal(t, "49", got.Price)
	})

	t.Run("graph container", func(t *testing.T) {
		doc := mustLoad(t, `<script type="application/ld+json">{"@context":"https://schema.org","@graph":[
			{"@type":"WebPage","name":"Page"},
			{"@type":"product","name":"Sander","image":{"@type":"ImageObject","url":"https://cdn.example.com/s.jpg"},
			 "offers":{"@type":"AggregateOffer","lowPrice":"120","priceCurrency":"SAR"}}
		]}</script>`)

		got := ExtractStructuredData(doc)
		assert.Equal(t, "Sander", got.Title)
		assert.Equal(t, "SAR 120", got.Price)
		assert.Equal(t, []string{"https://cdn.example.com/s.jpg"}, got.Images)
	})

	t.Run("first product wins", func(t *testing.T) {
		doc := mustLoad(t, `
<script type="application/ld+json">{"@type":"Product","name":"First","brand":"Atlas"}</script>
<script type="application/ld+json">{"@type":"Product","name":"Second","brand":"Other","sku":"S-2"}</script>`)

		got := ExtractStructuredData(doc)
		assert.Equal(t, "First", got.Title)
		assert.Equal(t, "Atlas", got.Specs["Brand"])
		assert.Equal(t, "S-2", got.Specs["SKU"])
	})

	t.Run("no structured data", func(t *testing.T) {
		doc := mustLoad(t, `<html><body><h1>Nothing</h1></body></html>`)

		got := ExtractStructuredData(doc)
		assert.Empty(t, got.Title)
		assert.Empty(t, got.Specs)
		assert.Empty(t, got.Images)
		assert.Empty(t, got.Price)
	})
}
