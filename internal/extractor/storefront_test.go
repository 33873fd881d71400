package extractor

import (
	"testing"

	"github.com/pdpaudit/backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

const storefrontPage = `<html><head><title>Doc title</title>
<script type="application/ld+json">{"@type":"Product","name":"LD Name","description":"From structured data",
 "brand":{"name":"Bosch"},"sku":"12345","mpn":"GSB-180",
 "image":["https://cdn.fepy.com/ld1.jpg","https://cdn.fepy.com/g1.jpg"]}</script>
</head><body>
<div class="product-info-main">
  <div class="page-title-wrapper"><h1 class="page-title"><span>Bosch GSB 180-LI Cordless Impact Drill</span></h1></div>
  <div class="product attribute overview"><div class="value">Two speed gearbox<br>LED work light<br/>2.</div></div>
  <div class="product attribute sku"><strong class="type">SKU:</strong><div class="value">FEPY-001</div></div>
  <div class="price-box"><span class="price-wrapper"><span class="price">AED 199.00</span></span></div>
</div>
<ul class="key-features"><li>18V lithium battery</li><li>Two speed gearbox</li></ul>
<div class="product attribute description"><div class="value"><p>Compact &amp; powerful drill</p></div></div>
<div class="product media">
  <img src="https://cdn.fepy.com/g1.jpg">
  <img src="/local.png">
  <img data-src="https://cdn.fepy.com/g2.jpg">
</div>
<div class="additional-attributes-wrapper"><table class="data table additional-attributes">
  <tr><th class="col label">Voltage</th><td class="col data">18V</td></tr>
  <tr><th class="col label">Brand</th><td class="col data">Bosch Professional</td></tr>
</table></div>
</body></html>`

func TestStorefrontExtractor_Extract(t *testing.T) {
	doc := mustLoad(t, storefrontPage)

	got := NewStorefrontExtractor().Extract(doc)

	assert.Equal(t, "Bosch GSB 180-LI Cordless Impact Drill", got.Title)
	assert.Equal(t, "Compact & powerful drill", got.About)
	assert.Equal(t, []string{"Two speed gearbox", "LED work light", "18V lithium battery"}, got.Bullets)
	assert.Equal(t, map[string]string{
		"SKU":     "FEPY-001",
		"Voltage": "18V",
		"Brand":   "Bosch Professional",
		"Model":   "GSB-180",
	}, got.Specs)
	assert.Equal(t, []string{
		"https://cdn.fepy.com/g1.jpg",
		"https://cdn.fepy.com/g2.jpg",
		"https://cdn.fepy.com/ld1.jpg",
	}, got.Images)
	assert.Equal(t, "AED 199.00", got.Price)
}

func TestStorefrontExtractor_OverviewList(t *testing.T) {
	doc := mustLoad(t, `<div class="product attribute overview"><ul><li>Keyless chuck</li><li>1.</li><li>Belt clip</li></ul></div>`)

	got := NewStorefrontExtractor().Extract(doc)

	assert.Equal(t, []string{"Keyless chuck", "Belt clip"}, got.Bullets)
}

func TestStorefrontExtractor_StructuredFallback(t *testing.T) {
	doc := mustLoad(t, `<html><head>
<script type="application/ld+json">{"@type":"Product","name":"DeWalt DCD791 Drill","description":"Brushless motor\nCompact head\nLED light",
 "offers":{"price":"499","priceCurrency":"AED"}}</script>
</head><body>
<div class="product attribute overview"><div class="value">Metal ratcheting chuck</div></div>
</body></html>`)

	got := NewStorefrontExtractor().Extract(doc)

	assert.Equal(t, "DeWalt DCD791 Drill", got.Title)
	assert.Equal(t, "Brushless motor Compact head LED light", got.About)
	assert.Equal(t, "AED 499", got.Price)
	assert.Equal(t, []string{"Metal ratcheting chuck", "Brushless motor", "Compact head", "LED light"}, got.Bullets)
}

func TestMergeStructured_PageSpecsWin(t *testing.T) {
	page := mustLoad(t, `<table><tr><td>Brand</td><td>Page Brand</td></tr></table>`)
	ld := domain.NewExtractedProduct()
	ld.Specs["Brand"] = "LD Brand"
	ld.Specs["Model"] = "LD-1"
	ld.Title = "LD Title"

	got := mergeStructured(NewStorefrontExtractor().extractPage(page), ld)

	assert.Equal(t, "Page Brand", got.Specs["Brand"])
	assert.Equal(t, "LD-1", got.Specs["Model"])
	assert.Equal(t, "LD Title", got.Title)
}

func TestStorefrontExtractor_NumberedSpecRowsDropped(t *testing.T) {
	doc := mustLoad(t, `<div class="additional-attributes-wrapper"><table class="data table additional-attributes">
  <tr><th class="col label">1.</th><td class="col data">Bosch</td></tr>
  <tr><th class="col label">Voltage</th><td class="col data">18</td></tr>
</table></div>`)

	got := NewStorefrontExtractor().Extract(doc)

	assert.Equal(t, map[string]string{"Voltage": "18"}, got.Specs)
}
