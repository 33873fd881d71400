// Package extractor turns a product detail page into a canonical
// domain.ExtractedProduct.
//
// Strategies:
//   - structured: schema.org Product blocks embedded as JSON-LD
//   - storefront: selector set tuned to the known storefront's template
//   - generic: selector and heuristic fallback for any other storefront
//
// Coordinator picks the primary strategy from the URL host and backfills
// empty fields from the others. All strategies are pure functions of the
// parsed document.
package extractor
