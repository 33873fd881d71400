package domain

// ExtractedProduct is the canonical product record built for one audited URL.
// Extractors return partial records with URL left empty; the extraction
// coordinator stamps URL.
type ExtractedProduct struct {
	URL     string            `json:"url"`
	Title   string            `json:"title,omitempty"`
	About   string            `json:"about,omitempty"`
	Bullets []string          `json:"bullets"`
	Specs   map[string]string `json:"specs"`
	Images  []string          `json:"images"`
	Price   string            `json:"price,omitempty"` // empty means no price found
}

// NewExtractedProduct returns an empty record with non-nil collections
func NewExtractedProduct() *ExtractedProduct {
	return &ExtractedProduct{
		Bullets: []string{},
		Specs:   map[string]string{},
		Images:  []string{},
	}
}

// Clone returns a deep copy of the record
func (p *ExtractedProduct) Clone() *ExtractedProduct {
	out := &ExtractedProduct{
		URL:     p.URL,
		Title:   p.Title,
		About:   p.About,
		Price:   p.Price,
		Bullets: append([]string{}, p.Bullets...),
		Images:  append([]string{}, p.Images...),
		Specs:   make(map[string]string, len(p.Specs)),
	}
	for k, v := range p.Specs {
		out.Specs[k] = v
	}
	return out
}

// Page is a fetched HTML document
type Page struct {
	URL         string // URL after redirects
	StatusCode  int
	ContentType string
	Body        []byte
}

// SearchResult is a single web search hit
type SearchResult struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// ReferenceMatch is the reference listing chosen to correct a canonical record
type ReferenceMatch struct {
	SourceURL string            `json:"sourceUrl"`
	Score     float64           `json:"score"`
	Product   *ExtractedProduct `json:"product"`
}
