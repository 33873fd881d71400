package extractor

import (
	"bytes"
	"fmt"
	"mime"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pdpaudit/backend/internal/domain"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// DetectCharset detects and returns charset from HTML bytes
func DetectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// LoadDocument parses page bytes into a goquery document, converting to UTF-8
// from the declared charset or, when none is declared, the detected one.
func LoadDocument(body []byte, contentType string) (*goquery.Document, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty document", domain.ErrParseFailed)
	}

	if !hasCharsetParam(contentType) {
		contentType = "text/html; charset=" + DetectCharset(body)
	}

	utf8Reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		// Fallback to direct parsing
		utf8Reader = bytes.NewReader(body)
	}

	doc, err := goquery.NewDocumentFromReader(utf8Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParseFailed, err)
	}
	return doc, nil
}

// LoadDocumentString parses an HTML string, mostly useful in tests
func LoadDocumentString(htmlStr string) (*goquery.Document, error) {
	return LoadDocument([]byte(htmlStr), "text/html; charset=utf-8")
}

func hasCharsetParam(contentType string) bool {
	if contentType == "" {
		return false
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return params["charset"] != ""
}
