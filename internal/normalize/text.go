// Package normalize holds the text cleanup helpers shared by every extractor
// and by the audit rules.
package normalize

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var (
	// stray list numbering such as "1", "2." or "3)"
	numeralArtifactRegex = regexp.MustCompile(`^\d+([.)-])?$`)

	fragmentSplitRegex = regexp.MustCompile(`(?i)<br\s*/?>|•|\n`)

	absoluteURLRegex = regexp.MustCompile(`(?i)^https?://`)

	stripPolicy = bluemonday.StrictPolicy()
)

// maxCleanPasses bounds the strip/decode loop for deeply escaped markup
const maxCleanPasses = 8

// NormalizeWhitespace collapses whitespace runs into a single space and trims.
func NormalizeWhitespace(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(s), " ")
}

// StripTags removes all markup and returns the normalized text content.
// The strict policy re-escapes text, so the result may still carry entities.
func StripTags(htmlStr string) string {
	if htmlStr == "" {
		return ""
	}
	return NormalizeWhitespace(stripPolicy.Sanitize(htmlStr))
}

// DecodeEntities decodes HTML character references to literal characters.
func DecodeEntities(text string) string {
	return html.UnescapeString(text)
}

// CleanHTMLToText converts a rich-text fragment into plain text. Escaped
// markup (double-encoded descriptions) is decoded and stripped again until
// the text stops changing, so the result is a fixed point.
func CleanHTMLToText(htmlStr string) string {
	text := cleanOnce(htmlStr)
	for i := 0; i < maxCleanPasses; i++ {
		next := cleanOnce(text)
		if next == text {
			break
		}
		text = next
	}
	return text
}

func cleanOnce(htmlStr string) string {
	return NormalizeWhitespace(DecodeEntities(StripTags(htmlStr)))
}

// IsNumeralArtifact reports whether s is a bare list number.
func IsNumeralArtifact(s string) bool {
	return numeralArtifactRegex.MatchString(s)
}

// PushUnique appends the normalized value unless it is empty, a numeral
// artifact or already present.
func PushUnique(list []string, value string) []string {
	v := NormalizeWhitespace(value)
	if v == "" || IsNumeralArtifact(v) {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// SplitFragments splits markup on line breaks, bullet glyphs and newlines and
// returns each piece as cleaned text. Empty pieces are kept out.
func SplitFragments(htmlStr string) []string {
	var out []string
	for _, chunk := range fragmentSplitRegex.Split(htmlStr, -1) {
		if text := CleanHTMLToText(chunk); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// IsAbsoluteURL reports whether s starts with an http or https scheme.
func IsAbsoluteURL(s string) bool {
	return absoluteURLRegex.MatchString(s)
}

// Dedupe removes duplicate strings while preserving order
func Dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))

	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}
