package usecase

import (
	"regexp"
	"strings"
)

// Package-level compiled regex pattern for performance
var nonWordRegex = regexp.MustCompile(`[^a-z0-9]+`)

// modelMatchBonus is added when a candidate title carries the model token
const modelMatchBonus = 0.2

// TitleSimilarity is the Jaccard index of the lowercase alphanumeric word
// sets of a and b. Two empty titles are identical (1.0).
func TitleSimilarity(a, b string) float64 {
	tokensA := tokenize(a)
	tokensB := tokenize(b)

	if len(tokensA) == 0 && len(tokensB) == 0 {
		return 1.0
	}

	matched, _ := findIntersection(tokensA, tokensB)
	return float64(matched) / float64(findUnion(tokensA, tokensB))
}

// candidateScore ranks a reference title against the canonical title
func candidateScore(canonicalTitle, candidateTitle, modelToken string) float64 {
	score := TitleSimilarity(canonicalTitle, candidateTitle)
	if modelToken != "" && strings.Contains(strings.ToLower(candidateTitle), strings.ToLower(modelToken)) {
		score += modelMatchBonus
	}
	return score
}

// tokenize splits a string into lowercase alphanumeric words
func tokenize(s string) []string {
	return strings.Fields(nonWordRegex.ReplaceAllString(strings.ToLower(s), " "))
}

// findIntersection returns the count of common tokens and the list of matched tokens
func findIntersection(tokens1, tokens2 []string) (int, []string) {
	set := make(map[string]bool)
	for _, t := range tokens1 {
		set[t] = true
	}

	var matched []string
	seen := make(map[string]bool)
	for _, t := range tokens2 {
		if set[t] && !seen[t] {
			matched = append(matched, t)
			seen[t] = true
		}
	}

	return len(matched), matched
}

// findUnion returns the count of unique tokens across both sets
func findUnion(tokens1, tokens2 []string) int {
	set := make(map[string]bool)
	for _, t := range tokens1 {
		set[t] = true
	}
	for _, t := range tokens2 {
		set[t] = true
	}
	return len(set)
}
