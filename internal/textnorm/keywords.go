package textnorm

import "strings"

// Keywords is a deduplicated, lowercased keyword set matched by substring.
type Keywords []string

// NewKeywords lowercases and trims words, dropping blanks and duplicates.
func NewKeywords(words ...string) Keywords {
	seen := make(map[string]struct{}, len(words))
	out := make(Keywords, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// CountPresent returns how many keywords occur in text at least once.
// Repeated occurrences of one keyword count once.
func (k Keywords) CountPresent(text string) int {
	if text == "" {
		return 0
	}
	text = strings.ToLower(text)
	n := 0
	for _, w := range k {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}

// Present returns the keywords that occur in text, in set order.
func (k Keywords) Present(text string) []string {
	text = strings.ToLower(text)
	var hits []string
	for _, w := range k {
		if text != "" && strings.Contains(text, w) {
			hits = append(hits, w)
		}
	}
	return hits
}
