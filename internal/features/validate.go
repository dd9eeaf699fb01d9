package features

import "strings"

// ValidateTypedText reports whether the typed text is close enough to the
// prompt to accept. Both strings are trimmed and lowercased; an exact match
// always passes. Otherwise similarity is the count of prompt characters
// matched in order by a single left-to-right scan of the typed text,
// divided by the prompt length. This is deliberately not an edit-distance
// ratio; the 0.8 default threshold is calibrated against this scan.
func ValidateTypedText(typed, prompt string, minSimilarity float64) bool {
	typedClean := strings.ToLower(strings.TrimSpace(typed))
	promptClean := strings.ToLower(strings.TrimSpace(prompt))

	if typedClean == promptClean {
		return true
	}
	promptRunes := []rune(promptClean)
	if len(promptRunes) == 0 {
		return false
	}

	matches := 0
	idx := 0
	for _, r := range typedClean {
		if idx < len(promptRunes) && r == promptRunes[idx] {
			matches++
			idx++
		}
	}
	return float64(matches)/float64(len(promptRunes)) >= minSimilarity
}
