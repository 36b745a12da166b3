package chunker

import "strings"

// EstimateTokens gives a rough token count from the word count. Chunk
// boundaries only need to be approximately sized.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	// Roughly 1.33 tokens per English word.
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
