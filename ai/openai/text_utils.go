package openai

import (
	"strings"

	"github.com/poiesic/memora/ai"
)

// boundEmbedText prepares text for submission to the embedding service:
// trimmed, truncated to ai.MaxEmbedChars, and never empty (the API rejects
// blank input, so a single space stands in for it).
func boundEmbedText(s string) string {
	s = strings.TrimSpace(s)
	if runes := []rune(s); len(runes) > ai.MaxEmbedChars {
		s = string(runes[:ai.MaxEmbedChars])
	}
	if s == "" {
		return " "
	}
	return s
}

// stripCodeFences removes markdown code fences some models wrap around
// JSON-mode output.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
