package search

import "strings"

// Function words that carry no retrieval signal on their own.
var stopWords = map[string]bool{
	"when": true, "will": true, "the": true, "and": true,
	"for": true, "with": true, "that": true,
}

// rawTerms splits a query on whitespace and keeps the lowercased tokens
// that are longer than two characters and not stop words.
func rawTerms(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) <= 2 || stopWords[word] {
			continue
		}
		terms = append(terms, word)
	}
	return terms
}
