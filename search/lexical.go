package search

import (
	"strings"

	"github.com/poiesic/memora/core"
)

const maxTitleBoost = 0.5

// LexicalSignals holds the text-derived score components for one record.
// Keyword and Concept are fractions in [0,1]; TitleBoost is capped at 0.5.
type LexicalSignals struct {
	Keyword    float32
	Concept    float32
	TitleBoost float32
}

// ScoreLexical computes keyword-overlap, concept-overlap and title-boost
// signals for a record. All matching is case-insensitive and substring-based,
// so "cake" matches "cupcakes" and a missing field simply contributes nothing.
//
// A concept also counts as matched when it overlaps one of the record's
// entity names in either direction, which lets an expanded concept like
// "birthday" reach a record tagged with the entity "birthday party".
func ScoreLexical(query string, concepts []string, record *core.MemoryRecord) LexicalSignals {
	title := strings.ToLower(record.Title)
	haystack := strings.ToLower(record.Title + " " + record.Summary + " " +
		string(record.Category) + " " + record.OriginalText)

	terms := rawTerms(query)

	var signals LexicalSignals

	if len(terms) > 0 {
		matched := 0
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				matched++
			}
		}
		signals.Keyword = float32(matched) / float32(len(terms))
	}

	if len(concepts) > 0 {
		matched := 0
		for _, concept := range concepts {
			if conceptMatches(strings.ToLower(concept), haystack, record.Entities) {
				matched++
			}
		}
		signals.Concept = float32(matched) / float32(len(concepts))
	}

	var boost float32
	for _, concept := range concepts {
		if c := strings.ToLower(concept); c != "" && strings.Contains(title, c) {
			boost += 0.2
		}
	}
	for _, term := range terms {
		if strings.Contains(title, term) {
			boost += 0.25
		}
	}
	if boost > maxTitleBoost {
		boost = maxTitleBoost
	}
	signals.TitleBoost = boost

	return signals
}

// conceptMatches reports whether a lowercased concept hits the haystack or
// any entity name, matching entity names in either direction.
func conceptMatches(concept, haystack string, entities []core.Entity) bool {
	if concept == "" {
		return false
	}
	if strings.Contains(haystack, concept) {
		return true
	}
	for _, entity := range entities {
		name := strings.ToLower(entity.Name)
		if name == "" {
			continue
		}
		if strings.Contains(name, concept) || strings.Contains(concept, name) {
			return true
		}
	}
	return false
}
