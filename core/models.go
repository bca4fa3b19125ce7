package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated by content-based hashing of the masked text, so submitting
// the same text twice yields the same record.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Category classifies a memory record.
type Category string

const (
	CategoryBusiness  Category = "Business"
	CategoryPersonal  Category = "Personal"
	CategoryFinance   Category = "Finance"
	CategoryHealth    Category = "Health"
	CategoryTechnical Category = "Technical"
	CategoryOther     Category = "Other"
)

// Categories lists all valid categories in display order.
var Categories = []Category{
	CategoryBusiness,
	CategoryPersonal,
	CategoryFinance,
	CategoryHealth,
	CategoryTechnical,
	CategoryOther,
}

// Entity is a named entity extracted from a memory by the classifier.
// Kind is a loose label such as "Person", "Org", "Location", "Date" or "Product".
type Entity struct {
	Name string
	Kind string
}

// MemoryRecord represents one stored memory with derived metadata.
// Records ingested before embeddings were configured have an empty Embedding
// and are embedded on demand during retrieval.
type MemoryRecord struct {
	Id            ID
	Title         string
	Summary       string
	OriginalText  string
	MaskedText    string // OriginalText after PII masking; this is what gets classified
	Category      Category
	Importance    int // 1-10, assigned by the classifier
	Entities      []Entity
	PrivacyAlerts []string
	ImageURL      string
	Timestamp     time.Time // When the memory was created by the user
	InsertedAt    time.Time // When the record was inserted into the database
	UpdatedAt     time.Time // When the record was last updated
	Embedding     []float32 // Document embedding (populated at ingestion, optional)
}

// Analysis is the parsed output of the classification service for one input.
type Analysis struct {
	Title        string
	Summary      string
	Importance   int
	Category     Category
	Entities     []Entity
	PrivacyRisks []string
}

// ExpansionResult is the parsed output of the query expander.
// Concepts bridge conversational phrasing to stored intent,
// e.g. "cut cake" expands to "birthday".
type ExpansionResult struct {
	ExpandedQuery string
	Concepts      []string
}

// ScoredRecord pairs a record with its fused relevance score for one
// retrieval cycle. Scores are clamped to [0,1] and never persisted.
type ScoredRecord struct {
	Record *MemoryRecord
	Score  float32
}

// QueryResponse is the externally visible result of one retrieval cycle.
// Each cycle fully replaces the previous response.
type QueryResponse struct {
	Answer     string
	Sources    []*ScoredRecord // Best first; empty when nothing cleared the threshold
	Confidence float32         // Top-ranked score, or 0 when Sources is empty
	IsThinking bool
}
