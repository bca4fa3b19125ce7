package storage

import (
	"testing"
	"time"

	"github.com/poiesic/memora/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotNil(t, data)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalMemoryRecord(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name   string
		record *core.MemoryRecord
	}{
		{
			name: "minimal record",
			record: &core.MemoryRecord{
				Id:           core.ID(1),
				Title:        "Dentist appointment",
				Summary:      "Dentist appointment on Friday",
				OriginalText: "Dentist appointment on Friday at 3pm",
				MaskedText:   "Dentist appointment on Friday at 3pm",
				Category:     core.CategoryHealth,
				Importance:   6,
				Timestamp:    now,
				InsertedAt:   now,
				UpdatedAt:    now,
			},
		},
		{
			name: "record with entities and alerts",
			record: &core.MemoryRecord{
				Id:           core.ID(2),
				Title:        "Contract signed with Acme",
				Summary:      "Signed the consulting contract",
				OriginalText: "Signed the consulting contract with Acme, contact jane@acme.test",
				MaskedText:   "Signed the consulting contract with Acme, contact [EMAIL_REDACTED]",
				Category:     core.CategoryBusiness,
				Importance:   9,
				Entities: []core.Entity{
					{Name: "Acme", Kind: "Org"},
					{Name: "Jane", Kind: "Person"},
				},
				PrivacyAlerts: []string{"email address"},
				Timestamp:     now,
				InsertedAt:    now,
				UpdatedAt:     now,
			},
		},
		{
			name: "record with embedding",
			record: &core.MemoryRecord{
				Id:           core.ID(3),
				Title:        "Embedded",
				Summary:      "Has a vector",
				OriginalText: "Has a vector",
				MaskedText:   "Has a vector",
				Category:     core.CategoryOther,
				Importance:   3,
				Timestamp:    now,
				InsertedAt:   now,
				UpdatedAt:    now,
				Embedding:    []float32{0.1, -0.2, 0.3, 0.4, 0.5},
			},
		},
		{
			name: "record with image",
			record: &core.MemoryRecord{
				Id:           core.ID(4),
				Title:        "Whiteboard photo",
				Summary:      "Architecture sketch from the planning session",
				OriginalText: "Architecture sketch",
				MaskedText:   "Architecture sketch",
				Category:     core.CategoryTechnical,
				Importance:   7,
				ImageURL:     "file:///photos/whiteboard.jpg",
				Timestamp:    now,
				InsertedAt:   now,
				UpdatedAt:    now,
			},
		},
		{
			name: "unicode text",
			record: &core.MemoryRecord{
				Id:           core.ID(5),
				Title:        "世界",
				Summary:      "Unicode résumé 🌍",
				OriginalText: "Unicode résumé 🌍",
				MaskedText:   "Unicode résumé 🌍",
				Category:     core.CategoryPersonal,
				Importance:   1,
				Timestamp:    now,
				InsertedAt:   now,
				UpdatedAt:    now,
			},
		},
		{
			name: "long embedding",
			record: &core.MemoryRecord{
				Id:           core.IDFromContent("long embedding"),
				Title:        "Long",
				Summary:      "Long embedding",
				OriginalText: "Long embedding",
				MaskedText:   "Long embedding",
				Category:     core.CategoryOther,
				Importance:   5,
				Timestamp:    now,
				InsertedAt:   now,
				UpdatedAt:    now,
				Embedding:    make([]float32, 768),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalMemoryRecord(tt.record)
			require.NotNil(t, data)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalMemoryRecord(data)
			require.NoError(t, err)
			require.NotNil(t, decoded)

			assert.Equal(t, tt.record.Id, decoded.Id)
			assert.Equal(t, tt.record.Title, decoded.Title)
			assert.Equal(t, tt.record.Summary, decoded.Summary)
			assert.Equal(t, tt.record.OriginalText, decoded.OriginalText)
			assert.Equal(t, tt.record.MaskedText, decoded.MaskedText)
			assert.Equal(t, tt.record.Category, decoded.Category)
			assert.Equal(t, tt.record.Importance, decoded.Importance)
			assert.Equal(t, tt.record.ImageURL, decoded.ImageURL)
			assert.True(t, tt.record.Timestamp.Equal(decoded.Timestamp))
			assert.True(t, tt.record.InsertedAt.Equal(decoded.InsertedAt))
			assert.True(t, tt.record.UpdatedAt.Equal(decoded.UpdatedAt))
			// Handle nil vs empty slice
			if len(tt.record.Entities) == 0 {
				assert.Empty(t, decoded.Entities)
			} else {
				assert.Equal(t, tt.record.Entities, decoded.Entities)
			}
			if len(tt.record.PrivacyAlerts) == 0 {
				assert.Empty(t, decoded.PrivacyAlerts)
			} else {
				assert.Equal(t, tt.record.PrivacyAlerts, decoded.PrivacyAlerts)
			}
			if len(tt.record.Embedding) == 0 {
				assert.Empty(t, decoded.Embedding)
			} else {
				assert.Equal(t, tt.record.Embedding, decoded.Embedding)
			}
		})
	}
}

func TestUnmarshalMemoryRecord_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"invalid data", []byte{0xFF, 0xFF, 0xFF}},
		{"partial data", []byte{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalMemoryRecord(tt.data)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}

func TestRoundTripConsistency(t *testing.T) {
	t.Run("multiple marshal-unmarshal cycles", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Microsecond)
		original := &core.MemoryRecord{
			Id:            core.ID(999),
			Title:         "Consistency",
			Summary:       "Testing consistency",
			OriginalText:  "Testing consistency across cycles",
			MaskedText:    "Testing consistency across cycles",
			Category:      core.CategoryTechnical,
			Importance:    8,
			Entities:      []core.Entity{{Name: "Cycle", Kind: "Product"}},
			PrivacyAlerts: []string{"none"},
			Timestamp:     now,
			InsertedAt:    now,
			UpdatedAt:     now,
			Embedding:     []float32{0.1, 0.2, 0.3},
		}

		current := original
		for i := 0; i < 3; i++ {
			data := MarshalMemoryRecord(current)
			decoded, err := UnmarshalMemoryRecord(data)
			require.NoError(t, err)
			current = decoded
		}

		assert.Equal(t, original.Id, current.Id)
		assert.Equal(t, original.Title, current.Title)
		assert.Equal(t, original.Entities, current.Entities)
		assert.Equal(t, original.PrivacyAlerts, current.PrivacyAlerts)
		assert.Equal(t, original.Embedding, current.Embedding)
	})
}
