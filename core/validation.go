// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"time"
)

// ValidateMemoryRecord validates a MemoryRecord according to domain rules.
//
// Validation rules:
//   - OriginalText must not be empty
//   - Category must be one of the known values
//   - Importance must be in 1-10
//   - Timestamp must not be in the future
//
// NOT validated (populated by the ingestion pipeline):
//   - Embedding (can be empty until the embedder runs)
//   - MaskedText (empty means masking has not run yet)
func ValidateMemoryRecord(record *MemoryRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidMemoryRecord)
	}

	if record.OriginalText == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMemoryRecord, ErrEmptyText)
	}

	if err := ValidateCategory(record.Category); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMemoryRecord, err)
	}

	if record.Importance < 1 || record.Importance > 10 {
		return fmt.Errorf("%w: %w", ErrInvalidMemoryRecord, ErrInvalidImportance)
	}

	if !IsValidTimestamp(record.Timestamp) {
		return fmt.Errorf("%w: %w", ErrInvalidMemoryRecord, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateCategory validates that a Category has a known value.
func ValidateCategory(category Category) error {
	for _, c := range Categories {
		if category == c {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidCategory, category)
}

// NormalizeCategory maps an arbitrary classifier label onto a known Category.
// Unknown or empty labels map to CategoryOther.
func NormalizeCategory(label string) Category {
	for _, c := range Categories {
		if string(c) == label {
			return c
		}
	}
	return CategoryOther
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
