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


// Package privacy provides deterministic PII redaction for memory text.
//
// Masking is applied exactly once, at ingestion, before the text is sent to
// the classification service. The patterns are deliberately simple and
// regex-based; the classifier separately reports subtler context-based risks.
package privacy

import (
	"log/slog"

	"github.com/dlclark/regexp2"
)

// maskRule pairs a compiled pattern with its replacement token.
type maskRule struct {
	name        string
	pattern     *regexp2.Regexp
	replacement string
}

// regexp2 keeps the masking behavior aligned with the backtracking regex
// dialect these patterns were written for (lazy quantifiers in the card rule).
var maskRules = []maskRule{
	{
		name:        "email",
		pattern:     regexp2.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`, regexp2.None),
		replacement: "[EMAIL_REDACTED]",
	},
	{
		name:        "phone",
		pattern:     regexp2.MustCompile(`\b(?:\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`, regexp2.None),
		replacement: "[PHONE_REDACTED]",
	},
	{
		name:        "ssn",
		pattern:     regexp2.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`, regexp2.None),
		replacement: "[SSN_REDACTED]",
	},
	{
		name:        "credit card",
		pattern:     regexp2.MustCompile(`\b(?:\d[ -]*?){13,16}\b`, regexp2.None),
		replacement: "[CREDIT_CARD_REDACTED]",
	},
}

// MaskPII replaces emails, phone numbers, SSNs and 13-16 digit card-like runs
// with fixed redaction tokens. Rules are applied in order; phone numbers are
// masked before the card rule so short digit groups are not double-matched.
func MaskPII(text string) string {
	masked := text
	for _, rule := range maskRules {
		replaced, err := rule.pattern.Replace(masked, rule.replacement, -1, -1)
		if err != nil {
			// regexp2 only errors on pathological inputs (match timeout).
			// Keep the partially masked text rather than dropping the entry.
			slog.Warn("pii mask rule failed", "rule", rule.name, "err", err)
			continue
		}
		masked = replaced
	}
	return masked
}
