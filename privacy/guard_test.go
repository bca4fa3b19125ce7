package privacy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskPII(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     string
		contains string
	}{
		{
			name:  "email",
			input: "reach me at jane.doe+vault@example.co.uk tomorrow",
			want:  "reach me at [EMAIL_REDACTED] tomorrow",
		},
		{
			name:     "phone with separators",
			input:    "call 555-867-5309 after lunch",
			contains: "[PHONE_REDACTED]",
		},
		{
			name:     "phone with parens",
			input:    "office line is (415) 555-0133",
			contains: "[PHONE_REDACTED]",
		},
		{
			name:     "ssn",
			input:    "my ssn is 123-45-6789 do not share",
			contains: "[SSN_REDACTED]",
		},
		{
			name:     "credit card",
			input:    "card 4111 1111 1111 1111 expires soon",
			contains: "[CREDIT_CARD_REDACTED]",
		},
		{
			name:  "no pii untouched",
			input: "lunch with Sam at the pier on Friday",
			want:  "lunch with Sam at the pier on Friday",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaskPII(tt.input)
			if tt.want != "" || tt.input == "" {
				assert.Equal(t, tt.want, got)
			}
			if tt.contains != "" {
				assert.Contains(t, got, tt.contains)
			}
		})
	}
}

func TestMaskPII_MasksAllOccurrences(t *testing.T) {
	input := "a@b.com and c@d.org wrote to e@f.net"
	got := MaskPII(input)

	assert.Equal(t, 3, strings.Count(got, "[EMAIL_REDACTED]"))
	assert.NotContains(t, got, "@")
}

func TestMaskPII_Deterministic(t *testing.T) {
	input := "call 555-867-5309 or mail x@y.com"
	assert.Equal(t, MaskPII(input), MaskPII(input))
}
