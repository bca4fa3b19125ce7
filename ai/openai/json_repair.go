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


package openai

import "strings"

// repairJSON attempts to fix common JSON formatting issues from LLM responses.
// It specifically handles keys missing their opening quote, e.g. `, type":`
// becomes `, "type":`.
func repairJSON(s string) string {
	src := []rune(s)
	var out strings.Builder
	out.Grow(len(src) + 16)

	i := 0
	for i < len(src) {
		ch := src[i]
		out.WriteRune(ch)
		i++

		// Unquoted keys can only follow { or ,
		if ch != '{' && ch != ',' {
			continue
		}

		// Skip whitespace
		for i < len(src) && (src[i] == ' ' || src[i] == '\n' || src[i] == '\t') {
			out.WriteRune(src[i])
			i++
		}

		// A bare word here is a key missing its opening quote
		if i >= len(src) || src[i] == '"' || !isLetter(src[i]) {
			continue
		}
		keyStart := i
		for i < len(src) && (isLetter(src[i]) || src[i] == '_' || src[i] == ' ') {
			i++
		}

		if i+1 < len(src) && src[i] == '"' && src[i+1] == ':' {
			// Insert the missing opening quote; the closing quote is
			// already present at src[i].
			out.WriteRune('"')
			out.WriteString(strings.TrimRight(string(src[keyStart:i]), " "))
		} else {
			// Not a key, copy what we skipped
			out.WriteString(string(src[keyStart:i]))
		}
	}

	return out.String()
}
