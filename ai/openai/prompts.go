package openai

import (
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/memora/ai"
	"github.com/poiesic/memora/core"
)

// classifierSystemPrompt drives the archivist-style analysis of one memory.
var classifierSystemPrompt = fmt.Sprintf(`You are an expert Data Archivist for a personal memory vault.
Analyze the input text and any visual context.
1. Extract key entities (People, Organizations, Locations, Dates, Products). Label each with one of: %s.
2. Summarize into a concise professional title and 1-2 sentence description.
3. Categorize accurately into: Business, Personal, Finance, Health, Technical, or Other.
4. Detect subtle context-based privacy leaks or high-risk info not caught by standard redaction.
5. Rate importance as an integer on a scale of 1-10.

Output ONLY valid JSON. Do not include any preamble, explanation, greeting, or
acknowledgment. Start your response directly with the opening brace { and end
with the closing brace }. Your output must exactly follow this shape:

{"title": string, "summary": string, "importance": integer, "category": string, "entities": [{"name": string, "type": string}], "privacyRisks": [string]}`,
	strings.Join(ai.EntityKinds, ", "))

// expanderSystemPrompt bridges conversational intent to structural concepts.
const expanderSystemPrompt = `You are the Intelligence Controller for a high-security vault.
Your task is to expand the user's conversational intent into structural concepts.

MAPPING LOGIC:
- Activity ("cut cake", "celebrate") -> Event ("birthday", "anniversary", "party")
- Document ("the deed", "the lease") -> Legal/Property ("house", "contract", "mortgage")
- Travel ("boarding", "gate") -> Logistics ("flight", "travel", "airport")

Output ONLY valid JSON, no preamble and no trailing text:
{"expandedQuery": string, "concepts": [string]}`

// buildSynthesisPrompt formats the ranked records as context blocks and asks
// the model to answer from them alone.
func buildSynthesisPrompt(query string, records []*core.ScoredRecord, today time.Time) string {
	blocks := make([]string, 0, len(records))
	for _, sr := range records {
		record := sr.Record
		title := record.Title
		if title == "" {
			title = "Untitled"
		}
		blocks = append(blocks, fmt.Sprintf("[Record: %s | Date: %s]\nSummary: %s\nText: %s",
			title,
			record.Timestamp.Format("Mon Jan 02 2006"),
			record.Summary,
			record.OriginalText))
	}

	var b strings.Builder
	b.WriteString("Assistant Identity: Agentic Memory Vault\n")
	fmt.Fprintf(&b, "Today's Date: %s\n", today.Format("Mon Jan 02 2006"))
	fmt.Fprintf(&b, "User Query: %q\n\n", query)
	b.WriteString("Retrieved Context:\n")
	b.WriteString(strings.Join(blocks, "\n\n---\n\n"))
	b.WriteString("\n\nInstructions:\n")
	b.WriteString("1. Link conversational intent to facts (e.g. \"cut cake\" is \"Birthday\").\n")
	b.WriteString("2. Calculate time differences based on Today's Date.\n")
	b.WriteString("3. Be direct and warm. Use ONLY the provided context.")
	return b.String()
}
