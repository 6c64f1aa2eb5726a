package llm

import (
	_ "embed"
	"encoding/json"
	"strings"
)

// PromptVersion identifies the embedded template set.
const PromptVersion = "v1"

var (
	//go:embed prompts/summary_v1.txt
	summaryTemplate string
	//go:embed prompts/extraction_v1.txt
	extractionTemplate string
	//go:embed prompts/schema_v1.json
	schemaSkeleton string
)

// BuildSummaryPrompt renders the recruiter summary prompt for text.
func BuildSummaryPrompt(text string) string {
	return strings.NewReplacer("{{RESUME_TEXT}}", text).Replace(summaryTemplate)
}

// BuildExtractionPrompt renders the structured extraction prompt, schema skeleton included.
func BuildExtractionPrompt(text string) string {
	return strings.NewReplacer(
		"{{SCHEMA}}", strings.TrimSpace(schemaSkeleton),
		"{{RESUME_TEXT}}", text,
	).Replace(extractionTemplate)
}

// SchemaSkeleton returns a fresh decoded copy of the extraction schema.
func SchemaSkeleton() map[string]any {
	var out map[string]any
	if err := json.Unmarshal([]byte(schemaSkeleton), &out); err != nil {
		panic("llm: embedded schema is not valid JSON: " + err.Error())
	}
	return out
}
