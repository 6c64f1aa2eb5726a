package resumes

import (
	"encoding/json"
	"fmt"
	"strings"

	"resume-processor/internal/harvest"
	"resume-processor/internal/llm"
)

// contactFill lists the contact fields that may be filled from harvested links.
var contactFill = []struct {
	field    string
	category harvest.Category
}{
	{"github", harvest.CategoryGitHub},
	{"linkedin", harvest.CategoryLinkedIn},
	{"portfolio", harvest.CategoryPortfolio},
}

// Reconcile turns raw model output into a structured record: fences are
// stripped, every schema key is guaranteed present, empty contact links are
// filled from urls and urls.ByCategory is attached as extractedUrls.
func Reconcile(raw string, urls harvest.Result) (map[string]any, error) {
	cleaned := stripFences(raw)

	var parsed any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModelJSON, err)
	}
	record, ok := parsed.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON object, got %s", ErrInvalidModelJSON, jsonKind(parsed))
	}

	fillDefaults(record, llm.SchemaSkeleton())
	enrichContact(record, urls)
	record["extractedUrls"] = urls.ByCategory
	return record, nil
}

func stripFences(raw string) string {
	clean := strings.TrimSpace(raw)
	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimSuffix(strings.TrimSpace(clean), "```")
	return strings.TrimSpace(clean)
}

// fillDefaults sets missing or null keys to the empty form of the skeleton
// value and recurses into objects. Array elements that are objects are filled
// from the skeleton's example element. Present values are never replaced.
func fillDefaults(dst, skeleton map[string]any) {
	for key, def := range skeleton {
		val, ok := dst[key]
		if !ok || val == nil {
			dst[key] = emptyOf(def)
			continue
		}
		switch d := def.(type) {
		case map[string]any:
			if obj, ok := val.(map[string]any); ok {
				fillDefaults(obj, d)
			}
		case []any:
			elem, ok := exampleElement(d)
			if !ok {
				continue
			}
			items, ok := val.([]any)
			if !ok {
				continue
			}
			for _, item := range items {
				if obj, ok := item.(map[string]any); ok {
					fillDefaults(obj, elem)
				}
			}
		}
	}
}

func exampleElement(arr []any) (map[string]any, bool) {
	if len(arr) == 0 {
		return nil, false
	}
	elem, ok := arr[0].(map[string]any)
	return elem, ok
}

// emptyOf returns a fresh empty-typed copy of a skeleton value. Arrays are always empty.
func emptyOf(def any) any {
	switch d := def.(type) {
	case map[string]any:
		out := make(map[string]any, len(d))
		for k, v := range d {
			out[k] = emptyOf(v)
		}
		return out
	case []any:
		return []any{}
	default:
		return d
	}
}

func enrichContact(record map[string]any, urls harvest.Result) {
	info, ok := record["personalInfo"].(map[string]any)
	if !ok {
		return
	}
	contact, ok := info["contact"].(map[string]any)
	if !ok {
		return
	}
	for _, f := range contactFill {
		if !isEmpty(contact[f.field]) {
			continue
		}
		if link := urls.First(f.category); link != "" {
			contact[f.field] = link
		}
	}
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case bool:
		return !t
	case float64:
		return t == 0
	default:
		return false
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
