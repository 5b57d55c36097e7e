package llm

// BuildExtractionJSONSchema returns a JSON-Schema (draft 2020-12 subset) for the
// response envelope, as a generic map. We use it locally to reject responses
// whose shape is beyond repair before any row is written.
//
// The schema checks structure only; the attribute vocabulary is enforced by
// NormalizeExtraction, which drops unknown names instead of failing the file.
func BuildExtractionJSONSchema() map[string]any {
	attribute := map[string]any{
		"type":     "object",
		"required": []string{"attribute_name"},
		"properties": map[string]any{
			"attribute_name": map[string]any{"type": "string", "minLength": 1},
			// Models occasionally emit numbers or null for values; the
			// normalizer coerces them, so the schema stays permissive here.
			"attribute_value": map[string]any{"type": []string{"string", "number", "null"}},
		},
	}

	drug := map[string]any{
		"type":     "object",
		"required": []string{"drug_name"},
		"properties": map[string]any{
			"drug_name": map[string]any{"type": "string"},
			"attributes": map[string]any{
				"type":  "array",
				"items": attribute,
			},
		},
	}

	return map[string]any{
		"type":     "object",
		"required": []string{"drugs"},
		"properties": map[string]any{
			"drugs": map[string]any{
				"type":  "array",
				"items": drug,
			},
		},
	}
}
