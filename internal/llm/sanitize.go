package llm

import (
	"fmt"
	"log/slog"
	"strings"
)

// rawEnvelope mirrors Extraction but keeps attribute values untyped, since
// models sometimes emit numbers or null where we asked for strings.
type rawEnvelope struct {
	Drugs []rawDrug `json:"drugs"`
}

type rawDrug struct {
	DrugName   string         `json:"drug_name"`
	Attributes []rawAttribute `json:"attributes"`
}

type rawAttribute struct {
	Name  string `json:"attribute_name"`
	Value any    `json:"attribute_value"`
}

// NormalizedDrug is one drug with its complete, vocabulary-shaped attribute set.
type NormalizedDrug struct {
	Name       string
	Attributes *AttributeSet
}

// NormalizeExtraction enforces the attribute vocabulary on a parsed envelope:
// drugs without a name are skipped, unknown attribute names are dropped with a
// warning, values are trimmed of whitespace and surrounding quotes, and every
// missing or empty known attribute ends up at the sentinel.
func NormalizeExtraction(env rawEnvelope, logger *slog.Logger) []NormalizedDrug {
	if logger == nil {
		logger = slog.Default()
	}

	out := make([]NormalizedDrug, 0, len(env.Drugs))
	for i, drug := range env.Drugs {
		name := trimValue(drug.DrugName)
		if name == "" {
			logger.Warn("llm.normalize.unnamed_drug_skipped", "index", i)
			continue
		}

		set := NewAttributeSet()
		for _, attr := range drug.Attributes {
			attrName := strings.TrimSpace(attr.Name)
			value := trimValue(coerceValue(attr.Value))
			if !set.Set(attrName, value) {
				logger.Warn("llm.normalize.unknown_attribute_dropped",
					"drug", name, "attribute", attrName)
			}
		}
		out = append(out, NormalizedDrug{Name: name, Attributes: set})
	}
	return out
}

// coerceValue flattens null and numeric attribute values to strings.
func coerceValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.4f", t), "0"), ".")
	case bool:
		return fmt.Sprintf("%t", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// trimValue strips surrounding whitespace and stray quote characters.
func trimValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}
