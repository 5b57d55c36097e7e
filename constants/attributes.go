package constants

import "strings"

// AttributeCategory groups the known drug attributes the LLM is asked to extract.
type AttributeCategory string

const (
	General  AttributeCategory = "General"
	Efficacy AttributeCategory = "Efficacy"
	Safety   AttributeCategory = "Safety"
	Timeline AttributeCategory = "Timelines"
)

// UnknownValue is the sentinel stored for attributes the model did not report.
var UnknownValue = "unknown"

// AttributesByCategory is the fixed vocabulary. The prompt builder and the
// response normalizer both read from this map so they can never drift apart.
var AttributesByCategory = map[AttributeCategory][]string{
	General: {
		"Cancer Type",
		"Generic Name",
		"Combined With",
		"Mechanism of Action",
		"Line of Treatment",
		"Trial Name",
		"Development Stage US",
	},
	Efficacy: {
		"Primary Endpoint",
		"Objective Response Rate (ORR)",
		"Progression-Free Survival (PFS)",
		"Hazard Ratio (HR) PFS",
		"Complete Response (CR)",
		"Difference in PFS",
		"Duration of Response (DOR) Rate",
	},
	Safety: {
		"Incidence of Treatment-Emergent Adverse Events Leading to Death",
		"Thrombocytopenia",
		"Neutropenia",
		"Diarrhea",
		"Constipation",
		"Cough",
		"Pyrexia",
	},
	Timeline: {
		"First Results Announced",
		"Study Start Date",
		"Study Completion Date",
		"US Filing Date",
		"EU Filing Date",
		"China Filing Date",
		"US Approval Date",
	},
}

// categoryOrder keeps prompt output stable across runs.
var categoryOrder = []AttributeCategory{General, Efficacy, Safety, Timeline}

// Categories returns the attribute categories in prompt order.
func Categories() []AttributeCategory {
	out := make([]AttributeCategory, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// AllAttributes returns every known attribute name, category by category.
func AllAttributes() []string {
	var out []string
	for _, cat := range categoryOrder {
		out = append(out, AttributesByCategory[cat]...)
	}
	return out
}

var knownAttributes = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, names := range AttributesByCategory {
		for _, n := range names {
			m[n] = struct{}{}
		}
	}
	return m
}()

// IsKnownAttribute reports whether name belongs to the fixed vocabulary.
// Matching is exact after trimming surrounding whitespace.
func IsKnownAttribute(name string) bool {
	_, ok := knownAttributes[strings.TrimSpace(name)]
	return ok
}

// CategoryOf returns the category a known attribute belongs to.
func CategoryOf(name string) (AttributeCategory, bool) {
	name = strings.TrimSpace(name)
	for _, cat := range categoryOrder {
		for _, n := range AttributesByCategory[cat] {
			if n == name {
				return cat, true
			}
		}
	}
	return "", false
}
