package llm

import (
	"strings"

	"github.com/oncopipe/drug-detective/constants"
)

// BuildSystemPrompt composes the fixed system message for drug extraction.
func BuildSystemPrompt() string {
	parts := []string{
		"You are a scientific assistant extracting drug information from abstracts.",
		"Return ONLY a JSON object, with no prose and no markdown fences.",
		"Report one entry per drug mentioned in the abstract.",
		"Only use attribute names from the provided list. Omit attributes the abstract does not state.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt embeds the abstract text and the attribute vocabulary,
// grouped by category, followed by the exact response envelope.
func BuildUserPrompt(text string) string {
	var b strings.Builder
	b.WriteString("The following abstract was extracted from a scientific article:\n\n")
	b.WriteString("Categories and attributes to extract:\n")
	for _, cat := range constants.Categories() {
		b.WriteString("• ")
		b.WriteString(string(cat))
		b.WriteString(": ")
		b.WriteString(strings.Join(constants.AttributesByCategory[cat], ", "))
		b.WriteString("\n")
	}

	b.WriteString("\nAbstract Text:\n")
	b.WriteString(text)

	b.WriteString(`

Respond ONLY with a JSON object in the following format:
{
     "drugs":[
          {
               "drug_name":"[Drug Name]",
               "attributes":[
                    {
                         "attribute_name":"[Attribute Name]",
                         "attribute_value":"[Value]"
                    }
               ]
          }
     ]
}
`)
	return b.String()
}
