package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/oncopipe/drug-detective/internal/common"
)

// Validator repairs and validates raw LLM output into normalized drugs.
// It never retries against the LLM; retry policy belongs to the caller.
type Validator struct {
	logger *slog.Logger
	schema map[string]any
}

func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{logger: logger, schema: BuildExtractionJSONSchema()}
}

// Validate parses/repairs raw into the response envelope, checks its shape
// against the JSON schema, and applies vocabulary normalization. Any failure
// is a parse error for the caller; a partially populated result is never
// returned without one.
func (v *Validator) Validate(raw string) ([]NormalizedDrug, error) {
	doc, err := RepairJSON(raw)
	if err != nil {
		return nil, err
	}

	if err := ValidateJSONAgainstSchema(v.schema, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrParse, err)
	}

	var env rawEnvelope
	if err := json.Unmarshal(doc, &env); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", common.ErrParse, err)
	}

	return NormalizeExtraction(env, v.logger), nil
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
