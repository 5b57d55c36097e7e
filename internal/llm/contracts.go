package llm

import "context"

// DrugAttribute is one attribute_name/attribute_value pair as the model emits it.
type DrugAttribute struct {
	Name  string `json:"attribute_name"`
	Value string `json:"attribute_value"`
}

// DrugFields is one drug entry in the response envelope.
type DrugFields struct {
	DrugName   string          `json:"drug_name"`
	Attributes []DrugAttribute `json:"attributes"`
}

// Extraction is the envelope we instruct the model to return.
type Extraction struct {
	Drugs []DrugFields `json:"drugs"`
}

// ExtractRequest carries the abstract text and hints for one LLM call.
type ExtractRequest struct {
	AbstractText string
	FilenameHint string
}

// DrugExtractor is the LLM collaborator the pipeline depends on. It returns
// the raw response text; parsing and vocabulary enforcement happen in the
// Validator, not here.
type DrugExtractor interface {
	ExtractDrugs(ctx context.Context, req ExtractRequest) (string, error)
}
