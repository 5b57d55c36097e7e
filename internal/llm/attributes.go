package llm

import (
	"github.com/oncopipe/drug-detective/constants"
)

// AttributeSet is the fixed-shape record for one drug: exactly one value per
// known attribute name, never more, never fewer. Missing attributes hold the
// "unknown" sentinel so downstream rows always have a uniform shape.
type AttributeSet struct {
	values map[string]string
}

// NewAttributeSet returns a set with every known attribute at the sentinel.
func NewAttributeSet() *AttributeSet {
	values := make(map[string]string)
	for _, name := range constants.AllAttributes() {
		values[name] = constants.UnknownValue
	}
	return &AttributeSet{values: values}
}

// Set stores value under a known attribute name. Empty values keep the
// sentinel. Returns false for names outside the vocabulary.
func (s *AttributeSet) Set(name, value string) bool {
	if !constants.IsKnownAttribute(name) {
		return false
	}
	if value == "" {
		return true
	}
	s.values[name] = value
	return true
}

// Get returns the value for a known attribute name, or "" for unknown names.
func (s *AttributeSet) Get(name string) string {
	return s.values[name]
}

// Pairs returns all attributes in vocabulary order.
func (s *AttributeSet) Pairs() []DrugAttribute {
	names := constants.AllAttributes()
	out := make([]DrugAttribute, 0, len(names))
	for _, name := range names {
		out = append(out, DrugAttribute{Name: name, Value: s.values[name]})
	}
	return out
}
