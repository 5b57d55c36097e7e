package entity

// Drug is one named therapeutic entity mentioned within an abstract.
type Drug struct {
	ID         int64
	Name       string
	AbstractID int64
}

// Attribute is one named field with a value, scoped to one drug.
type Attribute struct {
	ID     int64
	DrugID int64
	Name   string
	Value  string
}
