package entity

import "time"

// Abstract is one scientific PDF's extracted text plus metadata. Rows are
// created once per input file and never mutated afterwards.
type Abstract struct {
	ID            int64
	Filename      string
	Text          string
	ProcessedDate time.Time
}
