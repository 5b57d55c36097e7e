package entity

import "time"

// LedgerEntry records one filename's terminal processing status. A filename
// present with status "success" is never reprocessed.
type LedgerEntry struct {
	Filename  string
	Status    string
	UpdatedAt time.Time
}
