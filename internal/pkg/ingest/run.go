package ingest

import (
	"time"

	"github.com/google/uuid"
)

// Run is the cursor pair of one ingestion run. It is passed explicitly to the
// controller and persisted between steps by a RunStore.
type Run struct {
	ID        string    `json:"id"`
	Bills     Cursor    `json:"bills"`
	Customers Cursor    `json:"customers"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRun returns a run with a fresh ID and both streams unset.
func NewRun() *Run {
	return &Run{ID: uuid.NewString()}
}

// Done reports whether both streams are exhausted.
func (r *Run) Done() bool {
	return r.Bills.Exhausted() && r.Customers.Exhausted()
}
