package ingest

import (
	"fmt"

	"github.com/ManuelReschke/QBSync/internal/pkg/quickbooks"
)

// PersistenceError reports a batch that could not be written. The batch's
// transaction has been rolled back.
type PersistenceError struct {
	Entity        quickbooks.Entity
	StartPosition int
	Err           error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist %s batch at position %d: %v", e.Entity, e.StartPosition, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
