package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ManuelReschke/QBSync/app/repository"
	"github.com/ManuelReschke/QBSync/internal/pkg/quickbooks"
)

// GormBatchWriter maps each batch inside a single database transaction.
type GormBatchWriter struct {
	repos *repository.Repositories
	now   func() time.Time
}

func NewBatchWriter(repos *repository.Repositories) *GormBatchWriter {
	return &GormBatchWriter{repos: repos, now: func() time.Time { return time.Now().UTC() }}
}

// WriteBatch maps records of entity and commits them together. On error
// nothing from the batch is kept.
func (w *GormBatchWriter) WriteBatch(ctx context.Context, entity quickbooks.Entity, records []json.RawMessage) (int, error) {
	now := w.now()
	written := 0
	err := w.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		switch entity {
		case quickbooks.EntityBill:
			written, err = MapBills(tx, records, now)
		case quickbooks.EntityCustomer:
			written, err = MapCustomers(tx, records, now)
		default:
			err = fmt.Errorf("unsupported entity %q", entity)
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}
