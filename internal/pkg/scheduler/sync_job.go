package scheduler

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/QBSync/internal/pkg/ingest"
)

// RunDriver is the part of ingest.Controller the sync job needs.
type RunDriver interface {
	RunToCompletion(ctx context.Context, run *ingest.Run) (int, error)
}

// NewSyncJob returns a job that drives ingestion runs to completion. A run
// that failed part way is resumed by the next invocation.
func NewSyncJob(driver RunDriver) Job {
	var (
		mu  sync.Mutex
		run *ingest.Run
	)
	return func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()

		if run == nil || run.Done() {
			run = ingest.NewRun()
			log.Infof("[Scheduler] Starting sync run %s", run.ID)
		} else {
			log.Infof("[Scheduler] Resuming sync run %s (bills %s, customers %s)", run.ID, run.Bills, run.Customers)
		}

		steps, err := driver.RunToCompletion(ctx, run)
		if err != nil {
			return err
		}
		log.Infof("[Scheduler] Sync run %s finished after %d steps", run.ID, steps)
		return nil
	}
}
