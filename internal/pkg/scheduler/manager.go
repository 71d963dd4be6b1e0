package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Manager runs a job on a fixed interval. A tick that arrives while the
// previous run is still busy is skipped.
type Manager struct {
	job      Job
	interval time.Duration
	ticker   *time.Ticker
	stopCh   chan struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	busy     sync.Mutex
}

// NewManager creates a manager for job.
func NewManager(job Job, interval time.Duration) *Manager {
	return &Manager{job: job, interval: interval}
}

// Start starts the background worker
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running = true

	m.ticker = time.NewTicker(m.interval)
	m.wg.Add(1)
	go m.worker(ctx, m.ticker, m.stopCh)

	log.Infof("[Scheduler] Started (interval: %s)", m.interval)
}

// Stop stops the worker and waits for an in-flight run to return
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[Scheduler] Stopping...")
	m.ticker.Stop()
	m.cancel()
	close(m.stopCh)
	m.stopCh = nil
	m.running = false

	m.wg.Wait()
	log.Info("[Scheduler] Stopped successfully")
}

// IsRunning returns whether the manager is running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) worker(ctx context.Context, ticker *time.Ticker, stopCh chan struct{}) {
	defer m.wg.Done()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if _, err := m.RunOnce(ctx); err != nil {
				log.Errorf("[Scheduler] Run failed: %v", err)
			}
		}
	}
}

// RunOnce runs the job now unless a run is already in progress, in which case
// it returns false without running.
func (m *Manager) RunOnce(ctx context.Context) (bool, error) {
	if !m.busy.TryLock() {
		log.Warn("[Scheduler] Previous run still in progress, skipping")
		return false, nil
	}
	defer m.busy.Unlock()
	return true, m.job(ctx)
}
