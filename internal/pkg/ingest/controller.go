package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/QBSync/app/models"
	"github.com/ManuelReschke/QBSync/internal/pkg/quickbooks"
)

// PageFetcher fetches one page of raw records. *quickbooks.QueryClient implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, entity quickbooks.Entity, startPosition, maxResults int, accessToken string) ([]json.RawMessage, error)
}

// TokenSource yields a valid access token or quickbooks.ErrNotAuthenticated.
type TokenSource interface {
	Token(ctx context.Context) (*quickbooks.TokenSet, error)
}

// BatchWriter persists one page atomically and returns the number of records written.
type BatchWriter interface {
	WriteBatch(ctx context.Context, entity quickbooks.Entity, records []json.RawMessage) (int, error)
}

// SettingsSource provides the per-entity batch sizes.
type SettingsSource interface {
	Get() (*models.FetchSettings, error)
}

// Archiver keeps a copy of every fetched page. Failures are logged, not fatal.
type Archiver interface {
	ArchivePage(ctx context.Context, runID string, entity quickbooks.Entity, startPosition int, records []json.RawMessage) error
}

// Metrics records ingestion totals. Failures are logged, not fatal.
type Metrics interface {
	RecordPage(ctx context.Context, entity quickbooks.Entity, records int) error
	RecordFailure(ctx context.Context, entity quickbooks.Entity) error
}

const DefaultFetchTimeout = 30 * time.Second

// Options wires a Controller. Archiver, Metrics and Store are optional.
type Options struct {
	Fetcher      PageFetcher
	Tokens       TokenSource
	Writer       BatchWriter
	Settings     SettingsSource
	Archiver     Archiver
	Metrics      Metrics
	Store        RunStore
	FetchTimeout time.Duration
}

// Controller advances runs one page per stream at a time.
type Controller struct {
	fetcher      PageFetcher
	tokens       TokenSource
	writer       BatchWriter
	settings     SettingsSource
	archiver     Archiver
	metrics      Metrics
	store        RunStore
	fetchTimeout time.Duration
	now          func() time.Time
}

func NewController(opts Options) *Controller {
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Controller{
		fetcher:      opts.Fetcher,
		tokens:       opts.Tokens,
		writer:       opts.Writer,
		settings:     opts.Settings,
		archiver:     opts.Archiver,
		metrics:      opts.Metrics,
		store:        opts.Store,
		fetchTimeout: timeout,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// StreamResult describes what one stream did during a step.
type StreamResult struct {
	Entity        quickbooks.Entity `json:"entity"`
	Fetched       bool              `json:"fetched"`
	TimedOut      bool              `json:"timed_out,omitempty"`
	StartPosition int               `json:"start_position"`
	Records       int               `json:"records"`
	Written       int               `json:"written"`
	Cursor        Cursor            `json:"cursor"`
}

// StepResult describes one step of a run.
type StepResult struct {
	Bills     StreamResult `json:"bills"`
	Customers StreamResult `json:"customers"`
	Done      bool         `json:"done"`
}

// StartRun prepares run for stepping. Unless both streams are mid-flight,
// both are reset to position 1 and StartRun returns true. A run with two
// pending streams is resumed untouched and StartRun returns false.
func (c *Controller) StartRun(run *Run) bool {
	if run.Bills.Pending() && run.Customers.Pending() {
		return false
	}
	now := c.now()
	run.Bills = 1
	run.Customers = 1
	run.StartedAt = now
	run.UpdatedAt = now
	return true
}

// Step fetches and writes at most one page per pending stream, bills first.
// Exhausted streams are not fetched. The first error ends the step; a stream
// whose fetch or write failed keeps its cursor, so the same page is retried.
func (c *Controller) Step(ctx context.Context, run *Run) (StepResult, error) {
	res := StepResult{
		Bills:     StreamResult{Entity: quickbooks.EntityBill, Cursor: run.Bills},
		Customers: StreamResult{Entity: quickbooks.EntityCustomer, Cursor: run.Customers},
	}
	if run.Done() {
		res.Done = true
		return res, nil
	}

	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return res, err
	}
	settings, err := c.settings.Get()
	if err != nil {
		return res, fmt.Errorf("load fetch settings: %w", err)
	}

	streams := []struct {
		cursor    *Cursor
		batchSize int
		out       *StreamResult
	}{
		{&run.Bills, settings.BillsFetchCount, &res.Bills},
		{&run.Customers, settings.CustomersFetchCount, &res.Customers},
	}
	for _, s := range streams {
		if !s.cursor.Pending() {
			continue
		}
		out, err := c.advance(ctx, run.ID, s.out.Entity, s.cursor, s.batchSize, tok.AccessToken)
		*s.out = out
		if err != nil {
			run.UpdatedAt = c.now()
			return res, err
		}
	}

	run.UpdatedAt = c.now()
	res.Done = run.Done()
	return res, nil
}

// StepStream advances a single stream by one page. It backs the
// single-entity continuation routes, whose cursor lives in the URL.
func (c *Controller) StepStream(ctx context.Context, runID string, entity quickbooks.Entity, cursor *Cursor, batchSize int) (StreamResult, error) {
	out := StreamResult{Entity: entity, Cursor: *cursor}
	if !cursor.Pending() {
		return out, nil
	}
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return out, err
	}
	return c.advance(ctx, runID, entity, cursor, batchSize, tok.AccessToken)
}

func (c *Controller) advance(ctx context.Context, runID string, entity quickbooks.Entity, cursor *Cursor, batchSize int, accessToken string) (StreamResult, error) {
	pos := cursor.Position()
	out := StreamResult{Entity: entity, StartPosition: pos, Cursor: *cursor}

	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	records, err := c.fetcher.FetchPage(fetchCtx, entity, pos, batchSize, accessToken)
	cancel()
	out.Fetched = true
	if err != nil {
		if quickbooks.IsTimeout(err) {
			out.TimedOut = true
			log.Warnf("[Ingest] Fetching %s at %d timed out after %s", entity, pos, c.fetchTimeout)
		} else {
			log.Errorf("[Ingest] Fetching %s at %d failed: %v", entity, pos, err)
		}
		c.recordFailure(ctx, entity)
		return out, err
	}

	out.Records = len(records)
	if len(records) == 0 {
		*cursor = CursorExhausted
		out.Cursor = *cursor
		log.Infof("[Ingest] %s stream exhausted at position %d", entity, pos)
		return out, nil
	}

	if c.archiver != nil {
		if err := c.archiver.ArchivePage(ctx, runID, entity, pos, records); err != nil {
			log.Warnf("[Ingest] Archiving %s page at %d failed: %v", entity, pos, err)
		}
	}

	written, err := c.writer.WriteBatch(ctx, entity, records)
	if err != nil {
		log.Errorf("[Ingest] Writing %s batch at %d failed: %v", entity, pos, err)
		c.recordFailure(ctx, entity)
		return out, &PersistenceError{Entity: entity, StartPosition: pos, Err: err}
	}

	if c.metrics != nil {
		if err := c.metrics.RecordPage(ctx, entity, written); err != nil {
			log.Warnf("[Ingest] Recording %s page metrics failed: %v", entity, err)
		}
	}

	*cursor = Cursor(pos + len(records))
	out.Written = written
	out.Cursor = *cursor
	log.Infof("[Ingest] %s: %d records at %d, next %s", entity, len(records), pos, cursor)
	return out, nil
}

func (c *Controller) recordFailure(ctx context.Context, entity quickbooks.Entity) {
	if c.metrics == nil {
		return
	}
	if err := c.metrics.RecordFailure(ctx, entity); err != nil {
		log.Warnf("[Ingest] Recording %s failure failed: %v", entity, err)
	}
}

// RunToCompletion steps run until both streams are exhausted, saving it to
// the run store after every step. It stops at the first error or when ctx
// is cancelled between steps. A run with a pending stream is resumed from its
// cursors; a new or finished run is started over.
func (c *Controller) RunToCompletion(ctx context.Context, run *Run) (int, error) {
	if !run.Bills.Pending() && !run.Customers.Pending() {
		c.StartRun(run)
	}
	steps := 0
	for !run.Done() {
		if err := ctx.Err(); err != nil {
			return steps, err
		}
		_, err := c.Step(ctx, run)
		steps++
		if saveErr := c.save(ctx, run); saveErr != nil {
			return steps, errors.Join(err, saveErr)
		}
		if err != nil {
			return steps, err
		}
	}
	return steps, nil
}

func (c *Controller) save(ctx context.Context, run *Run) error {
	if c.store == nil {
		return nil
	}
	return c.store.Save(ctx, run)
}
