package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/ManuelReschke/QBSync/app/repository"
	"github.com/ManuelReschke/QBSync/internal/pkg/ingest"
	"github.com/ManuelReschke/QBSync/internal/pkg/quickbooks"
	sessionkeys "github.com/ManuelReschke/QBSync/internal/pkg/session"
	"github.com/ManuelReschke/QBSync/internal/pkg/tokenstore"
)

const requestTimeout = 10 * time.Second

// IngestMetrics is the ingestion counter sink the status and reset routes read and clear.
type IngestMetrics interface {
	ingest.Metrics
	Snapshot(ctx context.Context) (map[string]int64, error)
	Reset(ctx context.Context) error
}

// SyncDependencies wires a SyncController. Archiver, Metrics and CacheHealth are optional.
type SyncDependencies struct {
	Repos        *repository.Repositories
	OAuth        *quickbooks.OAuthClient
	Fetcher      ingest.PageFetcher
	Runs         ingest.RunStore
	Archiver     ingest.Archiver
	Metrics      IngestMetrics
	CacheHealth  func(ctx context.Context) error
	Sessions     *session.Store
	RealmID      string
	FetchTimeout time.Duration
}

// SyncController serves the browser-driven OAuth and ingestion routes.
type SyncController struct {
	repos        *repository.Repositories
	oauth        *quickbooks.OAuthClient
	fetcher      ingest.PageFetcher
	runs         ingest.RunStore
	archiver     ingest.Archiver
	metrics      IngestMetrics
	cacheHealth  func(ctx context.Context) error
	sessions     *session.Store
	realmID      string
	fetchTimeout time.Duration
}

// NewSyncController creates a new sync controller
func NewSyncController(deps SyncDependencies) *SyncController {
	return &SyncController{
		repos:        deps.Repos,
		oauth:        deps.OAuth,
		fetcher:      deps.Fetcher,
		runs:         deps.Runs,
		archiver:     deps.Archiver,
		metrics:      deps.Metrics,
		cacheHealth:  deps.CacheHealth,
		sessions:     deps.Sessions,
		realmID:      deps.RealmID,
		fetchTimeout: deps.FetchTimeout,
	}
}

// TokenStore returns the token store for the current request: the browser
// session first, then the realm's stored token when a realm is configured.
func (sc *SyncController) TokenStore(c *fiber.Ctx) quickbooks.TokenStore {
	chain := tokenstore.Chain{tokenstore.NewSession(sc.sessions, c)}
	if sc.realmID != "" {
		chain = append(chain, tokenstore.NewDatabase(sc.repos.Token, sc.realmID))
	}
	return chain
}

// ingestController builds the per-request ingestion controller. Tokens
// refreshed during the request are written back to the session.
func (sc *SyncController) ingestController(c *fiber.Ctx) *ingest.Controller {
	return ingest.NewController(ingest.Options{
		Fetcher:      sc.fetcher,
		Tokens:       quickbooks.TokenSource{Client: sc.oauth, Store: sc.TokenStore(c)},
		Writer:       ingest.NewBatchWriter(sc.repos),
		Settings:     sc.repos.FetchSettings,
		Archiver:     sc.archiver,
		Metrics:      sc.metrics,
		Store:        sc.runs,
		FetchTimeout: sc.fetchTimeout,
	})
}

func (sc *SyncController) isAuthenticated(c *fiber.Ctx) bool {
	tok, err := sc.TokenStore(c).Get(c.UserContext())
	if err != nil {
		log.Warnf("[Sync] Reading token failed: %v", err)
		return false
	}
	return tok != nil
}

// currentRun loads the run referenced by the session, or nil when there is none.
func (sc *SyncController) currentRun(ctx context.Context, c *fiber.Ctx) (*ingest.Run, error) {
	sess, err := sc.sessions.Get(c)
	if err != nil {
		return nil, err
	}
	id, _ := sess.Get(sessionkeys.KeyRunID).(string)
	if id == "" {
		return nil, nil
	}
	return sc.runs.Load(ctx, id)
}

func (sc *SyncController) rememberRun(c *fiber.Ctx, run *ingest.Run) error {
	sess, err := sc.sessions.Get(c)
	if err != nil {
		return err
	}
	sess.Set(sessionkeys.KeyRunID, run.ID)
	return sess.Save()
}

func (sc *SyncController) forgetRun(ctx context.Context, c *fiber.Ctx) error {
	sess, err := sc.sessions.Get(c)
	if err != nil {
		return err
	}
	if id, _ := sess.Get(sessionkeys.KeyRunID).(string); id != "" {
		if err := sc.runs.Delete(ctx, id); err != nil {
			return err
		}
	}
	sess.Delete(sessionkeys.KeyRunID)
	return sess.Save()
}
