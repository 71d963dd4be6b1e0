package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/QBSync/app/repository"
	"github.com/ManuelReschke/QBSync/internal/pkg/cache"
	"github.com/ManuelReschke/QBSync/internal/pkg/env"
	"github.com/ManuelReschke/QBSync/internal/pkg/ingest"
	"github.com/ManuelReschke/QBSync/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/QBSync/internal/pkg/quickbooks"
	"github.com/ManuelReschke/QBSync/internal/pkg/session"
)

// Global sync controller instance
var syncController *SyncController

// InitializeSyncController initializes the global sync controller from the
// environment, the global repositories and the session store.
func InitializeSyncController() {
	cfg := quickbooks.NewConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Warnf("[Sync] QuickBooks configuration incomplete: %v", err)
	}

	var runs ingest.RunStore
	var metrics IngestMetrics
	var cacheHealth func(ctx context.Context) error
	if client := cache.GetClient(); client != nil && env.GetEnv("RUN_STORE", "redis") == "redis" {
		runs = ingest.NewRedisRunStore(client, time.Duration(env.GetEnvInt("RUN_TTL_HOURS", 24))*time.Hour)
		metrics = counter.New(client)
		cacheHealth = cache.Ping
	} else {
		log.Info("[Sync] Keeping run state in memory")
		runs = ingest.NewMemoryRunStore()
	}

	syncController = NewSyncController(SyncDependencies{
		Repos:        repository.GetGlobalRepositories(),
		OAuth:        quickbooks.NewOAuthClient(cfg),
		Fetcher:      quickbooks.NewQueryClient(cfg),
		Runs:         runs,
		Archiver:     ingest.NewArchiverFromEnv(context.Background()),
		Metrics:      metrics,
		CacheHealth:  cacheHealth,
		Sessions:     session.GetSessionStore(),
		RealmID:      cfg.RealmID,
		FetchTimeout: cfg.HTTPTimeout,
	})
}

// GetSyncController returns the global sync controller instance
func GetSyncController() *SyncController {
	if syncController == nil {
		InitializeSyncController()
	}
	return syncController
}

// Adapter functions to maintain compatibility with existing router

// HandleLogin - Adapter for the QuickBooks login redirect
func HandleLogin(c *fiber.Ctx) error {
	return GetSyncController().HandleLogin(c)
}

// HandleCallback - Adapter for the OAuth callback
func HandleCallback(c *fiber.Ctx) error {
	return GetSyncController().HandleCallback(c)
}

// HandleHome - Adapter for the listing page
func HandleHome(c *fiber.Ctx) error {
	return GetSyncController().HandleHome(c)
}

// HandleFetchAll - Adapter for run initiation
func HandleFetchAll(c *fiber.Ctx) error {
	return GetSyncController().HandleFetchAll(c)
}

// HandleFetchAllWorker - Adapter for one run step
func HandleFetchAllWorker(c *fiber.Ctx) error {
	return GetSyncController().HandleFetchAllWorker(c)
}

// HandleFetchBillsWorker - Adapter for the bills continuation
func HandleFetchBillsWorker(c *fiber.Ctx) error {
	return GetSyncController().HandleFetchBillsWorker(c)
}

// HandleFetchCustomersWorker - Adapter for the customers continuation
func HandleFetchCustomersWorker(c *fiber.Ctx) error {
	return GetSyncController().HandleFetchCustomersWorker(c)
}

// HandleSettings - Adapter for reading fetch settings
func HandleSettings(c *fiber.Ctx) error {
	return GetSyncController().HandleSettings(c)
}

// HandleSettingsUpdate - Adapter for updating fetch settings
func HandleSettingsUpdate(c *fiber.Ctx) error {
	return GetSyncController().HandleSettingsUpdate(c)
}

// HandleReset - Adapter for deleting ingested data
func HandleReset(c *fiber.Ctx) error {
	return GetSyncController().HandleReset(c)
}

// HandleStatus - Adapter for the JSON status endpoint
func HandleStatus(c *fiber.Ctx) error {
	return GetSyncController().HandleStatus(c)
}

// SyncTokenStore returns the request's token store for the auth middleware.
func SyncTokenStore(c *fiber.Ctx) quickbooks.TokenStore {
	return GetSyncController().TokenStore(c)
}

// FetchAllContinuation is the OAuth state that resumes /fetch-all-worker.
func FetchAllContinuation(*fiber.Ctx) string {
	return quickbooks.StateFetchAll
}

// BillsContinuation is the OAuth state that resumes /fetch-bills-worker.
func BillsContinuation(c *fiber.Ctx) string {
	return GetSyncController().StreamContinuation(c, quickbooks.StateBills)
}

// CustomersContinuation is the OAuth state that resumes /fetch-customers-worker.
func CustomersContinuation(c *fiber.Ctx) string {
	return GetSyncController().StreamContinuation(c, quickbooks.StateCustomers)
}
