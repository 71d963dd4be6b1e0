package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/QBSync/app/repository"
	"github.com/ManuelReschke/QBSync/internal/pkg/cache"
	"github.com/ManuelReschke/QBSync/internal/pkg/database"
	"github.com/ManuelReschke/QBSync/internal/pkg/env"
	"github.com/ManuelReschke/QBSync/internal/pkg/ingest"
	"github.com/ManuelReschke/QBSync/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/QBSync/internal/pkg/quickbooks"
)

// sync ingests all bills and customers of QBO_REALM_ID without a browser.
// The realm's token must have been stored by a previous web login.
// Passing a run ID resumes that run from its saved cursors.
func main() {
	env.SetupEnvFile()

	cfg := quickbooks.NewConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[Sync] Invalid QuickBooks configuration: %v", err)
	}

	database.SetupDatabase()
	repository.InitializeFactory(database.GetDB())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runs ingest.RunStore = ingest.NewMemoryRunStore()
	var metrics ingest.Metrics
	if env.GetEnv("RUN_STORE", "redis") == "redis" {
		runs = ingest.NewRedisRunStore(cache.GetClient(), ingest.DefaultRunTTL)
		metrics = counter.New(cache.GetClient())
	}

	run := ingest.NewRun()
	if len(os.Args) > 1 {
		loaded, err := runs.Load(ctx, os.Args[1])
		if err != nil {
			log.Fatalf("[Sync] Loading run %s failed: %v", os.Args[1], err)
		}
		if loaded == nil {
			log.Fatalf("[Sync] Run %s not found", os.Args[1])
		}
		run = loaded
	}

	ctrl := ingest.NewHeadlessController(repository.GetGlobalRepositories(), cfg, runs, ingest.NewArchiverFromEnv(ctx), metrics)
	log.Infof("[Sync] Run %s for realm %s", run.ID, cfg.RealmID)

	steps, err := ctrl.RunToCompletion(ctx, run)
	if err != nil {
		log.Errorf("[Sync] Run %s stopped after %d steps: %v", run.ID, steps, err)
		fmt.Fprintf(os.Stderr, "resume with: sync %s\n", run.ID)
		os.Exit(1)
	}
	log.Infof("[Sync] Run %s finished after %d steps", run.ID, steps)
}
