package ingest

import (
	"context"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/QBSync/app/repository"
	"github.com/ManuelReschke/QBSync/internal/pkg/archive"
	"github.com/ManuelReschke/QBSync/internal/pkg/quickbooks"
	"github.com/ManuelReschke/QBSync/internal/pkg/tokenstore"
)

// NewHeadlessController wires a Controller for runs without a browser: the
// token set of cfg.RealmID is read from and refreshed into the database.
func NewHeadlessController(repos *repository.Repositories, cfg quickbooks.Config, runs RunStore, archiver Archiver, metrics Metrics) *Controller {
	return NewController(Options{
		Fetcher: quickbooks.NewQueryClient(cfg),
		Tokens: quickbooks.TokenSource{
			Client: quickbooks.NewOAuthClient(cfg),
			Store:  tokenstore.NewDatabase(repos.Token, cfg.RealmID),
		},
		Writer:       NewBatchWriter(repos),
		Settings:     repos.FetchSettings,
		Archiver:     archiver,
		Metrics:      metrics,
		Store:        runs,
		FetchTimeout: cfg.HTTPTimeout,
	})
}

// NewArchiverFromEnv returns the raw page archiver, or nil when archiving is
// disabled or the bucket is unreachable.
func NewArchiverFromEnv(ctx context.Context) Archiver {
	cfg, err := archive.LoadConfig()
	if err != nil {
		log.Errorf("[Archive] Invalid configuration: %v", err)
		return nil
	}
	if !cfg.Enabled {
		return nil
	}
	client, err := archive.NewClient(ctx, cfg)
	if err != nil {
		log.Errorf("[Archive] Disabled: %v", err)
		return nil
	}
	return client
}
