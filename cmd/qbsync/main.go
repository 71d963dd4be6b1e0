package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/QBSync/app/repository"
	"github.com/ManuelReschke/QBSync/internal/pkg/cache"
	"github.com/ManuelReschke/QBSync/internal/pkg/database"
	"github.com/ManuelReschke/QBSync/internal/pkg/env"
	"github.com/ManuelReschke/QBSync/internal/pkg/ingest"
	"github.com/ManuelReschke/QBSync/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/QBSync/internal/pkg/quickbooks"
	"github.com/ManuelReschke/QBSync/internal/pkg/router"
	"github.com/ManuelReschke/QBSync/internal/pkg/scheduler"
)

func main() {
	app := NewApplication()

	// background sync, only when an interval is configured
	if manager := newSyncScheduler(); manager != nil {
		manager.Start()
		defer manager.Stop()
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	if err != nil {
		log.Fatal(err)
	}
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	repository.InitializeFactory(database.GetDB())
	cache.SetupCache()

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/qbsync to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public/docs/v1/openapi.yml"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName:   "QBSync",
		BodyLimit: 1 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}

// newSyncScheduler returns a manager that runs a full sync every
// SYNC_INTERVAL_MINUTES, or nil when the interval is unset.
func newSyncScheduler() *scheduler.Manager {
	minutes := env.GetEnvInt("SYNC_INTERVAL_MINUTES", 0)
	if minutes <= 0 {
		return nil
	}

	cfg := quickbooks.NewConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		fiberlog.Warnf("[Scheduler] Disabled, QuickBooks configuration invalid: %v", err)
		return nil
	}

	client := cache.GetClient()
	runs := ingest.NewRedisRunStore(client, ingest.DefaultRunTTL)
	ctrl := ingest.NewHeadlessController(repository.GetGlobalRepositories(), cfg, runs, ingest.NewArchiverFromEnv(context.Background()), counter.New(client))
	return scheduler.NewManager(scheduler.NewSyncJob(ctrl), time.Duration(minutes)*time.Minute)
}
