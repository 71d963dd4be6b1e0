package router

import (
	"strings"
	"time"

	"github.com/ManuelReschke/QBSync/app/controllers"
	"github.com/ManuelReschke/QBSync/internal/pkg/env"
	"github.com/ManuelReschke/QBSync/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
)

func (h HttpRouter) registerRoutes(app *fiber.App) {
	// OAuth
	app.Get("/login", controllers.HandleLogin)
	app.Get("/callback", controllers.HandleCallback)

	// Ingestion workers; without a token the browser is sent to /login and
	// comes back to the same route after the callback
	requireFetchAll := middleware.RequireQBOAuth(controllers.SyncTokenStore, controllers.FetchAllContinuation)
	app.Get("/fetch-all", requireFetchAll, controllers.HandleFetchAll)
	app.Get("/fetch-all-worker", requireFetchAll, controllers.HandleFetchAllWorker)
	app.Get("/fetch-bills-worker", middleware.RequireQBOAuth(controllers.SyncTokenStore, controllers.BillsContinuation), controllers.HandleFetchBillsWorker)
	app.Get("/fetch-customers-worker", middleware.RequireQBOAuth(controllers.SyncTokenStore, controllers.CustomersContinuation), controllers.HandleFetchCustomersWorker)

	h.registerCSRFProtectedRoutes(app)
}

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Get("/", controllers.HandleHome)
	group.Get("/settings", controllers.HandleSettings)
	group.Post("/settings", controllers.HandleSettingsUpdate)
	group.Post("/reset", controllers.HandleReset)
}
