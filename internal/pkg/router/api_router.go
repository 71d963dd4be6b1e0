package router

import (
	"github.com/ManuelReschke/QBSync/app/controllers"
	"github.com/ManuelReschke/QBSync/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	h.registerV1(api.Group("/v1"))
}

func (h ApiRouter) registerV1(v1 fiber.Router) {
	v1.Get("/status", controllers.HandleStatus)
	v1.Get("/settings", controllers.HandleSettings)
	v1.Put("/settings", middleware.RequireQBOAuthAPI(controllers.SyncTokenStore), controllers.HandleSettingsUpdate)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
