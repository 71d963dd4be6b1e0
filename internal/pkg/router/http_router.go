package router

import (
	"github.com/ManuelReschke/QBSync/app/controllers"
	"github.com/ManuelReschke/QBSync/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Initialize sync controller with repositories, run store and QuickBooks clients
	controllers.InitializeSyncController()

	h.registerRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
