package controllers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/ManuelReschke/QBSync/internal/pkg/quickbooks"
)

// HandleLogin sends the browser to the QuickBooks consent page. The state
// query parameter is passed through verbatim and comes back on /callback.
func (sc *SyncController) HandleLogin(c *fiber.Ctx) error {
	state := strings.TrimSpace(c.Query("state"))
	if state == "" {
		state = quickbooks.StateAuthFlow
	}
	return c.Redirect(sc.oauth.AuthorizationURL(state), fiber.StatusSeeOther)
}

// HandleCallback completes the authorization and continues where the state says.
func (sc *SyncController) HandleCallback(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	if providerErr := c.Query("error"); providerErr != "" {
		log.Warnf("[Auth] Provider returned error %q: %s", providerErr, c.Query("error_description"))
	}

	target := sc.oauth.HandleCallback(ctx, c.Query("code"), c.Query("state"), sc.TokenStore(c))
	if target.Error != "" {
		return flash.WithError(c, fiber.Map{"type": "error", "message": target.Error}).Redirect(target.URL())
	}
	if target.Path == quickbooks.RouteHome {
		return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Connected to QuickBooks"}).Redirect(target.URL())
	}
	return c.Redirect(target.URL())
}
