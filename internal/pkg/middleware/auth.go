package middleware

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/QBSync/internal/pkg/quickbooks"
)

// RequireQBOAuth ensures a QuickBooks token is available; otherwise it
// redirects to /login carrying continuation(c) as the OAuth state, so the
// callback resumes the interrupted route.
func RequireQBOAuth(tokens func(c *fiber.Ctx) quickbooks.TokenStore, continuation func(c *fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok, err := tokens(c).Get(c.UserContext())
		if err != nil {
			log.Warnf("[Auth] Reading token failed: %v", err)
		}
		if err != nil || tok == nil {
			return c.Redirect("/login?state=" + url.QueryEscape(continuation(c)))
		}
		return c.Next()
	}
}

// RequireQBOAuthAPI is RequireQBOAuth for JSON routes: it answers 401 instead of redirecting.
func RequireQBOAuthAPI(tokens func(c *fiber.Ctx) quickbooks.TokenStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok, err := tokens(c).Get(c.UserContext())
		if err != nil || tok == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "QuickBooks login required",
			})
		}
		return c.Next()
	}
}
