package tokenstore

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/QBSync/app/repository"
	"github.com/ManuelReschke/QBSync/internal/pkg/database"
	"github.com/ManuelReschke/QBSync/internal/pkg/quickbooks"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	tok, err := m.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, tok)

	require.NoError(t, m.Set(ctx, quickbooks.TokenSet{AccessToken: "a"}))
	tok, err = m.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", tok.AccessToken)
}

func TestDatabase(t *testing.T) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	store := NewDatabase(repository.NewTokenRepository(db), "realm-1")
	ctx := context.Background()

	tok, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, tok)

	exp := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Set(ctx, quickbooks.TokenSet{AccessToken: "a", RefreshToken: "r", Expiry: exp}))

	tok, err = store.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, "a", tok.AccessToken)
	assert.Equal(t, "r", tok.RefreshToken)
	assert.True(t, exp.Equal(tok.Expiry))

	other, err := NewDatabase(repository.NewTokenRepository(db), "realm-2").Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, other)
}

type failingStore struct{}

func (failingStore) Get(context.Context) (*quickbooks.TokenSet, error) { return nil, nil }
func (failingStore) Set(context.Context, quickbooks.TokenSet) error { return errors.New("down") }

func TestChain(t *testing.T) {
	ctx := context.Background()
	first, second := NewMemory(), NewMemory()
	require.NoError(t, second.Set(ctx, quickbooks.TokenSet{AccessToken: "from-second"}))

	chain := Chain{first, second}
	tok, err := chain.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "from-second", tok.AccessToken)

	require.NoError(t, chain.Set(ctx, quickbooks.TokenSet{AccessToken: "new"}))
	tok, _ = first.Get(ctx)
	assert.Equal(t, "new", tok.AccessToken)

	err = Chain{first, failingStore{}}.Set(ctx, quickbooks.TokenSet{AccessToken: "x"})
	assert.Error(t, err)
	tok, _ = first.Get(ctx)
	assert.Equal(t, "x", tok.AccessToken)
}

func TestSessionRoundTrip(t *testing.T) {
	store := session.New()
	app := fiber.New()
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	app.Get("/set", func(c *fiber.Ctx) error {
		err := NewSession(store, c).Set(c.UserContext(), quickbooks.TokenSet{AccessToken: "a", RefreshToken: "r", Expiry: exp})
		if err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/get", func(c *fiber.Ctx) error {
		tok, err := NewSession(store, c).Get(c.UserContext())
		if err != nil {
			return err
		}
		if tok == nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.JSON(tok)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/get", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/set", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest("GET", "/get", nil)
	req.AddCookie(cookies[0])
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
