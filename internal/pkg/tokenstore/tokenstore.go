// Package tokenstore provides the quickbooks.TokenStore implementations:
// in-memory, per-browser session, database row per realm, and a chain of them.
package tokenstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/ManuelReschke/QBSync/app/repository"
	"github.com/ManuelReschke/QBSync/internal/pkg/quickbooks"
	sessionkeys "github.com/ManuelReschke/QBSync/internal/pkg/session"
)

// Memory keeps one token set in process.
type Memory struct {
	mu  sync.RWMutex
	tok *quickbooks.TokenSet
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Get(context.Context) (*quickbooks.TokenSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tok == nil {
		return nil, nil
	}
	cp := *m.tok
	return &cp, nil
}

func (m *Memory) Set(_ context.Context, tok quickbooks.TokenSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = &tok
	return nil
}

// Session stores the token set in the browser's server-side session.
type Session struct {
	store *session.Store
	c     *fiber.Ctx
}

func NewSession(store *session.Store, c *fiber.Ctx) *Session {
	return &Session{store: store, c: c}
}

func (s *Session) Get(context.Context) (*quickbooks.TokenSet, error) {
	sess, err := s.store.Get(s.c)
	if err != nil {
		return nil, err
	}
	access, _ := sess.Get(sessionkeys.KeyAccessToken).(string)
	if access == "" {
		return nil, nil
	}
	refresh, _ := sess.Get(sessionkeys.KeyRefreshToken).(string)
	tok := &quickbooks.TokenSet{AccessToken: access, RefreshToken: refresh}
	if raw, _ := sess.Get(sessionkeys.KeyTokenExpiry).(string); raw != "" {
		if exp, err := time.Parse(time.RFC3339, raw); err == nil {
			tok.Expiry = exp
		}
	}
	return tok, nil
}

func (s *Session) Set(_ context.Context, tok quickbooks.TokenSet) error {
	sess, err := s.store.Get(s.c)
	if err != nil {
		return err
	}
	sess.Set(sessionkeys.KeyAccessToken, tok.AccessToken)
	sess.Set(sessionkeys.KeyRefreshToken, tok.RefreshToken)
	if tok.Expiry.IsZero() {
		sess.Delete(sessionkeys.KeyTokenExpiry)
	} else {
		sess.Set(sessionkeys.KeyTokenExpiry, tok.Expiry.UTC().Format(time.RFC3339))
	}
	return sess.Save()
}

// Database stores the token set of one realm in provider_tokens.
type Database struct {
	repo    repository.TokenRepository
	realmID string
}

func NewDatabase(repo repository.TokenRepository, realmID string) *Database {
	return &Database{repo: repo, realmID: realmID}
}

func (d *Database) Get(context.Context) (*quickbooks.TokenSet, error) {
	row, err := d.repo.GetByRealm(d.realmID)
	if err != nil || row == nil || row.AccessToken == "" {
		return nil, err
	}
	tok := &quickbooks.TokenSet{AccessToken: row.AccessToken, RefreshToken: row.RefreshToken}
	if row.ExpiresAt != nil {
		tok.Expiry = row.ExpiresAt.UTC()
	}
	return tok, nil
}

func (d *Database) Set(_ context.Context, tok quickbooks.TokenSet) error {
	var expiresAt *time.Time
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry.UTC()
		expiresAt = &exp
	}
	_, err := d.repo.Save(d.realmID, tok.AccessToken, tok.RefreshToken, expiresAt)
	return err
}

// Chain reads from the first store holding a token and writes to all stores.
type Chain []quickbooks.TokenStore

func (ch Chain) Get(ctx context.Context) (*quickbooks.TokenSet, error) {
	for _, s := range ch {
		tok, err := s.Get(ctx)
		if err != nil {
			return nil, err
		}
		if tok != nil {
			return tok, nil
		}
	}
	return nil, nil
}

func (ch Chain) Set(ctx context.Context, tok quickbooks.TokenSet) error {
	var errs []error
	for _, s := range ch {
		if err := s.Set(ctx, tok); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
