package quickbooks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu  sync.Mutex
	tok *TokenSet
}

func (m *memStore) Get(context.Context) (*TokenSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tok == nil {
		return nil, nil
	}
	cp := *m.tok
	return &cp, nil
}

func (m *memStore) Set(_ context.Context, t TokenSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = &t
	return nil
}

type tokenServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []url.Values
	status   int
}

func newTokenServer(t *testing.T) *tokenServer {
	ts := &tokenServer{status: http.StatusOK}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok, "token request must use basic auth")
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)
		assert.NoError(t, r.ParseForm())

		ts.mu.Lock()
		ts.requests = append(ts.requests, r.PostForm)
		status := ts.status
		ts.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-" + r.PostForm.Get("grant_type"),
			"refresh_token": "refresh-new",
			"token_type":    "bearer",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) count() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.requests)
}

func testConfig(tokenURL string) Config {
	return Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:4000/callback",
		RealmID:      "9341454578080950",
		AuthBaseURL:  "https://appcenter.intuit.com/connect/oauth2",
		TokenURL:     tokenURL,
		APIBaseURL:   "https://sandbox-quickbooks.api.intuit.com/v3/company",
		HTTPTimeout:  2 * time.Second,
	}
}

func TestAuthorizationURL(t *testing.T) {
	c := NewOAuthClient(testConfig("https://example.invalid/token"))

	u, err := url.Parse(c.AuthorizationURL("bills:3:1:10:1"))
	require.NoError(t, err)
	assert.Equal(t, "appcenter.intuit.com", u.Host)

	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, Scope, q.Get("scope"))
	assert.Equal(t, "http://localhost:4000/callback", q.Get("redirect_uri"))
	assert.Equal(t, "bills:3:1:10:1", q.Get("state"))

	assert.Equal(t, c.AuthorizationURL("x"), c.AuthorizationURL("x"))
}

func TestExchangeCode(t *testing.T) {
	ts := newTokenServer(t)
	c := NewOAuthClient(testConfig(ts.URL))

	tok, err := c.ExchangeCode(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "access-authorization_code", tok.AccessToken)
	assert.Equal(t, "refresh-new", tok.RefreshToken)
	assert.False(t, tok.Expiry.IsZero())

	require.Equal(t, 1, ts.count())
	form := ts.requests[0]
	assert.Equal(t, "auth-code", form.Get("code"))
	assert.Equal(t, "http://localhost:4000/callback", form.Get("redirect_uri"))
}

func TestExchangeCodeFailure(t *testing.T) {
	ts := newTokenServer(t)
	ts.status = http.StatusBadRequest
	c := NewOAuthClient(testConfig(ts.URL))

	_, err := c.ExchangeCode(context.Background(), "bad-code")
	var exErr *TokenExchangeError
	require.True(t, errors.As(err, &exErr))
	assert.Equal(t, http.StatusBadRequest, exErr.StatusCode)
}

func TestRefreshFailure(t *testing.T) {
	ts := newTokenServer(t)
	ts.status = http.StatusUnauthorized
	c := NewOAuthClient(testConfig(ts.URL))

	_, err := c.Refresh(context.Background(), "stale")
	var rErr *TokenRefreshError
	require.True(t, errors.As(err, &rErr))
	assert.Equal(t, http.StatusUnauthorized, rErr.StatusCode)
}

func TestValidToken(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("missing token", func(t *testing.T) {
		ts := newTokenServer(t)
		c := NewOAuthClient(testConfig(ts.URL))
		_, err := c.ValidToken(context.Background(), &memStore{})
		assert.ErrorIs(t, err, ErrNotAuthenticated)
		assert.Zero(t, ts.count())
	})

	t.Run("fresh token is used as is", func(t *testing.T) {
		ts := newTokenServer(t)
		c := NewOAuthClient(testConfig(ts.URL))
		c.now = func() time.Time { return now }
		store := &memStore{tok: &TokenSet{AccessToken: "a", RefreshToken: "r", Expiry: now.Add(time.Hour)}}

		tok, err := c.ValidToken(context.Background(), store)
		require.NoError(t, err)
		assert.Equal(t, "a", tok.AccessToken)
		assert.Zero(t, ts.count())
	})

	t.Run("token near expiry is refreshed and stored", func(t *testing.T) {
		ts := newTokenServer(t)
		c := NewOAuthClient(testConfig(ts.URL))
		c.now = func() time.Time { return now }
		store := &memStore{tok: &TokenSet{AccessToken: "a", RefreshToken: "r", Expiry: now.Add(30 * time.Second)}}

		tok, err := c.ValidToken(context.Background(), store)
		require.NoError(t, err)
		assert.Equal(t, "access-refresh_token", tok.AccessToken)
		require.Equal(t, 1, ts.count())
		assert.Equal(t, "r", ts.requests[0].Get("refresh_token"))

		stored, _ := store.Get(context.Background())
		assert.Equal(t, "access-refresh_token", stored.AccessToken)
		assert.Equal(t, "refresh-new", stored.RefreshToken)
	})

	t.Run("no expiry hint", func(t *testing.T) {
		ts := newTokenServer(t)
		c := NewOAuthClient(testConfig(ts.URL))
		store := &memStore{tok: &TokenSet{AccessToken: "a", RefreshToken: "r"}}

		tok, err := c.ValidToken(context.Background(), store)
		require.NoError(t, err)
		assert.Equal(t, "a", tok.AccessToken)
		assert.Zero(t, ts.count())
	})
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig("https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer")
	assert.NoError(t, cfg.Validate())

	cfg.ClientID = ""
	assert.Error(t, cfg.Validate())
}
