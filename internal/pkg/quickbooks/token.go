package quickbooks

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// TokenRefreshSkew is how long before expiry a token is refreshed proactively.
const TokenRefreshSkew = 60 * time.Second

// TokenSet is the stored OAuth state. A zero Expiry means the provider gave no hint.
type TokenSet struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// ExpiresWithin reports whether the token expires before now+d.
func (t TokenSet) ExpiresWithin(now time.Time, d time.Duration) bool {
	if t.Expiry.IsZero() {
		return false
	}
	return !now.Add(d).Before(t.Expiry)
}

// TokenStore persists a TokenSet. Get returns nil, nil when nothing is stored.
type TokenStore interface {
	Get(ctx context.Context) (*TokenSet, error)
	Set(ctx context.Context, token TokenSet) error
}

func tokenSetFromOAuth2(tok *oauth2.Token) *TokenSet {
	return &TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry.UTC(),
	}
}
