package quickbooks

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/oauth2"
)

// OAuthClient drives the authorization-code flow against the QuickBooks
// identity endpoints.
type OAuthClient struct {
	oauth      *oauth2.Config
	httpClient *http.Client
	now        func() time.Time
}

// NewOAuthClient creates an OAuth client for cfg. Token requests authenticate
// with HTTP Basic client credentials.
func NewOAuthClient(cfg Config) *OAuthClient {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &OAuthClient{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{Scope},
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthBaseURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// AuthorizationURL returns the provider consent URL carrying state verbatim.
func (c *OAuthClient) AuthorizationURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

func (c *OAuthClient) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// ExchangeCode trades an authorization code for a token set.
func (c *OAuthClient) ExchangeCode(ctx context.Context, code string) (*TokenSet, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, &TokenExchangeError{Err: errors.New("authorization code is required")}
	}

	tok, err := c.oauth.Exchange(c.context(ctx), code)
	if err != nil {
		return nil, &TokenExchangeError{StatusCode: retrieveStatus(err), Err: err}
	}
	if tok.AccessToken == "" {
		return nil, &TokenExchangeError{Err: errors.New("empty access_token in response")}
	}
	return tokenSetFromOAuth2(tok), nil
}

// Refresh obtains a new token set using a refresh token. When the provider
// does not rotate the refresh token, the old one is kept.
func (c *OAuthClient) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, &TokenRefreshError{Err: errors.New("refresh token is required")}
	}

	src := c.oauth.TokenSource(c.context(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, &TokenRefreshError{StatusCode: retrieveStatus(err), Err: err}
	}
	return tokenSetFromOAuth2(tok), nil
}

// ValidToken returns the stored token, refreshing it first when it expires
// within TokenRefreshSkew and a refresh token is available.
func (c *OAuthClient) ValidToken(ctx context.Context, store TokenStore) (*TokenSet, error) {
	tok, err := store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if tok == nil || tok.AccessToken == "" {
		return nil, ErrNotAuthenticated
	}
	if tok.RefreshToken == "" || !tok.ExpiresWithin(c.now(), TokenRefreshSkew) {
		return tok, nil
	}

	log.Infof("[QuickBooks] Access token expires at %s, refreshing", tok.Expiry.Format(time.RFC3339))
	refreshed, err := c.Refresh(ctx, tok.RefreshToken)
	if err != nil {
		return nil, err
	}
	if err := store.Set(ctx, *refreshed); err != nil {
		return nil, err
	}
	return refreshed, nil
}

// TokenSource binds a client to a store so callers only ask for a valid token.
type TokenSource struct {
	Client *OAuthClient
	Store  TokenStore
}

// Token returns a valid access token set from the bound store.
func (s TokenSource) Token(ctx context.Context) (*TokenSet, error) {
	return s.Client.ValidToken(ctx, s.Store)
}

func retrieveStatus(err error) int {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return re.Response.StatusCode
	}
	return 0
}
