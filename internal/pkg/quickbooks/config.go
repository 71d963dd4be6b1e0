package quickbooks

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ManuelReschke/QBSync/internal/pkg/env"
)

const (
	defaultAuthBaseURL = "https://appcenter.intuit.com/connect/oauth2"
	defaultTokenURL    = "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"
	defaultAPIBaseURL  = "https://sandbox-quickbooks.api.intuit.com/v3/company"

	// Scope is the only OAuth scope the sync needs.
	Scope = "com.intuit.quickbooks.accounting"
)

// Config holds the QuickBooks app credentials and endpoints.
type Config struct {
	ClientID     string        `validate:"required"`
	ClientSecret string        `validate:"required"`
	RedirectURI  string        `validate:"required,url"`
	RealmID      string        `validate:"required"`
	AuthBaseURL  string        `validate:"required,url"`
	TokenURL     string        `validate:"required,url"`
	APIBaseURL   string        `validate:"required,url"`
	HTTPTimeout  time.Duration `validate:"gt=0"`
}

// NewConfigFromEnv reads the QBO_* variables.
func NewConfigFromEnv() Config {
	return Config{
		ClientID:     strings.TrimSpace(env.GetEnv("QBO_CLIENT_ID", "")),
		ClientSecret: strings.TrimSpace(env.GetEnv("QBO_CLIENT_SECRET", "")),
		RedirectURI:  strings.TrimSpace(env.GetEnv("QBO_REDIRECT_URI", "http://localhost:4000/callback")),
		RealmID:      strings.TrimSpace(env.GetEnv("QBO_REALM_ID", "")),
		AuthBaseURL:  strings.TrimSpace(env.GetEnv("QBO_AUTH_BASE_URL", defaultAuthBaseURL)),
		TokenURL:     strings.TrimSpace(env.GetEnv("QBO_TOKEN_URL", defaultTokenURL)),
		APIBaseURL:   strings.TrimRight(strings.TrimSpace(env.GetEnv("QBO_API_BASE_URL", defaultAPIBaseURL)), "/"),
		HTTPTimeout:  time.Duration(env.GetEnvInt("QBO_HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
	}
}

// Validate reports missing or malformed settings.
func (c Config) Validate() error {
	return validator.New().Struct(c)
}
