package repository

import (
	"time"

	"github.com/ManuelReschke/QBSync/app/models"
	"gorm.io/gorm"
)

// tokenRepository implements the TokenRepository interface
type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new token repository instance
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

// GetByRealm returns the stored token for a realm, or nil if none was saved
func (r *tokenRepository) GetByRealm(realmID string) (*models.ProviderToken, error) {
	return findByKey[models.ProviderToken](r.db, "realm_id", realmID)
}

// Save stores the token set for a realm, replacing any previous one
func (r *tokenRepository) Save(realmID, accessToken, refreshToken string, expiresAt *time.Time) (*models.ProviderToken, error) {
	token, _, err := upsertByKey(r.db, "realm_id", realmID,
		func() *models.ProviderToken {
			return &models.ProviderToken{RealmID: realmID}
		},
		func(t *models.ProviderToken, _ bool) {
			t.AccessToken = accessToken
			t.RefreshToken = refreshToken
			t.ExpiresAt = expiresAt
		},
	)
	return token, err
}
