package models

import "time"

// ProviderToken stores the latest OAuth token set for a QuickBooks company
// (realm) so headless runs can refresh and ingest without a browser session.
type ProviderToken struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RealmID      string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"realm_id"`
	AccessToken  string     `gorm:"type:text" json:"-"`
	RefreshToken string     `gorm:"type:text" json:"-"`
	ExpiresAt    *time.Time `gorm:"type:datetime;default:null" json:"expires_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ProviderToken) TableName() string {
	return "provider_tokens"
}
