package models

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	DefaultBillsFetchCount     = 3
	DefaultCustomersFetchCount = 5
	// MaxFetchCount is the provider's MAXRESULTS ceiling.
	MaxFetchCount = 1000
)

// FetchSettings is a singleton row holding the per-entity batch sizes.
type FetchSettings struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	BillsFetchCount     int       `gorm:"not null" json:"bills_fetch_count" validate:"min=1,max=1000"`
	CustomersFetchCount int       `gorm:"not null" json:"customers_fetch_count" validate:"min=1,max=1000"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FetchSettings) TableName() string {
	return "fetch_settings"
}

// NewDefaultFetchSettings returns settings populated with the default batch sizes.
func NewDefaultFetchSettings() *FetchSettings {
	return &FetchSettings{
		BillsFetchCount:     DefaultBillsFetchCount,
		CustomersFetchCount: DefaultCustomersFetchCount,
	}
}

// GetOrCreateFetchSettings returns the first settings row, creating it with
// defaults when the table is empty.
func GetOrCreateFetchSettings(db *gorm.DB) (*FetchSettings, error) {
	var fs FetchSettings
	if err := db.Order("id ASC").First(&fs).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fs = *NewDefaultFetchSettings()
			if err := db.Create(&fs).Error; err != nil {
				return nil, err
			}
			return &fs, nil
		}
		return nil, err
	}
	return &fs, nil
}

// Validate checks the batch sizes are within the provider's accepted range.
func (fs *FetchSettings) Validate() error {
	validate := validator.New()
	return validate.Struct(fs)
}
