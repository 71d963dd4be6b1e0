package repository

import (
	"github.com/ManuelReschke/QBSync/app/models"
	"gorm.io/gorm"
)

// fetchSettingsRepository implements the FetchSettingsRepository interface
type fetchSettingsRepository struct {
	db *gorm.DB
}

// NewFetchSettingsRepository creates a new fetch settings repository instance
func NewFetchSettingsRepository(db *gorm.DB) FetchSettingsRepository {
	return &fetchSettingsRepository{db: db}
}

// Get returns the settings row, creating it with defaults on first use
func (r *fetchSettingsRepository) Get() (*models.FetchSettings, error) {
	return models.GetOrCreateFetchSettings(r.db)
}

// Update validates and stores new batch sizes
func (r *fetchSettingsRepository) Update(billsFetchCount, customersFetchCount int) (*models.FetchSettings, error) {
	settings, err := models.GetOrCreateFetchSettings(r.db)
	if err != nil {
		return nil, err
	}

	settings.BillsFetchCount = billsFetchCount
	settings.CustomersFetchCount = customersFetchCount
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	if err := r.db.Save(settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}
