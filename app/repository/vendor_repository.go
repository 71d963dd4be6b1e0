package repository

import (
	"github.com/ManuelReschke/QBSync/app/models"
	"gorm.io/gorm"
)

// vendorRepository implements the VendorRepository interface
type vendorRepository struct {
	db *gorm.DB
}

// NewVendorRepository creates a new vendor repository instance
func NewVendorRepository(db *gorm.DB) VendorRepository {
	return &vendorRepository{db: db}
}

// GetOrCreate returns the vendor for vendorRef. A missing vendor is created
// only when a name is known; otherwise nil is returned.
func (r *vendorRepository) GetOrCreate(vendorRef, name string) (*models.Vendor, error) {
	vendor, _, err := upsertByKey(r.db, "vendor_ref", vendorRef,
		func() *models.Vendor {
			if name == "" {
				return nil
			}
			return &models.Vendor{VendorRef: vendorRef, Name: name}
		},
		nil,
	)
	return vendor, err
}

// UpsertAddress creates or updates the single address row of a vendor
func (r *vendorRepository) UpsertAddress(vendorPK uint, apply func(addr *models.VendorAddress)) (*models.VendorAddress, error) {
	addr, _, err := upsertByKey(r.db, "vendor_id", vendorPK,
		func() *models.VendorAddress {
			return &models.VendorAddress{VendorID: vendorPK}
		},
		func(a *models.VendorAddress, _ bool) {
			apply(a)
		},
	)
	return addr, err
}

// GetByRef retrieves a vendor with its address by provider reference
func (r *vendorRepository) GetByRef(vendorRef string) (*models.Vendor, error) {
	var vendor models.Vendor
	err := r.db.Preload("Address").Where("vendor_ref = ?", vendorRef).First(&vendor).Error
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

// Count returns the total number of vendors
func (r *vendorRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Vendor{}).Count(&count).Error
	return count, err
}

// currencyRepository implements the CurrencyRepository interface
type currencyRepository struct {
	db *gorm.DB
}

// NewCurrencyRepository creates a new currency repository instance
func NewCurrencyRepository(db *gorm.DB) CurrencyRepository {
	return &currencyRepository{db: db}
}

// GetOrCreate returns the currency with the given code, creating it if needed
func (r *currencyRepository) GetOrCreate(code string, name *string) (*models.Currency, error) {
	currency, _, err := upsertByKey(r.db, "value", code,
		func() *models.Currency {
			return &models.Currency{Value: code, Name: name}
		},
		nil,
	)
	return currency, err
}

// Count returns the total number of currencies
func (r *currencyRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Currency{}).Count(&count).Error
	return count, err
}
