package repository

import (
	"context"
	"time"

	"github.com/ManuelReschke/QBSync/app/models"
	"gorm.io/gorm"
)

// BillRepository defines the bill aggregate operations (bill, metadata, line items)
type BillRepository interface {
	Upsert(billID string, apply func(bill *models.Bill, created bool)) (*models.Bill, bool, error)
	UpsertMetadata(billPK uint, createIfMissing bool, apply func(meta *models.BillMetadata)) (*models.BillMetadata, error)
	AddLineItems(items []models.BillLineItem) error
	GetByBillID(billID string) (*models.Bill, error)
	GetLineItems(billPK uint) ([]models.BillLineItem, error)
	List(offset, limit int) ([]models.Bill, error)
	Count() (int64, error)
	Delete(id uint) error
	DeleteAll() error
}

// VendorRepository defines vendor lookups; vendors are never deleted by ingestion
type VendorRepository interface {
	GetOrCreate(vendorRef, name string) (*models.Vendor, error)
	UpsertAddress(vendorPK uint, apply func(addr *models.VendorAddress)) (*models.VendorAddress, error)
	GetByRef(vendorRef string) (*models.Vendor, error)
	Count() (int64, error)
}

// CurrencyRepository defines currency lookups keyed by currency code
type CurrencyRepository interface {
	GetOrCreate(code string, name *string) (*models.Currency, error)
	Count() (int64, error)
}

// CustomerRepository defines the customer aggregate operations (customer, address, metadata)
type CustomerRepository interface {
	Upsert(customerID string, apply func(customer *models.Customer, created bool)) (*models.Customer, bool, error)
	UpsertAddress(customerPK uint, apply func(addr *models.CustomerAddress)) (*models.CustomerAddress, error)
	UpsertMetadata(customerPK uint, apply func(meta *models.CustomerMetadata)) (*models.CustomerMetadata, error)
	GetByCustomerID(customerID string) (*models.Customer, error)
	List(offset, limit int) ([]models.Customer, error)
	Count() (int64, error)
	Delete(id uint) error
	DeleteAll() error
}

// FetchSettingsRepository defines access to the singleton batch-size settings
type FetchSettingsRepository interface {
	Get() (*models.FetchSettings, error)
	Update(billsFetchCount, customersFetchCount int) (*models.FetchSettings, error)
}

// TokenRepository stores the OAuth token set per QuickBooks realm
type TokenRepository interface {
	GetByRealm(realmID string) (*models.ProviderToken, error)
	Save(realmID, accessToken, refreshToken string, expiresAt *time.Time) (*models.ProviderToken, error)
}

// Repositories struct holds all repository instances bound to one *gorm.DB,
// which may be a transaction handle.
type Repositories struct {
	db            *gorm.DB
	Bill          BillRepository
	Vendor        VendorRepository
	Currency      CurrencyRepository
	Customer      CustomerRepository
	FetchSettings FetchSettingsRepository
	Token         TokenRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:            db,
		Bill:          NewBillRepository(db),
		Vendor:        NewVendorRepository(db),
		Currency:      NewCurrencyRepository(db),
		Customer:      NewCustomerRepository(db),
		FetchSettings: NewFetchSettingsRepository(db),
		Token:         NewTokenRepository(db),
	}
}

// Transaction runs fn with repositories bound to a single database transaction.
// Returning an error from fn rolls back every write made through them.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
