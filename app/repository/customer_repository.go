package repository

import (
	"github.com/ManuelReschke/QBSync/app/models"
	"gorm.io/gorm"
)

// customerRepository implements the CustomerRepository interface
type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository instance
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

// Upsert loads the customer with the given provider id, or starts a new one,
// and saves it after apply has set its fields.
func (r *customerRepository) Upsert(customerID string, apply func(customer *models.Customer, created bool)) (*models.Customer, bool, error) {
	return upsertByKey(r.db, "customer_id", customerID,
		func() *models.Customer {
			return &models.Customer{CustomerID: customerID, Active: true}
		},
		apply,
	)
}

// UpsertAddress creates or updates the billing address of a customer
func (r *customerRepository) UpsertAddress(customerPK uint, apply func(addr *models.CustomerAddress)) (*models.CustomerAddress, error) {
	addr, _, err := upsertByKey(r.db, "customer_id", customerPK,
		func() *models.CustomerAddress {
			return &models.CustomerAddress{CustomerID: customerPK}
		},
		func(a *models.CustomerAddress, _ bool) {
			apply(a)
		},
	)
	return addr, err
}

// UpsertMetadata creates or updates the metadata row of a customer
func (r *customerRepository) UpsertMetadata(customerPK uint, apply func(meta *models.CustomerMetadata)) (*models.CustomerMetadata, error) {
	meta, _, err := upsertByKey(r.db, "customer_id", customerPK,
		func() *models.CustomerMetadata {
			return &models.CustomerMetadata{CustomerID: customerPK}
		},
		func(m *models.CustomerMetadata, _ bool) {
			apply(m)
		},
	)
	return meta, err
}

// GetByCustomerID retrieves a customer with address and metadata by provider id
func (r *customerRepository) GetByCustomerID(customerID string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.Preload("BillAddr").Preload("Metadata").
		Where("customer_id = ?", customerID).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// List retrieves customers ordered by display name
func (r *customerRepository) List(offset, limit int) ([]models.Customer, error) {
	var customers []models.Customer
	err := r.db.Preload("BillAddr").Preload("Metadata").
		Order("display_name ASC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&customers).Error
	return customers, err
}

// Count returns the total number of customers
func (r *customerRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Customer{}).Count(&count).Error
	return count, err
}

// Delete removes a customer together with its address and metadata
func (r *customerRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("customer_id = ?", id).Delete(&models.CustomerAddress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("customer_id = ?", id).Delete(&models.CustomerMetadata{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Customer{}, id).Error
	})
}

// DeleteAll removes every customer and its owned rows
func (r *customerRepository) DeleteAll() error {
	return r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.CustomerAddress{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.CustomerMetadata{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Customer{}).Error
	})
}
