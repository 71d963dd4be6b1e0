package repository

import (
	"github.com/ManuelReschke/QBSync/app/models"
	"gorm.io/gorm"
)

// billRepository implements the BillRepository interface
type billRepository struct {
	db *gorm.DB
}

// NewBillRepository creates a new bill repository instance
func NewBillRepository(db *gorm.DB) BillRepository {
	return &billRepository{db: db}
}

// Upsert loads the bill with the given provider id, or starts a new one, and
// saves it after apply has set its fields.
func (r *billRepository) Upsert(billID string, apply func(bill *models.Bill, created bool)) (*models.Bill, bool, error) {
	return upsertByKey(r.db, "bill_id", billID,
		func() *models.Bill {
			return &models.Bill{BillID: billID}
		},
		apply,
	)
}

// UpsertMetadata updates the metadata row of a bill. When the bill has none yet
// it is only created if createIfMissing is set; otherwise nil is returned.
func (r *billRepository) UpsertMetadata(billPK uint, createIfMissing bool, apply func(meta *models.BillMetadata)) (*models.BillMetadata, error) {
	meta, _, err := upsertByKey(r.db, "bill_id", billPK,
		func() *models.BillMetadata {
			if !createIfMissing {
				return nil
			}
			return &models.BillMetadata{BillID: billPK}
		},
		func(m *models.BillMetadata, _ bool) {
			apply(m)
		},
	)
	return meta, err
}

// AddLineItems appends line items; existing lines are never replaced
func (r *billRepository) AddLineItems(items []models.BillLineItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Create(&items).Error
}

// GetByBillID retrieves a bill with its associations by provider id
func (r *billRepository) GetByBillID(billID string) (*models.Bill, error) {
	var bill models.Bill
	err := r.db.Preload("Vendor").Preload("Currency").Preload("Metadata").
		Where("bill_id = ?", billID).First(&bill).Error
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// GetLineItems returns the line items stored for a bill
func (r *billRepository) GetLineItems(billPK uint) ([]models.BillLineItem, error) {
	var items []models.BillLineItem
	err := r.db.Where("bill_id = ?", billPK).Order("id ASC").Find(&items).Error
	return items, err
}

// List retrieves bills newest transaction date first
func (r *billRepository) List(offset, limit int) ([]models.Bill, error) {
	var bills []models.Bill
	err := r.db.Preload("Vendor").Preload("Currency").Preload("Metadata").
		Order("txn_date DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&bills).Error
	return bills, err
}

// Count returns the total number of bills
func (r *billRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Bill{}).Count(&count).Error
	return count, err
}

// Delete removes a bill together with its metadata and line items
func (r *billRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bill_id = ?", id).Delete(&models.BillLineItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("bill_id = ?", id).Delete(&models.BillMetadata{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Bill{}, id).Error
	})
}

// DeleteAll removes every bill and its owned rows. Vendors and currencies stay.
func (r *billRepository) DeleteAll() error {
	return r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.BillLineItem{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.BillMetadata{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Bill{}).Error
	})
}
