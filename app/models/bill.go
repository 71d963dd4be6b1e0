package models

import "time"

// Bill is a vendor bill pulled from QuickBooks. BillID is the provider's Id and
// is the natural key used for upserts.
type Bill struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	BillID     string         `gorm:"type:varchar(20);uniqueIndex;not null" json:"bill_id"`
	TxnDate    *time.Time     `gorm:"type:datetime;index" json:"txn_date"`
	DueDate    *time.Time     `gorm:"type:datetime" json:"due_date"`
	TotalAmt   float64        `json:"total_amt"`
	Balance    float64        `json:"balance"`
	VendorID   *uint          `gorm:"index" json:"vendor_id"`
	Vendor     *Vendor        `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	CurrencyID *uint          `gorm:"index" json:"currency_id"`
	Currency   *Currency      `gorm:"foreignKey:CurrencyID" json:"currency,omitempty"`
	FetchDate  time.Time      `gorm:"type:datetime" json:"fetch_date"`
	Metadata   *BillMetadata  `gorm:"foreignKey:BillID;references:ID" json:"metadata,omitempty"`
	LineItems  []BillLineItem `gorm:"foreignKey:BillID;references:ID" json:"line_items,omitempty"`
}

func (Bill) TableName() string {
	return "bills"
}

// BillMetadata holds the source system's own timestamps for a bill.
type BillMetadata struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	BillID          uint       `gorm:"uniqueIndex" json:"bill_id"`
	CreateTime      *time.Time `gorm:"type:datetime" json:"create_time"`
	LastUpdatedTime *time.Time `gorm:"type:datetime" json:"last_updated_time"`
}

func (BillMetadata) TableName() string {
	return "bill_metadata"
}

// BillLineItem rows are append-only: re-ingesting a bill adds its lines again.
type BillLineItem struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	BillID      uint    `gorm:"index" json:"bill_id"`
	LineNum     *int    `json:"line_num"`
	Description *string `gorm:"type:varchar(255)" json:"description"`
	Amount      float64 `json:"amount"`
	ItemName    *string `gorm:"type:varchar(100)" json:"item_name"`
	ItemRef     *string `gorm:"type:varchar(50)" json:"item_ref"`
	Qty         float64 `json:"qty"`
	UnitPrice   float64 `json:"unit_price"`
}

func (BillLineItem) TableName() string {
	return "bill_line_items"
}
