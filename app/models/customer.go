package models

import "time"

// Customer mirrors a QuickBooks customer. Every scalar is overwritten on each
// ingest, so optional fields are pointers and may go back to NULL.
type Customer struct {
	ID                         uint              `gorm:"primaryKey" json:"id"`
	CustomerID                 string            `gorm:"type:varchar(50);uniqueIndex;not null" json:"customer_id"`
	SyncToken                  *string           `gorm:"type:varchar(10)" json:"sync_token"`
	Domain                     *string           `gorm:"type:varchar(50)" json:"domain"`
	GivenName                  *string           `gorm:"type:varchar(100)" json:"given_name"`
	DisplayName                *string           `gorm:"type:varchar(255);uniqueIndex" json:"display_name"`
	BillWithParent             bool              `gorm:"default:false" json:"bill_with_parent"`
	FullyQualifiedName         *string           `gorm:"type:varchar(255)" json:"fully_qualified_name"`
	CompanyName                *string           `gorm:"type:varchar(255)" json:"company_name"`
	FamilyName                 *string           `gorm:"type:varchar(100)" json:"family_name"`
	Sparse                     bool              `gorm:"default:false" json:"sparse"`
	PrimaryPhoneFreeFormNumber *string           `gorm:"type:varchar(50)" json:"primary_phone_free_form_number"`
	PrimaryEmailAddr           *string           `gorm:"type:varchar(255)" json:"primary_email_addr"`
	Active                     bool              `json:"active"`
	Job                        bool              `gorm:"default:false" json:"job"`
	BalanceWithJobs            float64           `json:"balance_with_jobs"`
	PreferredDeliveryMethod    *string           `gorm:"type:varchar(50)" json:"preferred_delivery_method"`
	Taxable                    bool              `gorm:"default:false" json:"taxable"`
	PrintOnCheckName           *string           `gorm:"type:varchar(255)" json:"print_on_check_name"`
	Balance                    float64           `json:"balance"`
	FetchDate                  time.Time         `gorm:"type:datetime" json:"fetch_date"`
	BillAddr                   *CustomerAddress  `gorm:"foreignKey:CustomerID;references:ID" json:"bill_addr,omitempty"`
	Metadata                   *CustomerMetadata `gorm:"foreignKey:CustomerID;references:ID" json:"metadata,omitempty"`
}

func (Customer) TableName() string {
	return "customers"
}

type CustomerAddress struct {
	ID                     uint    `gorm:"primaryKey" json:"id"`
	CustomerID             uint    `gorm:"uniqueIndex" json:"customer_id"`
	QBAddressID            *string `gorm:"column:qb_address_id;type:varchar(50)" json:"qb_address_id"`
	Line1                  *string `gorm:"type:varchar(255)" json:"line1"`
	City                   *string `gorm:"type:varchar(100)" json:"city"`
	CountrySubDivisionCode *string `gorm:"type:varchar(10)" json:"country_sub_division_code"`
	PostalCode             *string `gorm:"type:varchar(20)" json:"postal_code"`
	Lat                    *string `gorm:"type:varchar(50)" json:"lat"`
	Lon                    *string `gorm:"type:varchar(50)" json:"lon"`
}

func (CustomerAddress) TableName() string {
	return "customer_addresses"
}

type CustomerMetadata struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	CustomerID      uint       `gorm:"uniqueIndex" json:"customer_id"`
	CreateTime      *time.Time `gorm:"type:datetime" json:"create_time"`
	LastUpdatedTime *time.Time `gorm:"type:datetime" json:"last_updated_time"`
}

func (CustomerMetadata) TableName() string {
	return "customer_metadata"
}
