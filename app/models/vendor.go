package models

// Vendor is shared between bills and looked up by its QuickBooks reference.
type Vendor struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255)" json:"name"`
	VendorRef string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"vendor_ref"`
	Address   *VendorAddress `gorm:"foreignKey:VendorID;references:ID" json:"address,omitempty"`
}

func (Vendor) TableName() string {
	return "vendors"
}

type VendorAddress struct {
	ID                     uint    `gorm:"primaryKey" json:"id"`
	VendorID               uint    `gorm:"uniqueIndex" json:"vendor_id"`
	Line1                  *string `gorm:"type:varchar(255)" json:"line1"`
	City                   *string `gorm:"type:varchar(100)" json:"city"`
	CountrySubDivisionCode *string `gorm:"type:varchar(10)" json:"country_sub_division_code"`
	PostalCode             *string `gorm:"type:varchar(20)" json:"postal_code"`
}

func (VendorAddress) TableName() string {
	return "vendor_addresses"
}

// Currency is keyed by its ISO code, stored as Value like the provider does.
type Currency struct {
	ID    uint    `gorm:"primaryKey" json:"id"`
	Name  *string `gorm:"type:varchar(50)" json:"name"`
	Value string  `gorm:"type:varchar(10);uniqueIndex;not null" json:"value"`
}

func (Currency) TableName() string {
	return "currencies"
}
