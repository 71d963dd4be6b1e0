package models

// All lists every persisted model in dependency order for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Vendor{},
		&VendorAddress{},
		&Currency{},
		&Bill{},
		&BillMetadata{},
		&BillLineItem{},
		&Customer{},
		&CustomerAddress{},
		&CustomerMetadata{},
		&FetchSettings{},
		&ProviderToken{},
	}
}
