package model

import "time"

// StoreSetting is one configuration value. StoreID 0 holds the global
// default; any other StoreID overrides it for that store.
type StoreSetting struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:128;uniqueIndex:idx_setting_name_store;not null"`
	StoreID   int    `gorm:"uniqueIndex:idx_setting_name_store;not null;default:0"`
	Value     string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GenericAttribute stores a key/value pair against a platform entity, e.g.
// the Square customer id of a platform customer.
type GenericAttribute struct {
	ID        uint   `gorm:"primaryKey"`
	KeyGroup  string `gorm:"size:64;uniqueIndex:idx_attr_entity_key;not null"` // Customer
	EntityID  int64  `gorm:"uniqueIndex:idx_attr_entity_key;not null"`
	Key       string `gorm:"size:128;uniqueIndex:idx_attr_entity_key;not null"`
	StoreID   int    `gorm:"uniqueIndex:idx_attr_entity_key;not null;default:0"`
	Value     string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Customer mirrors the platform customer fields the gateway needs.
type Customer struct {
	ID                int64  `gorm:"primaryKey;autoIncrement:false"`
	CustomerGUID      string `gorm:"size:64;uniqueIndex;not null"`
	Email             string `gorm:"size:255"`
	Username          string `gorm:"size:255"`
	FirstName         string `gorm:"size:128"`
	LastName          string `gorm:"size:128"`
	Phone             string `gorm:"size:64"`
	Company           string `gorm:"size:255"`
	IsGuest           bool   `gorm:"not null;default:false"`
	BillingAddressID  *uint
	BillingAddress    *Address `gorm:"foreignKey:BillingAddressID"`
	ShippingAddressID *uint
	ShippingAddress   *Address `gorm:"foreignKey:ShippingAddressID"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Address struct {
	ID                uint   `gorm:"primaryKey"`
	FirstName         string `gorm:"size:128"`
	LastName          string `gorm:"size:128"`
	Email             string `gorm:"size:255"`
	Company           string `gorm:"size:255"`
	Address1          string `gorm:"size:255"`
	Address2          string `gorm:"size:255"`
	City              string `gorm:"size:128"`
	County            string `gorm:"size:128"`
	StateAbbreviation string `gorm:"size:16"`
	CountryCode       string `gorm:"size:2"` // ISO 3166-1 alpha-2
	ZipPostalCode     string `gorm:"size:32"`
}
