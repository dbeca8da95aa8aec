// Package directory holds the master-data records: users, silos, vendors,
// persons in charge and customers.
package directory

import "github.com/silo-ledger/backend/internal/domain/shared"

// Record kinds of the directory
var (
	UserKind = shared.Kind{
		Name:       "user",
		Table:      "users",
		Label:      "User",
		Noun:       "user",
		Plural:     "users",
		StagingDir: "users",
		ImageField: "user_image",
		NameColumn: "username",
	}
	SiloKind = shared.Kind{
		Name:       "silo",
		Table:      "silos",
		Label:      "Silo",
		Noun:       "silo",
		Plural:     "silos",
		StagingDir: "silos",
		ImageField: "image_url",
		NameColumn: "name",
	}
	VendorKind = shared.Kind{
		Name:   "vendor",
		Table:  "vendors",
		Label:  "Vendor",
		Noun:   "vendor",
		Plural: "vendors",
	}
	PICKind = shared.Kind{
		Name:   "pic",
		Table:  "pics",
		Label:  "PIC",
		Noun:   "pic",
		Plural: "pics",
	}
	CustomerKind = shared.Kind{
		Name:   "customer",
		Table:  "customers",
		Label:  "Customer",
		Noun:   "customer",
		Plural: "customers",
	}
)

// User is an account that submits invoice receipts and may carry a profile image
type User struct {
	shared.BaseEntity
	Username string `gorm:"type:varchar(100);not null" json:"username"`
	Email    string `gorm:"type:varchar(200)" json:"email"`
	shared.ImageField
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return UserKind.Table
}

// AttachmentName returns the username, which keys the user's image directory
func (u *User) AttachmentName() string {
	return u.Username
}

// Silo is a storage site with an optional photo
type Silo struct {
	shared.BaseEntity
	Name        string `gorm:"type:varchar(200);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	shared.ImageField
}

// TableName returns the table name for GORM
func (Silo) TableName() string {
	return SiloKind.Table
}

// AttachmentName returns the silo name, which keys the silo's image directory
func (s *Silo) AttachmentName() string {
	return s.Name
}

// Vendor is a supplier referenced by invoice receipts
type Vendor struct {
	shared.BaseEntity
	Name  string `gorm:"type:varchar(200);not null" json:"name"`
	PIC   string `gorm:"column:pic;type:varchar(200)" json:"pic"`
	Email string `gorm:"type:varchar(200)" json:"email"`
	Phone string `gorm:"type:varchar(50)" json:"phone"`
}

// TableName returns the table name for GORM
func (Vendor) TableName() string {
	return VendorKind.Table
}

// PIC is the person in charge of an invoice receipt
type PIC struct {
	shared.BaseEntity
	Name  string `gorm:"type:varchar(200);not null" json:"name"`
	Team  string `gorm:"type:varchar(100)" json:"team"`
	Email string `gorm:"type:varchar(200)" json:"email"`
	Phone string `gorm:"type:varchar(50)" json:"phone"`
}

// TableName returns the table name for GORM
func (PIC) TableName() string {
	return PICKind.Table
}

// Customer is a buyer record
type Customer struct {
	shared.BaseEntity
	Name  string `gorm:"type:varchar(200);not null" json:"name"`
	Email string `gorm:"type:varchar(200)" json:"email"`
	Phone string `gorm:"type:varchar(50)" json:"phone"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return CustomerKind.Table
}
