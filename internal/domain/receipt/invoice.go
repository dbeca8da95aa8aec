// Package receipt holds invoice receipts registered against silos.
package receipt

import (
	"time"

	"github.com/google/uuid"
	"github.com/silo-ledger/backend/internal/domain/shared"
)

// InvoiceKind describes invoice receipts
var InvoiceKind = shared.Kind{
	Name:   "invoice",
	Table:  "invoice_receipts",
	Label:  "Invoice",
	Noun:   "invoice",
	Plural: "invoices",
}

// InvoiceReceipt is an incoming invoice tracked from submission to completion.
// Optional columns are pointers so that an unset value is stored as NULL.
type InvoiceReceipt struct {
	shared.BaseEntity
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	RegisterNo string     `gorm:"type:varchar(100);not null" json:"register_no"`
	SubmitDate time.Time  `gorm:"not null" json:"submit_date"`
	SiloID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"silo_id"`
	PICID      uuid.UUID  `gorm:"column:pic_id;type:uuid;not null;index" json:"pic_id"`
	VendorID   *uuid.UUID `gorm:"type:uuid;index" json:"vendor_id"`
	InvoiceNo  *string    `gorm:"type:varchar(100)" json:"invoice_no"`
	PONo       *string    `gorm:"column:po_no;type:varchar(100)" json:"po_no"`
	LatestDate *time.Time `json:"latest_date"`
	Note       *string    `gorm:"type:text" json:"note"`
	ScanDate   *time.Time `json:"scan_date"`
	UploadDate *time.Time `json:"upload_date"`
	IsUrgent   bool       `gorm:"not null;default:false" json:"is_urgent"`
	IsDone     bool       `gorm:"not null;default:false" json:"is_done"`
}

// TableName returns the table name for GORM
func (InvoiceReceipt) TableName() string {
	return InvoiceKind.Table
}

// Validate checks the required references of a receipt
func (r *InvoiceReceipt) Validate() error {
	switch {
	case r.UserID == uuid.Nil:
		return shared.NewDomainError(shared.CodeInvalidInput, "user_id is required")
	case r.RegisterNo == "":
		return shared.NewDomainError(shared.CodeInvalidInput, "register_no is required")
	case r.SubmitDate.IsZero():
		return shared.NewDomainError(shared.CodeInvalidInput, "submit_date is required")
	case r.SiloID == uuid.Nil:
		return shared.NewDomainError(shared.CodeInvalidInput, "silo_id is required")
	case r.PICID == uuid.Nil:
		return shared.NewDomainError(shared.CodeInvalidInput, "pic_id is required")
	}
	return nil
}
