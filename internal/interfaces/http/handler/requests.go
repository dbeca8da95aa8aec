package handler

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/silo-ledger/backend/internal/domain/directory"
	"github.com/silo-ledger/backend/internal/domain/receipt"
	"github.com/silo-ledger/backend/internal/domain/shared"
)

// Request bodies are bound from JSON or from multipart/urlencoded forms.
// Update requests use pointers so that only supplied fields are patched.

// CreateUserRequest is the body of POST /user
type CreateUserRequest struct {
	Username string `json:"username" form:"username" binding:"required,max=100"`
	Email    string `json:"email" form:"email" binding:"omitempty,email,max=200"`
}

// ToEntity builds the user to create
func (r CreateUserRequest) ToEntity() (*directory.User, error) {
	return &directory.User{Username: r.Username, Email: r.Email}, nil
}

// UpdateUserRequest is the body of PATCH /user/:id
type UpdateUserRequest struct {
	Username *string `json:"username" form:"username" binding:"omitempty,min=1,max=100"`
	Email    *string `json:"email" form:"email" binding:"omitempty,email,max=200"`
}

// ToPatch returns the supplied columns
func (r UpdateUserRequest) ToPatch() (shared.Patch, error) {
	p := shared.Patch{}
	setString(p, "username", r.Username)
	setString(p, "email", r.Email)
	return p, nil
}

// CreateSiloRequest is the body of POST /silo
type CreateSiloRequest struct {
	Name        string `json:"name" form:"name" binding:"required,max=200"`
	Description string `json:"description" form:"description"`
}

// ToEntity builds the silo to create
func (r CreateSiloRequest) ToEntity() (*directory.Silo, error) {
	return &directory.Silo{Name: r.Name, Description: r.Description}, nil
}

// UpdateSiloRequest is the body of PATCH /silo/:id
type UpdateSiloRequest struct {
	Name        *string `json:"name" form:"name" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" form:"description"`
}

// ToPatch returns the supplied columns
func (r UpdateSiloRequest) ToPatch() (shared.Patch, error) {
	p := shared.Patch{}
	setString(p, "name", r.Name)
	setString(p, "description", r.Description)
	return p, nil
}

// CreateVendorRequest is the body of POST /vendor
type CreateVendorRequest struct {
	Name  string `json:"name" form:"name" binding:"required,max=200"`
	PIC   string `json:"pic" form:"pic" binding:"max=200"`
	Email string `json:"email" form:"email" binding:"omitempty,email,max=200"`
	Phone string `json:"phone" form:"phone" binding:"max=50"`
}

// ToEntity builds the vendor to create
func (r CreateVendorRequest) ToEntity() (*directory.Vendor, error) {
	return &directory.Vendor{Name: r.Name, PIC: r.PIC, Email: r.Email, Phone: r.Phone}, nil
}

// UpdateVendorRequest is the body of PATCH /vendor/:id
type UpdateVendorRequest struct {
	Name  *string `json:"name" form:"name" binding:"omitempty,min=1,max=200"`
	PIC   *string `json:"pic" form:"pic" binding:"omitempty,max=200"`
	Email *string `json:"email" form:"email" binding:"omitempty,email,max=200"`
	Phone *string `json:"phone" form:"phone" binding:"omitempty,max=50"`
}

// ToPatch returns the supplied columns
func (r UpdateVendorRequest) ToPatch() (shared.Patch, error) {
	p := shared.Patch{}
	setString(p, "name", r.Name)
	setString(p, "pic", r.PIC)
	setString(p, "email", r.Email)
	setString(p, "phone", r.Phone)
	return p, nil
}

// CreatePICRequest is the body of POST /pic
type CreatePICRequest struct {
	Name  string `json:"name" form:"name" binding:"required,max=200"`
	Team  string `json:"team" form:"team" binding:"max=100"`
	Email string `json:"email" form:"email" binding:"omitempty,email,max=200"`
	Phone string `json:"phone" form:"phone" binding:"max=50"`
}

// ToEntity builds the PIC to create
func (r CreatePICRequest) ToEntity() (*directory.PIC, error) {
	return &directory.PIC{Name: r.Name, Team: r.Team, Email: r.Email, Phone: r.Phone}, nil
}

// UpdatePICRequest is the body of PATCH /pic/:id
type UpdatePICRequest struct {
	Name  *string `json:"name" form:"name" binding:"omitempty,min=1,max=200"`
	Team  *string `json:"team" form:"team" binding:"omitempty,max=100"`
	Email *string `json:"email" form:"email" binding:"omitempty,email,max=200"`
	Phone *string `json:"phone" form:"phone" binding:"omitempty,max=50"`
}

// ToPatch returns the supplied columns
func (r UpdatePICRequest) ToPatch() (shared.Patch, error) {
	p := shared.Patch{}
	setString(p, "name", r.Name)
	setString(p, "team", r.Team)
	setString(p, "email", r.Email)
	setString(p, "phone", r.Phone)
	return p, nil
}

// CreateCustomerRequest is the body of POST /customer
type CreateCustomerRequest struct {
	Name  string `json:"name" form:"name" binding:"required,max=200"`
	Email string `json:"email" form:"email" binding:"omitempty,email,max=200"`
	Phone string `json:"phone" form:"phone" binding:"max=50"`
}

// ToEntity builds the customer to create
func (r CreateCustomerRequest) ToEntity() (*directory.Customer, error) {
	return &directory.Customer{Name: r.Name, Email: r.Email, Phone: r.Phone}, nil
}

// UpdateCustomerRequest is the body of PATCH /customer/:id
type UpdateCustomerRequest struct {
	Name  *string `json:"name" form:"name" binding:"omitempty,min=1,max=200"`
	Email *string `json:"email" form:"email" binding:"omitempty,email,max=200"`
	Phone *string `json:"phone" form:"phone" binding:"omitempty,max=50"`
}

// ToPatch returns the supplied columns
func (r UpdateCustomerRequest) ToPatch() (shared.Patch, error) {
	p := shared.Patch{}
	setString(p, "name", r.Name)
	setString(p, "email", r.Email)
	setString(p, "phone", r.Phone)
	return p, nil
}

// CreateInvoiceRequest is the body of POST /invoice. Dates accept RFC 3339
// timestamps or plain YYYY-MM-DD.
type CreateInvoiceRequest struct {
	UserID     string  `json:"user_id" form:"user_id" binding:"required,uuid"`
	RegisterNo string  `json:"register_no" form:"register_no" binding:"required,max=100"`
	SubmitDate string  `json:"submit_date" form:"submit_date" binding:"required"`
	SiloID     string  `json:"silo_id" form:"silo_id" binding:"required,uuid"`
	PICID      string  `json:"pic_id" form:"pic_id" binding:"required,uuid"`
	VendorID   *string `json:"vendor_id" form:"vendor_id" binding:"omitempty,uuid"`
	InvoiceNo  *string `json:"invoice_no" form:"invoice_no" binding:"omitempty,max=100"`
	PONo       *string `json:"po_no" form:"po_no" binding:"omitempty,max=100"`
	LatestDate *string `json:"latest_date" form:"latest_date"`
	Note       *string `json:"note" form:"note"`
	ScanDate   *string `json:"scan_date" form:"scan_date"`
	UploadDate *string `json:"upload_date" form:"upload_date"`
	IsUrgent   bool    `json:"is_urgent" form:"is_urgent"`
	IsDone     bool    `json:"is_done" form:"is_done"`
}

// ToEntity builds the receipt to create
func (r CreateInvoiceRequest) ToEntity() (*receipt.InvoiceReceipt, error) {
	submit, err := parseDate("submit_date", r.SubmitDate)
	if err != nil {
		return nil, err
	}
	inv := &receipt.InvoiceReceipt{
		RegisterNo: r.RegisterNo,
		SubmitDate: submit,
		InvoiceNo:  nonEmpty(r.InvoiceNo),
		PONo:       nonEmpty(r.PONo),
		Note:       nonEmpty(r.Note),
		IsUrgent:   r.IsUrgent,
		IsDone:     r.IsDone,
	}
	for _, ref := range []struct {
		field string
		raw   string
		dst   *uuid.UUID
	}{
		{"user_id", r.UserID, &inv.UserID},
		{"silo_id", r.SiloID, &inv.SiloID},
		{"pic_id", r.PICID, &inv.PICID},
	} {
		if *ref.dst, err = parseUUID(ref.field, ref.raw); err != nil {
			return nil, err
		}
	}
	if v := nonEmpty(r.VendorID); v != nil {
		id, err := parseUUID("vendor_id", *v)
		if err != nil {
			return nil, err
		}
		inv.VendorID = &id
	}
	for _, d := range []struct {
		field string
		raw   *string
		dst   **time.Time
	}{
		{"latest_date", r.LatestDate, &inv.LatestDate},
		{"scan_date", r.ScanDate, &inv.ScanDate},
		{"upload_date", r.UploadDate, &inv.UploadDate},
	} {
		if *d.dst, err = parseOptionalDate(d.field, d.raw); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

// UpdateInvoiceRequest is the body of PATCH /invoice/:id. An empty string
// clears an optional column.
type UpdateInvoiceRequest struct {
	UserID     *string `json:"user_id" form:"user_id" binding:"omitempty,uuid"`
	RegisterNo *string `json:"register_no" form:"register_no" binding:"omitempty,min=1,max=100"`
	SubmitDate *string `json:"submit_date" form:"submit_date"`
	SiloID     *string `json:"silo_id" form:"silo_id" binding:"omitempty,uuid"`
	PICID      *string `json:"pic_id" form:"pic_id" binding:"omitempty,uuid"`
	VendorID   *string `json:"vendor_id" form:"vendor_id"`
	InvoiceNo  *string `json:"invoice_no" form:"invoice_no" binding:"omitempty,max=100"`
	PONo       *string `json:"po_no" form:"po_no" binding:"omitempty,max=100"`
	LatestDate *string `json:"latest_date" form:"latest_date"`
	Note       *string `json:"note" form:"note"`
	ScanDate   *string `json:"scan_date" form:"scan_date"`
	UploadDate *string `json:"upload_date" form:"upload_date"`
	IsUrgent   *bool   `json:"is_urgent" form:"is_urgent"`
	IsDone     *bool   `json:"is_done" form:"is_done"`
}

// ToPatch returns the supplied columns
func (r UpdateInvoiceRequest) ToPatch() (shared.Patch, error) {
	p := shared.Patch{}
	for _, ref := range []struct {
		column string
		raw    *string
	}{
		{"user_id", r.UserID},
		{"silo_id", r.SiloID},
		{"pic_id", r.PICID},
	} {
		if ref.raw == nil {
			continue
		}
		id, err := parseUUID(ref.column, *ref.raw)
		if err != nil {
			return nil, err
		}
		p.Set(ref.column, id)
	}
	if r.VendorID != nil {
		if *r.VendorID == "" {
			p.Set("vendor_id", nil)
		} else {
			id, err := parseUUID("vendor_id", *r.VendorID)
			if err != nil {
				return nil, err
			}
			p.Set("vendor_id", id)
		}
	}

	setString(p, "register_no", r.RegisterNo)
	setNullable(p, "invoice_no", r.InvoiceNo)
	setNullable(p, "po_no", r.PONo)
	setNullable(p, "note", r.Note)

	if r.SubmitDate != nil {
		submit, err := parseDate("submit_date", *r.SubmitDate)
		if err != nil {
			return nil, err
		}
		p.Set("submit_date", submit)
	}
	for _, d := range []struct {
		column string
		raw    *string
	}{
		{"latest_date", r.LatestDate},
		{"scan_date", r.ScanDate},
		{"upload_date", r.UploadDate},
	} {
		if d.raw == nil {
			continue
		}
		ts, err := parseOptionalDate(d.column, d.raw)
		if err != nil {
			return nil, err
		}
		if ts == nil {
			p.Set(d.column, nil)
		} else {
			p.Set(d.column, *ts)
		}
	}

	if r.IsUrgent != nil {
		p.Set("is_urgent", *r.IsUrgent)
	}
	if r.IsDone != nil {
		p.Set("is_done", *r.IsDone)
	}
	return p, nil
}

func parseUUID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, shared.NewDomainError(shared.CodeInvalidInput, field+" must be a UUID")
	}
	return id, nil
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// parseDate accepts RFC 3339 timestamps and calendar dates (as UTC midnight)
func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, shared.NewDomainError(shared.CodeInvalidInput, field+" must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
}

// parseOptionalDate treats a missing or blank value as no date
func parseOptionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := parseDate(field, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func setString(p shared.Patch, column string, v *string) {
	if v != nil {
		p.Set(column, *v)
	}
}

// setNullable stores NULL for an empty value
func setNullable(p shared.Patch, column string, v *string) {
	if v == nil {
		return
	}
	if *v == "" {
		p.Set(column, nil)
		return
	}
	p.Set(column, *v)
}

func nonEmpty(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}
