package shared

import "fmt"

// Kind describes one record kind: how it is stored, how it is named in
// user-facing messages, and whether it carries an image.
type Kind struct {
	// Name is the route segment, e.g. "user" or "invoice"
	Name string
	// Table is the database table backing the kind
	Table string
	// Label is used in not-found messages, e.g. "User tidak ditemukan"
	Label string
	// Noun is used in failure fallbacks, e.g. "Gagal membuat user"
	Noun string
	// Plural is used in bulk messages, e.g. "All users deleted"
	Plural string
	// StagingDir is the directory under the staging root; empty for kinds without images
	StagingDir string
	// ImageField is the multipart field carrying the uploaded image
	ImageField string
	// NameColumn holds the attachment name; patching it moves future uploads to a new prefix
	NameColumn string
}

// HasImage reports whether records of this kind carry an image
func (k Kind) HasImage() bool {
	return k.StagingDir != ""
}

// Created returns the success message for a create
func (k Kind) Created() string { return k.Label + " created" }

// Updated returns the success message for an update
func (k Kind) Updated() string { return k.Label + " updated" }

// Deleted returns the success message for a delete
func (k Kind) Deleted() string { return k.Label + " deleted" }

// AllDeleted returns the success message for a bulk delete
func (k Kind) AllDeleted() string { return "All " + k.Plural + " deleted" }

// NotFound returns the not-found error for this kind
func (k Kind) NotFound() *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s tidak ditemukan", k.Label))
}

// CreateFailed returns the create failure fallback, using the cause's message when present
func (k Kind) CreateFailed(cause error) *DomainError {
	return k.failure(CodeCreateFailed, "Gagal membuat %s", cause)
}

// UpdateFailed returns the update failure fallback
func (k Kind) UpdateFailed(cause error) *DomainError {
	return k.failure(CodeUpdateFailed, "Gagal memperbarui %s", cause)
}

// ListFailed returns the list failure fallback
func (k Kind) ListFailed(cause error) *DomainError {
	return k.failure(CodeListFailed, "Gagal mengambil data %s", cause)
}

// DeleteFailed returns the delete failure, reported as a conflict
func (k Kind) DeleteFailed(cause error) *DomainError {
	return k.failure(CodeConflict, "Gagal menghapus %s", cause)
}

// DeleteAllFailed returns the bulk delete failure, reported as a conflict
func (k Kind) DeleteAllFailed(cause error) *DomainError {
	return k.failure(CodeConflict, "Gagal menghapus semua %s", cause)
}

func (k Kind) failure(code, format string, cause error) *DomainError {
	msg := fmt.Sprintf(format, k.Noun)
	if cause != nil && cause.Error() != "" {
		msg = cause.Error()
	}
	return WrapDomainError(code, msg, cause)
}
