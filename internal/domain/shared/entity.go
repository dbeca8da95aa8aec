package shared

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entity is the base interface for all stored records
type Entity interface {
	GetID() uuid.UUID
	GetCreatedAt() time.Time
	GetUpdatedAt() time.Time
}

// ImageBearer is implemented by records that own at most one image in the blob store
type ImageBearer interface {
	// AttachmentName is the value the staging directory and blob prefix are derived from
	AttachmentName() string
	GetImageURL() string
	SetImageURL(url string)
}

// BaseEntity provides common fields for all records
type BaseEntity struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// GetCreatedAt returns the creation timestamp
func (e *BaseEntity) GetCreatedAt() time.Time {
	return e.CreatedAt
}

// GetUpdatedAt returns the last update timestamp
func (e *BaseEntity) GetUpdatedAt() time.Time {
	return e.UpdatedAt
}

// BeforeCreate assigns a server-side ID when the caller did not provide one
func (e *BaseEntity) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// NewBaseEntity creates a new base entity with generated ID
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ImageField is embedded by image-bearing records
type ImageField struct {
	ImageURL string `gorm:"column:image_url;type:text;not null;default:''" json:"image_url"`
}

// GetImageURL returns the current image URL, empty when the record has no image
func (f *ImageField) GetImageURL() string {
	return f.ImageURL
}

// SetImageURL replaces the current image URL
func (f *ImageField) SetImageURL(url string) {
	f.ImageURL = url
}
