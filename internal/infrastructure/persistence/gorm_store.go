package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/silo-ledger/backend/internal/domain/directory"
	"github.com/silo-ledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormStore implements shared.Store for any record type using GORM.
// The table comes from the record's TableName method.
type GormStore[T any, P interface {
	*T
	shared.Entity
}] struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore creates a new GormStore
func NewGormStore[T any, P interface {
	*T
	shared.Entity
}](db *gorm.DB) *GormStore[T, P] {
	return &GormStore[T, P]{db: db, now: time.Now}
}

var _ shared.Store[directory.User] = (*GormStore[directory.User, *directory.User])(nil)

// Create inserts a new record
func (s *GormStore[T, P]) Create(ctx context.Context, entity *T) error {
	return s.db.WithContext(ctx).Create(entity).Error
}

// FindByID finds a record by its ID
func (s *GormStore[T, P]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var entity T
	if err := s.db.WithContext(ctx).First(&entity, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entity, nil
}

// FindAll returns every record, oldest first
func (s *GormStore[T, P]) FindAll(ctx context.Context) ([]T, error) {
	var entities []T
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

// Update applies patch to the record and returns the stored result.
// updated_at is always refreshed, so an empty patch only bumps the timestamp.
func (s *GormStore[T, P]) Update(ctx context.Context, id uuid.UUID, patch shared.Patch) (*T, error) {
	values := make(map[string]any, len(patch)+1)
	for column, value := range patch {
		values[column] = value
	}
	values["updated_at"] = s.now()

	result := s.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, shared.ErrNotFound
	}
	return s.FindByID(ctx, id)
}

// Delete removes a record by ID
func (s *GormStore[T, P]) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteAll removes every record and returns how many were deleted
func (s *GormStore[T, P]) DeleteAll(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(new(T))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
