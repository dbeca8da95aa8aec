package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence contract shared by every record kind
type Store[T any] interface {
	Create(ctx context.Context, entity *T) error
	FindByID(ctx context.Context, id uuid.UUID) (*T, error)
	FindAll(ctx context.Context) ([]T, error)
	// Update applies only the columns present in patch and refreshes updated_at
	Update(ctx context.Context, id uuid.UUID, patch Patch) (*T, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) (int64, error)
}

// Patch maps column names to new values for a partial update
type Patch map[string]any

// Set records a column change and returns the patch for chaining
func (p Patch) Set(column string, value any) Patch {
	p[column] = value
	return p
}

// Has reports whether column is part of the patch
func (p Patch) Has(column string) bool {
	_, ok := p[column]
	return ok
}

// String returns the string value of column and whether it was set to a string
func (p Patch) String(column string) (string, bool) {
	v, ok := p[column]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Listing is the result of listing every record of a kind
type Listing[T any] struct {
	Data      []T
	Count     int
	UpdatedAt *time.Time
}

// NewListing builds a Listing, computing the latest updatedAt across items.
// UpdatedAt stays nil for an empty listing.
func NewListing[T any, P interface {
	*T
	Entity
}](items []T) Listing[T] {
	if items == nil {
		items = []T{}
	}
	listing := Listing[T]{Data: items, Count: len(items)}
	for i := range items {
		ts := P(&items[i]).GetUpdatedAt()
		if listing.UpdatedAt == nil || ts.After(*listing.UpdatedAt) {
			latest := ts
			listing.UpdatedAt = &latest
		}
	}
	return listing
}
