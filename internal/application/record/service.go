// Package record implements the create, read, update and delete flow shared
// by every record kind, including the image lifecycle of image-bearing kinds.
package record

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/silo-ledger/backend/internal/application/attachment"
	"github.com/silo-ledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// imageColumn is the column holding the public URL of a record's image
const imageColumn = "image_url"

// validatable is implemented by records that check their own required fields
type validatable interface {
	Validate() error
}

// Service orchestrates one record kind on top of its store and, for
// image-bearing kinds, the attachment workflow.
type Service[T any, P interface {
	*T
	shared.Entity
}] struct {
	kind     shared.Kind
	store    shared.Store[T]
	workflow *attachment.Workflow
	logger   *zap.Logger
}

// Option is a functional option for Service
type Option func(*options)

type options struct {
	workflow *attachment.Workflow
	logger   *zap.Logger
}

// WithWorkflow sets the attachment workflow used by image-bearing kinds
func WithWorkflow(w *attachment.Workflow) Option {
	return func(o *options) {
		o.workflow = w
	}
}

// WithLogger sets a custom logger for the service
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewService creates a new Service for kind
func NewService[T any, P interface {
	*T
	shared.Entity
}](kind shared.Kind, store shared.Store[T], opts ...Option) *Service[T, P] {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Service[T, P]{
		kind:     kind,
		store:    store,
		workflow: o.workflow,
		logger:   o.logger.With(zap.String("kind", kind.Name)),
	}
}

// Kind returns the kind served
func (s *Service[T, P]) Kind() shared.Kind {
	return s.kind
}

// handlesImages reports whether uploads are processed for this kind
func (s *Service[T, P]) handlesImages() bool {
	return s.kind.HasImage() && s.workflow != nil
}

// Create stores a new record. When an upload is given for an image-bearing
// kind, the image is published first and its URL stored with the record; a
// failed insert discards that image again.
func (s *Service[T, P]) Create(ctx context.Context, entity *T, up *attachment.Upload) (*T, error) {
	if v, ok := any(entity).(validatable); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	bearer, hasImage := s.bearer(entity)
	var imageURL string
	if up != nil && hasImage {
		report, err := s.workflow.Attach(ctx, s.kind.StagingDir, bearer.AttachmentName(), *up)
		if err != nil {
			return nil, s.attachFailed(err, s.kind.CreateFailed)
		}
		imageURL = report.URL
		bearer.SetImageURL(imageURL)
	}

	if err := s.store.Create(ctx, entity); err != nil {
		if imageURL != "" {
			s.workflow.Discard(ctx, s.kind.StagingDir, bearer.AttachmentName(), imageURL)
		}
		s.logger.Error("Failed to create record", zap.Error(err))
		return nil, s.kind.CreateFailed(err)
	}
	return entity, nil
}

// List returns every record together with its count and latest update time
func (s *Service[T, P]) List(ctx context.Context) (shared.Listing[T], error) {
	items, err := s.store.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to list records", zap.Error(err))
		return shared.Listing[T]{}, s.kind.ListFailed(err)
	}
	return shared.NewListing[T, P](items), nil
}

// Get returns one record by ID
func (s *Service[T, P]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	entity, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, s.kind.NotFound()
		}
		return nil, s.kind.ListFailed(err)
	}
	return entity, nil
}

// Update applies patch to an existing record. With an upload, the new image
// is published, the record committed with its URL, and only then is the
// previous image released. Cleanup failures never fail the update.
func (s *Service[T, P]) Update(ctx context.Context, id uuid.UUID, patch shared.Patch, up *attachment.Upload) (*T, error) {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, s.kind.NotFound()
		}
		return nil, s.kind.UpdateFailed(err)
	}
	if patch == nil {
		patch = shared.Patch{}
	}

	bearer, hasImage := s.bearer(existing)
	var (
		attached           *attachment.Report
		previousName, name string
		previousURL        string
	)
	if up != nil && hasImage {
		previousName = bearer.AttachmentName()
		previousURL = bearer.GetImageURL()
		name = previousName
		if renamed, ok := patch.String(s.kind.NameColumn); ok && renamed != "" {
			name = renamed
		}

		attached, err = s.workflow.Attach(ctx, s.kind.StagingDir, name, *up)
		if err != nil {
			return nil, s.attachFailed(err, s.kind.UpdateFailed)
		}
		patch.Set(imageColumn, attached.URL)
	}

	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		if attached != nil {
			s.workflow.Discard(ctx, s.kind.StagingDir, name, attached.URL)
		}
		if errors.Is(err, shared.ErrNotFound) {
			return nil, s.kind.NotFound()
		}
		s.logger.Error("Failed to update record", zap.String("id", id.String()), zap.Error(err))
		return nil, s.kind.UpdateFailed(err)
	}

	if attached != nil {
		// a previous name mapping to another directory has it emptied entirely
		s.workflow.Release(ctx, s.kind.StagingDir, name, previousURL, attached.Filename, previousName)
	}
	return updated, nil
}

// Delete removes one record and returns it. The images of image-bearing kinds
// are removed once the record is gone.
func (s *Service[T, P]) Delete(ctx context.Context, id uuid.UUID) (*T, error) {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, s.kind.NotFound()
		}
		return nil, s.kind.DeleteFailed(err)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, s.kind.NotFound()
		}
		s.logger.Error("Failed to delete record", zap.String("id", id.String()), zap.Error(err))
		return nil, s.kind.DeleteFailed(err)
	}

	if bearer, ok := s.bearer(existing); ok {
		s.detach(ctx, bearer.AttachmentName(), bearer.GetImageURL())
	}
	return existing, nil
}

// DeleteAll removes every record and returns how many were deleted. Images
// are removed once per distinct attachment name.
func (s *Service[T, P]) DeleteAll(ctx context.Context) (int64, error) {
	var known map[string][]string
	var names []string
	if s.handlesImages() {
		items, err := s.store.FindAll(ctx)
		if err != nil {
			return 0, s.kind.DeleteAllFailed(err)
		}
		known = make(map[string][]string, len(items))
		for i := range items {
			bearer, ok := s.bearer(&items[i])
			if !ok {
				continue
			}
			prefix := s.workflow.Prefix(s.kind.StagingDir, bearer.AttachmentName())
			if _, seen := known[prefix]; !seen {
				names = append(names, bearer.AttachmentName())
			}
			known[prefix] = append(known[prefix], bearer.GetImageURL())
		}
	}

	count, err := s.store.DeleteAll(ctx)
	if err != nil {
		s.logger.Error("Failed to delete all records", zap.Error(err))
		return 0, s.kind.DeleteAllFailed(err)
	}

	for _, name := range names {
		s.detach(ctx, name, known[s.workflow.Prefix(s.kind.StagingDir, name)]...)
	}
	return count, nil
}

func (s *Service[T, P]) detach(ctx context.Context, name string, known ...string) {
	if _, err := s.workflow.Detach(ctx, s.kind.StagingDir, name, known...); err != nil {
		s.logger.Error("Failed to remove record images",
			zap.String("name", name),
			zap.Error(err),
		)
	}
}

// bearer returns entity as an ImageBearer when images are handled for this kind
func (s *Service[T, P]) bearer(entity *T) (shared.ImageBearer, bool) {
	if !s.handlesImages() {
		return nil, false
	}
	b, ok := any(entity).(shared.ImageBearer)
	return b, ok
}

// attachFailed keeps domain errors from the workflow and wraps anything else
// in the operation's fallback.
func (s *Service[T, P]) attachFailed(err error, fallback func(error) *shared.DomainError) error {
	var derr *shared.DomainError
	if errors.As(err, &derr) {
		return err
	}
	return fallback(err)
}
