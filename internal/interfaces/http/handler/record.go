package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/silo-ledger/backend/internal/application/attachment"
	"github.com/silo-ledger/backend/internal/application/record"
	"github.com/silo-ledger/backend/internal/domain/shared"
	"github.com/silo-ledger/backend/internal/interfaces/http/dto"
)

// CreateRequest is a bound create body that builds the record to store
type CreateRequest[T any] interface {
	ToEntity() (*T, error)
}

// UpdateRequest is a bound update body that lists the columns to patch
type UpdateRequest interface {
	ToPatch() (shared.Patch, error)
}

// RecordHandler serves the six endpoints of one record kind
type RecordHandler[T any, P interface {
	*T
	shared.Entity
}, C CreateRequest[T], U UpdateRequest] struct {
	BaseHandler
	service *record.Service[T, P]
}

// NewRecordHandler creates a new RecordHandler
func NewRecordHandler[T any, P interface {
	*T
	shared.Entity
}, C CreateRequest[T], U UpdateRequest](service *record.Service[T, P]) *RecordHandler[T, P, C, U] {
	return &RecordHandler[T, P, C, U]{service: service}
}

// Name returns the route segment of the kind
func (h *RecordHandler[T, P, C, U]) Name() string {
	return h.service.Kind().Name
}

// Create handles POST /{kind}
func (h *RecordHandler[T, P, C, U]) Create(c *gin.Context) {
	var req C
	if err := bindBody(c, &req); err != nil {
		h.BindError(c, err)
		return
	}
	entity, err := req.ToEntity()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	upload, err := h.upload(c)
	if err != nil {
		h.BindError(c, err)
		return
	}

	created, err := h.service.Create(c.Request.Context(), entity, upload)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Record(c, http.StatusCreated, h.service.Kind().Created(), created)
}

// List handles GET /{kind}
func (h *RecordHandler[T, P, C, U]) List(c *gin.Context) {
	listing, err := h.service.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.BaseHandler.List(c, dto.NewListResponse(listing.Count, listing.UpdatedAt, listing.Data))
}

// Get handles GET /{kind}/:id
func (h *RecordHandler[T, P, C, U]) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	entity, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Record(c, http.StatusOK, "", entity)
}

// Update handles PATCH /{kind}/:id
func (h *RecordHandler[T, P, C, U]) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	var req U
	if err := bindBody(c, &req); err != nil {
		h.BindError(c, err)
		return
	}
	patch, err := req.ToPatch()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	upload, err := h.upload(c)
	if err != nil {
		h.BindError(c, err)
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, patch, upload)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Record(c, http.StatusOK, h.service.Kind().Updated(), updated)
}

// Delete handles DELETE /{kind}/:id
func (h *RecordHandler[T, P, C, U]) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	deleted, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Record(c, http.StatusOK, h.service.Kind().Deleted(), deleted)
}

// DeleteAll handles DELETE /{kind}
func (h *RecordHandler[T, P, C, U]) DeleteAll(c *gin.Context) {
	count, err := h.service.DeleteAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Count(c, h.service.Kind().AllDeleted(), count)
}

// upload returns the image sent in the kind's multipart field, or nil
func (h *RecordHandler[T, P, C, U]) upload(c *gin.Context) (*attachment.Upload, error) {
	kind := h.service.Kind()
	if !kind.HasImage() || c.ContentType() != binding.MIMEMultipartPOSTForm {
		return nil, nil
	}
	fh, err := c.FormFile(kind.ImageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	return uploadFromHeader(fh), nil
}

func uploadFromHeader(fh *multipart.FileHeader) *attachment.Upload {
	return &attachment.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// bindBody binds JSON or form bodies. A request without a body binds to the
// zero value so that an empty PATCH is accepted.
func bindBody(c *gin.Context, obj any) error {
	if c.Request.ContentLength == 0 && c.ContentType() == binding.MIMEJSON {
		return binding.Validator.ValidateStruct(obj)
	}
	return c.ShouldBind(obj)
}
