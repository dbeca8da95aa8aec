package main

import (
	"context"

	"github.com/silo-ledger/backend/internal/application/attachment"
	"github.com/silo-ledger/backend/internal/application/record"
	"github.com/silo-ledger/backend/internal/domain/directory"
	"github.com/silo-ledger/backend/internal/domain/receipt"
	"github.com/silo-ledger/backend/internal/domain/shared"
	"github.com/silo-ledger/backend/internal/infrastructure/config"
	"github.com/silo-ledger/backend/internal/infrastructure/persistence"
	"github.com/silo-ledger/backend/internal/infrastructure/storage"
	"github.com/silo-ledger/backend/internal/interfaces/http/handler"
	"github.com/silo-ledger/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// registerRecordRoutes mounts every record kind on r. Only users and silos
// carry images, so only they get the attachment workflow.
func registerRecordRoutes(r *router.Router, db *gorm.DB, workflow *attachment.Workflow, log *zap.Logger) {
	imageOpts := []record.Option{record.WithWorkflow(workflow), record.WithLogger(log)}
	plainOpts := []record.Option{record.WithLogger(log)}

	r.Register(recordRoutes[directory.User, *directory.User, handler.CreateUserRequest, handler.UpdateUserRequest](
		directory.UserKind, db, imageOpts...)).
		Register(recordRoutes[directory.Silo, *directory.Silo, handler.CreateSiloRequest, handler.UpdateSiloRequest](
			directory.SiloKind, db, imageOpts...)).
		Register(recordRoutes[directory.Vendor, *directory.Vendor, handler.CreateVendorRequest, handler.UpdateVendorRequest](
			directory.VendorKind, db, plainOpts...)).
		Register(recordRoutes[directory.PIC, *directory.PIC, handler.CreatePICRequest, handler.UpdatePICRequest](
			directory.PICKind, db, plainOpts...)).
		Register(recordRoutes[directory.Customer, *directory.Customer, handler.CreateCustomerRequest, handler.UpdateCustomerRequest](
			directory.CustomerKind, db, plainOpts...)).
		Register(recordRoutes[receipt.InvoiceReceipt, *receipt.InvoiceReceipt, handler.CreateInvoiceRequest, handler.UpdateInvoiceRequest](
			receipt.InvoiceKind, db, plainOpts...))
}

// recordRoutes wires the store, service and handler of one record kind
func recordRoutes[T any, P interface {
	*T
	shared.Entity
}, C handler.CreateRequest[T], U handler.UpdateRequest](kind shared.Kind, db *gorm.DB, opts ...record.Option) *router.DomainGroup {
	service := record.NewService[T, P](kind, persistence.NewGormStore[T, P](db), opts...)
	return router.RecordRoutes(handler.NewRecordHandler[T, P, C, U](service))
}

// newBlobStore builds the configured remote store. Without a read/write token
// no S3 client is built and a nil store is returned, so only image uploads
// fail while every other operation keeps working.
func newBlobStore(ctx context.Context, cfg *config.StorageConfig, log *zap.Logger) (attachment.RemoteStore, error) {
	if !cfg.HasCredential() {
		log.Warn("Blob read/write token is not set, image uploads will be rejected")
		return nil, nil
	}

	if cfg.Driver == config.StorageDriverMemory {
		log.Warn("Using in-memory blob storage, uploaded images are lost on restart")
		mem := storage.NewMemoryBlobStore()
		if cfg.PublicURL != "" {
			mem.BaseURL = cfg.PublicURL
		}
		return mem, nil
	}

	s3Store, err := storage.NewS3BlobStore(cfg, storage.WithLogger(log.Named("blob")))
	if err != nil {
		return nil, err
	}
	if cfg.EnsureBucket {
		if err := s3Store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
	}
	log.Info("Blob storage ready", zap.String("bucket", s3Store.Bucket()))
	return s3Store, nil
}
