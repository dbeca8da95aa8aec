//go:build integration

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/silo-ledger/backend/internal/domain/directory"
	"github.com/silo-ledger/backend/internal/domain/receipt"
	"github.com/silo-ledger/backend/internal/domain/shared"
	"github.com/silo-ledger/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newPostgresDatabase starts a throwaway PostgreSQL container and migrates it
func newPostgresDatabase(t *testing.T) *Database {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("silo_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("silo-test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	db, err := NewDatabase(&config.DatabaseConfig{
		Driver:          config.DriverPostgres,
		Host:            host,
		Port:            port.Int(),
		User:            "postgres",
		Password:        "silo-test",
		DBName:          "silo_test",
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    1,
		ConnMaxLifetime: 5,
		ConnMaxIdleTime: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestPostgres_RecordLifecycle(t *testing.T) {
	ctx := context.Background()
	db := newPostgresDatabase(t)
	assert.Equal(t, config.DriverPostgres, db.Driver())
	require.NoError(t, db.Ping(ctx))

	silos := NewGormStore[directory.Silo](db.DB)

	silo := &directory.Silo{Name: "Gudang 1"}
	require.NoError(t, silos.Create(ctx, silo))
	assert.NotEqual(t, uuid.Nil, silo.ID)

	updated, err := silos.Update(ctx, silo.ID, shared.Patch{"image_url": "https://cdn.example.com/image/silos/gudang-1/a.png"})
	require.NoError(t, err)
	assert.Equal(t, "Gudang 1", updated.Name)
	assert.Equal(t, "https://cdn.example.com/image/silos/gudang-1/a.png", updated.GetImageURL())
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	require.NoError(t, silos.Delete(ctx, silo.ID))
	assert.ErrorIs(t, silos.Delete(ctx, silo.ID), shared.ErrNotFound)
}

func TestPostgres_InvoiceNullables(t *testing.T) {
	ctx := context.Background()
	db := newPostgresDatabase(t)
	invoices := NewGormStore[receipt.InvoiceReceipt](db.DB)

	vendor := uuid.New()
	inv := &receipt.InvoiceReceipt{
		UserID:     uuid.New(),
		RegisterNo: "REG-001",
		SubmitDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		SiloID:     uuid.New(),
		PICID:      uuid.New(),
		VendorID:   &vendor,
	}
	require.NoError(t, invoices.Create(ctx, inv))

	cleared, err := invoices.Update(ctx, inv.ID, shared.Patch{"vendor_id": nil, "is_urgent": true})
	require.NoError(t, err)
	assert.Nil(t, cleared.VendorID)
	assert.True(t, cleared.IsUrgent)

	count, err := invoices.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
