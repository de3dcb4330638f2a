package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"walletd/internal/services/wallet"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	_ wallet.Store = (*GormStore)(nil)
	_ wallet.Store = (*MemoryStore)(nil)
)

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewGormStore(db), mock
}

func TestGormStore_Read(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT \* FROM "wallet_entries" WHERE key = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_at"}).
				AddRow("walletBalance:alice", "1500", time.Now()))

		value, found, err := store.Read(ctx, "walletBalance:alice")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "1500", value)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT \* FROM "wallet_entries" WHERE key = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_at"}))

		_, found, err := store.Read(ctx, "walletBalance:bob")
		require.NoError(t, err)
		assert.False(t, found)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT \* FROM "wallet_entries"`).WillReturnError(errors.New("db down"))

		_, _, err := store.Read(ctx, "walletBalance:bob")
		assert.ErrorContains(t, err, "failed to read wallet entry")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStore_WriteUpserts(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO "wallet_entries" .* ON CONFLICT \("key"\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Write(context.Background(), "walletBalance:alice", "2000"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_WriteError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO "wallet_entries"`).WillReturnError(errors.New("disk full"))

	err := store.Write(context.Background(), "walletBalance:alice", "2000")
	assert.ErrorContains(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_Remove(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`DELETE FROM "wallet_entries" WHERE key = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Remove(context.Background(), "walletBalance:alice"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBConfig_DSN(t *testing.T) {
	cfg := DBConfig{Host: "db", Port: "5432", User: "wallet", Password: "secret", Name: "walletd"}
	assert.Equal(t, "host=db user=wallet password=secret dbname=walletd port=5432 sslmode=disable", cfg.DSN())
}
