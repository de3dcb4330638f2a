package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"walletd/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps wallet values in the wallet_entries table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Read(ctx context.Context, key string) (string, bool, error) {
	var entry models.WalletEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read wallet entry: %w", err)
	}
	return entry.Value, true, nil
}

func (s *GormStore) Write(ctx context.Context, key, value string) error {
	entry := models.WalletEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write wallet entry: %w", err)
	}
	return nil
}

func (s *GormStore) Remove(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Where("key = ?", key).Delete(&models.WalletEntry{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove wallet entry: %w", err)
	}
	return nil
}

// Ping checks the underlying connection.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
