package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cleaning-session-backend/internal/model"
)

// gormStore implements Store on the kv_entries table.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed key-value store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) GetObject(ctx context.Context, key string, out any) (bool, error) {
	var entry model.KVEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(entry.Value), out); err != nil {
		return false, fmt.Errorf("%w: key %q: %v", ErrDecode, key, err)
	}
	return true, nil
}

func (s *gormStore) SetObject(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode key %q: %w", key, err)
	}
	entry := model.KVEntry{Key: key, Value: string(data), UpdatedAt: time.Now().UTC()}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (s *gormStore) Remove(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&model.KVEntry{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("failed to remove key %q: %w", key, err)
	}
	return nil
}

func (s *gormStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&model.KVEntry{}).Error; err != nil {
		return fmt.Errorf("failed to clear kv entries: %w", err)
	}
	return nil
}
