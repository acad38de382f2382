package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const putAnyAttempts = 5

type kvEntry struct {
	Key       string `gorm:"column:kv_key;primaryKey;size:191"`
	Value     []byte `gorm:"column:value"`
	Version   int64  `gorm:"column:version;not null"`
	UpdatedAt time.Time
}

func (kvEntry) TableName() string { return "kv_entries" }

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Gorm is a KV backed by a single kv_entries table.
type Gorm struct {
	db *gorm.DB
}

// Open connects to driver ("postgres" or "sqlite") and migrates the table.
func Open(driver, dsn string) (*Gorm, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}
	return NewGorm(db)
}

func NewGorm(db *gorm.DB) (*Gorm, error) {
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("migrate kv_entries: %w", err)
	}
	return &Gorm{db: db}, nil
}

func (g *Gorm) Get(ctx context.Context, key string) (Entry, bool, error) {
	var e kvEntry
	err := g.db.WithContext(ctx).Where("kv_key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("get %q: %w", key, err)
	}
	return Entry{Value: e.Value, Version: e.Version}, true, nil
}

func (g *Gorm) Put(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	if expected != AnyVersion {
		return g.compareAndSwap(ctx, key, value, expected)
	}

	for range putAnyAttempts {
		current, _, err := g.Get(ctx, key)
		if err != nil {
			return 0, err
		}
		v, err := g.compareAndSwap(ctx, key, value, current.Version)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		return v, err
	}
	return 0, fmt.Errorf("put %q: %w", key, ErrVersionConflict)
}

func (g *Gorm) compareAndSwap(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	db := g.db.WithContext(ctx)

	if expected == 0 {
		res := db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&kvEntry{Key: key, Value: value, Version: 1, UpdatedAt: time.Now()})
		if res.Error != nil {
			return 0, fmt.Errorf("insert %q: %w", key, res.Error)
		}
		if res.RowsAffected == 0 {
			return 0, ErrVersionConflict
		}
		return 1, nil
	}

	res := db.Model(&kvEntry{}).
		Where("kv_key = ? AND version = ?", key, expected).
		Updates(map[string]any{
			"value":      value,
			"version":    expected + 1,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("update %q: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrVersionConflict
	}
	return expected + 1, nil
}

func (g *Gorm) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := g.db.WithContext(ctx).Where("kv_key IN ?", keys).Delete(&kvEntry{}).Error; err != nil {
		return fmt.Errorf("delete %v: %w", keys, err)
	}
	return nil
}
