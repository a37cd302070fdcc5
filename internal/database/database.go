package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Conceptual-Machines/hairstyle-ai/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
)

// Connect opens the Postgres connection used by the usage log
func Connect(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	log.Println("✅ Database connected")
	return db, nil
}

// Migrate creates or updates the usage log tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.GenerationLog{}); err != nil {
		return fmt.Errorf("failed to migrate generation logs: %w", err)
	}
	return nil
}

// UsageRepository stores generation usage rows. A nil database makes it a no-op.
type UsageRepository struct {
	db *gorm.DB
}

// NewUsageRepository creates a repository backed by db, which may be nil
func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// Enabled reports whether rows are persisted
func (r *UsageRepository) Enabled() bool {
	return r != nil && r.db != nil
}

// Record inserts one usage row
func (r *UsageRepository) Record(ctx context.Context, entry *models.GenerationLog) error {
	if !r.Enabled() {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}
	return nil
}

// UsageSummary aggregates usage rows over a time window
type UsageSummary struct {
	Total       int64 `json:"total"`
	Succeeded   int64 `json:"succeeded"`
	Failed      int64 `json:"failed"`
	TotalTokens int64 `json:"total_tokens"`
}

// Summary counts generations created since the given time
func (r *UsageRepository) Summary(ctx context.Context, since time.Time) (UsageSummary, error) {
	var summary UsageSummary
	if !r.Enabled() {
		return summary, nil
	}

	err := r.db.WithContext(ctx).
		Model(&models.GenerationLog{}).
		Select("COUNT(*) AS total, " +
			"COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0) AS succeeded, " +
			"COALESCE(SUM(CASE WHEN success THEN 0 ELSE 1 END), 0) AS failed, " +
			"COALESCE(SUM(total_tokens), 0) AS total_tokens").
		Where("created_at >= ?", since).
		Scan(&summary).Error
	if err != nil {
		return UsageSummary{}, fmt.Errorf("failed to summarise generations: %w", err)
	}
	return summary, nil
}
