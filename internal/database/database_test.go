package database

import (
	"context"
	"testing"
	"time"

	"github.com/Conceptual-Machines/hairstyle-ai/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=test dbname=test sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestUsageRepository_NilDatabase(t *testing.T) {
	repo := NewUsageRepository(nil)
	assert.False(t, repo.Enabled())

	require.NoError(t, repo.Record(context.Background(), &models.GenerationLog{}))

	summary, err := repo.Summary(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
}

func TestUsageRepository_RecordStatement(t *testing.T) {
	db := dryRunDB(t)

	entry := &models.GenerationLog{
		RequestID:  "req-1",
		Provider:   "gemini",
		Model:      "gemini-2.5-flash-image",
		Mode:       "REFERENCE_IMAGE",
		Success:    true,
		DurationMS: 1200,
	}
	stmt := db.Create(entry).Statement

	assert.Contains(t, stmt.SQL.String(), `INSERT INTO "generation_logs"`)
	assert.Contains(t, stmt.Vars, "req-1")
	assert.True(t, NewUsageRepository(db).Enabled())
}
