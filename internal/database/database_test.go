package database

import (
	"context"
	"testing"

	"engagement/internal/config"
	"engagement/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         NewGormLogger(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func TestConfigurePool(t *testing.T) {
	db := openSQLite(t)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestMigrate_CreatesTables(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Migrate(db))

	for _, m := range Models() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Review{}, "idx_reviews_user_novel"))

	// Running twice is harmless.
	require.NoError(t, Migrate(db))
}

func TestMigrate_ActiveReportIndex(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Migrate(db))

	reporter := uuid.New()
	first := &models.Report{
		ReporterID:  reporter,
		ContentType: models.ReportContentComment,
		ContentID:   10,
		ReportType:  models.ReportTypeSpam,
		Reason:      "spam",
	}
	require.NoError(t, db.Create(first).Error)

	dup := *first
	dup.ID, dup.UUID = 0, uuid.Nil
	err := db.Create(&dup).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// Once the first report leaves IN_REVIEW the reporter may report again.
	require.NoError(t, db.Model(first).Update("status", models.ReportStatusResolved).Error)
	again := *first
	again.ID, again.UUID, again.Status = 0, uuid.Nil, ""
	assert.NoError(t, db.Create(&again).Error)
}

func TestPing(t *testing.T) {
	db := openSQLite(t)
	assert.NoError(t, Ping(context.Background(), db))
}
