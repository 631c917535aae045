package bootstrap

import (
	"context"
	"testing"

	"engagement/internal/database"
	"engagement/internal/models"
	"engagement/internal/seed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestSeedIfEmpty(t *testing.T) {
	db := setupDB(t)
	opts := seed.Options{Users: 3, Novels: 1, ChaptersPerNovel: 2, CommentsPerChapter: 1, RandomSeed: 1}

	ran, err := SeedIfEmpty(context.Background(), db, opts)
	require.NoError(t, err)
	assert.True(t, ran)

	var n int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&n).Error)
	assert.Equal(t, int64(2), n)

	ran, err = SeedIfEmpty(context.Background(), db, opts)
	require.NoError(t, err)
	assert.False(t, ran)
	require.NoError(t, db.Model(&models.Comment{}).Count(&n).Error)
	assert.Equal(t, int64(2), n)
}
