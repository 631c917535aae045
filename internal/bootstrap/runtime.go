// Package bootstrap connects the runtime dependencies shared by the
// engagement commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"engagement/internal/cache"
	"engagement/internal/config"
	"engagement/internal/database"
	"engagement/internal/models"
	"engagement/internal/observability"
	"engagement/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemoData fills an empty development database with demo data.
	SeedDemoData bool
	SeedOptions  seed.Options
}

// InitRuntime connects to DB and Redis and optionally seeds demo data.
// The Redis client is nil when Redis is unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	r := cache.NewRedisClient(cfg.RedisURL)

	if opts.SeedDemoData && !cfg.IsProduction() {
		if _, err := SeedIfEmpty(context.Background(), db, opts.SeedOptions); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

// SeedIfEmpty seeds db unless it already holds comments. It reports whether
// seeding ran.
func SeedIfEmpty(ctx context.Context, db *gorm.DB, opts seed.Options) (bool, error) {
	var n int64
	if err := db.WithContext(ctx).Model(&models.Comment{}).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		observability.Component("bootstrap").Info("demo data already present", slog.Int64("comments", n))
		return false, nil
	}
	if opts.Users == 0 {
		opts = seed.DefaultOptions()
	}
	if _, err := seed.NewSeeder(db).Seed(ctx, opts); err != nil {
		return false, err
	}
	return true, nil
}
