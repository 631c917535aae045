// Package server exposes the engagement services over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"engagement/internal/bootstrap"
	"engagement/internal/cache"
	"engagement/internal/clients"
	"engagement/internal/config"
	"engagement/internal/database"
	"engagement/internal/featureflags"
	"engagement/internal/middleware"
	"engagement/internal/models"
	"engagement/internal/observability"
	"engagement/internal/repository"
	"engagement/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Peers are the collaborating services the engagement workflows call.
type Peers struct {
	Content  service.ContentLookup
	Users    service.UserDirectory
	Notifier service.ExperienceNotifier
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	dispatcher     *clients.Dispatcher
	logger         *slog.Logger

	comments   *service.CommentService
	reviews    *service.ReviewService
	reports    *service.ReportService
	votes      *service.VoteService
	engagement *service.EngagementService
}

// NewServer connects storage and the peer clients described by cfg.
func NewServer(cfg *config.Config) (*Server, error) {
	// A nil Redis client leaves the service running uncached.
	db, redisClient, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}

	gamification := clients.NewGamificationClient(cfg.GamificationServiceURL, cfg.GamificationTimeout())
	dispatcher := clients.NewDispatcher(gamification, cfg.GamificationWorkers, cfg.GamificationTimeout())

	s, err := NewServerWithDeps(cfg, db, redisClient, Peers{
		Content:  clients.NewContentClient(cfg.ContentServiceURL, cfg.UpstreamTimeout()),
		Users:    clients.NewUserClient(cfg.UserServiceURL, cfg.UpstreamTimeout()),
		Notifier: gateExperienceEvents(dispatcher, featureflags.NewManager(cfg.FeatureFlags)),
	})
	if err != nil {
		return nil, err
	}
	s.dispatcher = dispatcher
	return s, nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB and Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, peers Peers) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if peers.Content == nil {
		return nil, fmt.Errorf("content lookup is required")
	}

	coordinator := cache.NewCoordinator(cache.NewRedisStore(redisClient), cfg.CacheTimeout())

	commentRepo := repository.NewCommentRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	reportRepo := repository.NewReportRepository(db)
	voteRepo := repository.NewVoteRepository(db)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("engagement-api"),
		logger:         observability.Component("server"),
		comments:       service.NewCommentService(commentRepo, coordinator, peers.Content, peers.Users, peers.Notifier),
		reviews:        service.NewReviewService(reviewRepo, voteRepo, coordinator, peers.Content, peers.Users, peers.Notifier),
		reports:        service.NewReportService(reportRepo, coordinator),
		votes:          service.NewVoteService(voteRepo, coordinator, peers.Notifier),
		engagement:     service.NewEngagementService(commentRepo, reviewRepo, reportRepo, voteRepo, coordinator, peers.Users),
	}, nil
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName: "Engagement API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			return respond(c, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.Identity())
	// After requestid, tracing and identity so all three reach the logger.
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, " + middleware.HeaderUserID + ", " + middleware.HeaderUserRole,
		MaxAge:       86400,
	}))

	// Global per-IP limit; the gateway carries the real budget outside production.
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.config.IsProduction()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  "RATE_LIMITED",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/healthz", s.HealthCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api/v1")
	user := middleware.UserRequired()
	admin := middleware.AdminRequired()

	// Static segments are registered before /:id.
	comments := api.Group("/comments")
	comments.Get("/search", s.SearchComments)
	comments.Get("/recent", s.RecentComments)
	comments.Get("/popular", s.PopularComments)
	comments.Get("/keyword", s.KeywordComments)
	comments.Get("/chapter/:chapterId", s.ListChapterComments)
	comments.Get("/user/:userId", s.ListUserComments)
	comments.Post("/batch/delete", user, s.BatchDeleteComments)
	comments.Post("/batch/spoiler", user, s.BatchUpdateSpoiler)
	comments.Post("/", user, s.CreateComment)
	comments.Get("/:id", s.GetComment)
	comments.Put("/:id", user, s.UpdateComment)
	comments.Delete("/:id", user, s.DeleteComment)

	reviews := api.Group("/reviews")
	reviews.Get("/search", s.SearchReviews)
	reviews.Get("/uuid/:uuid", s.GetReviewByUUID)
	reviews.Get("/novel/:novelId", s.ListNovelReviews)
	reviews.Get("/user/:userId/novel/:novelId", s.GetUserNovelReview)
	reviews.Get("/user/:userId", s.ListUserReviews)
	reviews.Post("/", user, s.CreateReview)
	reviews.Get("/:id", s.GetReview)
	reviews.Put("/:id", user, s.UpdateReview)
	reviews.Delete("/:id", user, s.DeleteReview)

	reports := api.Group("/reports", user)
	reports.Post("/", middleware.RateLimit(s.redis, s.config.ReportRateLimit, time.Hour, "create_report"), s.CreateReport)
	reports.Get("/", admin, s.ListReports)
	reports.Post("/batch/delete", admin, s.BatchDeleteReports)
	reports.Get("/uuid/:uuid", admin, s.GetReportByUUID)
	reports.Get("/:id", admin, s.GetReport)
	reports.Post("/:id/resolve", admin, s.ResolveReport)

	likes := api.Group("/likes")
	likes.Get("/:type/:id/count", s.LikeCount)
	likes.Get("/:type/:id/me", user, s.HasLiked)
	likes.Post("/:type/:id", user, s.Like)
	likes.Delete("/:type/:id", user, s.Unlike)

	stats := api.Group("/stats")
	stats.Get("/novels/:novelId/ratings", s.NovelRatingStats)
	stats.Get("/comments/activity", s.CommentActivity)
	stats.Get("/reports/top", user, admin, s.MostReportedContent)
	stats.Get("/reports/status", user, admin, s.ReportStatusCounts)
	stats.Get("/moderation", user, admin, s.ModerationDashboard)
}

// HealthCheck reports whether the database answers. Redis is optional: the
// service degrades to uncached reads without it.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis == nil {
		redisStatus = "unavailable"
	} else if err := s.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "degraded"
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	} else if redisStatus != "healthy" {
		overall = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start listens on the configured port until Shutdown.
func (s *Server) Start() error {
	app := s.App()
	s.logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests, drains pending experience events and
// closes storage.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			s.logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.dispatcher != nil {
		done := make(chan struct{})
		go func() {
			s.dispatcher.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			s.logger.Warn("gave up waiting for experience events")
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			s.logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			s.logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}
