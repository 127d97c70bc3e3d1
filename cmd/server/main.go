// Package main runs the event registration HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/marea-events/backend/config"
	"github.com/marea-events/backend/internal/attendance"
	"github.com/marea-events/backend/internal/emaillogs"
	"github.com/marea-events/backend/internal/events"
	"github.com/marea-events/backend/internal/middleware"
	"github.com/marea-events/backend/internal/registrations"
	"github.com/marea-events/backend/pkg/database"
	"github.com/marea-events/backend/pkg/queue"
	"github.com/marea-events/backend/pkg/redis"
	"github.com/marea-events/backend/pkg/response"
	"github.com/marea-events/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, database.PoolConfig{
		DSN:             cfg.Database.DSN(),
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetimeMin) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.Database.ConnMaxIdleTimeMin) * time.Minute,
		ConnectTimeout:  time.Duration(cfg.Database.ConnectTimeoutSec) * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	s3Cfg := storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		AssetsBucket:         cfg.AWS.AssetsBucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}
	s3Client, err := storage.NewS3(ctx, s3Cfg, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	jobQueue := queue.NewQueue(rdb.Client, logger)

	eventRepo := events.NewRepository(pool)
	eventHandler := events.NewHandler(eventRepo, cfg.Waiver.Version, logger)

	registrationRepo := registrations.NewRepository(pool)
	registrationHandler := registrations.NewHandler(registrationRepo, eventRepo, s3Client, jobQueue, cfg.Waiver, logger)

	attendanceHandler := attendance.NewHandler(registrationRepo, logger)

	emailLogsRepo := emaillogs.NewRepository(pool)
	emailLogsHandler := emaillogs.NewHandler(emailLogsRepo)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public: browse published events and register
	router.GET("/events", eventHandler.ListPublished)
	router.GET("/events/:id", eventHandler.GetPublic)
	router.POST("/events/:id/register", registrationHandler.Register)

	// Door scanning (staff or admin)
	scan := router.Group("/attendance")
	scan.Use(middleware.Identity(cfg.JWT.Secret), middleware.RequireGroup(middleware.GroupStaff, middleware.GroupAdmin))
	{
		scan.POST("/scan", attendanceHandler.Scan)
	}

	// Admin surface
	admin := router.Group("/admin")
	admin.Use(middleware.Identity(cfg.JWT.Secret), middleware.RequireGroup(middleware.GroupAdmin))
	{
		admin.GET("/events", eventHandler.ListAll)
		admin.POST("/events", eventHandler.Create)
		admin.PATCH("/events/:id", eventHandler.Patch)
		admin.GET("/events/:id/registrations", registrationHandler.List)
		admin.POST("/events/:id/registrations/export", registrationHandler.Export)
		admin.POST("/events/:id/registrations/resend", registrationHandler.Resend)
		admin.GET("/events/:id/emails", emailLogsHandler.ListByEvent)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
