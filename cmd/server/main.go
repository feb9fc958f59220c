// Package main runs the PG-Mate HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/MohammedjaveedA/PG-Mate/config"
	"github.com/MohammedjaveedA/PG-Mate/internal/auth"
	"github.com/MohammedjaveedA/PG-Mate/internal/issues"
	"github.com/MohammedjaveedA/PG-Mate/internal/middleware"
	"github.com/MohammedjaveedA/PG-Mate/internal/models"
	"github.com/MohammedjaveedA/PG-Mate/internal/notifications"
	"github.com/MohammedjaveedA/PG-Mate/internal/pghostel"
	"github.com/MohammedjaveedA/PG-Mate/internal/realtime"
	"github.com/MohammedjaveedA/PG-Mate/internal/student"
	"github.com/MohammedjaveedA/PG-Mate/internal/worker"
	"github.com/MohammedjaveedA/PG-Mate/pkg/database"
	"github.com/MohammedjaveedA/PG-Mate/pkg/queue"
	"github.com/MohammedjaveedA/PG-Mate/pkg/redis"
	"github.com/MohammedjaveedA/PG-Mate/pkg/response"
	"github.com/MohammedjaveedA/PG-Mate/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ImagesBucket:         cfg.AWS.ImagesBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// A nil *storage.S3 must stay a nil interface inside the handlers.
	var pgImages pghostel.ImageStorage
	var issueImages issues.ImageStorage
	if s3Client != nil {
		pgImages = s3Client
		issueImages = s3Client
	}

	// Auth
	userRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(userRepo, jwtService, logger)

	// PG/Hostels
	pgRepo := pghostel.NewRepository(pool)
	pgHandler := pghostel.NewHandler(pgRepo, pgImages, logger)

	// Issues
	issueRepo := issues.NewRepository(pool)
	issueHandler := issues.NewHandler(issueRepo, userRepo, pgRepo, hub, jobQueue, issueImages, logger)

	// Students
	studentHandler := student.NewHandler(userRepo, pgRepo, logger)

	// Notification email logs + background worker
	emailRepo := notifications.NewRepository(pool)
	emailHandler := notifications.NewHandler(emailRepo, logger)
	mailer := notifications.NewMailer(cfg.Email, logger)
	notificationProcessor := worker.NewNotificationProcessor(issueRepo, userRepo, emailRepo, mailer, jobQueue, logger)

	jwtValidate := func(token string) (middleware.Identity, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return middleware.Identity{}, err
		}
		return middleware.Identity{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
	}
	wsValidate := func(token string) (uuid.UUID, string, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return uuid.Nil, "", err
		}
		return claims.UserID, claims.Role, nil
	}
	ownsPG := func(ctx context.Context, pgHostelID, userID uuid.UUID) (bool, error) {
		pg, err := pgRepo.GetByID(ctx, pgHostelID)
		if err != nil {
			return false, err
		}
		return pg.OwnerID == userID, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Public PG directory
	router.GET("/pghostel/list", pgHandler.ListPublic)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtValidate))
	{
		api.POST("/auth/set-role", authHandler.SetRole)

		// PG/Hostels (owner)
		api.POST("/pghostel", middleware.RequireRole(string(models.RoleOwner)), pgHandler.Create)
		api.GET("/pghostel/my", middleware.RequireRole(string(models.RoleOwner)), pgHandler.ListMine)
		api.GET("/pghostel/owner", middleware.RequireRole(string(models.RoleOwner)), pgHandler.ListMine)
		api.PUT("/pghostel/:id", pghostel.RequirePGOwnership(pgRepo, "id"), pgHandler.Update)
		api.DELETE("/pghostel/:id", pghostel.RequirePGOwnership(pgRepo, "id"), pgHandler.Delete)
		api.POST("/pghostel/:id/images/generate-upload-url", pghostel.RequirePGOwnership(pgRepo, "id"), pgHandler.GenerateImageUploadURL)

		// Issues (student side)
		api.POST("/issues", middleware.RequireRole(string(models.RoleStudent)), issueHandler.Create)
		api.GET("/issues/my-issues", middleware.RequireRole(string(models.RoleStudent)), issueHandler.MyIssues)
		api.POST("/issues/:id/images/generate-upload-url", middleware.RequireRole(string(models.RoleStudent)), issueHandler.GenerateImageUploadURL)

		// Issues (owner side; ownership chain issue -> pg -> owner)
		api.GET("/issues/pg/:pgId", pghostel.RequirePGOwnership(pgRepo, "pgId"), issueHandler.ListByPG)
		api.PUT("/issues/:id/status", issues.RequireIssueOwnership(issueRepo, pgRepo), issueHandler.UpdateStatus)
		api.POST("/issues/:id/comment", issues.RequireIssueOwnership(issueRepo, pgRepo), issueHandler.Comment)
		api.GET("/issues/:id/emails", issues.RequireIssueOwnership(issueRepo, pgRepo), emailHandler.ListByIssue)

		// Students
		studentGroup := api.Group("/student", middleware.RequireRole(string(models.RoleStudent)))
		{
			studentGroup.PATCH("/select-pg", studentHandler.SelectPG)
			studentGroup.PATCH("/leave-pg", studentHandler.LeavePG)
			studentGroup.GET("/my-pg", studentHandler.MyPG)
		}
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, wsValidate, ownsPG))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (issue notification email)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go notificationProcessor.Run(workerCtx)
	logger.Info("notification worker started")

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
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
