// Package main runs the background job worker (issue notification email).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/MohammedjaveedA/PG-Mate/config"
	"github.com/MohammedjaveedA/PG-Mate/internal/auth"
	"github.com/MohammedjaveedA/PG-Mate/internal/issues"
	"github.com/MohammedjaveedA/PG-Mate/internal/notifications"
	"github.com/MohammedjaveedA/PG-Mate/internal/worker"
	"github.com/MohammedjaveedA/PG-Mate/pkg/database"
	"github.com/MohammedjaveedA/PG-Mate/pkg/queue"
	"github.com/MohammedjaveedA/PG-Mate/pkg/redis"
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

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	issueRepo := issues.NewRepository(pool)
	userRepo := auth.NewRepository(pool)
	emailRepo := notifications.NewRepository(pool)
	mailer := notifications.NewMailer(cfg.Email, logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewNotificationProcessor(issueRepo, userRepo, emailRepo, mailer, jobQueue, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
