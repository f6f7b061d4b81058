package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	mysqlTC "github.com/testcontainers/testcontainers-go/modules/mysql"
	redisTC "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap"

	"placesbot/internal/app"
	"placesbot/internal/storage/mysql"
	"placesbot/internal/storage/stubs"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("Dev environment failed", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	ctx := context.Background()

	logger.Info("Starting MySQL and Redis testcontainers...")

	mysqlContainer, err := mysqlTC.Run(ctx,
		"mysql:8.0.36",
		mysqlTC.WithDatabase("places"),
		mysqlTC.WithUsername("bot"),
		mysqlTC.WithPassword("devpassword"),
	)
	if err != nil {
		return fmt.Errorf("failed to start MySQL container: %w", err)
	}
	// Ensure container cleanup on exit
	defer func() {
		logger.Info("Stopping MySQL container...")
		if err := mysqlContainer.Terminate(ctx); err != nil {
			logger.Warn("Failed to terminate MySQL container", zap.Error(err))
		}
	}()

	redisContainer, err := redisTC.Run(ctx, "redis:7-alpine")
	if err != nil {
		return fmt.Errorf("failed to start Redis container: %w", err)
	}
	defer func() {
		logger.Info("Stopping Redis container...")
		if err := redisContainer.Terminate(ctx); err != nil {
			logger.Warn("Failed to terminate Redis container", zap.Error(err))
		}
	}()

	dsn, err := mysqlContainer.ConnectionString(ctx, "charset=utf8mb4", "parseTime=True", "loc=UTC")
	if err != nil {
		return fmt.Errorf("failed to get MySQL DSN: %w", err)
	}
	redisURI, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		return fmt.Errorf("failed to get Redis address: %w", err)
	}
	redisOpts, err := redis.ParseURL(redisURI)
	if err != nil {
		return fmt.Errorf("failed to parse Redis address: %w", err)
	}

	if err := seed(ctx, dsn, logger); err != nil {
		return err
	}

	// Set environment variables for the application
	os.Setenv("PLACES_BACKEND", "mysql")
	os.Setenv("MYSQL_DSN", dsn)
	os.Setenv("REDIS_ADDR", redisOpts.Addr)
	os.Setenv("USE_MOCK_SESSIONS", "false")
	os.Setenv("USE_MOCK_DB", "false")
	os.Setenv("WEBHOOK_MODE", "false")
	if os.Getenv("LOG_LEVEL") == "" {
		os.Setenv("LOG_LEVEL", "debug")
	}

	if os.Getenv("TELEGRAM_BOT_TOKEN") == "" {
		logger.Warn("TELEGRAM_BOT_TOKEN not set. Please set it in your .env file or environment.")
	}

	logger.Info("Starting application with MySQL and Redis backends...",
		zap.String("redis_addr", redisOpts.Addr),
	)

	application, err := app.New()
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return application.Run()
}

// seed migrates the fresh database and fills it with the demo venues
func seed(ctx context.Context, dsn string, logger *zap.Logger) error {
	db, err := mysql.Open(dsn, 2, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	for _, v := range stubs.DemoVenues() {
		if err := db.UpsertPlace(ctx, v); err != nil {
			return fmt.Errorf("failed to seed %s: %w", v.PlaceID, err)
		}
	}
	logger.Info("Seeded demo venues", zap.Int("count", len(stubs.DemoVenues())))
	return nil
}
