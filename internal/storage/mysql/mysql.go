package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"placesbot/internal/storage"
	"placesbot/migrations"
)

// DefaultPoolSize bounds open connections to the expected number of
// concurrently served chats
const DefaultPoolSize = 20

// DB is the MySQL backend: the mirrored Places table plus user data
type DB struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ storage.Storage = (*DB)(nil)

// Open connects to MySQL with a bounded connection pool
func Open(dsn string, poolSize int, logger *zap.Logger) (*DB, error) {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}

	db, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get MySQL pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(poolSize)
	sqlDB.SetMaxIdleConns(poolSize / 2)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	logger.Info("Connected to MySQL", zap.Int("pool_size", poolSize))
	return &DB{db: db, logger: logger}, nil
}

// DSN builds a go-sql-driver DSN from its parts
func DSN(host, port, user, password, database string) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		user, password, host, port, database)
}

// Initialize applies the embedded migrations
func (d *DB) Initialize(ctx context.Context) error {
	return d.Migrate(ctx)
}

// Migrate runs goose up with the embedded MySQL migrations
func (d *DB) Migrate(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrations.MySQL)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("mysql"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "mysql"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SQL returns the underlying connection pool
func (d *DB) SQL() (*sql.DB, error) {
	return d.db.DB()
}

// Close closes the connection pool
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}
