// Package database resolves connection strings and opens the gorm and pgx handles the stores run on.
package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/MarkoPoloResearchLab/tablebook/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/tablebook/internal/store/pgstore"
	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Driver names the database engine behind a connection string.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"

	defaultSQLiteFile = "tablebook.db"
	memoryPath        = ":memory:"
)

// ErrPoolRequiresPostgres is returned when a pgx pool is requested for a non-Postgres target.
var ErrPoolRequiresPostgres = errors.New("database: pgx pool requires a postgres url")

// Target is a resolved connection string.
type Target struct {
	Driver     Driver
	DSN        string
	SQLitePath string
}

// Resolve maps postgres:// URLs to Postgres and everything else (sqlite:// URLs or bare paths) to SQLite.
func Resolve(dsn string) (Target, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return Target{}, fmt.Errorf("database url is required")
	}
	if strings.HasPrefix(trimmed, "postgres://") || strings.HasPrefix(trimmed, "postgresql://") {
		return Target{Driver: DriverPostgres, DSN: trimmed}, nil
	}
	if strings.HasPrefix(trimmed, "sqlite://") {
		parsed, err := url.Parse(trimmed)
		if err != nil {
			return Target{}, fmt.Errorf("parse sqlite url: %w", err)
		}
		path := parsed.Path
		if parsed.Host != "" {
			path = parsed.Host + path
		}
		if path == "" || path == "/" {
			path = defaultSQLiteFile
		}
		sqlitePath, err := normalizeSQLitePath(path)
		if err != nil {
			return Target{}, err
		}
		return Target{Driver: DriverSQLite, DSN: trimmed, SQLitePath: sqlitePath}, nil
	}
	sqlitePath, err := normalizeSQLitePath(trimmed)
	if err != nil {
		return Target{}, err
	}
	return Target{Driver: DriverSQLite, DSN: trimmed, SQLitePath: sqlitePath}, nil
}

func normalizeSQLitePath(path string) (string, error) {
	if path == memoryPath {
		return path, nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(".", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare sqlite directory: %w", err)
	}
	return path, nil
}

// OpenGorm opens a gorm handle for the target. The returned cleanup closes the underlying pool.
func OpenGorm(ctx context.Context, target Target) (*gorm.DB, func() error, error) {
	config := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	var (
		db  *gorm.DB
		err error
	)
	switch target.Driver {
	case DriverPostgres:
		db, err = gorm.Open(postgres.Open(target.DSN), config)
	case DriverSQLite:
		db, err = gorm.Open(sqlite.Open(target.SQLitePath), config)
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", target.Driver)
	}
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	if target.Driver == DriverSQLite {
		// SQLite allows a single writer; one connection keeps transactions serialized.
		sqlDB.SetMaxOpenConns(1)
	}
	cleanup := func() error { return sqlDB.Close() }
	return db.WithContext(ctx), cleanup, nil
}

// OpenPool opens a pgx pool for a Postgres target.
func OpenPool(ctx context.Context, target Target) (*pgxpool.Pool, error) {
	if target.Driver != DriverPostgres {
		return nil, ErrPoolRequiresPostgres
	}
	pool, err := pgxpool.New(ctx, target.DSN)
	if err != nil {
		return nil, fmt.Errorf("open pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// MigrateGorm creates or updates the tables through gorm's AutoMigrate.
func MigrateGorm(db *gorm.DB) error {
	if err := gormstore.Migrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// MigratePool applies the Postgres schema through pgx.
func MigratePool(ctx context.Context, pool *pgxpool.Pool) error {
	if err := pgstore.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
