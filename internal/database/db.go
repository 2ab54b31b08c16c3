package database

import (
	"fmt"
	"net/url"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PoolOptions configures the database/sql pool behind a GORM handle.
type PoolOptions struct {
	// MaxOpenConns caps concurrent connections to Postgres
	MaxOpenConns int
	// MaxIdleConns is how many connections stay open between runs
	MaxIdleConns int
	// ConnMaxLifetime recycles connections so server-side restarts and
	// failovers are picked up
	ConnMaxLifetime time.Duration
}

// DefaultPoolOptions suits a single worker process running the autopilot
// sequentially.
var DefaultPoolOptions = PoolOptions{
	MaxOpenConns:    10,
	MaxIdleConns:    5,
	ConnMaxLifetime: 5 * time.Minute,
}

// Init opens a GORM Postgres connection with DefaultPoolOptions. The
// worker, scheduler and metrics consumer all share the returned handle.
func Init(databaseURL string) (*gorm.DB, error) {
	return InitWithPool(databaseURL, DefaultPoolOptions)
}

// InitWithPool opens a GORM Postgres connection and configures its pool.
//
// The session time zone is forced to UTC unless the URL already sets
// TimeZone, so timestamps written by the store (ScheduledAt, PublishedAt,
// memory timestamps) round-trip without a local offset. GORM logs only
// warnings and slow queries.
func InitWithPool(databaseURL string, pool PoolOptions) (*gorm.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	// Pin the session zone before connecting
	dsn, err := ensureTimezoneUTC(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Pool settings live on the underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)

	return db, nil
}

// Close gracefully closes the connection pool. A nil handle is a no-op so
// shutdown paths can call it unconditionally.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	return nil
}

// ensureTimezoneUTC adds TimeZone=UTC to the DSN query unless the caller
// already chose a zone. Other query parameters such as sslmode are kept.
func ensureTimezoneUTC(databaseURL string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	if q.Get("TimeZone") == "" {
		q.Set("TimeZone", "UTC")
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}
