package dbpool

import (
	"database/sql"
	"fmt"

	"github.com/hedgepy/broker/internal/config"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// SharedPool manages a single shared PostgreSQL connection pool.
// Multiple repositories and stores can use the same pool to reduce connection overhead.
type SharedPool struct {
	db *sql.DB
}

// NewSharedPool creates a new shared PostgreSQL connection pool.
func NewSharedPool(connectionString string, poolConfig config.PostgresPoolConfig) (*SharedPool, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	// Apply connection pool settings from config
	config.ApplyPostgresPoolSettings(db, poolConfig)

	return &SharedPool{db: db}, nil
}

// NewFromDB wraps an already-open *sql.DB as a SharedPool, mirroring the
// teacher's NewPostgresStoreWithDB — used to share a single pool across
// the storage gateway and any other repository, and to inject a mock
// driver's *sql.DB in tests.
func NewFromDB(db *sql.DB) *SharedPool {
	return &SharedPool{db: db}
}

// DB returns the underlying *sql.DB for use by repositories.
func (p *SharedPool) DB() *sql.DB {
	return p.db
}

// Close closes the shared connection pool.
// This should only be called once when the application shuts down.
// sql.DB.Close() is safe to call multiple times.
func (p *SharedPool) Close() error {
	return p.db.Close()
}
