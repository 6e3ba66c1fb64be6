package config

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
)

// SetupDatabase initializes the database connection
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sqlx.DB) error {
	// Create clients table
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS clients (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(120) NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			phone VARCHAR(20),
			external_code VARCHAR(50) UNIQUE,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create movements table. The ledger history is owned by the client
	// record, so deleting a client cascades to its movements.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS movements (
			id VARCHAR(36) PRIMARY KEY,
			client_id VARCHAR(36) NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
			kind VARCHAR(20) NOT NULL CHECK (kind IN ('accumulate', 'redeem')),
			points BIGINT NOT NULL CHECK (points > 0),
			description VARCHAR(255),
			reference VARCHAR(64),
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Authoritative duplicate guard: the same ticket reference may be
	// accumulated at most once per client. Redemptions may reuse it.
	_, err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS ux_movements_accumulate_reference
		ON movements (client_id, reference)
		WHERE kind = 'accumulate' AND reference IS NOT NULL
	`)
	if err != nil {
		return err
	}

	// Indexes for history and balance queries
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_movements_client_created ON movements(client_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_movements_client_kind ON movements(client_id, kind)",
		"CREATE INDEX IF NOT EXISTS idx_movements_reference ON movements(reference)",
	}

	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			zap.L().Warn("failed to create index", zap.Error(err))
			// Indexes other than the unique one are not critical
		}
	}

	return nil
}
