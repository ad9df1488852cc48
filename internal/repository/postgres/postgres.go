package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"gearshare-backend/internal/config"
	"gearshare-backend/internal/logger"

	_ "github.com/lib/pq"
)

// Schema creates the single table behind the postgres RecordStore. Every
// logical table shares it, partitioned by table_name.
const Schema = `CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	table_name TEXT NOT NULL,
	fields     JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS records_table_name_idx ON records (table_name);`

// Open connects to PostgreSQL and ensures the records table exists.
func Open(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.DatabaseCall("MIGRATE", "records")
	_, err = db.ExecContext(ctx, Schema)
	logger.DatabaseResult("MIGRATE", 0, err)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create records table: %w", err)
	}
	return db, nil
}
