package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

// NewDB creates a Postgres connection with sane defaults.
func NewDB(connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return &DB{Client: db}, db.PingContext(context.Background())
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS groups (
		id UUID PRIMARY KEY,
		teacher_id UUID NOT NULL REFERENCES users(id),
		group_number TEXT NOT NULL,
		join_code TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (teacher_id, group_number)
	)`,
	`CREATE TABLE IF NOT EXISTS participants (
		id UUID PRIMARY KEY,
		group_id UUID NOT NULL REFERENCES groups(id),
		user_id UUID NOT NULL REFERENCES users(id),
		display_name TEXT NOT NULL,
		region TEXT,
		msk_offset_hours INT,
		position INT NOT NULL DEFAULT 0,
		joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (group_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS join_audit (
		id UUID PRIMARY KEY,
		group_id UUID NOT NULL,
		user_id UUID NOT NULL,
		position INT NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_participants_group_joined ON participants (group_id, joined_at)`,
}

// EnsureSchema creates the tables the service needs. All statements are
// idempotent so the call is safe on every startup.
func (d *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.Client.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
