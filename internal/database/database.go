package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"sweatervote/internal/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

const connectTimeout = 5 * time.Second

func Connect(cfg *config.Config) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)

	return ConnectDSN(dsn)
}

// ConnectDSN opens a pool for an already assembled connection string and pings it.
func ConnectDSN(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	log.Println("Connected to database successfully")
	return db, nil
}

// Migrate creates the contest tables. Safe to call on every start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	log.Println("Database schema is up to date")
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS device_state (
    device_id    TEXT PRIMARY KEY,
    has_uploaded BOOLEAN NOT NULL DEFAULT FALSE,
    has_voted    BOOLEAN NOT NULL DEFAULT FALSE,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS participants (
    id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    nickname    TEXT NOT NULL,
    photo_url   TEXT NOT NULL,
    votes_count INTEGER NOT NULL DEFAULT 0 CHECK (votes_count >= 0),
    approved    BOOLEAN NOT NULL DEFAULT TRUE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_participants_ranking
    ON participants (approved, votes_count DESC, created_at ASC);

-- One ballot per device. The unique constraint is the race-proof gate for voting.
CREATE TABLE IF NOT EXISTS votes (
    device_id      TEXT PRIMARY KEY,
    participant_id UUID NOT NULL REFERENCES participants(id),
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_votes_participant_id ON votes (participant_id);

-- Which participant a device uploaded. Kept apart from ballots.
CREATE TABLE IF NOT EXISTS device_participants (
    device_id      TEXT PRIMARY KEY,
    participant_id UUID NOT NULL UNIQUE REFERENCES participants(id),
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
