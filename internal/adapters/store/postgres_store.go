package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/mikey/scam-sentinel/internal/core"
	"go.uber.org/zap"
)

// PostgresStore is a PostgreSQL implementation of the VerdictStore interface
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStore creates a new PostgreSQL verdict store
func NewPostgresStore(dsn string, logger *zap.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS verdicts (
			id UUID PRIMARY KEY,
			label TEXT NOT NULL,
			score INTEGER NOT NULL,
			reasons JSONB,
			advice TEXT,
			message_id TEXT NOT NULL,
			user_id TEXT,
			channel TEXT,
			sender TEXT,
			subject TEXT,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_verdicts_message_id ON verdicts(message_id)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &PostgresStore{
		db:     db,
		logger: logger,
	}, nil
}

// Insert stores a verdict together with its source message metadata
func (s *PostgresStore) Insert(ctx context.Context, verdict *core.Verdict, msg *core.Message) error {
	reasons, err := json.Marshal(verdict.Reasons)
	if err != nil {
		return fmt.Errorf("failed to encode reasons: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verdicts (id, label, score, reasons, advice, message_id, user_id, channel, sender, subject, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		verdict.ID,
		string(verdict.Label),
		verdict.Score,
		reasons,
		verdict.Advice,
		verdict.SourceMessageID,
		msg.UserID,
		string(msg.Channel),
		msg.Sender,
		msg.Subject,
		verdict.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert verdict: %w", err)
	}
	return nil
}

// Stop closes the database connection
func (s *PostgresStore) Stop() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close PostgreSQL database", zap.Error(err))
	}
}
