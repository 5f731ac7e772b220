package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/scam-sentinel/internal/core"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the VerdictStore interface
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a new SQLite verdict store
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS verdicts (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			score INTEGER NOT NULL,
			reasons TEXT,
			advice TEXT,
			message_id TEXT NOT NULL,
			user_id TEXT,
			channel TEXT,
			sender TEXT,
			subject TEXT,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Index on message_id: duplicate verdicts per message are allowed, so
	// this is not unique
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_verdicts_message_id ON verdicts(message_id)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger,
	}, nil
}

// Insert stores a verdict together with its source message metadata
func (s *SQLiteStore) Insert(ctx context.Context, verdict *core.Verdict, msg *core.Message) error {
	reasons, err := json.Marshal(verdict.Reasons)
	if err != nil {
		return fmt.Errorf("failed to encode reasons: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verdicts (id, label, score, reasons, advice, message_id, user_id, channel, sender, subject, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		verdict.ID.String(),
		string(verdict.Label),
		verdict.Score,
		string(reasons),
		verdict.Advice,
		verdict.SourceMessageID,
		msg.UserID,
		string(msg.Channel),
		msg.Sender,
		msg.Subject,
		verdict.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert verdict: %w", err)
	}
	return nil
}

// Stop closes the database connection
func (s *SQLiteStore) Stop() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}
