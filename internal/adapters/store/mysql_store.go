package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/scam-sentinel/internal/core"
	"go.uber.org/zap"
)

// MySQLStore is a MySQL implementation of the VerdictStore interface
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore creates a new MySQL verdict store
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS verdicts (
			id VARCHAR(36) PRIMARY KEY,
			label VARCHAR(16) NOT NULL,
			score INT NOT NULL,
			reasons TEXT,
			advice TEXT,
			message_id VARCHAR(255) NOT NULL,
			user_id VARCHAR(255),
			channel VARCHAR(16),
			sender VARCHAR(255),
			subject TEXT,
			created_at TIMESTAMP NOT NULL,
			INDEX idx_verdicts_message_id (message_id)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLStore{
		db:     db,
		logger: logger,
	}, nil
}

// Insert stores a verdict together with its source message metadata
func (s *MySQLStore) Insert(ctx context.Context, verdict *core.Verdict, msg *core.Message) error {
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
		verdict.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert verdict: %w", err)
	}
	return nil
}

// Stop closes the database connection
func (s *MySQLStore) Stop() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close MySQL database", zap.Error(err))
	}
}
