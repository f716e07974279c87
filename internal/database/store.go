package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the archive operations. Methods accept context.Context for
// cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveMessage inserts a new archive record.
	SaveMessage(ctx context.Context, msg *ArchivedMessage) error

	// CountMessages reports the total number of archived messages.
	CountMessages(ctx context.Context) (int64, error)

	// DeleteMessagesInChat removes all archived messages for a chat.
	DeleteMessagesInChat(ctx context.Context, chatID int64) error

	// RunSQLMaintenance performs database maintenance (VACUUM).
	RunSQLMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "archive_store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) SaveMessage(ctx context.Context, msg *ArchivedMessage) error {
	if msg == nil {
		return fmt.Errorf("cannot save nil message")
	}
	if msg.ChatID == 0 {
		return fmt.Errorf("message must have a non-zero chat_id")
	}
	if msg.Content == "" {
		return fmt.Errorf("message must have non-empty content")
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	msg.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO messages (chat_id, user_id, kind, content, timestamp, created_at)
        VALUES (:chat_id, :user_id, :kind, :content, :timestamp, :created_at);
    `
	result, err := s.db.NamedExecContext(ctx, query, msg)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error archiving message", "chat_id", msg.ChatID, "error", err)
		return fmt.Errorf("failed to archive message (chat %d): %w", msg.ChatID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		msg.ID = uint(id)
	}
	return nil
}

func (s *sqlxStore) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM messages;"); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

func (s *sqlxStore) DeleteMessagesInChat(ctx context.Context, chatID int64) error {
	if chatID == 0 {
		return fmt.Errorf("chat_id cannot be zero")
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE chat_id = ?;", chatID); err != nil {
		return fmt.Errorf("failed to delete messages for chat %d: %w", chatID, err)
	}
	return nil
}

// RunSQLMaintenance executes a VACUUM on the SQLite database. VACUUM must
// run outside a transaction in SQLite.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)")
	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("vacuum failed: %w", err)
	}
	return nil
}
