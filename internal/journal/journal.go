// Package journal keeps a postgres record of every completed save so
// recent archive activity can be inspected without walking the remote
// tree.
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/photobot/core/logger"
)

// Entry is one archived photograph.
type Entry struct {
	ID         int64     `db:"id"`
	ChatID     int64     `db:"chat_id"`
	Category   string    `db:"category"`
	Filename   string    `db:"filename"`
	RemotePath string    `db:"remote_path"`
	CreatedAt  time.Time `db:"created_at"`
}

// Store persists journal entries.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Record inserts one entry for a completed save.
func (s *Store) Record(ctx context.Context, chatID int64, category, filename, remotePath string) error {
	const q = `
		INSERT INTO archive_journal (chat_id, category, filename, remote_path)
		VALUES ($1, $2, $3, $4)`

	if _, err := s.db.ExecContext(ctx, q, chatID, category, filename, remotePath); err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}

	logger.JRNL.Debug("save recorded",
		slog.String("event", "journal.record"),
		slog.String("category", category),
		slog.String("filename", filename),
		slog.String("path", remotePath),
	)
	return nil
}

// Recent returns the latest entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	const q = `
		SELECT id, chat_id, category, filename, remote_path, created_at
		FROM archive_journal
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	var entries []Entry
	if err := s.db.SelectContext(ctx, &entries, q, limit); err != nil {
		return nil, fmt.Errorf("journal recent: %w", err)
	}
	return entries, nil
}

// ByDate returns entries recorded on the given calendar day, newest
// first.
func (s *Store) ByDate(ctx context.Context, day time.Time, limit int) ([]Entry, error) {
	const q = `
		SELECT id, chat_id, category, filename, remote_path, created_at
		FROM archive_journal
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, 1)

	var entries []Entry
	if err := s.db.SelectContext(ctx, &entries, q, from, to, limit); err != nil {
		return nil, fmt.Errorf("journal by date: %w", err)
	}
	return entries, nil
}
