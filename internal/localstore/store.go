// Package localstore is the on-device, non-secure key/value storage: it
// currently holds each chat's monthly budget.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Import sqlite driver
	_ "modernc.org/sqlite"

	"github.com/spendify/spendify-bot/internal/models"
)

// Store wraps the local SQLite database.
type Store struct {
	conn *sql.DB
}

// Open opens (creating if needed) the local database at path.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping local store: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS budgets (
			chat_id INTEGER PRIMARY KEY,
			amount INTEGER NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("failed to migrate local store: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Budget returns the chat's saved monthly budget, or the default when the
// chat never saved one.
func (s *Store) Budget(ctx context.Context, chatID int64) (int64, error) {
	var amount int64
	err := s.conn.QueryRowContext(ctx,
		`SELECT amount FROM budgets WHERE chat_id = ?`, chatID).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultBudget, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read budget: %w", err)
	}
	return amount, nil
}

// SetBudget overwrites the chat's monthly budget.
func (s *Store) SetBudget(ctx context.Context, chatID, amount int64) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO budgets (chat_id, amount, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(chat_id) DO UPDATE SET amount = excluded.amount, updated_at = CURRENT_TIMESTAMP
	`, chatID, amount)
	if err != nil {
		return fmt.Errorf("failed to save budget: %w", err)
	}
	return nil
}
