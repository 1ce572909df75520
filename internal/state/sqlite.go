package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/synapdocs/docqa/internal/model"
)

// SQLiteStore persists conversation state in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists. Pass ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS thread (
			thread_id     TEXT PRIMARY KEY,
			rewrite_count INTEGER NOT NULL DEFAULT 0,
			updated_ts    INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS message (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			thread_id  TEXT NOT NULL REFERENCES thread(thread_id) ON DELETE CASCADE,
			uid        TEXT NOT NULL,
			role       TEXT NOT NULL,
			content    TEXT NOT NULL,
			source     TEXT NOT NULL DEFAULT '',
			created_ts INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_message_thread ON message(thread_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Load returns the persisted state for a thread, or the default empty state.
func (s *SQLiteStore) Load(ctx context.Context, threadID string) (model.ConversationState, error) {
	st := model.NewConversationState()

	err := s.db.QueryRowContext(ctx,
		`SELECT rewrite_count FROM thread WHERE thread_id = ?`, threadID,
	).Scan(&st.RewriteCount)
	if err == sql.ErrNoRows {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("load thread %q: %w", threadID, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT uid, role, content, source, created_ts
		 FROM message WHERE thread_id = ? ORDER BY id ASC`, threadID)
	if err != nil {
		return st, fmt.Errorf("load messages for %q: %w", threadID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m model.Message
		var role string
		var createdTs int64
		if err := rows.Scan(&m.ID, &role, &m.Content, &m.Source, &createdTs); err != nil {
			return st, fmt.Errorf("scan message: %w", err)
		}
		m.Role = model.Role(role)
		m.CreatedAt = time.Unix(createdTs, 0).UTC()
		st.Messages = append(st.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return st, fmt.Errorf("load messages for %q: %w", threadID, err)
	}
	return st, nil
}

// Commit replaces the thread's persisted state in a single transaction.
func (s *SQLiteStore) Commit(ctx context.Context, threadID string, st model.ConversationState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit for %q: %w", threadID, err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO thread (thread_id, rewrite_count, updated_ts) VALUES (?, ?, ?)
		 ON CONFLICT(thread_id) DO UPDATE SET rewrite_count = excluded.rewrite_count, updated_ts = excluded.updated_ts`,
		threadID, st.RewriteCount, now); err != nil {
		return fmt.Errorf("upsert thread %q: %w", threadID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM message WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("clear messages for %q: %w", threadID, err)
	}

	for _, m := range st.Messages {
		createdTs := m.CreatedAt.Unix()
		if m.CreatedAt.IsZero() {
			createdTs = now
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO message (thread_id, uid, role, content, source, created_ts) VALUES (?, ?, ?, ?, ?, ?)`,
			threadID, m.ID, string(m.Role), m.Content, m.Source, createdTs); err != nil {
			return fmt.Errorf("insert message for %q: %w", threadID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit state for %q: %w", threadID, err)
	}
	return nil
}

// Delete removes all rows for a thread. Idempotent.
func (s *SQLiteStore) Delete(ctx context.Context, threadID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete for %q: %w", threadID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM message WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("delete messages for %q: %w", threadID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM thread WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("delete thread %q: %w", threadID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete for %q: %w", threadID, err)
	}
	return nil
}

// Ping reports whether the database connection is still usable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
