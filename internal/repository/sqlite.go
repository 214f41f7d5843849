package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/xiaot623/companion/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (creating if needed) the database at dsn and migrates it.
// dsn is either a file path, a "file:" URI or ":memory:".
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	memory := isMemoryDSN(dsn)
	if !memory {
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", withParams(dsn, memory))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if memory {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, ":memory:?") || strings.Contains(dsn, "mode=memory")
}

// withParams adds the connection parameters every pooled connection needs.
// PRAGMA statements only reach one connection, DSN parameters reach all of them.
func withParams(dsn string, memory bool) string {
	params := []string{"_foreign_keys=on", "_busy_timeout=5000"}
	if !memory {
		params = append(params, "_journal_mode=WAL")
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

func ensureDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexRune(path, '?'); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			message_count INTEGER NOT NULL DEFAULT 0,
			metadata TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at)`,
		`CREATE TABLE IF NOT EXISTS messages (
			message_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			text TEXT NOT NULL,
			sender TEXT NOT NULL CHECK (sender IN ('user', 'assistant')),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			metadata TEXT,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_created ON messages(created_at)`,
		// The session aggregate moves in the same statement as the insert.
		`CREATE TRIGGER IF NOT EXISTS update_session_on_message
		AFTER INSERT ON messages
		BEGIN
			UPDATE sessions
			SET updated_at = NEW.created_at,
				message_count = message_count + 1
			WHERE session_id = NEW.session_id;
		END`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// CreateSession inserts a new session with a zero message count.
func (s *SQLiteStore) CreateSession(ctx context.Context, metadata json.RawMessage) (*domain.Session, error) {
	now := s.now()
	session := &domain.Session{
		SessionID: uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  metadata,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, created_at, updated_at, message_count, metadata) VALUES (?, ?, ?, 0, ?)`,
		session.SessionID, session.CreatedAt, session.UpdatedAt, nullJSON(metadata))
	if err != nil {
		return nil, classify(err)
	}
	return session, nil
}

// GetSession retrieves a session by ID. A missing session returns (nil, nil).
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, created_at, updated_at, message_count, metadata FROM sessions WHERE session_id = ?`,
		sessionID)
	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	return session, nil
}

// ListRecentSessions returns sessions by last update, newest first.
func (s *SQLiteStore) ListRecentSessions(ctx context.Context, limit int) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, created_at, updated_at, message_count, metadata FROM sessions
		 ORDER BY updated_at DESC, rowid DESC LIMIT ?`,
		sqlLimit(limit))
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	sessions := []domain.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, classify(err)
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return sessions, nil
}

// DeleteSession removes a session; its messages go with it through ON DELETE CASCADE.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	return nil
}

// AppendMessage inserts a message. The update_session_on_message trigger bumps the
// session's count and update time inside the same statement.
func (s *SQLiteStore) AppendMessage(ctx context.Context, sessionID, text string, sender domain.Sender, metadata json.RawMessage) (*domain.Message, error) {
	if !sender.Valid() {
		return nil, fmt.Errorf("%w: unknown sender %q", domain.ErrConstraintViolation, sender)
	}
	msg := &domain.Message{
		MessageID: uuid.New().String(),
		SessionID: sessionID,
		Text:      text,
		Sender:    sender,
		CreatedAt: s.now(),
		Metadata:  metadata,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (message_id, session_id, text, sender, created_at, metadata) VALUES (?, ?, ?, ?, ?, ?)`,
		msg.MessageID, msg.SessionID, msg.Text, string(msg.Sender), msg.CreatedAt, nullJSON(metadata))
	if err != nil {
		return nil, classify(err)
	}
	return msg, nil
}

// ListMessages returns a page of a session's messages, oldest first.
func (s *SQLiteStore) ListMessages(ctx context.Context, sessionID string, limit, offset int) ([]domain.Message, error) {
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, session_id, text, sender, created_at, metadata FROM messages
		 WHERE session_id = ? ORDER BY created_at ASC, rowid ASC LIMIT ? OFFSET ?`,
		sessionID, sqlLimit(limit), offset)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// ListRecentMessages returns the last n messages of a session, oldest first.
func (s *SQLiteStore) ListRecentMessages(ctx context.Context, sessionID string, n int) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, session_id, text, sender, created_at, metadata FROM messages
		 WHERE session_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		sessionID, sqlLimit(n))
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row scanner) (*domain.Session, error) {
	var session domain.Session
	var metadata sql.NullString
	if err := row.Scan(&session.SessionID, &session.CreatedAt, &session.UpdatedAt, &session.MessageCount, &metadata); err != nil {
		return nil, err
	}
	if metadata.Valid {
		session.Metadata = json.RawMessage(metadata.String)
	}
	return &session, nil
}

func scanMessages(rows *sql.Rows) ([]domain.Message, error) {
	messages := []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		var sender string
		var metadata sql.NullString
		if err := rows.Scan(&msg.MessageID, &msg.SessionID, &msg.Text, &sender, &msg.CreatedAt, &metadata); err != nil {
			return nil, classify(err)
		}
		msg.Sender = domain.Sender(sender)
		if metadata.Valid {
			msg.Metadata = json.RawMessage(metadata.String)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return messages, nil
}

// classify wraps a driver error in the matching domain sentinel.
func classify(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %v", domain.ErrConstraintViolation, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrStorage, err)
}

func nullJSON(raw json.RawMessage) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}

// sqlLimit maps a non-positive limit to SQLite's "no limit".
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
