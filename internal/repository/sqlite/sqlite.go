package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"commandcenter/internal/repository"

	_ "modernc.org/sqlite"
)

// Repository implements repository.TranscriptStore using SQLite
type Repository struct {
	db *sql.DB
}

var _ repository.TranscriptStore = (*Repository)(nil)

// New opens (or creates) the archive database at dbPath
func New(dbPath string) (*Repository, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; also keeps :memory: databases on a single connection
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS telemetry_lines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		stream TEXT NOT NULL,
		text TEXT NOT NULL,
		event_kind TEXT,
		received_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_telemetry_lines_session ON telemetry_lines(session_id);
	`

	_, err := r.db.Exec(schema)
	return err
}

// AppendLines inserts records in one transaction
func (r *Repository) AppendLines(ctx context.Context, records []repository.TranscriptRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO telemetry_lines (session_id, stream, text, event_kind, received_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.SessionID,
			rec.Stream,
			rec.Text,
			stringToNull(rec.EventKind),
			rec.ReceivedAt.UnixNano(),
		); err != nil {
			return fmt.Errorf("failed to insert line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Recent returns the newest records, oldest first
func (r *Repository) Recent(ctx context.Context, limit int) ([]repository.TranscriptRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, stream, text, event_kind, received_at
		FROM (
			SELECT * FROM telemetry_lines ORDER BY id DESC LIMIT ?
		)
		ORDER BY id ASC
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines: %w", err)
	}
	defer rows.Close()

	var records []repository.TranscriptRecord
	for rows.Next() {
		var (
			rec        repository.TranscriptRecord
			eventKind  sql.NullString
			receivedAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Stream, &rec.Text, &eventKind, &receivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan line: %w", err)
		}
		rec.EventKind = nullToString(eventKind)
		rec.ReceivedAt = time.Unix(0, receivedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountBySession returns how many lines a session archived
func (r *Repository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM telemetry_lines WHERE session_id = ?`,
		strings.TrimSpace(sessionID),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count lines: %w", err)
	}
	return n, nil
}

// Close closes the database
func (r *Repository) Close() error {
	return r.db.Close()
}
