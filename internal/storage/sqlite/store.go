package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"aegis/internal/models"
	"aegis/internal/storage"
)

// SQLiteStore implements the storage.Storer interface for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore and establishes a connection to the database file.
// It also runs migrations to ensure the schema is up to date.
func New(ctx context.Context, dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dataSourceName))
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}
	// One connection serializes inserts and keeps ":memory:" databases on a single handle.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	store := &SQLiteStore{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// migrate ensures the database schema is created.
func (s *SQLiteStore) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS history (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	url       TEXT NOT NULL,
	status    TEXT NOT NULL,
	score     INTEGER NOT NULL,
	timestamp TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_history_status ON history (status);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// CreateHistoryEntry appends a scan to the log in a single insert.
func (s *SQLiteStore) CreateHistoryEntry(ctx context.Context, entry *models.HistoryEntry) error {
	query := `INSERT INTO history (url, status, score) VALUES (?, ?, ?) RETURNING id, timestamp`
	var ts string
	if err := s.db.QueryRowContext(ctx, query, entry.URL, string(entry.Status), entry.Score).Scan(&entry.ID, &ts); err != nil {
		return fmt.Errorf("failed to create history entry: %w", err)
	}
	entry.Timestamp = parseTimestamp(entry.ID, ts)
	return nil
}

// ListHistory retrieves the most recent scans.
func (s *SQLiteStore) ListHistory(ctx context.Context, params storage.ListHistoryParams) ([]models.HistoryEntry, error) {
	var args []interface{}
	qb := strings.Builder{}
	qb.WriteString("SELECT id, url, status, score, timestamp FROM history WHERE 1=1")
	if params.Status != "" {
		args = append(args, string(params.Status))
		qb.WriteString(" AND status = ?")
	}
	qb.WriteString(" ORDER BY id DESC LIMIT ?")
	args = append(args, storage.ClampLimit(params.Limit))

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()
	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var status, ts string
		if err := rows.Scan(&e.ID, &e.URL, &status, &e.Score, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Status = models.Status(status)
		e.Timestamp = parseTimestamp(e.ID, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// parseTimestamp reads the ISO-8601 text the schema default writes. A value
// that does not parse is logged and left as the zero time.
func parseTimestamp(id int64, ts string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		log.Printf("bad timestamp %q on history entry %d: %v", ts, id, err)
		return time.Time{}
	}
	return t
}

// CountHistory returns the total and malicious scan counts in one read.
func (s *SQLiteStore) CountHistory(ctx context.Context) (storage.Counts, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) FROM history`
	var c storage.Counts
	if err := s.db.QueryRowContext(ctx, query, string(models.StatusMalicious)).Scan(&c.Total, &c.Threats); err != nil {
		return storage.Counts{}, fmt.Errorf("failed to count history: %w", err)
	}
	return c, nil
}
