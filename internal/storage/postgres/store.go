package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"aegis/internal/models"
	"aegis/internal/storage"
)

// PostgresStore implements the storage.Storer interface for PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// New creates a new PostgresStore and establishes a connection to the database.
// It also runs migrations to ensure the schema is up to date.
func New(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	store := &PostgresStore{db: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

// migrate ensures the database schema is created.
func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		id          BIGSERIAL PRIMARY KEY,
		url         TEXT NOT NULL,
		status      TEXT NOT NULL,
		score       INTEGER NOT NULL,
		"timestamp" TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_history_status ON history (status);
	`
	_, err := s.db.Exec(ctx, schema)
	return err
}

// CreateHistoryEntry implements the Storer interface.
func (s *PostgresStore) CreateHistoryEntry(ctx context.Context, entry *models.HistoryEntry) error {
	query := `INSERT INTO history (url, status, score) VALUES ($1, $2, $3) RETURNING id, "timestamp"`
	err := s.db.QueryRow(ctx, query, entry.URL, string(entry.Status), entry.Score).Scan(&entry.ID, &entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to create history entry: %w", err)
	}
	return nil
}

// ListHistory implements the Storer interface.
func (s *PostgresStore) ListHistory(ctx context.Context, params storage.ListHistoryParams) ([]models.HistoryEntry, error) {
	query := `SELECT id, url, status, score, "timestamp" FROM history
		WHERE ($1 = '' OR status = $1) ORDER BY id DESC LIMIT $2`
	rows, err := s.db.Query(ctx, query, string(params.Status), storage.ClampLimit(params.Limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var status string
		if err := rows.Scan(&e.ID, &e.URL, &status, &e.Score, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Status = models.Status(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountHistory implements the Storer interface.
func (s *PostgresStore) CountHistory(ctx context.Context) (storage.Counts, error) {
	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE status = $1) FROM history`
	var c storage.Counts
	if err := s.db.QueryRow(ctx, query, string(models.StatusMalicious)).Scan(&c.Total, &c.Threats); err != nil {
		return storage.Counts{}, fmt.Errorf("failed to count history: %w", err)
	}
	return c, nil
}
