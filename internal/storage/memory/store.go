// Package memory is an in-process history store for ephemeral runs and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"aegis/internal/models"
	"aegis/internal/storage"
)

// Store keeps the scan log in a slice guarded by a RWMutex.
type Store struct {
	mu      sync.RWMutex
	entries []models.HistoryEntry
	nextID  int64
	now     func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{nextID: 1, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) CreateHistoryEntry(ctx context.Context, entry *models.HistoryEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = s.nextID
	entry.Timestamp = s.now()
	s.nextID++
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *Store) ListHistory(ctx context.Context, params storage.ListHistoryParams) ([]models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := storage.ClampLimit(params.Limit)
	var out []models.HistoryEntry
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.entries[i]
		if params.Status != "" && e.Status != params.Status {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) CountHistory(ctx context.Context) (storage.Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := storage.Counts{Total: int64(len(s.entries))}
	for _, e := range s.entries {
		if e.Status == models.StatusMalicious {
			c.Threats++
		}
	}
	return c, nil
}

func (s *Store) Close() error { return nil }
