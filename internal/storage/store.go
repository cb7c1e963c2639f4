package storage

import (
	"context"

	"aegis/internal/models"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// ListHistoryParams contains parameters for listing the scan log.
type ListHistoryParams struct {
	Status models.Status // optional filter
	Limit  int
}

// Counts are point-in-time aggregates over the scan log.
type Counts struct {
	Total   int64
	Threats int64
}

// Storer is the append-only scan log. Implementations never update or delete entries.
type Storer interface {
	// CreateHistoryEntry appends entry and fills in its ID and Timestamp.
	CreateHistoryEntry(ctx context.Context, entry *models.HistoryEntry) error
	// ListHistory returns entries most recent first.
	ListHistory(ctx context.Context, params ListHistoryParams) ([]models.HistoryEntry, error)
	CountHistory(ctx context.Context) (Counts, error)
	Close() error
}

// ClampLimit applies the default and upper bound to a requested list size.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	}
	return limit
}
