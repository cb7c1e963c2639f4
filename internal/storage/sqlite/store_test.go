package sqlite

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"aegis/internal/models"
	"aegis/internal/storage"
)

func TestSQLiteStorage(t *testing.T) {
	ctx := context.Background()
	store, err := New(ctx, ":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	defer store.Close()

	t.Run("empty counts", func(t *testing.T) {
		c, err := store.CountHistory(ctx)
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if c.Total != 0 || c.Threats != 0 {
			t.Errorf("expected zero counts, got %+v", c)
		}
	})

	t.Run("create assigns id and timestamp", func(t *testing.T) {
		before := time.Now().UTC().Add(-time.Second)
		entry := &models.HistoryEntry{URL: "https://example.com", Status: models.StatusSafe, Score: 100}
		if err := store.CreateHistoryEntry(ctx, entry); err != nil {
			t.Fatalf("failed to create entry: %v", err)
		}
		if entry.ID == 0 {
			t.Error("expected id to be assigned")
		}
		if entry.Timestamp.Before(before) {
			t.Errorf("expected timestamp to default to insert time, got %v", entry.Timestamp)
		}
	})

	t.Run("list is most recent first", func(t *testing.T) {
		for i, st := range []models.Status{models.StatusMalicious, models.StatusSuspicious, models.StatusMalicious} {
			e := &models.HistoryEntry{URL: fmt.Sprintf("http://h%d.example", i), Status: st, Score: 10 * i}
			if err := store.CreateHistoryEntry(ctx, e); err != nil {
				t.Fatalf("failed to create entry: %v", err)
			}
		}

		entries, err := store.ListHistory(ctx, storage.ListHistoryParams{Limit: 10})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(entries) != 4 {
			t.Fatalf("expected 4 entries, got %d", len(entries))
		}
		for i := 1; i < len(entries); i++ {
			if entries[i-1].ID <= entries[i].ID {
				t.Errorf("entries not in descending id order: %d then %d", entries[i-1].ID, entries[i].ID)
			}
		}
		if entries[0].URL != "http://h2.example" || entries[0].Score != 20 {
			t.Errorf("unexpected newest entry %+v", entries[0])
		}
	})

	t.Run("limit and status filter", func(t *testing.T) {
		entries, err := store.ListHistory(ctx, storage.ListHistoryParams{Limit: 1})
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Errorf("expected 1 entry, got %d", len(entries))
		}

		entries, err = store.ListHistory(ctx, storage.ListHistoryParams{Status: models.StatusMalicious})
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 2 {
			t.Errorf("expected 2 malicious entries, got %d", len(entries))
		}
		for _, e := range entries {
			if e.Status != models.StatusMalicious {
				t.Errorf("unexpected status %s", e.Status)
			}
		}
	})

	t.Run("counts", func(t *testing.T) {
		c, err := store.CountHistory(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if c.Total != 4 || c.Threats != 2 {
			t.Errorf("expected 4 total and 2 threats, got %+v", c)
		}
	})

	t.Run("concurrent appends", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				e := &models.HistoryEntry{URL: fmt.Sprintf("https://c%d.example", i), Status: models.StatusSafe, Score: 100}
				if err := store.CreateHistoryEntry(ctx, e); err != nil {
					t.Errorf("concurrent insert %d: %v", i, err)
				}
			}(i)
		}
		wg.Wait()

		c, err := store.CountHistory(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if c.Total != 24 {
			t.Errorf("expected 24 entries after concurrent appends, got %d", c.Total)
		}
	})
}

func TestClampLimit(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, storage.DefaultHistoryLimit},
		{-5, storage.DefaultHistoryLimit},
		{10, 10},
		{10000, storage.MaxHistoryLimit},
	}
	for _, tt := range tests {
		if got := storage.ClampLimit(tt.in); got != tt.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMalformedTimestamp(t *testing.T) {
	ctx := context.Background()
	store, err := New(ctx, ":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	defer store.Close()

	if _, err := store.db.ExecContext(ctx,
		`INSERT INTO history (url, status, score, timestamp) VALUES (?, ?, ?, ?)`,
		"https://example.com", string(models.StatusSafe), 100, "yesterday"); err != nil {
		t.Fatalf("failed to insert row: %v", err)
	}

	entries, err := store.ListHistory(ctx, storage.ListHistoryParams{})
	if err != nil {
		t.Fatalf("a bad timestamp must not fail the listing: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if !entries[0].Timestamp.IsZero() {
		t.Errorf("expected zero time for a malformed timestamp, got %v", entries[0].Timestamp)
	}
	if entries[0].URL != "https://example.com" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestParseTimestamp(t *testing.T) {
	got := parseTimestamp(1, "2026-10-19T14:21:00.123Z")
	want := time.Date(2026, 10, 19, 14, 21, 0, 123_000_000, time.UTC)
	if !got.Equal(want) {
		t.Errorf("parseTimestamp = %v, want %v", got, want)
	}
	if !parseTimestamp(2, "").IsZero() {
		t.Error("expected zero time for an empty timestamp")
	}
}
