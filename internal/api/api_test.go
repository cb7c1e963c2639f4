package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"aegis/internal/engine"
	"aegis/internal/layers"
	"aegis/internal/metrics"
	"aegis/internal/models"
	"aegis/internal/rules"
	"aegis/internal/storage"
	"aegis/internal/storage/memory"
)

func newTestRouter(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	store := memory.New()
	m := metrics.New()
	eng := engine.New(store, layers.Default(rules.Default()), nil, m)
	return NewRouter(eng, RouterOptions{Metrics: m.Handler(), BatchWorkers: 4, HistoryLimit: 50}), store
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAPIScan(t *testing.T) {
	router, store := newTestRouter(t)

	t.Run("scan returns verdict", func(t *testing.T) {
		rr := do(t, router, http.MethodPost, "/api/scan", `{"url": "https://bit.ly/3xAbCz9"}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
		}
		var v models.ScanVerdict
		if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if v.Status != models.StatusMalicious {
			t.Errorf("expected Malicious, got %s", v.Status)
		}
		if len(v.Layers) != 7 {
			t.Errorf("expected 7 layer entries, got %d", len(v.Layers))
		}
		if rr.Header().Get(RequestIDHeader) == "" {
			t.Error("expected a request id header")
		}
	})

	t.Run("blank url returns 400", func(t *testing.T) {
		rr := do(t, router, http.MethodPost, "/api/scan", `{"url": "   "}`)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
		}
		var resp map[string]string
		json.NewDecoder(rr.Body).Decode(&resp)
		if resp["error"] == "" {
			t.Error("expected an error message")
		}
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		rr := do(t, router, http.MethodPost, "/api/scan", `{"url":`)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
		}
	})

	t.Run("wrong method is rejected", func(t *testing.T) {
		rr := do(t, router, http.MethodGet, "/api/scan", "")
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rr.Code)
		}
	})

	c, _ := store.CountHistory(context.Background())
	if c.Total != 1 {
		t.Errorf("only the valid scan should be recorded, got %d entries", c.Total)
	}
}

func TestAPIScanKeepsSuppliedRequestID(t *testing.T) {
	router, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := rr.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("expected request id to be echoed, got %q", got)
	}
}

func TestAPIScanBatch(t *testing.T) {
	router, store := newTestRouter(t)

	t.Run("items in input order", func(t *testing.T) {
		body := `{"urls": ["https://www.paypal.com/", "", "https://bit.ly/3xAbCz9"]}`
		rr := do(t, router, http.MethodPost, "/api/scan/batch", body)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
		}
		var resp struct {
			Items []batchItem `json:"items"`
		}
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Items) != 3 {
			t.Fatalf("expected 3 items, got %d", len(resp.Items))
		}
		if resp.Items[0].Verdict == nil || resp.Items[0].Verdict.Status != models.StatusSafe {
			t.Errorf("item 0: %+v", resp.Items[0])
		}
		if resp.Items[1].Error == "" || resp.Items[1].Verdict != nil {
			t.Errorf("item 1 should carry an error: %+v", resp.Items[1])
		}
		if resp.Items[2].Verdict == nil || resp.Items[2].Verdict.Status != models.StatusMalicious {
			t.Errorf("item 2: %+v", resp.Items[2])
		}
	})

	t.Run("too many urls returns 400", func(t *testing.T) {
		urls := make([]string, MaxBatchURLs+1)
		for i := range urls {
			urls[i] = fmt.Sprintf(`"https://example.com/%d"`, i)
		}
		body := `{"urls": [` + strings.Join(urls, ",") + `]}`
		rr := do(t, router, http.MethodPost, "/api/scan/batch", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
		}
	})

	t.Run("empty list returns 400", func(t *testing.T) {
		rr := do(t, router, http.MethodPost, "/api/scan/batch", `{"urls": []}`)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
		}
	})

	c, _ := store.CountHistory(context.Background())
	if c.Total != 2 {
		t.Errorf("expected 2 recorded scans, got %d", c.Total)
	}
}

func TestAPIHistoryAndStats(t *testing.T) {
	router, _ := newTestRouter(t)
	for _, u := range []string{"https://example.org/", "https://bit.ly/3xAbCz9", "https://www.paypal.com/"} {
		if rr := do(t, router, http.MethodPost, "/api/scan", `{"url": "`+u+`"}`); rr.Code != http.StatusOK {
			t.Fatalf("scan %s: status %d", u, rr.Code)
		}
	}

	t.Run("history most recent first with limit", func(t *testing.T) {
		rr := do(t, router, http.MethodGet, "/api/history?limit=2", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
		}
		var resp struct {
			Items []models.HistoryEntry `json:"items"`
		}
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(resp.Items))
		}
		if resp.Items[0].URL != "https://www.paypal.com/" || resp.Items[1].URL != "https://bit.ly/3xAbCz9" {
			t.Errorf("unexpected order: %+v", resp.Items)
		}
	})

	t.Run("history status filter", func(t *testing.T) {
		rr := do(t, router, http.MethodGet, "/api/history?status=Malicious", "")
		var resp struct {
			Items []models.HistoryEntry `json:"items"`
		}
		json.NewDecoder(rr.Body).Decode(&resp)
		if len(resp.Items) != 1 || resp.Items[0].Status != models.StatusMalicious {
			t.Errorf("unexpected filtered items: %+v", resp.Items)
		}
	})

	t.Run("stats", func(t *testing.T) {
		rr := do(t, router, http.MethodGet, "/api/stats", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
		}
		var resp struct {
			Stats map[string]int `json:"stats"`
		}
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		want := map[string]int{"urls_scanned": 3, "threats_detected": 1, "malicious_blocked": 1, "system_health": 67}
		for k, v := range want {
			if resp.Stats[k] != v {
				t.Errorf("%s = %d, want %d", k, resp.Stats[k], v)
			}
		}
	})
}

type brokenService struct{}

func (brokenService) Scan(context.Context, string) (*models.ScanVerdict, error) {
	return nil, errors.New("boom")
}

func (brokenService) ListHistory(context.Context, storage.ListHistoryParams) ([]models.HistoryEntry, error) {
	return nil, errors.New("boom")
}

func (brokenService) Stats(context.Context) (*models.Stats, error) {
	return nil, errors.New("boom")
}

func TestAPIStorageErrors(t *testing.T) {
	router := NewRouter(brokenService{}, RouterOptions{BatchWorkers: 1})
	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/api/scan", `{"url": "https://example.com"}`},
		{http.MethodGet, "/api/history", ""},
		{http.MethodGet, "/api/stats", ""},
	} {
		t.Run(tc.path, func(t *testing.T) {
			rr := do(t, router, tc.method, tc.path, tc.body)
			if rr.Code != http.StatusInternalServerError {
				t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rr.Code)
			}
		})
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	router, _ := newTestRouter(t)
	do(t, router, http.MethodPost, "/api/scan", `{"url": "https://bit.ly/x"}`)

	if rr := do(t, router, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	rr := do(t, router, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "aegis_scans_total") {
		t.Error("expected aegis_scans_total in metrics output")
	}
}
