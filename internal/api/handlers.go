package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"aegis/internal/batch"
	"aegis/internal/engine"
	"aegis/internal/models"
	"aegis/internal/storage"
)

// MaxBatchURLs caps the number of URLs accepted by one batch request.
const MaxBatchURLs = 100

// Service is the engine surface exposed over HTTP.
type Service interface {
	Scan(ctx context.Context, rawURL string) (*models.ScanVerdict, error)
	ListHistory(ctx context.Context, params storage.ListHistoryParams) ([]models.HistoryEntry, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

// Handlers holds dependencies for the API handlers.
type Handlers struct {
	svc          Service
	pool         *batch.Pool
	historyLimit int
}

// NewHandlers creates a new Handlers struct.
func NewHandlers(svc Service, workers, historyLimit int) *Handlers {
	return &Handlers{
		svc:          svc,
		pool:         batch.NewPool(svc, workers),
		historyLimit: historyLimit,
	}
}

// Scan handles a single URL scan.
func (h *Handlers) Scan(w http.ResponseWriter, r *http.Request) {
	var reqBody struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	verdict, err := h.svc.Scan(r.Context(), reqBody.URL)
	if errors.Is(err, engine.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Printf("[%s] scan error: %v", RequestID(r.Context()), err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, verdict)
}

type batchItem struct {
	URL     string              `json:"url"`
	Verdict *models.ScanVerdict `json:"verdict,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// ScanBatch scans up to MaxBatchURLs URLs and returns one item per input, in order.
func (h *Handlers) ScanBatch(w http.ResponseWriter, r *http.Request) {
	var reqBody struct {
		URLs []string `json:"urls"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(reqBody.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "urls is required")
		return
	}
	if len(reqBody.URLs) > MaxBatchURLs {
		writeError(w, http.StatusBadRequest, "too many urls, max "+strconv.Itoa(MaxBatchURLs))
		return
	}

	results := h.pool.Run(r.Context(), reqBody.URLs, nil)
	items := make([]batchItem, len(results))
	for i, res := range results {
		items[i] = batchItem{URL: res.URL, Verdict: res.Verdict}
		if res.Err != nil {
			items[i].Error = res.Err.Error()
		}
	}

	writeJSON(w, http.StatusOK, struct {
		Items []batchItem `json:"items"`
	}{Items: items})
}

// ListHistory returns the most recent scans.
func (h *Handlers) ListHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := h.historyLimit
	if l := q.Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}

	items, err := h.svc.ListHistory(r.Context(), storage.ListHistoryParams{
		Status: models.Status(q.Get("status")),
		Limit:  storage.ClampLimit(limit),
	})
	if err != nil {
		log.Printf("[%s] list history error: %v", RequestID(r.Context()), err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Items []models.HistoryEntry `json:"items"`
	}{Items: items})
}

// Stats returns the dashboard counters.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		log.Printf("[%s] stats error: %v", RequestID(r.Context()), err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Stats *models.Stats `json:"stats"`
	}{Stats: stats})
}

// Healthz is a simple health check endpoint.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
