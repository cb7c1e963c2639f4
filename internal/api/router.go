package api

import "net/http"

// RouterOptions tune the handlers behind the router.
type RouterOptions struct {
	Metrics      http.Handler
	BatchWorkers int
	HistoryLimit int
}

// NewRouter creates a new http.ServeMux, registers the API handlers and wraps
// them in the request-id middleware.
func NewRouter(svc Service, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()
	h := NewHandlers(svc, opts.BatchWorkers, opts.HistoryLimit)

	mux.HandleFunc("POST /api/scan", h.Scan)
	mux.HandleFunc("POST /api/scan/batch", h.ScanBatch)
	mux.HandleFunc("GET /api/history", h.ListHistory)
	mux.HandleFunc("GET /api/stats", h.Stats)
	mux.HandleFunc("GET /healthz", h.Healthz)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	return WithRequestID(mux)
}
