// Package engine is the single entry point for scanning URLs and reading the
// scan log. It has no background work: every call runs to completion on the
// caller's goroutine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"aegis/internal/features"
	"aegis/internal/layers"
	"aegis/internal/metrics"
	"aegis/internal/models"
	"aegis/internal/scoring"
	"aegis/internal/storage"
)

// ErrInvalidInput is returned for requests that are rejected before any layer runs.
var ErrInvalidInput = errors.New("invalid input")

// Reputation reports whether a URL, its host, or its registrable domain is
// known to be malicious.
type Reputation interface {
	Listed(rawURL, host, domain string) (bool, string)
}

// Engine scores URLs and records every completed scan.
type Engine struct {
	store   storage.Storer
	layers  []layers.Layer
	rep     Reputation
	metrics *metrics.Metrics
}

// New wires an engine. rep may be nil when no blocklist is configured.
func New(store storage.Storer, ls []layers.Layer, rep Reputation, m *metrics.Metrics) *Engine {
	if m == nil {
		m = metrics.New()
	}
	return &Engine{store: store, layers: ls, rep: rep, metrics: m}
}

// Scan scores rawURL and appends the outcome to the scan log. Only blank input
// fails; a history write failure still returns the verdict, marked Degraded.
func (e *Engine) Scan(ctx context.Context, rawURL string) (*models.ScanVerdict, error) {
	url := strings.TrimSpace(rawURL)
	if url == "" {
		return nil, fmt.Errorf("%w: url is required", ErrInvalidInput)
	}

	start := time.Now()
	v := e.evaluate(url)
	e.metrics.ObserveScan(string(v.Status), time.Since(start).Seconds())

	e.record(ctx, v)
	return v, nil
}

// evaluate scores url without recording it.
func (e *Engine) evaluate(url string) *models.ScanVerdict {
	in := features.NewInput(url)

	listed, entry := false, ""
	if e.rep != nil {
		listed, entry = e.rep.Listed(in.Raw, in.Parts.Host, in.Domain)
	}

	repVerdict := models.LayerVerdict{Position: 0, Name: "Reputation", Status: models.LayerSafe, Evidence: "Clean"}
	var report layers.Report
	if listed {
		repVerdict.Status = models.LayerDanger
		repVerdict.Rule = "Blocklist"
		repVerdict.Evidence = "Flagged"
		report = layers.Skip(e.layers)
		e.metrics.BlocklistHit()
	} else {
		report = layers.Run(e.layers, in)
	}

	if report.Faults > 0 {
		e.metrics.ExtractorFaults(report.Faults)
	}
	if report.Hit != nil {
		e.metrics.LayerHit(report.Hit.Position, report.Hit.Layer)
	}

	d := scoring.Decide(scoring.Input{
		URL:            in.Raw,
		Hit:            report.Hit,
		Blocklisted:    listed,
		BlocklistEntry: entry,
		LayerCount:     len(e.layers),
		Parsed:         in.HasHost(),
	})

	return &models.ScanVerdict{
		URL:            in.Raw,
		RiskScore:      d.Score,
		Status:         d.Status,
		Reason:         d.Reason,
		Recommendation: d.Recommendation,
		Layers:         append([]models.LayerVerdict{repVerdict}, report.Verdicts...),
		Degraded:       report.Faults > 0,
		ScannedAt:      time.Now().UTC(),
	}
}

// record writes the history entry. The write is detached from ctx so that a
// caller going away does not lose the audit row.
func (e *Engine) record(ctx context.Context, v *models.ScanVerdict) {
	entry := &models.HistoryEntry{URL: v.URL, Status: v.Status, Score: v.RiskScore}
	if err := e.store.CreateHistoryEntry(context.WithoutCancel(ctx), entry); err != nil {
		log.Printf("error saving history entry for %s: %v", v.URL, err)
		e.metrics.PersistFailure()
		v.Degraded = true
	}
}

// ListHistory returns the most recent scans.
func (e *Engine) ListHistory(ctx context.Context, params storage.ListHistoryParams) ([]models.HistoryEntry, error) {
	entries, err := e.store.ListHistory(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return entries, nil
}

// Stats derives the summary counters from the scan log.
func (e *Engine) Stats(ctx context.Context) (*models.Stats, error) {
	c, err := e.store.CountHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}
	return &models.Stats{
		Total:   c.Total,
		Threats: c.Threats,
		Blocked: c.Threats,
		Health:  Health(c.Total, c.Threats),
	}, nil
}

// Health is 100 minus the percentage of malicious scans rounded half to even,
// floored at 0.
func Health(total, threats int64) int {
	if total < 1 {
		total = 1
	}
	h := 100 - int(math.RoundToEven(100*float64(threats)/float64(total)))
	if h < 0 {
		return 0
	}
	return h
}
