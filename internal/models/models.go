package models

import "time"

// Status is the overall classification of a scanned URL.
type Status string

const (
	StatusSafe       Status = "Safe"
	StatusSuspicious Status = "Suspicious"
	StatusMalicious  Status = "Malicious"
)

// LayerStatus is the outcome a single detection layer reports for a scan.
type LayerStatus string

const (
	LayerSafe    LayerStatus = "Safe"
	LayerRisk    LayerStatus = "Risk"
	LayerSkipped LayerStatus = "Skipped"
	LayerDanger  LayerStatus = "Danger" // reputation hits only
)

// LayerVerdict is what one layer reported for one scan.
// Position 0 is the reputation check; layers 1..6 follow in canonical order.
type LayerVerdict struct {
	Position int         `json:"position"`
	Name     string      `json:"name"`
	Status   LayerStatus `json:"status"`
	Rule     string      `json:"rule,omitempty"`
	Evidence string      `json:"val"`
}

// ScanVerdict is the immutable result of scanning a single URL.
type ScanVerdict struct {
	URL            string         `json:"url"`
	RiskScore      int            `json:"risk_score"`
	Status         Status         `json:"status"`
	Reason         string         `json:"reason"`
	Recommendation string         `json:"recommendation"`
	Layers         []LayerVerdict `json:"layers"`
	Degraded       bool           `json:"degraded"`
	ScannedAt      time.Time      `json:"scanned_at"`
}

// HistoryEntry is one row of the append-only scan log.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	Status    Status    `json:"status"`
	Score     int       `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats are summary counters derived from the scan log.
type Stats struct {
	Total   int64 `json:"urls_scanned"`
	Threats int64 `json:"threats_detected"`
	// Blocked mirrors Threats: every Malicious verdict carries a block recommendation.
	Blocked int64 `json:"malicious_blocked"`
	Health  int   `json:"system_health"`
}
