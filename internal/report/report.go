// Package report renders verdicts, history and stats for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"aegis/internal/models"
)

// Printer writes human or JSON output. Color is controlled globally through
// color.NoColor, which the CLI sets from the TTY check and --no-color.
type Printer struct {
	w    io.Writer
	json bool
}

// New returns a printer writing to w. With asJSON every record is one JSON line.
func New(w io.Writer, asJSON bool) *Printer {
	return &Printer{w: w, json: asJSON}
}

var (
	red    = color.New(color.FgRed, color.Bold)
	yellow = color.New(color.FgYellow, color.Bold)
	green  = color.New(color.FgGreen, color.Bold)
	faint  = color.New(color.Faint)
)

func statusColor(s models.Status) *color.Color {
	switch s {
	case models.StatusMalicious:
		return red
	case models.StatusSuspicious:
		return yellow
	}
	return green
}

func layerColor(s models.LayerStatus) *color.Color {
	switch s {
	case models.LayerDanger:
		return red
	case models.LayerRisk:
		return yellow
	case models.LayerSkipped:
		return faint
	}
	return green
}

// Verdict prints one scan result.
func (p *Printer) Verdict(v *models.ScanVerdict) error {
	if p.json {
		return json.NewEncoder(p.w).Encode(v)
	}
	c := statusColor(v.Status)
	fmt.Fprintf(p.w, "%s  %s  %s\n", c.Sprintf("[%s %3d]", v.Status, v.RiskScore), v.URL, faint.Sprint(v.Recommendation))
	fmt.Fprintf(p.w, "    %s\n", v.Reason)
	for _, l := range v.Layers {
		line := fmt.Sprintf("%d %-12s %-7s %s", l.Position, l.Name, l.Status, l.Evidence)
		fmt.Fprintf(p.w, "    %s\n", layerColor(l.Status).Sprint(line))
	}
	if v.Degraded {
		fmt.Fprintf(p.w, "    %s\n", yellow.Sprint("degraded: some checks or the history write failed"))
	}
	return nil
}

// Failure prints a URL that could not be scanned.
func (p *Printer) Failure(url string, err error) error {
	if p.json {
		return json.NewEncoder(p.w).Encode(map[string]string{"url": url, "error": err.Error()})
	}
	_, perr := fmt.Fprintf(p.w, "%s  %s  %v\n", red.Sprint("[error]"), url, err)
	return perr
}

// History prints the scan log as a table.
func (p *Printer) History(entries []models.HistoryEntry) error {
	if p.json {
		enc := json.NewEncoder(p.w)
		for _, e := range entries {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tSTATUS\tSCORE\tURL")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n",
			e.ID, e.Timestamp.Local().Format(time.DateTime), statusColor(e.Status).Sprint(e.Status), e.Score, e.URL)
	}
	return tw.Flush()
}

// Stats prints the summary counters.
func (p *Printer) Stats(s *models.Stats) error {
	if p.json {
		return json.NewEncoder(p.w).Encode(s)
	}
	health := green
	switch {
	case s.Health < 50:
		health = red
	case s.Health < 90:
		health = yellow
	}
	_, err := fmt.Fprintf(p.w, "URLs scanned:      %d\nThreats detected:  %d\nMalicious blocked: %d\nSystem health:     %s\n",
		s.Total, s.Threats, s.Blocked, health.Sprintf("%d%%", s.Health))
	return err
}
