package runner

import (
	"fmt"
	"strings"
	"time"

	"github.com/driftworks/driftd/internal/state"
)

// Run is one apply run and its recorded outcome.
type Run struct {
	ID         string         `json:"id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	DryRun     bool           `json:"dry_run"`
	Results    []state.Result `json:"results"`
}

// RunSummary is the list-view projection of a run.
type RunSummary struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DryRun     bool      `json:"dry_run"`
	OK         int       `json:"ok"`
	Pending    int       `json:"pending"`
	Failed     int       `json:"failed"`
}

// Summarize reduces the run to its list-view counts.
func (r Run) Summarize() RunSummary {
	summary := RunSummary{
		ID:         r.ID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		DryRun:     r.DryRun,
	}
	for _, result := range r.Results {
		switch result.Status {
		case state.StatusOK:
			summary.OK++
		case state.StatusPending:
			summary.Pending++
		default:
			summary.Failed++
		}
	}
	return summary
}

// Failed reports whether any entry failed.
func (r Run) Failed() bool {
	for _, result := range r.Results {
		if result.Status == state.StatusFailed {
			return true
		}
	}
	return false
}

// SummaryText renders the run summary posted to the notifier: one header
// line plus one line per failed entry.
func (r Run) SummaryText() string {
	summary := r.Summarize()
	mode := "apply"
	if r.DryRun {
		mode = "dry-run"
	}
	lines := []string{fmt.Sprintf(
		"driftd %s %s: %d ok, %d pending, %d failed",
		mode, r.ID, summary.OK, summary.Pending, summary.Failed,
	)}
	for _, result := range r.Results {
		if result.Status == state.StatusFailed {
			lines = append(lines, fmt.Sprintf("failed %s: %s", result.Name, result.Comment))
		}
	}
	return strings.Join(lines, "\n")
}
