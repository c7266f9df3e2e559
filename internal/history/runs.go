package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/driftworks/driftd/internal/runner"
)

const defaultListLimit = 50

// SaveRun stores one finished run with its full result list.
func (s *Store) SaveRun(ctx context.Context, run runner.Run) error {
	results, err := json.Marshal(run.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	summary := run.Summarize()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, dry_run, ok, pending, failed, results_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		boolToInt(run.DryRun),
		summary.OK,
		summary.Pending,
		summary.Failed,
		string(results),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. A non-positive limit
// falls back to the default page size.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]runner.RunSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, dry_run, ok, pending, failed
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []runner.RunSummary{}
	for rows.Next() {
		var (
			summary               runner.RunSummary
			startedAt, finishedAt string
			dryRun                int
		)
		if err := rows.Scan(&summary.ID, &startedAt, &finishedAt, &dryRun, &summary.OK, &summary.Pending, &summary.Failed); err != nil {
			return nil, err
		}
		summary.StartedAt = parseTime(startedAt)
		summary.FinishedAt = parseTime(finishedAt)
		summary.DryRun = dryRun != 0
		result = append(result, summary)
	}
	return result, rows.Err()
}

// GetRun returns one run with its full result list.
func (s *Store) GetRun(ctx context.Context, id string) (runner.Run, error) {
	var (
		run                   runner.Run
		startedAt, finishedAt string
		dryRun                int
		resultsJSON           string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, dry_run, results_json
		FROM runs
		WHERE id = ?`, id).
		Scan(&run.ID, &startedAt, &finishedAt, &dryRun, &resultsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return runner.Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return runner.Run{}, err
	}
	run.StartedAt = parseTime(startedAt)
	run.FinishedAt = parseTime(finishedAt)
	run.DryRun = dryRun != 0
	if err := json.Unmarshal([]byte(resultsJSON), &run.Results); err != nil {
		return runner.Run{}, fmt.Errorf("decode results: %w", err)
	}
	return run, nil
}

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
