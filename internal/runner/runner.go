// Package runner executes apply plans against the module registry and emits
// each run to the configured sinks.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/driftworks/driftd/internal/events"
	"github.com/driftworks/driftd/internal/metrics"
	"github.com/driftworks/driftd/internal/modules"
	"github.com/driftworks/driftd/internal/notify/mattermost"
	"github.com/driftworks/driftd/internal/state"
)

// Recorder persists finished runs.
type Recorder interface {
	SaveRun(ctx context.Context, run Run) error
}

// Publisher fans run events out to listeners.
type Publisher interface {
	Publish(event events.Event)
}

// Notifier posts a run summary after each apply.
type Notifier interface {
	Post(ctx context.Context, msg mattermost.Message) error
}

// Runner applies plans. Every sink is optional: a nil recorder, publisher,
// notifier or metrics handle disables that sink.
type Runner struct {
	registry  *modules.Registry
	recorder  Recorder
	publisher Publisher
	notifier  Notifier
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func New(
	registry *modules.Registry,
	recorder Recorder,
	publisher Publisher,
	notifier Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		registry:  registry,
		recorder:  recorder,
		publisher: publisher,
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
	}
}

// Apply runs every plan entry in order and returns the recorded run. An
// unknown state fails its own entry; the run continues.
func (r *Runner) Apply(ctx context.Context, plan Plan) Run {
	run := Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		DryRun:    plan.Test,
		Results:   make([]state.Result, 0, len(plan.States)),
	}
	r.logger.Info("run started", "run_id", run.ID, "states", len(plan.States), "dry_run", run.DryRun)
	r.publish(events.Event{
		Type:    events.TypeRunStarted,
		RunID:   run.ID,
		Payload: map[string]any{"states": len(plan.States), "dry_run": run.DryRun},
	})

	for _, entry := range plan.States {
		result := r.applyEntry(ctx, entry, plan.Test)
		run.Results = append(run.Results, result)
		if r.metrics != nil {
			r.metrics.RecordStateResult(entry.State, result.Status.String())
		}
		r.publish(events.Event{Type: events.TypeRunResult, RunID: run.ID, Payload: result})
	}

	run.FinishedAt = time.Now().UTC()
	if r.metrics != nil {
		r.metrics.RecordRun(run.DryRun, run.Failed(), run.FinishedAt.Sub(run.StartedAt).Seconds())
	}
	r.publish(events.Event{Type: events.TypeRunFinished, RunID: run.ID, Payload: run.Summarize()})
	r.logger.Info("run finished", "run_id", run.ID, "failed", run.Failed())

	if r.recorder != nil {
		if err := r.recorder.SaveRun(ctx, run); err != nil {
			r.logger.Warn("failed to record run", "run_id", run.ID, "err", err)
		}
	}
	if r.notifier != nil {
		if err := r.notifier.Post(ctx, mattermost.Message{Text: run.SummaryText()}); err != nil {
			r.logger.Warn("failed to post run summary", "run_id", run.ID, "err", err)
		}
	}
	return run
}

func (r *Runner) applyEntry(ctx context.Context, entry Entry, dryRun bool) state.Result {
	st, err := r.registry.State(entry.State)
	if err != nil {
		if errors.Is(err, modules.ErrNotFound) {
			return state.Failed(entry.Name, fmt.Sprintf("unknown state %s", entry.State))
		}
		return state.Failed(entry.Name, err.Error())
	}
	r.logger.Debug("applying state", "state", entry.State, "name", entry.Name, "dry_run", dryRun)
	return st.Apply(ctx, entry.Name, entry.Params, dryRun)
}

func (r *Runner) publish(event events.Event) {
	if r.publisher == nil {
		return
	}
	r.publisher.Publish(event)
}
