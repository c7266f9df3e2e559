package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/driftworks/driftd/internal/events"
	"github.com/driftworks/driftd/internal/metrics"
	"github.com/driftworks/driftd/internal/modules"
	"github.com/driftworks/driftd/internal/notify/mattermost"
	"github.com/driftworks/driftd/internal/state"
)

type runRecorder struct {
	runs []Run
	err  error
}

func (r *runRecorder) SaveRun(_ context.Context, run Run) error {
	if r.err != nil {
		return r.err
	}
	r.runs = append(r.runs, run)
	return nil
}

type eventSink struct {
	events []events.Event
}

func (s *eventSink) Publish(event events.Event) {
	s.events = append(s.events, event)
}

type postRecorder struct {
	texts []string
}

func (p *postRecorder) Post(_ context.Context, msg mattermost.Message) error {
	p.texts = append(p.texts, msg.Text)
	return nil
}

type applyCall struct {
	name   string
	dryRun bool
}

func testRegistry(calls *[]applyCall) *modules.Registry {
	r := modules.NewRegistry()
	r.RegisterState(modules.State{
		Name: "probe.sync",
		Doc:  "records the call and reports in sync",
		Apply: func(_ context.Context, name string, _ modules.Args, dryRun bool) state.Result {
			*calls = append(*calls, applyCall{name: name, dryRun: dryRun})
			return state.Unchanged(name, name+" is already in the desired state")
		},
	})
	r.RegisterState(modules.State{
		Name: "probe.broken",
		Doc:  "always fails",
		Apply: func(_ context.Context, name string, _ modules.Args, _ bool) state.Result {
			return state.Failed(name, "probe exploded")
		},
	})
	return r
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const planDoc = `
test: true
states:
  - name: /dev/sda
    state: blockdev.tuned
    params: {read-ahead: 1024, read-write: true}
  - name: reporting
    state: mssql_database.present
    params:
      containment: NONE
      db_opts: [COLLATE=Latin1_General_CI_AS]
`

func TestParsePlanDecodesDocument(t *testing.T) {
	plan, err := ParsePlan([]byte(planDoc))
	require.NoError(t, err)
	require.True(t, plan.Test)
	require.Len(t, plan.States, 2)

	require.Equal(t, "/dev/sda", plan.States[0].Name)
	require.Equal(t, "blockdev.tuned", plan.States[0].State)
	require.Equal(t, 1024, plan.States[0].Params["read-ahead"])
	require.Equal(t, true, plan.States[0].Params["read-write"])

	require.Equal(t, "mssql_database.present", plan.States[1].State)
	require.Equal(t, "NONE", plan.States[1].Params["containment"])
	require.Equal(t, []any{"COLLATE=Latin1_General_CI_AS"}, plan.States[1].Params["db_opts"])
}

func TestParsePlanValidates(t *testing.T) {
	cases := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"empty", "", "no states declared"},
		{"no entries", "states: []", "no states declared"},
		{"missing name", "states:\n  - state: blockdev.tuned", "entry 0 has no name"},
		{"missing state", "states:\n  - name: /dev/sda", `entry "/dev/sda" has no state`},
		{"broken yaml", "states: [", "parse plan"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePlan([]byte(tc.doc))
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestApplyRunsEntriesInOrder(t *testing.T) {
	var calls []applyCall
	r := New(testRegistry(&calls), nil, nil, nil, nil, testLogger())

	run := r.Apply(context.Background(), Plan{States: []Entry{
		{Name: "one", State: "probe.sync"},
		{Name: "two", State: "probe.sync"},
	}})

	require.NotEmpty(t, run.ID)
	require.False(t, run.DryRun)
	require.Len(t, run.Results, 2)
	require.Equal(t, []applyCall{{name: "one"}, {name: "two"}}, calls)
	require.False(t, run.Failed())
	require.False(t, run.FinishedAt.Before(run.StartedAt))
}

func TestApplyDryRunReachesEveryEntry(t *testing.T) {
	var calls []applyCall
	r := New(testRegistry(&calls), nil, nil, nil, nil, testLogger())

	run := r.Apply(context.Background(), Plan{Test: true, States: []Entry{
		{Name: "one", State: "probe.sync"},
		{Name: "two", State: "probe.sync"},
	}})

	require.True(t, run.DryRun)
	require.Equal(t, []applyCall{
		{name: "one", dryRun: true},
		{name: "two", dryRun: true},
	}, calls)
}

func TestApplyUnknownStateContinues(t *testing.T) {
	var calls []applyCall
	r := New(testRegistry(&calls), nil, nil, nil, nil, testLogger())

	run := r.Apply(context.Background(), Plan{States: []Entry{
		{Name: "bogus", State: "nosuch.state"},
		{Name: "fine", State: "probe.sync"},
	}})

	require.Len(t, run.Results, 2)
	require.Equal(t, state.StatusFailed, run.Results[0].Status)
	require.Equal(t, "unknown state nosuch.state", run.Results[0].Comment)
	require.Equal(t, state.StatusOK, run.Results[1].Status)
	require.True(t, run.Failed())
	require.Equal(t, []applyCall{{name: "fine"}}, calls)
}

func TestApplyUnavailableModuleFailsEntry(t *testing.T) {
	var calls []applyCall
	registry := testRegistry(&calls)
	registry.MarkUnavailable("mssql_database", "mssql is not configured")
	r := New(registry, nil, nil, nil, nil, testLogger())

	run := r.Apply(context.Background(), Plan{States: []Entry{
		{Name: "reporting", State: "mssql_database.present"},
	}})

	require.Equal(t, state.StatusFailed, run.Results[0].Status)
	require.Equal(t, "module mssql_database is not available: mssql is not configured", run.Results[0].Comment)
}

func TestApplyEmitsEventsRecordsAndNotifies(t *testing.T) {
	var calls []applyCall
	recorder := &runRecorder{}
	sink := &eventSink{}
	posts := &postRecorder{}
	m := metrics.New(prometheus.NewRegistry())
	r := New(testRegistry(&calls), recorder, sink, posts, m, testLogger())

	run := r.Apply(context.Background(), Plan{States: []Entry{
		{Name: "one", State: "probe.sync"},
		{Name: "bad", State: "probe.broken"},
	}})

	require.Len(t, recorder.runs, 1)
	require.Equal(t, run.ID, recorder.runs[0].ID)

	require.Len(t, sink.events, 4)
	require.Equal(t, events.TypeRunStarted, sink.events[0].Type)
	require.Equal(t, events.TypeRunResult, sink.events[1].Type)
	require.Equal(t, events.TypeRunResult, sink.events[2].Type)
	require.Equal(t, events.TypeRunFinished, sink.events[3].Type)
	for _, event := range sink.events {
		require.Equal(t, run.ID, event.RunID)
	}

	require.Len(t, posts.texts, 1)
	require.Contains(t, posts.texts[0], "1 ok, 0 pending, 1 failed")
	require.Contains(t, posts.texts[0], "failed bad: probe exploded")

	require.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("apply", "failed")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.StateResults.WithLabelValues("probe.sync", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.StateResults.WithLabelValues("probe.broken", "failed")))
}

func TestApplyRecorderFailureKeepsRun(t *testing.T) {
	var calls []applyCall
	recorder := &runRecorder{err: errors.New("disk full")}
	r := New(testRegistry(&calls), recorder, nil, nil, nil, testLogger())

	run := r.Apply(context.Background(), Plan{States: []Entry{
		{Name: "one", State: "probe.sync"},
	}})

	require.Len(t, run.Results, 1)
	require.Equal(t, state.StatusOK, run.Results[0].Status)
	require.Empty(t, recorder.runs)
}

func TestSummarizeCounts(t *testing.T) {
	run := Run{ID: "abc", DryRun: true, Results: []state.Result{
		{Name: "a", Status: state.StatusOK},
		{Name: "b", Status: state.StatusPending},
		{Name: "c", Status: state.StatusFailed, Comment: "boom"},
	}}

	summary := run.Summarize()
	require.Equal(t, "abc", summary.ID)
	require.True(t, summary.DryRun)
	require.Equal(t, 1, summary.OK)
	require.Equal(t, 1, summary.Pending)
	require.Equal(t, 1, summary.Failed)

	text := run.SummaryText()
	require.True(t, strings.HasPrefix(text, "driftd dry-run abc: 1 ok, 1 pending, 1 failed"))
	require.Contains(t, text, "failed c: boom")
}
