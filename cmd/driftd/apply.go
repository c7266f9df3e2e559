package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/driftworks/driftd/internal/config"
	"github.com/driftworks/driftd/internal/history"
	"github.com/driftworks/driftd/internal/logging"
	"github.com/driftworks/driftd/internal/runner"
	"github.com/driftworks/driftd/internal/state"
)

func buildApplyCmd() *cobra.Command {
	var test bool
	cmd := &cobra.Command{
		Use:   "apply <plan.yaml>",
		Short: "Reconcile the states declared in a plan",
		Long: `Apply reads a YAML plan, runs its state entries in order and prints one
result per entry. "-" reads the plan from stdin. The run is recorded in the
history store and, when a webhook is configured, summarized to Mattermost.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			return runApply(cmd, argv[0], test)
		},
	}
	cmd.Flags().BoolVar(&test, "test", false, "report what would change without changing anything")
	return cmd
}

func runApply(cmd *cobra.Command, path string, test bool) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	raw, err := readPlan(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}
	plan, err := runner.ParsePlan(raw)
	if err != nil {
		return err
	}
	if test {
		plan.Test = true
	}

	logger := logging.NewWithWriter(cmd.ErrOrStderr(), logging.ParseLevel(cfg.Log.Level), "text")

	if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0o755); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}
	store, err := history.New(cmd.Context(), cfg.History.Path, logger)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	eps, err := wireEndpoints(cfg)
	if err != nil {
		return err
	}
	defer eps.close()

	var notifier runner.Notifier
	if eps.notifier != nil {
		notifier = eps.notifier
	}
	run := runner.New(eps.registry, store, nil, notifier, nil, logger)

	result := run.Apply(cmd.Context(), plan)
	printRun(cmd.OutOrStdout(), result)
	if result.Failed() {
		summary := result.Summarize()
		return fmt.Errorf("%d of %d states failed", summary.Failed, len(result.Results))
	}
	return nil
}

func readPlan(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read plan from stdin: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return raw, nil
}

func printRun(w io.Writer, run runner.Run) {
	for _, res := range run.Results {
		fmt.Fprintf(w, "%-8s %s: %s\n", res.Status.String(), res.Name, res.Comment)
		keys := make([]string, 0, len(res.Changes))
		for key := range res.Changes {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			change := res.Changes[key]
			fmt.Fprintf(w, "         %s: %s -> %s\n", key, renderOld(change), change.New)
		}
	}
	summary := run.Summarize()
	mode := "apply"
	if run.DryRun {
		mode = "dry-run"
	}
	fmt.Fprintf(w, "\n%s %s: %d ok, %d pending, %d failed\n",
		mode, run.ID, summary.OK, summary.Pending, summary.Failed)
}

func renderOld(change state.Change) string {
	if change.Old == "" {
		return `""`
	}
	return change.Old
}
