package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/driftworks/driftd/internal/config"
	"github.com/driftworks/driftd/internal/modules"
)

func buildCallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "call <module.function> [key=value ...]",
		Short: "Invoke one module function",
		Example: `  driftd call imc.get_power_supplies
  driftd call blockdev.tune device=/dev/sda read-ahead=1024
  driftd call modjk.worker_disable worker=node1 profile=edge`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			return runCall(cmd, argv[0], argv[1:])
		},
	}
}

func runCall(cmd *cobra.Command, name string, pairs []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	args, err := modules.ParseKV(pairs)
	if err != nil {
		return err
	}

	eps, err := wireEndpoints(cfg)
	if err != nil {
		return err
	}
	defer eps.close()

	result, err := eps.registry.Call(cmd.Context(), name, args)
	if err != nil {
		if _, invalid := modules.AsInvocation(err); !invalid {
			if thing, ok := retrievalTarget(name); ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "unable to retrieve %s\n", thing)
			}
		}
		return err
	}
	return renderYAML(cmd.OutOrStdout(), result)
}

// retrievalTarget derives the operator-facing name of a read target from a
// get_* or list_* function name.
func retrievalTarget(name string) (string, bool) {
	_, fn, ok := strings.Cut(name, ".")
	if !ok {
		return "", false
	}
	switch {
	case strings.HasPrefix(fn, "get_"):
		fn = strings.TrimPrefix(fn, "get_")
	case strings.HasPrefix(fn, "list_"):
		fn = strings.TrimPrefix(fn, "list_")
	default:
		return "", false
	}
	return strings.ReplaceAll(fn, "_", " "), true
}

func renderYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("render result: %w", err)
	}
	return enc.Close()
}
