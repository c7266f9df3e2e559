package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/driftworks/driftd/internal/config"
)

func buildModulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List modules, functions and states",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runModules(cmd)
		},
	}
}

func runModules(cmd *cobra.Command) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	eps, err := wireEndpoints(cfg)
	if err != nil {
		return err
	}
	defer eps.close()

	w := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "MODULE\tSTATUS")
	for _, info := range eps.registry.Modules() {
		status := fmt.Sprintf("%d functions, %d states", info.Functions, info.States)
		if !info.Available {
			status = "unavailable: " + info.Reason
		}
		fmt.Fprintf(tw, "%s\t%s\n", info.Name, status)
	}

	fmt.Fprintln(tw, "\nFUNCTION\tDOC")
	for _, fn := range eps.registry.Functions() {
		fmt.Fprintf(tw, "%s\t%s\n", fn.Name, fn.Doc)
	}

	fmt.Fprintln(tw, "\nSTATE\tDOC")
	for _, st := range eps.registry.States() {
		fmt.Fprintf(tw, "%s\t%s\n", st.Name, st.Doc)
	}
	return tw.Flush()
}
