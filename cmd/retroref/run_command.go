package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"retroref/internal/report"
	"retroref/internal/workflow"
)

type runFlags struct {
	source         string
	systems        []string
	include        []string
	exclude        []string
	regionPriority []string
	workers        int
	connections    int
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.source, "source", "s", "", "Source root: local directory or index URL")
	cmd.Flags().StringSliceVar(&f.systems, "system", nil, "System to curate (repeatable)")
	cmd.Flags().StringSliceVar(&f.include, "include", nil, "Only consider filenames matching these patterns")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, "Skip filenames matching these patterns")
	cmd.Flags().StringSliceVar(&f.regionPriority, "region-priority", nil, "Override region priority, best first")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Transfer worker count (0 = configured value)")
	cmd.Flags().IntVar(&f.connections, "connections", 0, "Connections per file (0 = configured value)")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("system")
}

func (f *runFlags) options(dryRun bool) workflow.Options {
	return workflow.Options{
		Source:         f.source,
		Systems:        f.systems,
		DryRun:         dryRun,
		Include:        f.include,
		Exclude:        f.exclude,
		RegionPriority: f.regionPriority,
		Workers:        f.workers,
		Connections:    f.connections,
	}
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Enumerate, select, and transfer the best file per game",
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(ctx, cmd, flags.options(false))
		},
	}
	flags.register(cmd)
	return cmd
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Enumerate and select without transferring anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(ctx, cmd, flags.options(true))
		},
	}
	flags.register(cmd)
	return cmd
}

func executeRun(ctx *commandContext, cmd *cobra.Command, opts workflow.Options) error {
	return ctx.withManager(func(mgr *workflow.Manager) error {
		result, err := mgr.Run(cmd.Context(), opts)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		renderer := report.NewRenderer(out, report.DetectCapability(os.Stdout))
		renderer.Render(result.Reports)

		switch {
		case result.Fatal:
			return errors.New("run aborted: enumeration failed for at least one system")
		case result.ZeroSelection:
			return errors.New("run produced zero selections for at least one system")
		}
		fmt.Fprintf(out, "%s run %s complete\n", renderer.OKGlyph(), result.RunID)
		return nil
	})
}
