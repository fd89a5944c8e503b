package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"retroref/internal/workflow"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the integrity cache",
	}
	cacheCmd.AddCommand(newCacheShowCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func newCacheShowCommand(ctx *commandContext) *cobra.Command {
	var system string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List verified integrity entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(mgr *workflow.Manager) error {
				entries, err := mgr.Store().Entries(cmd.Context(), system)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "integrity cache is empty")
					return nil
				}

				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, []string{
						entry.System,
						entry.Filename,
						entry.CRC32,
						humanize.Bytes(uint64(entry.Size)),
						entry.VerifiedAt.Format(time.RFC3339),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderEntriesTable(
					[]string{"System", "Filename", "CRC32", "Size", "Verified"}, rows))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&system, "system", "", "Restrict to one system")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var system string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop integrity entries, forcing re-verification on the next run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(mgr *workflow.Manager) error {
				removed, err := mgr.Store().Forget(cmd.Context(), system)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&system, "system", "", "Restrict to one system")
	return cmd
}
