package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"retroref/internal/systems"
)

func newSystemsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "systems",
		Short:       "List known systems, their extensions, and folder aliases",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := systems.Default()

			aliasesFor := make(map[string][]string)
			for alias, system := range catalog.Aliases() {
				aliasesFor[system] = append(aliasesFor[system], alias)
			}

			rows := make([][]string, 0, len(catalog.Known()))
			for _, system := range catalog.Known() {
				aliases := aliasesFor[system]
				sort.Strings(aliases)
				rows = append(rows, []string{
					system,
					strings.Join(catalog.Extensions(system), " "),
					strings.Join(aliases, ", "),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderEntriesTable(
				[]string{"System", "Extensions", "Aliases"}, rows))
			return nil
		},
	}
}
