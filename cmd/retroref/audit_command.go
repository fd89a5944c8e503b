package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"retroref/internal/config"
	"retroref/internal/romname"
	"retroref/internal/title"
)

// auditThreshold is the word-overlap ratio above which two differently named
// files are flagged as likely duplicates. Policy, not selection logic.
const auditThreshold = 0.8

func newAuditCommand(ctx *commandContext) *cobra.Command {
	var system string
	var threshold float64

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Scan the curated library for likely duplicate titles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			dirs, err := auditTargets(cfg, system)
			if err != nil {
				return err
			}

			scorer := title.OverlapScorer{}
			flagged := 0
			for _, dir := range dirs {
				pairs, err := findLikelyDuplicates(dir, scorer, threshold)
				if err != nil {
					return err
				}
				for _, pair := range pairs {
					flagged++
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %q and %q look like the same game (overlap %.2f)\n",
						filepath.Base(dir), pair.a, pair.b, pair.score)
				}
			}
			if flagged == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no likely duplicates found")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&system, "system", "", "Restrict to one system directory")
	cmd.Flags().Float64Var(&threshold, "threshold", auditThreshold, "Word-overlap ratio that flags a pair")
	return cmd
}

func auditTargets(cfg *config.Config, system string) ([]string, error) {
	if system != "" {
		return []string{filepath.Join(cfg.Paths.DestDir, system)}, nil
	}
	entries, err := os.ReadDir(cfg.Paths.DestDir)
	if err != nil {
		return nil, fmt.Errorf("read destination root: %w", err)
	}
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(cfg.Paths.DestDir, entry.Name()))
		}
	}
	return dirs, nil
}

type duplicatePair struct {
	a, b  string
	score float64
}

// findLikelyDuplicates compares every pair of distinct normalized titles in
// one system directory. Curated directories are small enough that the
// quadratic pass does not matter.
func findLikelyDuplicates(dir string, scorer title.Scorer, threshold float64) ([]duplicatePair, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read system directory: %w", err)
	}

	type item struct {
		name       string
		normalized string
	}
	items := make([]item, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info := romname.Parse(entry.Name())
		items = append(items, item{name: entry.Name(), normalized: title.Normalize(info.BaseTitle)})
	}

	var pairs []duplicatePair
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if items[i].normalized == items[j].normalized {
				continue
			}
			score := scorer.Score(items[i].normalized, items[j].normalized)
			if score >= threshold {
				pairs = append(pairs, duplicatePair{a: items[i].name, b: items[j].name, score: score})
			}
		}
	}
	return pairs, nil
}
