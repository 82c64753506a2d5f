package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kittclouds/kittjournal/internal/store"
)

func (c *cli) analyzeCmd() *cobra.Command {
	var (
		pending     bool
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "analyze [entry-id]",
		Short: "Analyze one entry, or every unanalyzed entry with --pending",
		Args: func(cmd *cobra.Command, args []string) error {
			if pending {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if pending {
				if concurrency <= 0 {
					concurrency = c.app.Cfg.Analysis.Concurrency
				}
				report, err := c.app.Analysis.AnalyzePending(cmd.Context(), concurrency)
				if err != nil {
					return err
				}
				for _, r := range report.Results {
					line := fmt.Sprintf("%-10s %s", r.Outcome, r.EntryID)
					if r.Error != "" {
						line += "  " + r.Error
					}
					fmt.Fprintln(out, line)
				}
				fmt.Fprintf(out, "applied=%d failed=%d skipped=%d discarded=%d\n",
					report.Applied, report.Failed, report.Skipped, report.Discarded)
				return nil
			}

			ctx, cancel := c.app.AnalysisContext(cmd.Context())
			defer cancel()
			res, err := c.app.Analysis.AnalyzeEntry(ctx, args[0])
			if err != nil {
				return err
			}
			if res == nil {
				fmt.Fprintln(out, "Entry was deleted during analysis; result discarded.")
				return nil
			}
			printAnalysis(cmd, res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&pending, "pending", false, "analyze every entry without an analysis")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel analyses with --pending (default from config)")
	return cmd
}

func printAnalysis(cmd *cobra.Command, a *store.Analysis) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Provider:  %s\n", a.Provider)
	fmt.Fprintf(out, "Emotions:  %s\n", strings.Join(a.PrimaryEmotions, ", "))
	fmt.Fprintf(out, "Intensity: %.2f\n", a.EmotionalIntensity)
	fmt.Fprintf(out, "Growth:    %s\n", strings.Join(a.GrowthIndicators, "; "))
	if a.Summary != "" {
		fmt.Fprintf(out, "Summary:   %s\n", a.Summary)
	}
}
