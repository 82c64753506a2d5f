package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kittclouds/kittjournal/internal/store"
)

const smokeText = "Today I felt anxious before my presentation, but I practiced, reached out to a friend, and realized I was more prepared than I thought. Grateful and a little proud."

func (c *cli) smokeProviderCmd() *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "smoke-provider",
		Short: "Send a sample entry to the configured provider without storing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := c.app.Analysis.Provider()
			ctx, cancel := c.app.AnalysisContext(cmd.Context())
			defer cancel()

			start := time.Now()
			res, err := p.Analyze(ctx, store.JournalEntry{ID: "smoke", Content: text})
			if err != nil {
				return fmt.Errorf("provider %s: %w", p.Name(), err)
			}
			printAnalysis(cmd, res)
			fmt.Fprintf(cmd.OutOrStdout(), "Took:      %s\n", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", smokeText, "entry text to analyze")
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON snapshot of entries, cores and preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := c.app.Store.Export()
			if err != nil {
				return err
			}
			if outPath == "" || outPath == "-" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			return os.WriteFile(outPath, data, 0644)
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the database contents with a JSON snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := c.app.Import(data); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Imported.")
			return nil
		},
	}
}
