package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kittclouds/kittjournal/internal/store"
	"github.com/kittclouds/kittjournal/pkg/response"
)

func (c *cli) entriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Add, list and delete journal entries",
	}
	cmd.AddCommand(c.entriesAddCmd(), c.entriesListCmd(), c.entriesDeleteCmd())
	return cmd
}

func (c *cli) entriesAddCmd() *cobra.Command {
	var (
		id      string
		content string
		moods   []string
		date    string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an entry",
		Example: `  journalctl entries add --content "Long walk, felt calm." --mood calm --mood grateful
  journalctl entries add --id e-42 --date 2024-03-01 --content "..."`,
		RunE: func(cmd *cobra.Command, args []string) error {
			entry := store.JournalEntry{ID: id, Content: content, Moods: moods}
			if date != "" {
				t, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", date)
				}
				entry.Date = t.UnixMilli()
			}
			stored, err := c.app.Journal.AddEntry(entry)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), stored.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "entry id (default: random UUID)")
	cmd.Flags().StringVar(&content, "content", "", "entry text")
	cmd.Flags().StringSliceVar(&moods, "mood", nil, "mood label (repeatable)")
	cmd.Flags().StringVar(&date, "date", "", "entry date, YYYY-MM-DD (default: now)")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func (c *cli) entriesListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries in insertion order",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := c.app.Journal.GetAllEntries()
			if err != nil {
				return err
			}
			rows := response.FromEntries(entries, c.app.Journal.IsPending)
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "No entries.")
				return nil
			}
			for _, r := range rows {
				mark := " "
				if r.HasAnalysis {
					mark = "*"
				}
				day := time.UnixMilli(r.Date).Format("2006-01-02")
				fmt.Fprintf(out, "%s %s  %s  [%s]  %s\n", mark, r.ID, day, strings.Join(r.Moods, ","), r.Preview)
			}
			fmt.Fprintf(out, "Total: %d entries (* = analyzed)\n", len(rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (c *cli) entriesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entry (no error if it does not exist)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Journal.DeleteEntry(args[0])
		},
	}
}
