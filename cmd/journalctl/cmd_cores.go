package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kittclouds/kittjournal/pkg/response"
)

func (c *cli) coresCmd() *cobra.Command {
	var (
		reset  bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "cores",
		Short: "Show the emotional core library",
		RunE: func(cmd *cobra.Command, args []string) error {
			if reset {
				if err := c.app.Cores.Reset(); err != nil {
					return err
				}
			}
			all, err := c.app.Cores.GetAllCores()
			if err != nil {
				return err
			}
			rows := response.FromCores(all)
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, rows)
			}
			for _, r := range rows {
				bar := strings.Repeat("█", int(r.Level*20+0.5))
				fmt.Fprintf(out, "%-18s %-20s %.2f (%s, was %.2f)\n", r.Label, bar, r.Level, r.Trend, r.PreviousLevel)
				if r.LatestInsight != "" {
					fmt.Fprintf(out, "%18s   %s\n", "", r.LatestInsight)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "reset every core to zero first")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
