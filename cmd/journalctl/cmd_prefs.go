package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kittclouds/kittjournal/pkg/prefs"
	"github.com/kittclouds/kittjournal/pkg/settings"
)

func (c *cli) prefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change user preferences",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Print preferences with defaults applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.app.Settings.GetPreferences(cmd.Context())
			if err != nil {
				return err
			}
			onboarded, err := c.app.Settings.OnboardingCompleted(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), struct {
				settings.Preferences
				OnboardingCompleted bool `json:"onboardingCompleted"`
			}{p, onboarded})
		},
	}

	set := &cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Validate and store one preference",
		Args:      cobra.ExactArgs(2),
		ValidArgs: settings.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := settings.ParseValue(args[0], args[1])
			if err != nil {
				return err
			}
			return c.app.Settings.UpdatePreference(cmd.Context(), args[0], v)
		},
	}

	cmd.AddCommand(get, set)
	return cmd
}

func (c *cli) resetOnboardingCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "reset-onboarding",
		Short: "Clear onboarding state so the app starts fresh (maintenance)",
		Long: `Removes onboarding_completed and quick_setup_config from the preference
store. With --all every stored preference is removed. This bypasses the
settings service on purpose and is meant for test and debug workflows.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if all {
				n, err := prefs.ResetAll(cmd.Context(), c.app.Prefs)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed %d preference keys.\n", n)
				return nil
			}
			if err := prefs.ResetOnboarding(cmd.Context(), c.app.Prefs); err != nil {
				return err
			}
			fmt.Fprintln(out, "Onboarding reset.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "remove every stored preference")
	return cmd
}
