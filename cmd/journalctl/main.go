// Command journalctl is a developer utility for a KittJournal database:
// add and list entries, run analyses, inspect cores and preferences, and
// reset onboarding state.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kittclouds/kittjournal/internal/app"
	"github.com/kittclouds/kittjournal/internal/config"
	"github.com/kittclouds/kittjournal/internal/logging"
)

// cli carries flag values and the opened app for one invocation.
type cli struct {
	configPath string
	dbPath     string
	provider   string
	prefs      string
	verbose    bool

	app *app.App
}

func main() {
	// Missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root, done := newRootCmd()
	err := root.ExecuteContext(ctx)
	done()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. done closes whatever the command opened.
func newRootCmd() (root *cobra.Command, done func()) {
	c := &cli{}

	root = &cobra.Command{
		Use:   "journalctl",
		Short: "KittJournal developer utility",
		Long: `journalctl operates on a KittJournal database directly.

Configuration comes from defaults, an optional YAML file (--config),
KITTJOURNAL_* environment variables (a .env file is loaded if present),
and finally the flags below.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.open,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "path to a YAML config file")
	pf.StringVar(&c.dbPath, "db", "", "database path (overrides config)")
	pf.StringVar(&c.provider, "provider", "", "analysis provider: local, openrouter, google")
	pf.StringVar(&c.prefs, "prefs", "", "preference backend: sqlite, memory, redis")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		c.entriesCmd(),
		c.coresCmd(),
		c.analyzeCmd(),
		c.prefsCmd(),
		c.resetOnboardingCmd(),
		c.smokeProviderCmd(),
		c.exportCmd(),
		c.importCmd(),
		c.configCmd(),
	)
	return root, func() { c.app.Close() }
}

func (c *cli) open(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.dbPath != "" {
		cfg.Store.DatabasePath = c.dbPath
	}
	if c.provider != "" {
		cfg.Provider.Name = c.provider
	}
	if c.prefs != "" {
		cfg.Store.PrefsBackend = c.prefs
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	mode := "production"
	if c.verbose {
		mode = cfg.Logging.Mode
	}
	log, err := logging.New(mode)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a, err := app.New(cmd.Context(), cfg, log)
	if err != nil {
		log.Sync()
		return err
	}
	c.app = a
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
