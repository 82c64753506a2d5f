// Package app wires the KittJournal services from a Config.
package app

import (
	"context"
	"fmt"

	"github.com/kittclouds/kittjournal/internal/config"
	"github.com/kittclouds/kittjournal/internal/logging"
	"github.com/kittclouds/kittjournal/internal/store"
	"github.com/kittclouds/kittjournal/pkg/analysis"
	"github.com/kittclouds/kittjournal/pkg/batch"
	"github.com/kittclouds/kittjournal/pkg/cores"
	"github.com/kittclouds/kittjournal/pkg/journal"
	"github.com/kittclouds/kittjournal/pkg/prefs"
	"github.com/kittclouds/kittjournal/pkg/settings"
)

type App struct {
	Log   *logging.Logger
	Cfg   *config.Config
	Store *store.SQLiteStore
	Prefs prefs.Store

	Journal  *journal.Repository
	Cores    *cores.Service
	Settings *settings.Service
	Analysis *analysis.Service
	Batch    *batch.Service

	closers []func() error
}

// New opens the database and preference store and wires every service.
// A nil log falls back to a logger built from cfg.Logging.Mode.
func New(ctx context.Context, cfg *config.Config, log *logging.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		l, err := logging.New(cfg.Logging.Mode)
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		log = l
	}

	a := &App{Log: log, Cfg: cfg}

	db, err := store.NewSQLiteStoreWithDSN(cfg.Store.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.Store = db
	a.closers = append(a.closers, db.Close)

	ps, err := a.openPrefs(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open prefs: %w", err)
	}
	a.Prefs = ps

	a.Journal = journal.NewRepository(db, log)
	a.Cores = cores.NewService(db, log)
	a.Settings = settings.NewService(ps, log)
	a.Batch = batch.NewService(batchConfig(cfg.Provider))

	provider := a.selectProvider()
	a.Analysis = analysis.NewService(a.Journal, a.Cores, a.Settings, provider, log)

	entries, err := db.CountEntries()
	if err != nil {
		a.Close()
		return nil, err
	}

	log.Info("kittjournal ready",
		"db", cfg.Store.DatabasePath,
		"entries", entries,
		"prefs", cfg.Store.PrefsBackend,
		"provider", provider.Name())
	return a, nil
}

func (a *App) openPrefs(ctx context.Context) (prefs.Store, error) {
	switch a.Cfg.Store.PrefsBackend {
	case config.PrefsMemory:
		return prefs.NewMemoryStore(), nil
	case config.PrefsRedis:
		rs, err := prefs.NewRedisStore(ctx, a.Cfg.Store.RedisURI, prefs.DefaultRedisHash)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rs.Close)
		return rs, nil
	default:
		return prefs.NewSQLStore(a.Store), nil
	}
}

func batchConfig(p config.ProviderConfig) batch.Config {
	return batch.Config{
		Provider:          batch.Provider(p.Name),
		GoogleAPIKey:      p.GoogleAPIKey,
		GoogleModel:       p.GoogleModel,
		OpenRouterAPIKey:  p.OpenRouterAPIKey,
		OpenRouterModel:   p.OpenRouterModel,
		OpenRouterBaseURL: p.OpenRouterBaseURL,
	}
}

// selectProvider picks the configured provider. A remote provider without
// credentials falls back to the local one.
func (a *App) selectProvider() analysis.Provider {
	name := a.Cfg.Provider.Name
	switch name {
	case config.ProviderOpenRouter, config.ProviderGoogle:
		if a.Batch.IsConfigured() {
			return analysis.NewLLMProvider(name, a.Batch)
		}
		a.Log.Warn("provider has no API key, using local analysis", "provider", name)
	}
	return analysis.NewLocalProvider()
}

// Import replaces the database with an Export snapshot after checking it
// against the core library. Nothing is written if any check fails.
func (a *App) Import(data []byte) error {
	snap, err := store.DecodeSnapshot(data)
	if err != nil {
		return err
	}
	if err := cores.CheckSnapshot(snap); err != nil {
		return err
	}
	if err := a.Store.ImportSnapshot(snap); err != nil {
		return err
	}
	a.Log.Info("snapshot imported", "entries", len(snap.Entries),
		"cores", len(snap.Cores), "preferences", len(snap.Preferences))
	return nil
}

// AnalysisContext bounds one analysis call by the configured timeout.
func (a *App) AnalysisContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, a.Cfg.AnalysisTimeout())
}

// Close releases the stores in reverse order and flushes the logger.
func (a *App) Close() {
	if a == nil {
		return
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Log.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
	if a.Log != nil {
		a.Log.Sync()
	}
}
