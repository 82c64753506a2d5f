package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"KITTJOURNAL_DB", "KITTJOURNAL_PREFS_BACKEND", "REDIS_URI", "KITTJOURNAL_LOG_MODE",
		"OPENROUTER_API_KEY", "OPENROUTER_MODEL", "OPENROUTER_BASE_URL",
		"GOOGLE_API_KEY", "GOOGLE_MODEL", "KITTJOURNAL_PROVIDER",
		"KITTJOURNAL_ANALYSIS_TIMEOUT", "KITTJOURNAL_ANALYSIS_CONCURRENCY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 45*time.Second, cfg.AnalysisTimeout())
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kittjournal.yaml")
	yamlDoc := `
store:
  database_path: /tmp/journal.db
provider:
  name: openrouter
  openrouter_model: test/model
analysis:
  timeout: 10s
  concurrency: 4
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0644))

	clearEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "sk-test")
	t.Setenv("KITTJOURNAL_ANALYSIS_CONCURRENCY", "8")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/journal.db", cfg.Store.DatabasePath)
	assert.Equal(t, PrefsSQLite, cfg.Store.PrefsBackend)
	assert.Equal(t, ProviderOpenRouter, cfg.Provider.Name)
	assert.Equal(t, "test/model", cfg.Provider.OpenRouterModel)
	assert.Equal(t, "sk-test", cfg.Provider.OpenRouterAPIKey)
	assert.Equal(t, 8, cfg.Analysis.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.AnalysisTimeout())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(c *Config){
		"prefs backend":     func(c *Config) { c.Store.PrefsBackend = "etcd" },
		"redis without uri": func(c *Config) { c.Store.PrefsBackend = PrefsRedis },
		"provider":          func(c *Config) { c.Provider.Name = "anthropic" },
		"concurrency":       func(c *Config) { c.Analysis.Concurrency = 0 },
		"timeout":           func(c *Config) { c.Analysis.Timeout = "soon" },
		"db path":           func(c *Config) { c.Store.DatabasePath = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestBadConcurrencyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("KITTJOURNAL_ANALYSIS_CONCURRENCY", "many")
	_, err := Load("")
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "cfg.yaml")
	cfg := DefaultConfig()
	cfg.Store.DatabasePath = ":memory:"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":memory:", loaded.Store.DatabasePath)
}
