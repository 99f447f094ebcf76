package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-livepipe/internal/config"
	"github.com/askiada/go-livepipe/internal/coordinator"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	d, err := cfg.DebounceDuration()
	require.NoError(t, err)
	assert.Equal(t, coordinator.DefaultDebounce, d)
	assert.Equal(t, config.DefaultListen, cfg.Listen)
	assert.Equal(t, config.DefaultFeed, cfg.Feed)
	assert.Equal(t, config.PersistMemory, cfg.Persist.Kind)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "livepipe.yaml")
	content := `listen: ":9000"
debounce: 150ms
feed: "cmd:tail -f app.log"
program: |
  # errors only
  -i json 'select(.level == "error")'
log_level: debug
report: true
persist:
  kind: badger
  dir: /var/lib/livepipe
  session: main
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "cmd:tail -f app.log", cfg.Feed)
	assert.Equal(t, "# errors only\n-i json 'select(.level == \"error\")'\n", cfg.Program)
	assert.True(t, cfg.Report)
	assert.Equal(t, config.Persist{Kind: config.PersistBadger, Dir: "/var/lib/livepipe", Session: "main"}, cfg.Persist)

	d, err := cfg.DebounceDuration()
	require.NoError(t, err)
	assert.Equal(t, 150*time.Millisecond, d)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "livepipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("program: .name\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ".name", cfg.Program)
	assert.Equal(t, config.DefaultListen, cfg.Listen)
	assert.Equal(t, config.DefaultFeed, cfg.Feed)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [\n"), 0o600))

	_, err = config.Load(path)
	assert.Error(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "livepipe.yaml")
	cfg := config.Default()
	cfg.Program = "-o json .a"
	cfg.Persist = config.Persist{Kind: config.PersistHTTP, URL: "http://localhost:8080/update-input"}

	require.NoError(t, cfg.Save(path))

	got, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		edit func(cfg *config.Config)
	}{
		"no listen":          {edit: func(cfg *config.Config) { cfg.Listen = "" }},
		"bad debounce":       {edit: func(cfg *config.Config) { cfg.Debounce = "soon" }},
		"negative debounce":  {edit: func(cfg *config.Config) { cfg.Debounce = "-1s" }},
		"bad level":          {edit: func(cfg *config.Config) { cfg.LogLevel = "loud" }},
		"unknown persist":    {edit: func(cfg *config.Config) { cfg.Persist.Kind = "s3" }},
		"http without url":   {edit: func(cfg *config.Config) { cfg.Persist.Kind = config.PersistHTTP }},
		"badger without dir": {edit: func(cfg *config.Config) { cfg.Persist.Kind = config.PersistBadger }},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			tc.edit(cfg)
			assert.ErrorIs(t, cfg.Validate(), config.ErrInvalid)
		})
	}
}
