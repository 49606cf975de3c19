package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BANKFEED_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "data/input_files", cfg.Paths.InputDir)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 5*time.Minute, cfg.Pipeline.BankTimeout)
	assert.Equal(t, "Mappings.xlsx.enc", cfg.Mappings.File)
	assert.Equal(t, "https://api.openfigi.com/v3/mapping", cfg.OpenFIGI.BaseURL)
	assert.Equal(t, "https://mindicador.cl/api", cfg.Mindicador.BaseURL)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BANKFEED_CONFIG", "")
	t.Setenv("BANKFEED_LOGGING_LEVEL", "debug")
	t.Setenv("BANKFEED_PIPELINE_WORKERS", "8")
	t.Setenv("BANKFEED_MAPPINGS_PASSPHRASE", "hunter2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, "hunter2", cfg.Mappings.Passphrase)
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: warn
pipeline:
  workers: 2
  bank_timeout: 90s
`), 0o644))
	t.Setenv("BANKFEED_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.Pipeline.Workers)
	assert.Equal(t, 90*time.Second, cfg.Pipeline.BankTimeout)
	assert.Equal(t, "json", cfg.Logging.Format, "unset fields keep their defaults")
}

func TestEnvWinsOverYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0o644))
	t.Setenv("BANKFEED_CONFIG", path)
	t.Setenv("BANKFEED_LOGGING_LEVEL", "error")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("BANKFEED_CONFIG", "")
	t.Setenv("BANKFEED_LOGGING_LEVEL", "chatty")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsZeroWorkers(t *testing.T) {
	t.Setenv("BANKFEED_CONFIG", "")
	t.Setenv("BANKFEED_PIPELINE_WORKERS", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("BANKFEED_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	assert.Error(t, err)
}
