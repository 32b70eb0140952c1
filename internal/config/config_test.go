package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TRADEWIRE_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://api.tradewire.app", cfg.API.BaseURL)
	require.Equal(t, "https://store.tradewire.app", cfg.Storefront.BaseURL)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "2006-01-02", cfg.UI.DateFormat)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[api]
base_url = "http://localhost:8080"

[storefront]
base_url = "http://localhost:9090"
trust_key_file = "/tmp/storefront.pem"

[logging]
level = "debug"
`), 0o600))
	t.Setenv("TRADEWIRE_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	require.Equal(t, "http://localhost:9090", cfg.Storefront.BaseURL)
	require.Equal(t, "/tmp/storefront.pem", cfg.Storefront.TrustKeyFile)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("TRADEWIRE_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("TRADEWIRE_API_BASE_URL", "http://127.0.0.1:3000")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:3000", cfg.API.BaseURL)
}
