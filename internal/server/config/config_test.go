package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()
	assert.Equal(t, ":8080", cfg.Address)
	assert.Equal(t, "", cfg.DatabaseDSN)
}

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	os.Args = []string{"skylog-server", "-a", ":9090", "-d", "postgres://x"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, ":9090", cfg.Address)
	assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
}

func TestParseJson(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"address": ":7070", "database_dsn": "postgres://json"}`), 0o600))

	os.Args = []string{"skylog-server", "-c", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, ":7070", cfg.Address)
	assert.Equal(t, "postgres://json", cfg.DatabaseDSN)
}

func TestParseJson_FlagOverridesJson(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"address": ":7070"}`), 0o600))

	os.Args = []string{"skylog-server", "-c", path, "-a", ":6060"}

	cfg := LoadConfig()
	assert.Equal(t, ":6060", cfg.Address)
}
