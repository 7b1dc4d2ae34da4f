package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDirDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nxaichat")

	cfg, err := LoadDir(dir)
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Server)
	assert.Equal(t, 8000, cfg.Port)
	assert.False(t, cfg.Insecure)
	assert.False(t, cfg.Plain)
	assert.Equal(t, filepath.Join(dir, "history.db"), cfg.HistoryDB)
	assert.Equal(t, dir, cfg.Dir())
	assert.Equal(t, filepath.Join(dir, "sessions.toml"), cfg.SessionPath())
	assert.Equal(t, filepath.Join(dir, "nxaichat.log"), cfg.LogPath())

	// the directory is created on first access
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoadDirOverrides(t *testing.T) {
	dir := t.TempDir()
	content := `
server = "netxms.example.com"
port = 9443
insecure = true
plain = true
history_db = "/tmp/elsewhere.db"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))

	cfg, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "netxms.example.com", cfg.Server)
	assert.Equal(t, 9443, cfg.Port)
	assert.True(t, cfg.Insecure)
	assert.True(t, cfg.Plain)
	assert.Equal(t, "/tmp/elsewhere.db", cfg.HistoryDB)
}

func TestLoadDirBadToml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("port = {"), 0o600))

	_, err := LoadDir(dir)
	require.Error(t, err)
}

func TestExpandHome(t *testing.T) {
	assert.Equal(t, "/home/u/x.db", expandHome("~/x.db", "/home/u"))
	assert.Equal(t, "/abs/x.db", expandHome("/abs/x.db", "/home/u"))
	assert.Equal(t, "~elsewhere", expandHome("~elsewhere", "/home/u"))
}
