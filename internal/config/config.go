package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config are the user-level defaults read from config.toml. Flags and
// environment variables override every field at startup.
type Config struct {
	Server    string `toml:"server"`
	Port      int    `toml:"port"`
	Insecure  bool   `toml:"insecure"`
	Plain     bool   `toml:"plain"`
	HistoryDB string `toml:"history_db"`

	dir string
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return LoadDir(filepath.Join(home, ".config", "nxaichat"))
}

// LoadDir loads the config rooted at dir, creating the directory on first
// access so the session file, history DB and log have a place to live.
func LoadDir(dir string) (*Config, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	cfg := &Config{
		Port:      8000,
		HistoryDB: filepath.Join(dir, "history.db"),
		dir:       dir,
	}

	cfgPath := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	// expand ~ in paths
	if home, err := os.UserHomeDir(); err == nil {
		cfg.HistoryDB = expandHome(cfg.HistoryDB, home)
	}

	return cfg, nil
}

func (c *Config) Dir() string { return c.dir }

// SessionPath is the TOML file holding saved session tokens.
func (c *Config) SessionPath() string { return filepath.Join(c.dir, "sessions.toml") }

// LogPath is the debug log sink; the terminal itself is never logged to.
func (c *Config) LogPath() string { return filepath.Join(c.dir, "nxaichat.log") }

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
