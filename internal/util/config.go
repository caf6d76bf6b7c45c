package util

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Configuration carries build metadata and the user-tunable REPL
// settings loaded from a TOML file.
type Configuration struct {
	Version   string `toml:"-"`
	BuildDate string `toml:"-"`
	Commit    string `toml:"-"`
	WispHome  string `toml:"-"`

	Prompt      string   `toml:"prompt"`
	HistoryFile string   `toml:"history_file"`
	Preload     []string `toml:"preload"`
}

// DefaultConfiguration returns the settings used when no config file is
// present.
func DefaultConfiguration() Configuration {
	return Configuration{
		Prompt:      "user> ",
		HistoryFile: filepath.Join(homeDir(), ".wisp_history"),
	}
}

// LoadConfiguration reads TOML settings from path. An empty path falls
// back to $WISP_HOME/wisp.toml, then ~/.wisp.toml; a missing file at a
// fallback location is not an error.
func LoadConfiguration(path string) (Configuration, error) {
	cfg := DefaultConfiguration()

	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
		if path == "" {
			return cfg, nil
		}
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return DefaultConfiguration(), nil
		}
		return DefaultConfiguration(), err
	}

	slog.Debug("configuration loaded", slog.String("path", path))
	cfg.WispHome = os.Getenv("WISP_HOME")
	return cfg, nil
}

func defaultConfigPath() string {
	if home := os.Getenv("WISP_HOME"); home != "" {
		return filepath.Join(home, "wisp.toml")
	}
	if home := homeDir(); home != "" {
		return filepath.Join(home, ".wisp.toml")
	}
	return ""
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}
