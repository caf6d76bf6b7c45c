package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfiguration(t *testing.T) {
	cfg := DefaultConfiguration()

	assert.Equal(t, "user> ", cfg.Prompt)
	assert.Contains(t, cfg.HistoryFile, ".wisp_history")
	assert.Empty(t, cfg.Preload)
}

func TestLoadConfigurationFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wisp.toml")
	content := `
prompt = ">> "
history_file = "/tmp/hist"
preload = ["a.wisp", "b.wisp"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfiguration(path)
	require.NoError(t, err)

	assert.Equal(t, ">> ", cfg.Prompt)
	assert.Equal(t, "/tmp/hist", cfg.HistoryFile)
	assert.Equal(t, []string{"a.wisp", "b.wisp"}, cfg.Preload)
}

func TestLoadConfigurationPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wisp.toml")
	require.NoError(t, os.WriteFile(path, []byte(`prompt = "λ "`+"\n"), 0644))

	cfg, err := LoadConfiguration(path)
	require.NoError(t, err)

	// unset keys keep their defaults
	assert.Equal(t, "λ ", cfg.Prompt)
	assert.Contains(t, cfg.HistoryFile, ".wisp_history")
}

func TestLoadConfigurationMissingExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	_, err := LoadConfiguration(path)
	assert.Error(t, err)
}

func TestLoadConfigurationFallbackMissingIsFine(t *testing.T) {
	t.Setenv("WISP_HOME", t.TempDir())

	cfg, err := LoadConfiguration("")
	require.NoError(t, err)
	assert.Equal(t, "user> ", cfg.Prompt)
}

func TestLoadConfigurationFromWispHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("WISP_HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, "wisp.toml"), []byte(`prompt = "w> "`+"\n"), 0644))

	cfg, err := LoadConfiguration("")
	require.NoError(t, err)
	assert.Equal(t, "w> ", cfg.Prompt)
	assert.Equal(t, home, cfg.WispHome)
}

func TestLoadConfigurationBadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wisp.toml")
	require.NoError(t, os.WriteFile(path, []byte("prompt = [unclosed"), 0644))

	_, err := LoadConfiguration(path)
	assert.Error(t, err)
}
