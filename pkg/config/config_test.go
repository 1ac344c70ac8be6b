package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotEmpty(t, cfg.Database.Path)
	assert.Contains(t, cfg.Database.Path, ".corvus")
	assert.Equal(t, 200, cfg.Search.Limit)
	assert.Equal(t, "ctrl-r", cfg.Hook.Keybinding)
	assert.NotEmpty(t, cfg.Ignore.Patterns)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	ClearCache()

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Search.Limit, cfg.Search.Limit)
}

func TestLoad_ParsesFile(t *testing.T) {
	ClearCache()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
database:
  path: /tmp/custom.db
search:
  limit: 50
hook:
  keybinding: ctrl-g
ignore:
  patterns:
    - "^top$"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.db", cfg.Database.Path)
	assert.Equal(t, 50, cfg.Search.Limit)
	assert.Equal(t, "ctrl-g", cfg.GetKeybinding())
	assert.Equal(t, []string{"^top$"}, cfg.Ignore.Patterns)
}

func TestLoad_InvalidIgnorePattern(t *testing.T) {
	ClearCache()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
ignore:
  patterns:
    - "[unclosed"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_UsesCache(t *testing.T) {
	ClearCache()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  limit: 7\n"), 0644))

	first, err := Load(path)
	require.NoError(t, err)

	second, err := Load(path)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestSaveAndReload(t *testing.T) {
	ClearCache()

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Search.Limit = 123
	require.NoError(t, cfg.Save(path))

	ClearCache()
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 123, loaded.Search.Limit)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Database.Path = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Search.Limit = -1
	assert.Error(t, cfg.Validate())
}

func TestGetDatabasePath_EnvOverride(t *testing.T) {
	cfg := Default()

	t.Setenv("CORVUS_DB_PATH", "/env/override.db")
	assert.Equal(t, "/env/override.db", cfg.GetDatabasePath())

	t.Setenv("CORVUS_DB_PATH", "")
	assert.Equal(t, cfg.Database.Path, cfg.GetDatabasePath())
}

func TestGetKeybinding_Fallback(t *testing.T) {
	cfg := Default()
	cfg.Hook.Keybinding = ""
	assert.Equal(t, "ctrl-r", cfg.GetKeybinding())
}
