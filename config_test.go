package taskverify

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, ":8180", cfg.Addr())
	require.Equal(t, "./taskverify.db", cfg.Database.Path)
	require.Equal(t, DefaultGenerationTimeout, cfg.GenerationTimeout())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  host: 127.0.0.1
  port: "9000"
database:
  path: /tmp/tasks.db
openai:
  model: gpt-4o-mini
  timeout_seconds: 30
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.Addr())
	require.Equal(t, "/tmp/tasks.db", cfg.Database.Path)
	require.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	require.Equal(t, 30*time.Second, cfg.GenerationTimeout())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
