package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ".rts", cfg.Index.DataDir)
	assert.Equal(t, LinesAddedAndRemoved, cfg.Query.Lines)
	assert.Equal(t, ".java", cfg.Query.Extension)
	assert.Equal(t, 5, cfg.Selection.Limit)
	assert.Equal(t, []string{"Test"}, cfg.Selection.TestAnnotations)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rts.yaml")
	data := []byte(`
index:
  dataDir: /var/lib/rts
  workers: 8
query:
  lines: added
selection:
  limit: 10
  ignoreAnnotations: [Ignore]
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	t.Setenv("RTS_SELECTION_LIMIT", "3")
	t.Setenv("RTS_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/rts", cfg.Index.DataDir)
	assert.Equal(t, 8, cfg.Index.Workers)
	assert.Equal(t, LinesAdded, cfg.Query.Lines)
	assert.Equal(t, 3, cfg.Selection.Limit)
	assert.Equal(t, []string{"Ignore"}, cfg.Selection.IgnoreAnnotations)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad line policy", func(c *Config) { c.Query.Lines = "context" }},
		{"zero workers", func(c *Config) { c.Index.Workers = 0 }},
		{"no data dir", func(c *Config) { c.Index.DataDir = "" }},
		{"extension without dot", func(c *Config) { c.Query.Extension = "java" }},
		{"zero limit", func(c *Config) { c.Selection.Limit = 0 }},
		{"no test markers", func(c *Config) { c.Selection.TestAnnotations = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.Index.DataDir = ""
	cfg.Index.InMemory = true
	assert.NoError(t, cfg.Validate())
}
