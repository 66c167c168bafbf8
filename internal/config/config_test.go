package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 2000, cfg.Query.TimeoutMS)
	assert.Equal(t, 2, cfg.Query.Retries)
	assert.Equal(t, 50, cfg.RateLimit.Global)
	assert.Equal(t, 120, cfg.Crawl.DeadlineSec)
	assert.Equal(t, 20, cfg.Crawl.MaxInflight)
	assert.Equal(t, 4, cfg.Crawl.Workers)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Empty(t, cfg.Resolvers)
}

func TestLoad_FromFile(t *testing.T) {
	content := `target:
  domain: "example.com"
resolvers:
  - "192.0.2.53"
query:
  timeout_ms: 500
  retries: 1
crawl:
  deadline_sec: 30
output:
  format: "jsonl"
  gzip: true
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "example.com", cfg.Target.Domain)
	assert.Equal(t, []string{"192.0.2.53"}, cfg.Resolvers)
	assert.Equal(t, 500, cfg.Query.TimeoutMS)
	assert.Equal(t, 1, cfg.Query.Retries)
	assert.Equal(t, 30, cfg.Crawl.DeadlineSec)
	assert.Equal(t, "jsonl", cfg.Output.Format)
	assert.True(t, cfg.Output.Gzip)

	// Untouched keys keep their defaults
	assert.Equal(t, 50, cfg.RateLimit.Global)
	assert.Equal(t, 4, cfg.Crawl.Workers)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: ["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
