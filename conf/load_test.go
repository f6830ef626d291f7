package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/harunnryd/musubi/backend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRegistry = `
defaults:
  backend: openai
  model: gpt-test
  json_mode: false
  params:
    temperature: 0.2
backends:
  - name: openai
    api_key: sk-test
  - name: ollama
    base_url: http://localhost:11434/v1
    model: llama3
logging:
  level: warn
`

func writeRegistry(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "musubi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRegistry), 0o644))
	return path
}

func TestLoad_ReadsFile(t *testing.T) {
	reg, err := Load(writeRegistry(t))
	require.NoError(t, err)

	assert.Equal(t, "openai", reg.Defaults.Backend)
	assert.Equal(t, "gpt-test", reg.Defaults.Model)
	require.Len(t, reg.Backends, 2)

	entry, ok := reg.Entry("ollama")
	require.True(t, ok)
	assert.Equal(t, "http://localhost:11434/v1", entry.BaseURL)

	_, ok = reg.Entry("gemini")
	assert.False(t, ok)

	assert.Equal(t, "warn", reg.Logging.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("MUSUBI_DEFAULTS_MODEL", "env-model")

	reg, err := Load(writeRegistry(t))
	require.NoError(t, err)
	assert.Equal(t, "env-model", reg.Defaults.Model)
}

func TestDefaultConfig_FromDeclaredDefaults(t *testing.T) {
	reg, err := Load(writeRegistry(t))
	require.NoError(t, err)

	cfg := reg.DefaultConfig()
	assert.Equal(t, backend.OpenAI, cfg.Backend)
	assert.Equal(t, "gpt-test", cfg.Model)
	assert.Equal(t, 0.2, cfg.Params["temperature"])
}

func TestLoad_MissingPathIsJustEnv(t *testing.T) {
	reg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, reg.Backends)
}
