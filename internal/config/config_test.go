package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
gemini:
  model: gemini-2.0-flash
vlm:
  endpoint_url: http://127.0.0.1:30024
  model_id: allenai/olmOCR-7B-0225-preview
normalizer:
  max_pdf_pages: 5
server:
  address: ":9000"
logger:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:30024", cfg.VLM.EndpointURL)
	assert.Equal(t, 5, cfg.Normalizer.MaxPDFPages)
	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, "debug", cfg.Logger.Level)

	// 未显式配置的项走默认值
	assert.Equal(t, 120, cfg.VLM.TimeoutSeconds)
	assert.Equal(t, "vlm", cfg.OCR.Engine)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gemini:\n  api_key: from-file\n"), 0600))

	t.Setenv("GEMINI_API_KEY", "from-env")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Gemini.APIKey, "环境变量优先于配置文件")
}

func TestLoadConfigDefaultsInTestEnv(t *testing.T) {
	// 测试环境下找不到配置文件时返回默认配置而不是报错
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
}
