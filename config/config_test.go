package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ProfileMRD, cfg.Relay.DefaultProfile)
	assert.Equal(t, []string{ProfileGuide, ProfileMRD}, cfg.ProfileNames())
	assert.True(t, cfg.Relay.Profiles[ProfileMRD].ExtractMRD)
	assert.False(t, cfg.Relay.Profiles[ProfileGuide].ExtractMRD)
	assert.Equal(t, 2000, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 0.0001)
}

func TestValidateRejectsUnknownDefaultProfile(t *testing.T) {
	cfg := Default()
	cfg.Relay.DefaultProfile = "missing"
	assert.Error(t, cfg.Validate())
}

func TestValidateRequireAPIKey(t *testing.T) {
	cfg := Default()
	cfg.LLM.RequireAPIKey = true
	cfg.LLM.APIKey = PlaceholderAPIKey
	assert.Error(t, cfg.Validate())

	cfg.LLM.APIKey = "sk-real"
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: "9000"
relay:
  default_profile: guide
  idle_timeout: 15s
llm:
  model: custom-model
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("DEEPSEEK_API_KEY", "sk-from-env")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := loadConfig()
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, ProfileGuide, cfg.Relay.DefaultProfile)
	assert.Equal(t, 15*time.Second, cfg.Relay.IdleTimeout)
	assert.Equal(t, "custom-model", cfg.LLM.Model)
	assert.Equal(t, "sk-from-env", cfg.LLM.APIKey)
	// 文件中未覆盖的 profile 保留默认值
	assert.Contains(t, cfg.Relay.Profiles, ProfileMRD)
}

func TestLoadConfigPlaceholderKey(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := loadConfig()
	assert.Equal(t, PlaceholderAPIKey, cfg.LLM.APIKey)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.Server.Port = "9090"
	cfg.Relay.DefaultProfile = ProfileGuide
	require.NoError(t, cfg.Save(path))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("PORT", "")

	loaded := loadConfig()
	assert.Equal(t, "9090", loaded.Server.Port)
	assert.Equal(t, ProfileGuide, loaded.Relay.DefaultProfile)
	assert.Equal(t, GuidePrompt, loaded.Relay.Profiles[ProfileGuide].SystemPrompt)
	assert.Equal(t, cfg.Relay.IdleTimeout, loaded.Relay.IdleTimeout)
}
