package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/ai-tools/internal/pipeline"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ai-tools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 1920, cfg.Transform.MaxWidth)
	assert.Equal(t, 1080, cfg.Transform.MaxHeight)
	assert.Equal(t, "jpeg", cfg.Transform.Format)
	assert.Equal(t, 85, cfg.Transform.Quality)
	assert.Equal(t, 32, cfg.Cache.Size)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Settle)
	assert.Equal(t, "eleven_turbo_v2_5", cfg.Speech.Model)
	assert.Equal(t, "runware:100@1", cfg.Images.Model)
	assert.Equal(t, 512, cfg.QR.Size)
	assert.Equal(t, 60*time.Second, cfg.Credentials.Timeout)
	assert.Empty(t, cfg.Credentials.ElevenLabsKey)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
transform:
  max_width: 800
  format: webp
  overlay_text: "© Your Brand"
credentials:
  elevenlabs_api_key: sk-test
  timeout: 5s
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.Transform.MaxWidth)
	assert.Equal(t, 1080, cfg.Transform.MaxHeight, "unset keys keep defaults")
	assert.Equal(t, "webp", cfg.Transform.Format)
	assert.Equal(t, "sk-test", cfg.Credentials.ElevenLabsKey)
	assert.Equal(t, 5*time.Second, cfg.Credentials.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "credentials:\n  runware_api_key: from-file\n")
	t.Setenv("AI_TOOLS_CREDENTIALS_RUNWARE_API_KEY", "from-env")
	t.Setenv("AI_TOOLS_TRANSFORM_MAX_WIDTH", "640")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Credentials.RunwareKey)
	assert.Equal(t, 640, cfg.Transform.MaxWidth)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"logging level", "logging:\n  level: loud\n"},
		{"logging format", "logging:\n  format: xml\n"},
		{"transform format", "transform:\n  format: gif\n"},
		{"cache size", "cache:\n  size: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(writeConfig(t, "transform: [unclosed\n"))
	assert.Error(t, err)
}

func TestTransformRaw(t *testing.T) {
	raw := TransformConfig{MaxWidth: 800, Format: "webp", OverlayText: "x"}.Raw()
	assert.Equal(t, pipeline.RawConfig{MaxWidth: "800", Format: "webp", OverlayText: "x"}, raw)

	cfg, err := pipeline.ParseConfig(Default().Transform.Raw().Merge(pipeline.RawConfig{Quality: "150"}))
	require.NoError(t, err)
	assert.Equal(t, 1920, cfg.MaxWidth)
	assert.Equal(t, 100, cfg.Quality)
}

func TestCredentials(t *testing.T) {
	assert.False(t, Credentials{}.HasSpeech())
	assert.True(t, Credentials{ElevenLabsKey: "k"}.HasSpeech())
	assert.True(t, Credentials{EdgeToken: "t"}.HasImages())
	assert.False(t, Credentials{ElevenLabsKey: "k"}.HasImages())

	r := Credentials{ElevenLabsKey: "sk-abcdef123456", RunwareKey: "abc"}.Redacted()
	assert.Equal(t, "****3456", r.ElevenLabsKey)
	assert.Equal(t, "****", r.RunwareKey)
	assert.Empty(t, r.EdgeToken)
}
