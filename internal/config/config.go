// Package config provides Viper-based configuration for ai-tools.
//
// Settings are read from .ai-tools.yaml (current directory, then
// $HOME/.config/ai-tools) or an explicit --config file, and every key can be
// overridden by an AI_TOOLS_* environment variable, e.g.
// AI_TOOLS_CREDENTIALS_ELEVENLABS_API_KEY.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ironsheep/ai-tools/internal/pipeline"
)

// Config represents the complete ai-tools configuration
type Config struct {
	Transform   TransformConfig `mapstructure:"transform"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Watch       WatchConfig     `mapstructure:"watch"`
	Speech      SpeechConfig    `mapstructure:"speech"`
	Images      ImagesConfig    `mapstructure:"images"`
	QR          QRConfig        `mapstructure:"qr"`
	Credentials Credentials     `mapstructure:"credentials"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Output      OutputConfig    `mapstructure:"output"`
}

// TransformConfig holds the default transform settings. Values are clamped,
// not rejected, when converted to a pipeline.Config.
type TransformConfig struct {
	MaxWidth        int    `mapstructure:"max_width"`
	MaxHeight       int    `mapstructure:"max_height"`
	Format          string `mapstructure:"format"`
	Quality         int    `mapstructure:"quality"`
	OverlayText     string `mapstructure:"overlay_text"`
	OverlayOpacity  int    `mapstructure:"overlay_opacity"`
	OverlayFontSize int    `mapstructure:"overlay_font_size"`
	OverlayFont     string `mapstructure:"overlay_font"` // TTF/OTF path, Go Regular when empty
}

// CacheConfig sizes the decoded image cache used by the MCP server
type CacheConfig struct {
	Size int `mapstructure:"size"`
}

// WatchConfig contains hot-folder settings
type WatchConfig struct {
	OutputDir string        `mapstructure:"output_dir"`
	Settle    time.Duration `mapstructure:"settle"`
	Overwrite bool          `mapstructure:"overwrite"`
}

// SpeechConfig contains text-to-speech settings
type SpeechConfig struct {
	Voice        string `mapstructure:"voice"`
	Model        string `mapstructure:"model"`
	OutputFormat string `mapstructure:"output_format"`
	EdgeURL      string `mapstructure:"edge_url"`
	DirectURL    string `mapstructure:"direct_url"`
}

// ImagesConfig contains image generation settings
type ImagesConfig struct {
	Model     string `mapstructure:"model"`
	Width     int    `mapstructure:"width"`
	Height    int    `mapstructure:"height"`
	EdgeURL   string `mapstructure:"edge_url"`
	DirectURL string `mapstructure:"direct_url"`
}

// QRConfig contains QR code defaults
type QRConfig struct {
	Size       int    `mapstructure:"size"`
	Foreground string `mapstructure:"foreground"`
	Background string `mapstructure:"background"`
}

// Credentials are the API keys handed to remote providers. A provider whose
// key is empty is skipped.
type Credentials struct {
	EdgeToken     string        `mapstructure:"edge_token"`
	ElevenLabsKey string        `mapstructure:"elevenlabs_api_key"`
	RunwareKey    string        `mapstructure:"runware_api_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OutputConfig contains output formatting settings
type OutputConfig struct {
	Colors bool `mapstructure:"colors"`
}

// Load reads configuration from file and environment variables
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".ai-tools")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/ai-tools")
	}

	v.SetEnvPrefix("AI_TOOLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file or environment is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults configures default values
func setDefaults(v *viper.Viper) {
	// Batch resizer defaults
	v.SetDefault("transform.max_width", 1920)
	v.SetDefault("transform.max_height", 1080)
	v.SetDefault("transform.format", "jpeg")
	v.SetDefault("transform.quality", 85)
	v.SetDefault("transform.overlay_text", "")
	v.SetDefault("transform.overlay_opacity", pipeline.DefaultOverlayOpacity)
	v.SetDefault("transform.overlay_font_size", pipeline.DefaultOverlayFontSize)
	v.SetDefault("transform.overlay_font", "")

	v.SetDefault("cache.size", 32)

	v.SetDefault("watch.output_dir", "")
	v.SetDefault("watch.settle", 250*time.Millisecond)
	v.SetDefault("watch.overwrite", false)

	v.SetDefault("speech.voice", "Aria")
	v.SetDefault("speech.model", "eleven_turbo_v2_5")
	v.SetDefault("speech.output_format", "mp3_44100_128")
	v.SetDefault("speech.edge_url", "")
	v.SetDefault("speech.direct_url", "https://api.elevenlabs.io/v1")

	v.SetDefault("images.model", "runware:100@1")
	v.SetDefault("images.width", 1024)
	v.SetDefault("images.height", 1024)
	v.SetDefault("images.edge_url", "")
	v.SetDefault("images.direct_url", "https://api.runware.ai/v1")

	v.SetDefault("qr.size", 512)
	v.SetDefault("qr.foreground", "#000000")
	v.SetDefault("qr.background", "#FFFFFF")

	v.SetDefault("credentials.edge_token", "")
	v.SetDefault("credentials.elevenlabs_api_key", "")
	v.SetDefault("credentials.runware_api_key", "")
	v.SetDefault("credentials.timeout", 60*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("output.colors", true)
}

// validate checks the configuration for errors
func validate(cfg *Config) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", cfg.Logging.Level)
	}

	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s (must be console or json)", cfg.Logging.Format)
	}

	if cfg.Transform.Format != "" {
		if _, err := pipeline.ParseFormat(cfg.Transform.Format); err != nil {
			return fmt.Errorf("transform.format: %w", err)
		}
	}

	if cfg.Cache.Size < 1 {
		return fmt.Errorf("cache.size must be at least 1, got %d", cfg.Cache.Size)
	}

	return nil
}

// Raw returns the transform defaults as raw settings, so that user input can
// be merged on top before parsing. Zero numbers are left unset.
func (t TransformConfig) Raw() pipeline.RawConfig {
	num := func(v int) string {
		if v == 0 {
			return ""
		}
		return strconv.Itoa(v)
	}
	return pipeline.RawConfig{
		MaxWidth:        num(t.MaxWidth),
		MaxHeight:       num(t.MaxHeight),
		Format:          t.Format,
		Quality:         num(t.Quality),
		OverlayText:     t.OverlayText,
		OverlayOpacity:  num(t.OverlayOpacity),
		OverlayFontSize: num(t.OverlayFontSize),
	}
}

// HasSpeech reports whether any speech provider has credentials.
func (c Credentials) HasSpeech() bool {
	return c.EdgeToken != "" || c.ElevenLabsKey != ""
}

// HasImages reports whether any image provider has credentials.
func (c Credentials) HasImages() bool {
	return c.EdgeToken != "" || c.RunwareKey != ""
}

// Redacted returns a copy safe to log.
func (c Credentials) Redacted() Credentials {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		if len(s) <= 4 {
			return "****"
		}
		return "****" + s[len(s)-4:]
	}
	return Credentials{
		EdgeToken:     mask(c.EdgeToken),
		ElevenLabsKey: mask(c.ElevenLabsKey),
		RunwareKey:    mask(c.RunwareKey),
		Timeout:       c.Timeout,
	}
}
