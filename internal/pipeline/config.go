package pipeline

import (
	"math"
	"strconv"
	"strings"
)

// Format is an output image format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatWebP Format = "webp"
)

// Limits and defaults applied by Config.Normalize.
const (
	MaxDimension           = 16384
	MaxQuality             = 100
	DefaultJPEGQuality     = 92
	DefaultWebPQuality     = 80
	DefaultOverlayOpacity  = 30
	DefaultOverlayFontSize = 32
	MaxOverlayFontSize     = 512
)

// Formats lists the supported output formats.
func Formats() []Format {
	return []Format{FormatPNG, FormatJPEG, FormatWebP}
}

// ParseFormat accepts a format name, a file extension or a MIME type.
func ParseFormat(s string) (Format, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "image/")
	v = strings.TrimPrefix(v, ".")
	switch v {
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "webp":
		return FormatWebP, nil
	}
	return "", newError(KindConfig, "unsupported output format %q", s)
}

// Extension returns the file extension used for outputs, without the dot.
func (f Format) Extension() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

// MimeType returns the MIME type of the format.
func (f Format) MimeType() string {
	return "image/" + string(f)
}

// Lossy reports whether the format honours a quality setting.
func (f Format) Lossy() bool {
	return f == FormatJPEG || f == FormatWebP
}

// Overlay is a text watermark stamped in the bottom-right corner.
type Overlay struct {
	Text string `json:"text"`

	// Opacity of the text fill, 0-100. Zero draws nothing.
	Opacity int `json:"opacity"`

	// FontSize in pixels.
	FontSize int `json:"font_size"`
}

// Config describes one transform invocation. The zero value re-encodes the
// source as PNG at native size.
type Config struct {
	// MaxWidth and MaxHeight bound the output size. Zero leaves that axis unbounded.
	MaxWidth  int `json:"max_width,omitempty"`
	MaxHeight int `json:"max_height,omitempty"`

	Format Format `json:"format"`

	// Quality 0-100 for lossy formats. Zero selects the format default.
	Quality int `json:"quality,omitempty"`

	Overlay *Overlay `json:"overlay,omitempty"`
}

// Normalize returns a copy with every numeric field clamped to its valid range
// and defaults filled in. Out-of-range input is clamped rather than rejected.
func (c Config) Normalize() Config {
	out := c
	out.MaxWidth = clampInt(c.MaxWidth, 0, MaxDimension)
	out.MaxHeight = clampInt(c.MaxHeight, 0, MaxDimension)
	out.Quality = clampInt(c.Quality, 0, MaxQuality)
	if out.Format == "" {
		out.Format = FormatPNG
	}

	if c.Overlay == nil || strings.TrimSpace(c.Overlay.Text) == "" {
		out.Overlay = nil
		return out
	}
	o := *c.Overlay
	o.Opacity = clampInt(o.Opacity, 0, 100)
	if o.FontSize == 0 {
		o.FontSize = DefaultOverlayFontSize
	}
	o.FontSize = clampInt(o.FontSize, 1, MaxOverlayFontSize)
	out.Overlay = &o
	return out
}

// EncodeQuality returns the 0.0-1.0 quality passed to the encoder, or -1 to
// request the encoder default.
func (c Config) EncodeQuality() float64 {
	if c.Quality <= 0 {
		return -1
	}
	return float64(clampInt(c.Quality, 0, MaxQuality)) / 100
}

// RawConfig holds transform settings as the user typed them, e.g. form fields
// or command-line flags. Empty strings mean "unset".
type RawConfig struct {
	MaxWidth        string
	MaxHeight       string
	Format          string
	Quality         string
	OverlayText     string
	OverlayOpacity  string
	OverlayFontSize string
}

// ParseConfig converts raw settings into a normalized Config. Values that are
// not numbers fail with a KindConfig error; numbers outside their range are
// clamped. An unset overlay opacity takes DefaultOverlayOpacity, while an
// explicit "0" is kept.
func ParseConfig(raw RawConfig) (Config, error) {
	var (
		cfg Config
		err error
	)
	if cfg.MaxWidth, err = parseNumber("max width", raw.MaxWidth); err != nil {
		return Config{}, err
	}
	if cfg.MaxHeight, err = parseNumber("max height", raw.MaxHeight); err != nil {
		return Config{}, err
	}
	if cfg.Quality, err = parseNumber("quality", raw.Quality); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(raw.Format) != "" {
		if cfg.Format, err = ParseFormat(raw.Format); err != nil {
			return Config{}, err
		}
	}
	if raw.OverlayText != "" {
		o := &Overlay{Text: raw.OverlayText}
		o.Opacity = DefaultOverlayOpacity
		if strings.TrimSpace(raw.OverlayOpacity) != "" {
			if o.Opacity, err = parseNumber("overlay opacity", raw.OverlayOpacity); err != nil {
				return Config{}, err
			}
		}
		if o.FontSize, err = parseNumber("overlay font size", raw.OverlayFontSize); err != nil {
			return Config{}, err
		}
		cfg.Overlay = o
	}
	return cfg.Normalize(), nil
}

// parseNumber accepts integers and decimals; decimals are rounded.
func parseNumber(field, s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, newError(KindConfig, "%s %q is not a number", field, s)
	}
	if math.IsInf(f, 1) || f > math.MaxInt32 {
		return math.MaxInt32, nil
	}
	if math.IsInf(f, -1) || f < math.MinInt32 {
		return math.MinInt32, nil
	}
	return int(math.Round(f)), nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Merge returns r with every non-empty field of o applied on top.
func (r RawConfig) Merge(o RawConfig) RawConfig {
	pick := func(base, over string) string {
		if strings.TrimSpace(over) != "" {
			return over
		}
		return base
	}
	return RawConfig{
		MaxWidth:        pick(r.MaxWidth, o.MaxWidth),
		MaxHeight:       pick(r.MaxHeight, o.MaxHeight),
		Format:          pick(r.Format, o.Format),
		Quality:         pick(r.Quality, o.Quality),
		OverlayText:     pick(r.OverlayText, o.OverlayText),
		OverlayOpacity:  pick(r.OverlayOpacity, o.OverlayOpacity),
		OverlayFontSize: pick(r.OverlayFontSize, o.OverlayFontSize),
	}
}
