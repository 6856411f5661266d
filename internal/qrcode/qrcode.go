// Package qrcode renders QR codes as PNG images.
package qrcode

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	qr "github.com/skip2/go-qrcode"
)

const (
	DefaultSize = 512
	MinSize     = 64
	MaxSize     = 4096
)

// ErrEmptyText is returned when there is nothing to encode.
var ErrEmptyText = errors.New("qr code text is empty")

// Options controls QR rendering. The zero value is a 512px black-on-white code
// with a quiet zone.
type Options struct {
	Size       int
	Foreground string // hex colour, "#000000" when empty
	Background string // hex colour, "#FFFFFF" when empty
	NoBorder   bool
}

// Generate encodes text as a size×size PNG at medium error correction.
func Generate(text string, size int) ([]byte, error) {
	return GenerateWithOptions(text, Options{Size: size})
}

// GenerateWithOptions encodes text as a PNG. Size is clamped to
// [MinSize, MaxSize]; zero selects DefaultSize.
func GenerateWithOptions(text string, opts Options) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	code, err := qr.New(text, qr.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	code.DisableBorder = opts.NoBorder

	if opts.Foreground != "" {
		if code.ForegroundColor, err = ParseColor(opts.Foreground); err != nil {
			return nil, fmt.Errorf("invalid foreground color: %w", err)
		}
	}
	if opts.Background != "" {
		if code.BackgroundColor, err = ParseColor(opts.Background); err != nil {
			return nil, fmt.Errorf("invalid background color: %w", err)
		}
	}

	data, err := code.PNG(ClampSize(opts.Size))
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}
	return data, nil
}

// ClampSize maps a requested pixel size into the supported range.
func ClampSize(size int) int {
	switch {
	case size <= 0:
		return DefaultSize
	case size < MinSize:
		return MinSize
	case size > MaxSize:
		return MaxSize
	}
	return size
}

// ParseColor parses "#RGB", "#RRGGBB" or "#RRGGBBAA"; the '#' is optional.
func ParseColor(hex string) (color.NRGBA, error) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}

	var r, g, b, a uint8 = 0, 0, 0, 255
	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid hex color %q", hex)
		}
		r, g, b = uint8(val>>16), uint8(val>>8), uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid hex color %q", hex)
		}
		r, g, b, a = uint8(val>>24), uint8(val>>16), uint8(val>>8), uint8(val)
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length %q", hex)
	}
	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}
