package qrcode

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestGenerate(t *testing.T) {
	data, err := Generate("https://example.com", 0)
	require.NoError(t, err)

	img := decodePNG(t, data)
	assert.Equal(t, DefaultSize, img.Bounds().Dx())
	assert.Equal(t, DefaultSize, img.Bounds().Dy())

	// The quiet zone is background colour.
	r, g, b, _ := img.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r&g&b)
}

func TestGenerateSizeClamped(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{0, DefaultSize},
		{-4, DefaultSize},
		{10, MinSize},
		{256, 256},
		{100000, MaxSize},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampSize(tt.size), "size %d", tt.size)
	}

	data, err := Generate("hi", 10)
	require.NoError(t, err)
	assert.Equal(t, MinSize, decodePNG(t, data).Bounds().Dx())
}

func TestGenerateEmptyText(t *testing.T) {
	_, err := Generate("   ", 256)
	assert.True(t, errors.Is(err, ErrEmptyText))
}

func TestGenerateWithColors(t *testing.T) {
	data, err := GenerateWithOptions("colors", Options{Size: 128, Foreground: "#102030", Background: "#FFEEDD"})
	require.NoError(t, err)

	img := decodePNG(t, data)
	bg := color.NRGBAModel.Convert(img.At(0, 0)).(color.NRGBA)
	assert.Equal(t, color.NRGBA{R: 0xFF, G: 0xEE, B: 0xDD, A: 0xFF}, bg)

	_, err = GenerateWithOptions("colors", Options{Foreground: "#12"})
	assert.Error(t, err)
	_, err = GenerateWithOptions("colors", Options{Background: "zzzzzz"})
	assert.Error(t, err)
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#FF0000", color.NRGBA{255, 0, 0, 255}, false},
		{"00ff00", color.NRGBA{0, 255, 0, 255}, false},
		{"#00F", color.NRGBA{0, 0, 255, 255}, false},
		{"#11223380", color.NRGBA{0x11, 0x22, 0x33, 0x80}, false},
		{"", color.NRGBA{}, true},
		{"#GG0000", color.NRGBA{}, true},
		{"#12345", color.NRGBA{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
