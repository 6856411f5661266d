package pipeline

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePNGRoundTrip(t *testing.T) {
	p := New()
	canvas := solid(37, 19, color.NRGBA{R: 12, G: 34, B: 56, A: 200})

	data, err := p.Encode(canvas, FormatPNG, 0.1)
	require.NoError(t, err)

	img, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, canvas.Bounds().Size(), img.Bounds().Size())
	assert.Equal(t, "image/png", DetectMimeType(data))
}

func TestEncodeJPEGQuality(t *testing.T) {
	p := New()
	// Noise compresses badly, so quality shows up in the output size.
	canvas := image.NewNRGBA(image.Rect(0, 0, 128, 128))
	for i := range canvas.Pix {
		canvas.Pix[i] = uint8(i * 7919 % 251)
	}
	for i := 3; i < len(canvas.Pix); i += 4 {
		canvas.Pix[i] = 255
	}

	low, err := p.Encode(canvas, FormatJPEG, 0.1)
	require.NoError(t, err)
	high, err := p.Encode(canvas, FormatJPEG, 0.95)
	require.NoError(t, err)

	assert.Less(t, len(low), len(high))
	assert.Equal(t, "image/jpeg", DetectMimeType(high))
}

func TestEncodeJPEGFlattensAlpha(t *testing.T) {
	p := New()
	canvas := solid(16, 16, color.NRGBA{R: 255, G: 255, B: 255, A: 0})

	data, err := p.Encode(canvas, FormatJPEG, -1)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	r, g, b, _ := img.At(8, 8).RGBA()
	assert.Less(t, r>>8, uint32(8))
	assert.Less(t, g>>8, uint32(8))
	assert.Less(t, b>>8, uint32(8))
}

func TestEncodeWebP(t *testing.T) {
	p := New()
	canvas := solid(40, 30, color.NRGBA{R: 20, G: 120, B: 220, A: 255})

	data, err := p.Encode(canvas, FormatWebP, 0.8)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", DetectMimeType(data))

	img, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())
}

func TestEncodeUnknownFormat(t *testing.T) {
	_, err := New().Encode(solid(2, 2, color.NRGBA{A: 255}), Format("avif"), -1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEncode))
}

func TestEncodeEmptyOutput(t *testing.T) {
	silent := EncoderFunc(func(io.Writer, image.Image, float64) error { return nil })
	_, err := New(WithEncoder(FormatPNG, silent)).Encode(solid(2, 2, color.NRGBA{A: 255}), FormatPNG, -1)
	require.Error(t, err)
	assert.Equal(t, KindEncode, KindOf(err))
}

func TestEncodeQualityPassedThrough(t *testing.T) {
	var got []float64
	spy := EncoderFunc(func(w io.Writer, _ image.Image, q float64) error {
		got = append(got, q)
		_, err := w.Write([]byte{1})
		return err
	})
	p := New(WithEncoder(FormatJPEG, spy))
	canvas := solid(2, 2, color.NRGBA{A: 255})

	for _, q := range []float64{0.5, -1, 7} {
		_, err := p.Encode(canvas, FormatJPEG, q)
		require.NoError(t, err)
	}
	assert.Equal(t, []float64{0.5, -1, -1}, got)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("hello, world")},
		{"truncated png", createPNG(t, 10, 10, color.White)[:30]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecode))
		})
	}

	_, err := Decode([]byte("hello, world"))
	assert.Contains(t, err.Error(), "text/plain")
}

// pngHeader returns a PNG that carries only a signature and an IHDR chunk
// claiming w x h RGBA pixels.
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	chunk := make([]byte, 0, 17)
	chunk = append(chunk, "IHDR"...)
	chunk = binary.BigEndian.AppendUint32(chunk, w)
	chunk = binary.BigEndian.AppendUint32(chunk, h)
	chunk = append(chunk, 8, 6, 0, 0, 0) // 8-bit RGBA, no interlace

	_ = binary.Write(&buf, binary.BigEndian, uint32(13))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestDecodeRejectsOversizedHeader(t *testing.T) {
	data := pngHeader(60000, 60000)
	require.Less(t, len(data), 64)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err, "header must be well formed")
	require.Equal(t, "png", format)
	require.Equal(t, 60000, cfg.Width)

	_, err = Decode(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecode))
	assert.Contains(t, err.Error(), "60000x60000")
}

func TestTransformBatchOversizedItem(t *testing.T) {
	p := New()
	srcs := []Source{
		{Name: "bomb.png", Data: pngHeader(20000, 20000)},
		{Name: "ok.png", Data: createPNG(t, 8, 8, color.White)},
	}

	items := p.TransformBatch(context.Background(), srcs, Config{Format: FormatPNG})
	require.Len(t, items, 2)
	assert.Equal(t, KindDecode, KindOf(items[0].Err))
	require.NoError(t, items[1].Err)
	assert.Equal(t, 8, items[1].Result.Width)
}
