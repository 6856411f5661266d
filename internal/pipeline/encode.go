package pipeline

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/gen2brain/webp"
)

// Encoder serializes a canvas in one output format. Quality is in 0.0-1.0 and
// is negative when the caller wants the encoder default.
type Encoder interface {
	Encode(w io.Writer, img image.Image, quality float64) error
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc func(w io.Writer, img image.Image, quality float64) error

// Encode calls f(w, img, quality).
func (f EncoderFunc) Encode(w io.Writer, img image.Image, quality float64) error {
	return f(w, img, quality)
}

func defaultEncoders() map[Format]Encoder {
	return map[Format]Encoder{
		FormatPNG:  EncoderFunc(encodePNG),
		FormatJPEG: EncoderFunc(encodeJPEG),
		FormatWebP: EncoderFunc(encodeWebP),
	}
}

// PNG is lossless; quality is ignored.
func encodePNG(w io.Writer, img image.Image, _ float64) error {
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	return enc.Encode(w, img)
}

func encodeJPEG(w io.Writer, img image.Image, quality float64) error {
	q := DefaultJPEGQuality
	if quality >= 0 {
		q = qualityPercent(quality)
	}
	return jpeg.Encode(w, flatten(img), &jpeg.Options{Quality: q})
}

func encodeWebP(w io.Writer, img image.Image, quality float64) error {
	q := DefaultWebPQuality
	if quality >= 0 {
		q = qualityPercent(quality)
	}
	return webp.Encode(w, img, webp.Options{Quality: q, Method: 4})
}

// qualityPercent maps 0.0-1.0 onto the 1-100 scale the encoders take.
func qualityPercent(q float64) int {
	return clampInt(int(q*100+0.5), 1, MaxQuality)
}

// flatten composites img over opaque black. JPEG has no alpha channel and
// transparent pixels come out black, as they do from a browser canvas.
func flatten(img image.Image) image.Image {
	if opaque, ok := img.(interface{ Opaque() bool }); ok && opaque.Opaque() {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}

// Encode serializes img in the given format. Quality outside 0.0-1.0 selects
// the format default; png ignores it.
func (p *Pipeline) Encode(img image.Image, format Format, quality float64) ([]byte, error) {
	enc, ok := p.encoders[format]
	if !ok {
		return nil, newError(KindEncode, "no encoder for format %q", format)
	}
	if quality > 1 {
		quality = -1
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, img, quality); err != nil {
		return nil, newError(KindEncode, "%s: %w", format, err)
	}
	if buf.Len() == 0 {
		return nil, newError(KindEncode, "%s encoder produced no data", format)
	}
	return buf.Bytes(), nil
}
