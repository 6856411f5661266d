package pipeline

import (
	"bytes"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// MaxSourcePixels bounds the decoded size of a source image. Headers are
// checked against it before any pixel memory is allocated.
const MaxSourcePixels = 100_000_000

// Decode decodes raw image bytes into a bitmap with known pixel dimensions.
//
// EXIF orientation is applied, so the returned bounds match what a browser
// would display. Bytes that are empty, not an image, larger than
// MaxSourcePixels, or decode to an empty bitmap fail with a KindDecode error
// that names the sniffed content type.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, newError(KindDecode, "empty input")
	}

	hdr, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, newError(KindDecode, "%s: %w", mimetype.Detect(data).String(), err)
	}
	if hdr.Width <= 0 || hdr.Height <= 0 {
		return nil, newError(KindDecode, "image has no pixels")
	}
	if int64(hdr.Width)*int64(hdr.Height) > MaxSourcePixels {
		return nil, newError(KindDecode, "%dx%d exceeds the %d pixel limit", hdr.Width, hdr.Height, MaxSourcePixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, newError(KindDecode, "%s: %w", mimetype.Detect(data).String(), err)
	}
	if img.Bounds().Empty() {
		return nil, newError(KindDecode, "image has no pixels")
	}
	return img, nil
}

// DetectMimeType sniffs the content type of raw bytes.
func DetectMimeType(data []byte) string {
	return mimetype.Detect(data).String()
}
