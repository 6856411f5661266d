package imaging

import (
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ironsheep/ai-tools/internal/pipeline"
)

// DefaultCacheSize is the number of decoded images kept when no size is given.
const DefaultCacheSize = 32

// cacheEntry is a decoded image together with the file state it was read from.
type cacheEntry struct {
	img     image.Image
	size    int64
	modTime time.Time
}

// ImageCache provides thread-safe caching of decoded images to avoid redundant
// disk reads and decodes.
//
// The cache stores decoded image.Image objects keyed by their file path and is
// bounded: once it holds its maximum number of images, loading another evicts
// the least recently used one. An entry is also dropped when the file on disk
// changes size or modification time, so an edited image is decoded again.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Example Usage
//
//	cache := imaging.NewImageCache(16)
//	img, err := cache.Load("/path/to/image.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// Use img...
type ImageCache struct {
	images *lru.Cache[string, *cacheEntry]
}

// NewImageCache creates an empty cache holding at most size images. A size of
// zero or less selects DefaultCacheSize.
func NewImageCache(size int) *ImageCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	images, err := lru.New[string, *cacheEntry](size)
	if err != nil {
		// lru.New only fails for non-positive sizes.
		panic(err)
	}
	return &ImageCache{images: images}
}

// Load retrieves an image from the cache or loads it from disk if not cached.
//
// Parameters:
//   - path: Absolute or relative file path to the image. Any format the
//     pipeline decodes is accepted (PNG, JPEG, GIF, WebP, BMP, TIFF).
//
// Returns:
//   - image.Image: The decoded image with EXIF orientation applied.
//   - error: Non-nil if the file cannot be read or decoded. Decode failures are
//     *pipeline.Error values of KindDecode naming the file.
//
// The image is cached using the exact path string provided. Different paths to
// the same file (e.g., relative vs absolute) will result in separate cache
// entries.
func (c *ImageCache) Load(path string) (image.Image, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	if e, ok := c.images.Get(path); ok {
		if e.size == stat.Size() && e.modTime.Equal(stat.ModTime()) {
			return e.img, nil
		}
		c.images.Remove(path)
	}

	src, err := ReadSource(path)
	if err != nil {
		return nil, err
	}
	img, err := pipeline.Decode(src.Data)
	if err != nil {
		return nil, pipeline.WithSource(err, path)
	}

	c.images.Add(path, &cacheEntry{img: img, size: stat.Size(), modTime: stat.ModTime()})
	return img, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	return c.images.Len()
}

// Contains reports whether path is cached, without touching its recency.
func (c *ImageCache) Contains(path string) bool {
	return c.images.Contains(path)
}

// ReadSource reads a file into a pipeline.Source named after the file.
func ReadSource(path string) (pipeline.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Source{}, fmt.Errorf("failed to read image: %w", err)
	}
	return pipeline.Source{Name: path, Data: data}, nil
}

// ImageInfo contains metadata about an image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the sniffed format, e.g. "png", "jpeg", "webp", or "unknown".
	// Detection is based on file contents, not the extension.
	Format string `json:"format"`

	// MimeType is the sniffed content type.
	MimeType string `json:"mime_type"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the decoded image carries an alpha channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image and returns metadata about it.
//
// The image is loaded through the cache, so a following transform or palette
// call on the same path does not decode it again.
//
// # Color Depth Detection
//
// Color depth is determined by the Go image type:
//   - *image.RGBA64, *image.NRGBA64, *image.Gray16 -> "16-bit"
//   - All other types -> "8-bit"
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	mime, err := sniffFile(path)
	if err != nil {
		return nil, err
	}
	format := "unknown"
	if strings.HasPrefix(mime, "image/") {
		format = strings.TrimPrefix(mime, "image/")
	}

	hasAlpha := false
	colorDepth := "8-bit"
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.Paletted:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		MimeType:      mime,
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions returns the dimensions of an image without additional metadata.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &DimensionsResult{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// sniffFile detects the content type from the head of a file.
func sniffFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	head := make([]byte, 3072)
	n, _ := f.Read(head)
	return pipeline.DetectMimeType(head[:n]), nil
}
