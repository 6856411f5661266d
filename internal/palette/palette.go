// Package palette extracts the dominant colours of an image.
package palette

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	// DefaultCount is the number of colours returned when the caller asks for none.
	DefaultCount = 6
	// MaxCount bounds the number of colours in one palette.
	MaxCount = 32

	// sampleSize is the longest side images are reduced to before counting.
	sampleSize = 256
	// mergeDistance is the CIE Lab distance under which two buckets are
	// treated as one colour.
	mergeDistance = 0.08
	// minAlpha drops pixels that are mostly transparent.
	minAlpha = 128
)

// ErrNoPixels is returned for images with no opaque pixels to sample.
var ErrNoPixels = errors.New("image has no opaque pixels")

// RGB is an 8-bit colour.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HSL is a colour in hue (0-360), saturation (0-100) and lightness (0-100).
type HSL struct {
	H int `json:"h"`
	S int `json:"s"`
	L int `json:"l"`
}

// Color is one palette entry.
type Color struct {
	Hex        string  `json:"hex"` // "#RRGGBB", upper case
	RGB        RGB     `json:"rgb"`
	HSL        HSL     `json:"hsl"`
	Percentage float64 `json:"percentage"` // share of sampled pixels, 0-100
}

// Result is an extracted palette, most common colour first.
type Result struct {
	Colors []Color `json:"colors"`
}

// Hex returns the palette as hex strings.
func (r *Result) Hex() []string {
	out := make([]string, len(r.Colors))
	for i, c := range r.Colors {
		out[i] = c.Hex
	}
	return out
}

type bucket struct {
	r, g, b uint64
	n       int
}

func (b *bucket) add(o *bucket) {
	b.r += o.r
	b.g += o.g
	b.b += o.b
	b.n += o.n
}

func (b *bucket) color() colorful.Color {
	n := float64(b.n)
	return colorful.Color{
		R: float64(b.r) / n / 255,
		G: float64(b.g) / n / 255,
		B: float64(b.b) / n / 255,
	}
}

// Extract returns up to count dominant colours of img.
//
// The image is first reduced so its longest side is at most 256 pixels. Each
// remaining pixel with alpha of at least 50% is sorted into a 4-bit-per-channel
// bucket. Buckets are then visited from most to least populated and merged
// into the first earlier cluster whose average colour lies within a small CIE
// Lab distance, so shades of one colour are reported once. Each entry is the
// average of the pixels it covers.
//
// A count of zero or less selects DefaultCount; larger values are capped at
// MaxCount. Fewer colours are returned when the image has fewer distinct ones.
func Extract(img image.Image, count int) (*Result, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("palette: %w", ErrNoPixels)
	}
	if count <= 0 {
		count = DefaultCount
	}
	if count > MaxCount {
		count = MaxCount
	}

	sample := imaging.Fit(img, sampleSize, sampleSize, imaging.NearestNeighbor)

	buckets := make(map[uint16]*bucket)
	total := 0
	for i := 0; i+3 < len(sample.Pix); i += 4 {
		r, g, b, a := sample.Pix[i], sample.Pix[i+1], sample.Pix[i+2], sample.Pix[i+3]
		if a < minAlpha {
			continue
		}
		key := uint16(r>>4)<<8 | uint16(g>>4)<<4 | uint16(b>>4)
		bk, ok := buckets[key]
		if !ok {
			bk = &bucket{}
			buckets[key] = bk
		}
		bk.r += uint64(r)
		bk.g += uint64(g)
		bk.b += uint64(b)
		bk.n++
		total++
	}
	if total == 0 {
		return nil, fmt.Errorf("palette: %w", ErrNoPixels)
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, bk := range buckets {
		ordered = append(ordered, bk)
	}
	sortBuckets(ordered)

	var clusters []*bucket
	for _, bk := range ordered {
		c := bk.color()
		merged := false
		for _, cl := range clusters {
			if cl.color().DistanceLab(c) < mergeDistance {
				cl.add(bk)
				merged = true
				break
			}
		}
		if !merged {
			cp := *bk
			clusters = append(clusters, &cp)
		}
	}
	sortBuckets(clusters)

	if len(clusters) > count {
		clusters = clusters[:count]
	}
	colors := make([]Color, len(clusters))
	for i, cl := range clusters {
		colors[i] = newColor(cl.color(), float64(cl.n)/float64(total)*100)
	}
	return &Result{Colors: colors}, nil
}

// sortBuckets orders by population, breaking ties by colour so results are
// deterministic.
func sortBuckets(bs []*bucket) {
	sort.Slice(bs, func(i, j int) bool {
		if bs[i].n != bs[j].n {
			return bs[i].n > bs[j].n
		}
		return bs[i].color().Hex() < bs[j].color().Hex()
	})
}

func newColor(c colorful.Color, pct float64) Color {
	r, g, b := c.Clamped().RGB255()
	h, s, l := c.Hsl()
	return Color{
		Hex:        fmt.Sprintf("#%02X%02X%02X", r, g, b),
		RGB:        RGB{R: r, G: g, B: b},
		HSL:        HSL{H: int(h), S: int(s * 100), L: int(l * 100)},
		Percentage: pct,
	}
}
