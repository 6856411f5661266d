package pipeline

import "math"

// FitDimensions returns the output size for a srcW×srcH image bounded by
// maxW×maxH.
//
// A bound of zero (or less) leaves that axis unconstrained; with both bounds
// unset the native size is returned. Otherwise the scale factor is
//
//	ratio = min(maxW/srcW, maxH/srcH, 1)
//
// and each side is rounded to the nearest pixel. The ratio is capped at 1, so
// images are never upscaled, and neither side drops below 1 pixel.
func FitDimensions(srcW, srcH, maxW, maxH int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return srcW, srcH
	}
	if maxW <= 0 && maxH <= 0 {
		return srcW, srcH
	}

	ratio := 1.0
	if maxW > 0 {
		ratio = math.Min(ratio, float64(maxW)/float64(srcW))
	}
	if maxH > 0 {
		ratio = math.Min(ratio, float64(maxH)/float64(srcH))
	}

	w := int(math.Round(float64(srcW) * ratio))
	h := int(math.Round(float64(srcH) * ratio))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
