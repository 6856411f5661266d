// Package pipeline implements the shared image transform pipeline used by the
// resize, compress, convert and watermark tools.
//
// A transform is a fixed composition of four steps:
//
//  1. Decode: raw bytes to a decoded bitmap (png, jpeg, gif, webp, bmp, tiff).
//  2. FitDimensions: aspect-preserving scale into optional max bounds. The
//     scale factor is min(maxW/srcW, maxH/srcH, 1), so images are never
//     upscaled.
//  3. Render: draw the bitmap into a fresh canvas of the fitted size and
//     optionally stamp a bottom-right text overlay.
//  4. Encode: serialize the canvas to png, jpeg or webp.
//
// # Batches
//
// TransformBatch runs TransformOne over each source sequentially, in input
// order. Items are independent: a decode or encode failure is reported on that
// item only and never aborts its siblings. Each canvas is released before the
// next item is decoded, which bounds peak memory to one image at a time.
//
// # Errors
//
// Failures are reported as *Error values carrying the source filename and a
// Kind (decode, encode, config). Use errors.Is with ErrDecode, ErrEncode or
// ErrConfig to classify them.
//
// # Thread Safety
//
// A Pipeline holds no mutable state after construction and may be shared by
// multiple goroutines. Every transform allocates its own canvas.
package pipeline
