// Package imaging connects the transform pipeline to the filesystem.
//
// It reads image files into pipeline sources, keeps recently decoded images
// in a bounded cache, reports basic image information, and writes encoded
// results to an output directory.
//
// # Image Cache
//
// ImageCache holds decoded images keyed by path, evicting the least recently
// used entry once it is full. An entry is reloaded when the file's size or
// modification time changes, so a long-running server does not serve stale
// pixels after a file is replaced. The cache is safe for concurrent use.
//
// Decode failures are returned as pipeline errors of kind decode error and
// are never cached.
//
// # Image Information
//
// LoadImageInfo reports dimensions, the detected MIME type and the format
// sniffed from the file contents. The file extension is not trusted: a PNG
// saved as photo.jpg is reported as png.
//
// # Output Naming
//
// Results are written as {base}.{ext}, where base is the source file name
// without its extension and ext follows the output format. When the name is
// taken, OutputPath appends -1, -2, ... unless overwrite is requested.
// Output directories are created as needed.
package imaging
