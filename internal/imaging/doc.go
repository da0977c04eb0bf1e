// Package imaging provides the file-backed image collaborators of the collage
// generator: decoding candidate images from disk and enumerating a directory
// of candidates.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Rectangles are half-open:
// Min is inclusive, Max is exclusive.
//
// # Thread Safety
//
// ImageCache and DirectorySource are safe for concurrent use. A single
// DirectorySource is shared read-only by every generation job of a run.
//
// # Supported Formats
//
// JPEG, PNG and GIF come from the standard library, BMP and TIFF from
// github.com/disintegration/imaging, and WebP from golang.org/x/image/webp.
// Unsupported or corrupt files surface as decode errors; the candidate pool
// skips them.
//
// # Memory Management
//
// Decoded pixels are cached only when requested (see NewImageCache). Header
// dimensions are always cached because the pool consults them on every pick.
package imaging
