package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ImageCache provides thread-safe caching of candidate images to avoid
// redundant disk reads.
//
// Two kinds of entries are kept, both keyed by file path:
//   - dimensions, read with image.DecodeConfig (header only, always cached)
//   - decoded pixels, cached only when the cache was created with keepPixels
//
// A collage run touches every candidate's dimensions many times (once per pool
// pick) but decodes each chosen candidate only once per generation, so pixel
// caching is opt-in: it trades memory for speed when many generations draw
// from the same small pool.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Example Usage
//
//	cache := imaging.NewImageCache(false)
//	w, h, err := cache.Config("/path/to/image.png")
//	img, err := cache.Load("/path/to/image.png")
type ImageCache struct {
	mu         sync.RWMutex
	keepPixels bool
	images     map[string]image.Image
	configs    map[string]image.Point
}

// NewImageCache creates and initializes a new empty image cache.
//
// When keepPixels is false, Load decodes from disk on every call and only
// dimensions are retained.
func NewImageCache(keepPixels bool) *ImageCache {
	return &ImageCache{
		keepPixels: keepPixels,
		images:     make(map[string]image.Image),
		configs:    make(map[string]image.Point),
	}
}

// Load retrieves an image from the cache or decodes it from disk.
//
// Decoding goes through imaging.Open with EXIF auto-orientation enabled, so a
// portrait photo stored sideways is returned upright. Supported formats are
// JPEG, PNG, GIF, BMP, TIFF and WebP.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not a decodable image
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if c.keepPixels {
		c.mu.Lock()
		c.images[path] = img
		c.mu.Unlock()
	}

	return img, nil
}

// Config returns the pixel dimensions of the image at path without decoding
// its pixel data. Results are cached.
//
// The dimensions are those stored in the file header; an EXIF-rotated image
// reports its stored orientation here while Load returns it upright.
func (c *ImageCache) Config(path string) (width, height int, err error) {
	c.mu.RLock()
	if p, ok := c.configs[path]; ok {
		c.mu.RUnlock()
		return p.X, p.Y, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image header: %w", err)
	}

	c.mu.Lock()
	c.configs[path] = image.Pt(cfg.Width, cfg.Height)
	c.mu.Unlock()

	return cfg.Width, cfg.Height, nil
}

// Clear removes all entries from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.configs = make(map[string]image.Point)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	delete(c.configs, path)
	c.mu.Unlock()
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`
}

// GetDimensions returns the dimensions of an image through the cache.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	w, h, err := cache.Config(path)
	if err != nil {
		return nil, err
	}
	return &DimensionsResult{Width: w, Height: h}, nil
}
