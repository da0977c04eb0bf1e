// Package sink persists finished collages.
package sink

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
)

// Output formats.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
)

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 90

// File writes one image per job into Dir as "{index}.jpg" or "{index}.png".
// Concurrent jobs may share a File as long as their indexes differ.
type File struct {
	Dir     string
	Format  string
	Quality int
}

// Ext returns the file extension for the configured format.
func (f *File) Ext() string {
	if f.format() == FormatPNG {
		return ".png"
	}
	return ".jpg"
}

// Path returns where Save writes the image for index.
func (f *File) Path(index int) string {
	return filepath.Join(f.Dir, strconv.Itoa(index)+f.Ext())
}

// Save encodes img to Path(index), creating Dir if needed. A partially
// written file is removed on failure.
func (f *File) Save(ctx context.Context, index int, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	enc, err := f.encoder()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := f.Path(index)
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := enc(out, img); err != nil {
		out.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func (f *File) format() string {
	if f.Format == "" {
		return FormatJPEG
	}
	return strings.ToLower(f.Format)
}

func (f *File) encoder() (imgio.Encoder, error) {
	switch f.format() {
	case FormatJPEG, "jpg":
		q := f.Quality
		if q <= 0 {
			q = DefaultQuality
		}
		return imgio.JPEGEncoder(q), nil
	case FormatPNG:
		return imgio.PNGEncoder(), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", f.Format)
	}
}
