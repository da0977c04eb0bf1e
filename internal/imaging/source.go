package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// supportedExtensions lists the file extensions DirectorySource treats as
// candidate images. Matching is case-insensitive.
var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// DirectorySource exposes the image files of a single directory as collage
// candidates. Candidate identifiers are absolute file paths.
//
// DirectorySource is safe for concurrent use: it holds no mutable state
// other than the shared ImageCache.
type DirectorySource struct {
	dir   string
	cache *ImageCache
}

// NewDirectorySource creates a source over dir. A nil cache gets a fresh
// dimensions-only cache.
func NewDirectorySource(dir string, cache *ImageCache) *DirectorySource {
	if cache == nil {
		cache = NewImageCache(false)
	}
	return &DirectorySource{dir: dir, cache: cache}
}

// Dir returns the directory the source enumerates.
func (s *DirectorySource) Dir() string { return s.dir }

// List returns the paths of all regular files in the directory with a
// supported image extension, in natural order ("img2" before "img10").
// Subdirectories are not descended into.
func (s *DirectorySource) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	abs, err := filepath.Abs(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve input directory: %w", err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if !supportedExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(abs, e.Name()))
	}
	sort.Sort(natural.StringSlice(paths))
	return paths, nil
}

// Dimensions returns the stored width and height of the candidate.
func (s *DirectorySource) Dimensions(id string) (int, int, error) {
	return s.cache.Config(id)
}

// Decode loads the candidate's pixels.
func (s *DirectorySource) Decode(id string) (image.Image, error) {
	return s.cache.Load(id)
}

// PoolSummary describes the candidates of a directory.
type PoolSummary struct {
	InputDir   string `json:"input_dir"`
	Count      int    `json:"count"`
	Readable   int    `json:"readable"`
	Unreadable int    `json:"unreadable"`
	MinWidth   int    `json:"min_width"`
	MaxWidth   int    `json:"max_width"`
	MinHeight  int    `json:"min_height"`
	MaxHeight  int    `json:"max_height"`
	// TotalArea is the summed native area of every readable candidate.
	TotalArea int64 `json:"total_area"`
}

// Summarize lists src and reads every candidate's dimensions.
func Summarize(src *DirectorySource) (*PoolSummary, error) {
	ids, err := src.List()
	if err != nil {
		return nil, err
	}
	info := &PoolSummary{InputDir: src.Dir(), Count: len(ids)}
	for _, id := range ids {
		w, h, err := src.Dimensions(id)
		if err != nil || w <= 0 || h <= 0 {
			info.Unreadable++
			continue
		}
		if info.Readable == 0 {
			info.MinWidth, info.MaxWidth, info.MinHeight, info.MaxHeight = w, w, h, h
		}
		info.Readable++
		info.MinWidth = min(info.MinWidth, w)
		info.MaxWidth = max(info.MaxWidth, w)
		info.MinHeight = min(info.MinHeight, h)
		info.MaxHeight = max(info.MaxHeight, h)
		info.TotalArea += int64(w) * int64(h)
	}
	return info, nil
}
