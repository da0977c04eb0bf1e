// Package pooltest provides an in-memory candidate source for tests.
package pooltest

import (
	"fmt"
	"image"
	"image/color"
	"sort"
	"sync"

	"github.com/disintegration/imaging"
)

// Source is an in-memory pool.Source. It is safe for concurrent use.
type Source struct {
	mu      sync.Mutex
	images  map[string]image.Image
	broken  map[string]bool
	decodes int
}

// New returns an empty source.
func New() *Source {
	return &Source{
		images: make(map[string]image.Image),
		broken: make(map[string]bool),
	}
}

// Add registers a solid-color candidate of the given size. A nil color
// means mid gray.
func (s *Source) Add(id string, width, height int, c color.Color) *Source {
	if c == nil {
		c = color.Gray{Y: 128}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[id] = imaging.New(width, height, c)
	return s
}

// AddBroken registers a candidate whose dimensions are readable but whose
// pixels fail to decode.
func (s *Source) AddBroken(id string, width, height int) *Source {
	s.Add(id, width, height, color.Black)
	s.mu.Lock()
	s.broken[id] = true
	s.mu.Unlock()
	return s
}

// Sizes builds a source with one candidate per size, named "img-000",
// "img-001", and so on.
func Sizes(sizes ...image.Point) *Source {
	s := New()
	for i, sz := range sizes {
		s.Add(fmt.Sprintf("img-%03d", i), sz.X, sz.Y, color.NRGBA{R: uint8(40 * i), G: 128, B: 200, A: 255})
	}
	return s
}

// List returns the candidate identifiers in sorted order.
func (s *Source) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.images))
	for id := range s.images {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Dimensions returns the candidate's size.
func (s *Source) Dimensions(id string) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[id]
	if !ok {
		return 0, 0, fmt.Errorf("unknown candidate %q", id)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

// Decode returns the candidate's pixels.
func (s *Source) Decode(id string) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decodes++
	img, ok := s.images[id]
	if !ok {
		return nil, fmt.Errorf("unknown candidate %q", id)
	}
	if s.broken[id] {
		return nil, fmt.Errorf("candidate %q: corrupt image data", id)
	}
	return img, nil
}

// Decodes returns how many times Decode has been called.
func (s *Source) Decodes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decodes
}
