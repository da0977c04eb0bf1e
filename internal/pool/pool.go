// Package pool picks unused candidate images for the packer.
//
// A Pool wraps a read-only candidate listing and a Source that can report a
// candidate's dimensions and decode its pixels. Selection order is random and
// driven by an injected generator, so a fixed seed reproduces a generation.
// The pool does not remember what it handed out: the packer owns the used
// set for its generation and passes it into every Pick.
package pool

import (
	"image"
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/log"
)

// Source is the candidate collaborator: a directory of image files in
// production, an in-memory map in tests.
type Source interface {
	// List returns every candidate identifier.
	List() ([]string, error)

	// Dimensions returns a candidate's width and height without decoding
	// its pixels.
	Dimensions(id string) (width, height int, err error)

	// Decode returns a candidate's pixels.
	Decode(id string) (image.Image, error)
}

// Candidate is a picked, not yet decoded, image.
type Candidate struct {
	ID     string
	Width  int
	Height int
}

// Used is the set of candidate identifiers already placed in one generation.
type Used map[string]struct{}

// Add marks id as used.
func (u Used) Add(id string) { u[id] = struct{}{} }

// Has reports whether id is used.
func (u Used) Has(id string) bool {
	_, ok := u[id]
	return ok
}

// Pool selects candidates at random from a fixed listing.
//
// The listing slice is never modified and may be shared by pools of
// concurrent generations. A Pool itself is not safe for concurrent use
// because its random generator is not.
type Pool struct {
	src    Source
	ids    []string
	rng    *rand.Rand
	logger *log.Logger
}

// New creates a pool over ids. A nil rng is seeded randomly and a nil logger
// discards output.
func New(src Source, ids []string, rng *rand.Rand, logger *log.Logger) *Pool {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Pool{src: src, ids: ids, rng: rng, logger: logger}
}

// Len returns the size of the listing.
func (p *Pool) Len() int { return len(p.ids) }

// Remaining returns how many listed candidates are not in used.
func (p *Pool) Remaining(used Used) int {
	n := 0
	for _, id := range p.ids {
		if !used.Has(id) {
			n++
		}
	}
	return n
}

// Pick returns a random unused candidate for a free region of width × height.
//
// Candidates are visited in a fresh random order. The first one whose native
// size fits inside the region is returned; when none fits natively the first
// readable unused candidate is returned instead and the caller resizes it.
// Candidates whose dimensions cannot be read are skipped.
//
// ok is false when every candidate is used or unreadable, or when either
// dimension of the region is not positive.
func (p *Pool) Pick(used Used, width, height int) (c Candidate, ok bool) {
	if width <= 0 || height <= 0 {
		return Candidate{}, false
	}

	order := make([]int, 0, len(p.ids))
	for i, id := range p.ids {
		if !used.Has(id) {
			order = append(order, i)
		}
	}
	p.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	var fallback Candidate
	haveFallback := false
	for _, i := range order {
		id := p.ids[i]
		w, h, err := p.src.Dimensions(id)
		if err != nil || w <= 0 || h <= 0 {
			p.logger.Debug("skipping unreadable candidate", "id", id, "err", err)
			continue
		}
		cand := Candidate{ID: id, Width: w, Height: h}
		if w <= width && h <= height {
			return cand, true
		}
		if !haveFallback {
			fallback, haveFallback = cand, true
		}
	}
	return fallback, haveFallback
}

// Decode loads a picked candidate's pixels.
func (p *Pool) Decode(c Candidate) (image.Image, error) {
	return p.src.Decode(c.ID)
}

// Intn returns a random int in [0, n) from the pool's generator. Packers use
// it for decisions that must follow the same seed as candidate selection.
func (p *Pool) Intn(n int) int { return p.rng.IntN(n) }
