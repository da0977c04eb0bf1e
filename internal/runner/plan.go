package runner

import (
	"fmt"
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/ironsheep/image-grid/internal/packer"
	"github.com/ironsheep/image-grid/internal/pool"
)

// Packing modes.
const (
	ModeScanLine = "scanline"
	ModeGrid     = "grid"
)

// Plan describes the generator every job of a run builds.
type Plan struct {
	Mode string

	// Source and IDs are shared read-only by every job.
	Source pool.Source
	IDs    []string

	// Seed makes a run reproducible: job i draws from a generator seeded
	// with (Seed, i).
	Seed uint64

	ScanLine packer.Options
	Grid     packer.GridOptions

	Logger *log.Logger
}

// Factory returns a Factory building a fresh pool and packer per job.
func (p Plan) Factory() Factory {
	return func(index int) (Generator, error) {
		rng := rand.New(rand.NewPCG(p.Seed, uint64(index)))
		var logger *log.Logger
		if p.Logger != nil {
			logger = p.Logger.With("job", index)
		}
		pl := pool.New(p.Source, p.IDs, rng, logger)

		switch p.Mode {
		case "", ModeScanLine:
			return packer.NewScanLine(p.ScanLine, pl, logger), nil
		case ModeGrid:
			return packer.NewGrid(p.Grid, pl, logger), nil
		default:
			return nil, fmt.Errorf("unknown mode %q", p.Mode)
		}
	}
}
