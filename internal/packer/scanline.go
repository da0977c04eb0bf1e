package packer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-grid/internal/margin"
	"github.com/ironsheep/image-grid/internal/occupancy"
	"github.com/ironsheep/image-grid/internal/pool"
)

var (
	// ErrEmptyPool is returned when a generation starts with no candidates
	// at all.
	ErrEmptyPool = errors.New("no images available")

	// ErrPoolExhausted is returned by the fixed grid when the pool runs out
	// before every cell is filled. The scan-line packer never returns it;
	// exhaustion there ends the generation normally.
	ErrPoolExhausted = errors.New("image pool exhausted")
)

// Options configures a scan-line generation.
type Options struct {
	Width      int
	Height     int
	Background color.NRGBA

	// CanvasMargin is the border around the packing area.
	CanvasMargin margin.Spec
	// CellMargin is painted inside every placed image.
	CellMargin margin.Spec

	// Tolerance is the native-size deviation threshold (see FitSize).
	Tolerance float64
	// MinCell is the smallest free width or height worth filling. Free
	// regions below it are skipped. Values below 1 mean 1.
	MinCell int
}

// Placement is one placed image.
type Placement struct {
	ID   string          `json:"id"`
	Rect image.Rectangle `json:"rect"`
	Fit  FitMode         `json:"fit"`
}

// Result is the outcome of one generation.
type Result struct {
	// Canvas is the finished collage. It is not modified after Generate
	// returns.
	Canvas *image.NRGBA
	// Placements lists placed images in placement order.
	Placements []Placement
	// Exhausted reports that the generation stopped because the pool had
	// no unused candidate left.
	Exhausted bool
	// Coverage is the fraction of the packing area filled.
	Coverage float64
}

// Count returns the number of placed images.
func (r *Result) Count() int { return len(r.Placements) }

// state is the position of the scan-line state machine.
type state int

const (
	// stateAdvancingY starts a new left-to-right pass.
	stateAdvancingY state = iota
	// stateAdvancingX evaluates the column at x.
	stateAdvancingX
	// statePlacing fills the free box at (x, y).
	statePlacing
	// stateSkippingColumn steps one column right.
	stateSkippingColumn
	// stateDone ends the generation.
	stateDone
)

func (s state) String() string {
	switch s {
	case stateAdvancingY:
		return "advancing-y"
	case stateAdvancingX:
		return "advancing-x"
	case statePlacing:
		return "placing"
	case stateSkippingColumn:
		return "skipping-column"
	default:
		return "done"
	}
}

// ScanLine fills a canvas left to right, top to bottom: at every column it
// finds the free frontier, asks the pool for an image for the free box that
// starts there, and moves right past whatever it placed. Passes repeat until
// one places nothing.
//
// Decisions are never revisited. A ScanLine owns no state between calls to
// Generate; all per-generation state lives in the generation value.
type ScanLine struct {
	opts   Options
	pool   *pool.Pool
	logger *log.Logger
}

// NewScanLine creates a scan-line packer drawing from p.
func NewScanLine(opts Options, p *pool.Pool, logger *log.Logger) *ScanLine {
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	if opts.MinCell < 1 {
		opts.MinCell = 1
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ScanLine{opts: opts, pool: p, logger: logger}
}

// Generate runs one generation.
//
// A partially filled canvas is a normal result. The only errors are
// ErrEmptyPool, an invalid canvas size, and ctx cancellation.
func (s *ScanLine) Generate(ctx context.Context) (*Result, error) {
	if s.opts.Width <= 0 || s.opts.Height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", s.opts.Width, s.opts.Height)
	}
	if s.pool.Len() == 0 {
		return nil, ErrEmptyPool
	}

	canvas := imaging.New(s.opts.Width, s.opts.Height, s.opts.Background)
	s.opts.CanvasMargin.Frame(canvas, canvas.Bounds())
	area := s.opts.CanvasMargin.Inset(canvas.Bounds())

	g := &generation{
		ScanLine: s,
		canvas:   canvas,
		area:     area,
		tracker:  occupancy.New(area),
		used:     pool.Used{},
		state:    stateAdvancingY,
	}
	if err := g.run(ctx); err != nil {
		return nil, err
	}

	s.logger.Debug("generation finished",
		"placed", len(g.placements),
		"passes", g.passes,
		"exhausted", g.exhausted,
		"coverage", fmt.Sprintf("%.1f%%", g.tracker.Coverage()*100))

	return &Result{
		Canvas:     canvas,
		Placements: g.placements,
		Exhausted:  g.exhausted,
		Coverage:   g.tracker.Coverage(),
	}, nil
}

// generation is the mutable state of one Generate call.
type generation struct {
	*ScanLine

	canvas  *image.NRGBA
	area    image.Rectangle
	tracker *occupancy.Tracker
	used    pool.Used

	state        state
	x, y         int
	passes       int
	placedInPass int
	exhausted    bool
	placements   []Placement
}

func (g *generation) run(ctx context.Context) error {
	for g.state != stateDone {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch g.state {
		case stateAdvancingY:
			g.x = g.area.Min.X
			g.placedInPass = 0
			g.passes++
			g.state = stateAdvancingX
		case stateAdvancingX:
			g.advanceX()
		case statePlacing:
			g.place()
		case stateSkippingColumn:
			g.x++
			g.state = stateAdvancingX
		}
	}
	return nil
}

// advanceX ends the pass at the right edge, otherwise locates the frontier
// of column x. A pass that placed nothing cannot be followed by one that
// does, so it ends the generation.
func (g *generation) advanceX() {
	if g.x >= g.area.Max.X {
		if g.placedInPass == 0 {
			g.state = stateDone
		} else {
			g.state = stateAdvancingY
		}
		return
	}

	g.y = g.tracker.NextFreeY(g.x)
	if g.y >= g.area.Max.Y || g.tracker.IsOccupied(g.x, g.y) {
		g.state = stateSkippingColumn
		return
	}
	g.state = statePlacing
}

// place fills the free box anchored at (x, y). The box is bounded on the
// right by the nearest record crossing row y and below by the nearest record
// under its column span, so anything fitted inside it overlaps nothing.
func (g *generation) place() {
	remainingW := g.tracker.NearestHorizontalLimit(g.x, g.y) - g.x
	remainingH := g.tracker.NearestVerticalLimit(g.x, g.x+remainingW, g.y) - g.y
	if remainingW < g.opts.MinCell || remainingH < g.opts.MinCell {
		g.state = stateSkippingColumn
		return
	}

	cand, ok := g.pool.Pick(g.used, remainingW, remainingH)
	if !ok {
		g.exhausted = true
		g.state = stateDone
		return
	}
	g.used.Add(cand.ID)

	img, err := g.pool.Decode(cand)
	if err != nil {
		// The candidate stays used; the next pick retries this box.
		g.logger.Warn("skipping candidate", "id", cand.ID, "err", err)
		return
	}

	b := img.Bounds()
	fit := FitSize(b.Dx(), b.Dy(), remainingW, remainingH, g.opts.Tolerance)
	if fit.Mode == FitNone {
		g.logger.Warn("skipping empty candidate", "id", cand.ID)
		return
	}

	var cell image.Image = img
	if fit.Resized(b.Dx(), b.Dy()) {
		cell = imaging.Resize(img, fit.Width, fit.Height, imaging.Lanczos)
	}
	framed := g.opts.CellMargin.Apply(cell)

	rect := image.Rect(g.x, g.y, g.x+fit.Width, g.y+fit.Height)
	g.tracker.Record(rect)
	draw.Draw(g.canvas, rect, framed, image.Point{}, draw.Src)
	g.placements = append(g.placements, Placement{ID: cand.ID, Rect: rect, Fit: fit.Mode})

	g.logger.Debug("placed", "id", cand.ID, "rect", rect, "fit", fit.Mode)

	g.x += fit.Width
	g.placedInPass++
	g.state = stateAdvancingX
}
