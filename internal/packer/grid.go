package packer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-grid/internal/margin"
	"github.com/ironsheep/image-grid/internal/pool"
)

// GridElementModifier sets the margins of every cell whose row is in Rows or
// whose column is in Columns.
type GridElementModifier struct {
	Rows    []int
	Columns []int
	Top     int
	Right   int
	Bottom  int
	Left    int
}

// Applies reports whether the modifier targets the cell at (row, col).
func (m GridElementModifier) Applies(row, col int) bool {
	return slices.Contains(m.Rows, row) || slices.Contains(m.Columns, col)
}

// GridOptions configures a fixed-grid generation.
type GridOptions struct {
	Width        int
	Height       int
	Background   color.NRGBA
	CanvasMargin margin.Spec
	// CellMargin colors the cell insets and is painted inside every image.
	CellMargin margin.Spec

	Columns   int
	Rows      int
	Modifiers []GridElementModifier

	// Shapes, when set, replaces Columns and Rows with one pair drawn at
	// random per generation (X is columns, Y is rows).
	Shapes []image.Point
	// MarginChoices, when set, adds one modifier per outer band of the grid
	// with a margin drawn at random from the choices.
	MarginChoices []int
}

// Grid divides the packing area into equal cells and fills each with one
// randomly picked image cropped to the cell.
type Grid struct {
	opts   GridOptions
	pool   *pool.Pool
	logger *log.Logger
}

// NewGrid creates a fixed-grid packer drawing from p.
func NewGrid(opts GridOptions, p *pool.Pool, logger *log.Logger) *Grid {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Grid{opts: opts, pool: p, logger: logger}
}

// Generate fills every cell or fails with ErrPoolExhausted.
func (g *Grid) Generate(ctx context.Context) (*Result, error) {
	if g.opts.Width <= 0 || g.opts.Height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", g.opts.Width, g.opts.Height)
	}
	if g.pool.Len() == 0 {
		return nil, ErrEmptyPool
	}

	cols, rows := g.shape()
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("invalid grid shape %dx%d", cols, rows)
	}
	modifiers := append(slices.Clone(g.opts.Modifiers), g.bandModifiers(cols, rows)...)

	canvas := imaging.New(g.opts.Width, g.opts.Height, g.opts.Background)
	g.opts.CanvasMargin.Frame(canvas, canvas.Bounds())
	area := g.opts.CanvasMargin.Inset(canvas.Bounds())

	cellW := area.Dx() / cols
	cellH := area.Dy() / rows
	if cellW <= 0 || cellH <= 0 {
		return nil, fmt.Errorf("grid %dx%d does not fit a %dx%d area", cols, rows, area.Dx(), area.Dy())
	}

	used := pool.Used{}
	var placements []Placement
	filled := 0

	for col := 0; col < cols; col++ {
		for row := 0; row < rows; row++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			cell := image.Rect(0, 0, cellW, cellH).Add(area.Min).Add(image.Pt(col*cellW, row*cellH))
			inset := cellMargins(modifiers, row, col)
			inset.Color = g.opts.CellMargin.Color
			draw.Draw(canvas, cell, image.NewUniform(inset.Color), image.Point{}, draw.Src)
			filled += cell.Dx() * cell.Dy()

			inner := inset.Inset(cell)
			if inner.Empty() {
				continue
			}

			img, id, err := g.pickDecoded(used, inner.Dx(), inner.Dy())
			if err != nil {
				return nil, fmt.Errorf("cell (%d, %d): %w", row, col, err)
			}

			tile := imaging.Fill(img, inner.Dx(), inner.Dy(), imaging.Center, imaging.Lanczos)
			framed := g.opts.CellMargin.Apply(tile)
			draw.Draw(canvas, inner, framed, image.Point{}, draw.Src)
			placements = append(placements, Placement{ID: id, Rect: inner, Fit: FitFill})

			g.logger.Debug("placed", "id", id, "row", row, "col", col, "rect", inner)
		}
	}

	coverage := 0.0
	if a := area.Dx() * area.Dy(); a > 0 {
		coverage = float64(filled) / float64(a)
	}
	return &Result{Canvas: canvas, Placements: placements, Coverage: coverage}, nil
}

// pickDecoded returns the next decodable candidate, marking every candidate
// it tries as used.
func (g *Grid) pickDecoded(used pool.Used, w, h int) (image.Image, string, error) {
	for {
		cand, ok := g.pool.Pick(used, w, h)
		if !ok {
			return nil, "", ErrPoolExhausted
		}
		used.Add(cand.ID)
		img, err := g.pool.Decode(cand)
		if err != nil {
			g.logger.Warn("skipping candidate", "id", cand.ID, "err", err)
			continue
		}
		return img, cand.ID, nil
	}
}

func (g *Grid) shape() (cols, rows int) {
	if len(g.opts.Shapes) > 0 {
		s := g.opts.Shapes[g.pool.Intn(len(g.opts.Shapes))]
		return s.X, s.Y
	}
	return g.opts.Columns, g.opts.Rows
}

// bandModifiers separates the outer bands of the grid from its interior: the
// first column gets a right margin, the last column a left margin, the first
// row a bottom margin and the last row a top margin.
func (g *Grid) bandModifiers(cols, rows int) []GridElementModifier {
	if len(g.opts.MarginChoices) == 0 {
		return nil
	}
	pick := func() int { return g.opts.MarginChoices[g.pool.Intn(len(g.opts.MarginChoices))] }
	return []GridElementModifier{
		{Columns: []int{0}, Right: pick()},
		{Columns: []int{cols - 1}, Left: pick()},
		{Rows: []int{0}, Bottom: pick()},
		{Rows: []int{rows - 1}, Top: pick()},
	}
}

// cellMargins returns the margins of the cell at (row, col). When several
// modifiers target a cell the last one wins.
func cellMargins(modifiers []GridElementModifier, row, col int) margin.Spec {
	var m margin.Spec
	for _, mod := range modifiers {
		if mod.Applies(row, col) {
			m = margin.Spec{Top: mod.Top, Right: mod.Right, Bottom: mod.Bottom, Left: mod.Left}
		}
	}
	return m
}
