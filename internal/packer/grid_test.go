package packer_test

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-grid/internal/margin"
	"github.com/ironsheep/image-grid/internal/packer"
	"github.com/ironsheep/image-grid/internal/pool/pooltest"
)

func squares(n, size int) *pooltest.Source {
	pts := make([]image.Point, n)
	for i := range pts {
		pts[i] = image.Pt(size, size)
	}
	return pooltest.Sizes(pts...)
}

func generateGrid(t *testing.T, opts packer.GridOptions, src *pooltest.Source) (*packer.Result, error) {
	t.Helper()
	return packer.NewGrid(opts, newPool(t, src, 3), nil).Generate(context.Background())
}

func rectSet(res *packer.Result) map[image.Rectangle]bool {
	out := map[image.Rectangle]bool{}
	for _, p := range res.Placements {
		out[p.Rect] = true
	}
	return out
}

func TestGrid_FillsEveryCell(t *testing.T) {
	res, err := generateGrid(t, packer.GridOptions{
		Width: 100, Height: 100, Background: white, Columns: 2, Rows: 2,
	}, squares(4, 30))
	require.NoError(t, err)

	assert.Equal(t, []image.Rectangle{
		image.Rect(0, 0, 50, 50),
		image.Rect(0, 50, 50, 100),
		image.Rect(50, 0, 100, 50),
		image.Rect(50, 50, 100, 100),
	}, rects(res), "cells are filled column by column")
	for _, p := range res.Placements {
		assert.Equal(t, packer.FitFill, p.Fit)
	}
	assert.InDelta(t, 1.0, res.Coverage, 1e-9)
	assert.False(t, res.Exhausted)
}

func TestGrid_PoolExhausted(t *testing.T) {
	_, err := generateGrid(t, packer.GridOptions{Width: 100, Height: 100, Columns: 2, Rows: 2}, squares(3, 30))
	assert.ErrorIs(t, err, packer.ErrPoolExhausted)
}

func TestGrid_EmptyPool(t *testing.T) {
	_, err := generateGrid(t, packer.GridOptions{Width: 100, Height: 100, Columns: 2, Rows: 2}, pooltest.New())
	assert.ErrorIs(t, err, packer.ErrEmptyPool)
}

func TestGrid_InvalidShape(t *testing.T) {
	_, err := generateGrid(t, packer.GridOptions{Width: 100, Height: 100}, squares(1, 10))
	assert.Error(t, err)

	_, err = generateGrid(t, packer.GridOptions{Width: 3, Height: 3, Columns: 4, Rows: 4}, squares(16, 10))
	assert.Error(t, err, "cells smaller than a pixel")
}

func TestGrid_Modifiers(t *testing.T) {
	res, err := generateGrid(t, packer.GridOptions{
		Width:      100,
		Height:     100,
		Background: white,
		CellMargin: margin.Spec{Color: red},
		Columns:    2,
		Rows:       2,
		Modifiers: []packer.GridElementModifier{
			{Columns: []int{0}, Right: 10},
			{Rows: []int{1}, Bottom: 5},
		},
	}, squares(4, 30))
	require.NoError(t, err)

	got := rectSet(res)
	assert.True(t, got[image.Rect(0, 0, 40, 50)], "column modifier")
	assert.True(t, got[image.Rect(0, 50, 50, 95)], "last matching modifier wins")
	assert.True(t, got[image.Rect(50, 0, 100, 50)], "untouched cell")
	assert.True(t, got[image.Rect(50, 50, 100, 95)], "row modifier")

	assert.Equal(t, red, res.Canvas.NRGBAAt(45, 10), "cell inset is painted with the cell margin color")
	assert.Equal(t, red, res.Canvas.NRGBAAt(75, 97))
}

func TestGrid_Shapes(t *testing.T) {
	res, err := generateGrid(t, packer.GridOptions{
		Width: 60, Height: 60, Shapes: []image.Point{{X: 3, Y: 1}},
	}, squares(3, 20))
	require.NoError(t, err)

	assert.Equal(t, []image.Rectangle{
		image.Rect(0, 0, 20, 60),
		image.Rect(20, 0, 40, 60),
		image.Rect(40, 0, 60, 60),
	}, rects(res))
}

func TestGrid_MarginChoicesSeparateOuterBands(t *testing.T) {
	res, err := generateGrid(t, packer.GridOptions{
		Width: 90, Height: 90, Columns: 3, Rows: 3, MarginChoices: []int{7},
	}, squares(9, 30))
	require.NoError(t, err)
	require.Equal(t, 9, res.Count())

	got := rectSet(res)
	assert.True(t, got[image.Rect(0, 0, 30, 23)], "first row bottom margin wins over first column")
	assert.True(t, got[image.Rect(30, 30, 60, 60)], "interior cell")
	assert.True(t, got[image.Rect(0, 30, 23, 60)], "first column right margin")
	assert.True(t, got[image.Rect(67, 30, 90, 60)], "last column left margin")
	assert.True(t, got[image.Rect(60, 67, 90, 90)], "last row top margin")
}

func TestGrid_CanvasMargin(t *testing.T) {
	res, err := generateGrid(t, packer.GridOptions{
		Width: 100, Height: 100, Columns: 1, Rows: 1, CanvasMargin: margin.Uniform(10, red),
	}, squares(1, 10))
	require.NoError(t, err)

	assert.Equal(t, []image.Rectangle{image.Rect(10, 10, 90, 90)}, rects(res))
	assert.Equal(t, red, res.Canvas.NRGBAAt(3, 50))
}

func TestGridElementModifier_Applies(t *testing.T) {
	m := packer.GridElementModifier{Rows: []int{0, 2}, Columns: []int{5}}

	assert.True(t, m.Applies(0, 1))
	assert.True(t, m.Applies(2, 9))
	assert.True(t, m.Applies(4, 5))
	assert.False(t, m.Applies(1, 1))
	assert.False(t, packer.GridElementModifier{}.Applies(0, 0))
}
