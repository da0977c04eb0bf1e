// Package margin implements the border policy of the collage: the canvas
// border painted around the packing area and the per-image border painted
// inside every placed cell.
//
// Margins are "eaten into" content. Apply never changes an image's outer
// size; it shrinks the content and fills the freed strips with a solid color.
package margin

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

// Spec is a margin quadruple plus its fill color. The zero value is no
// margin.
type Spec struct {
	Top    int
	Right  int
	Bottom int
	Left   int
	Color  color.NRGBA
}

// Uniform returns a Spec with the same width on every edge.
func Uniform(n int, c color.NRGBA) Spec {
	return Spec{Top: n, Right: n, Bottom: n, Left: n, Color: c}
}

// IsZero reports whether every edge is zero.
func (s Spec) IsZero() bool {
	return s.Top == 0 && s.Right == 0 && s.Bottom == 0 && s.Left == 0
}

// Horizontal returns left+right.
func (s Spec) Horizontal() int { return s.Left + s.Right }

// Vertical returns top+bottom.
func (s Spec) Vertical() int { return s.Top + s.Bottom }

// Inset returns r shrunk by the margins, or the zero rectangle when the
// margins meet or cross.
func (s Spec) Inset(r image.Rectangle) image.Rectangle {
	inner := image.Rectangle{
		Min: image.Pt(r.Min.X+s.Left, r.Min.Y+s.Top),
		Max: image.Pt(r.Max.X-s.Right, r.Max.Y-s.Bottom),
	}
	if inner.Empty() {
		return image.Rectangle{}
	}
	return inner
}

// Apply returns a copy of img, rebased to the origin, with the same width and
// height. The content is resized (not cropped) to the inset area and
// composited at (Left, Top) over a solid fill of s.Color.
//
// An image whose inset area is empty comes back as solid fill.
func (s Spec) Apply(img image.Image) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if s.IsZero() {
		return imaging.Clone(img)
	}

	out := imaging.New(w, h, s.Color)
	innerW, innerH := w-s.Horizontal(), h-s.Vertical()
	if innerW <= 0 || innerH <= 0 {
		return out
	}

	content := imaging.Resize(img, innerW, innerH, imaging.Lanczos)
	draw.Draw(out, image.Rect(s.Left, s.Top, s.Left+innerW, s.Top+innerH), content, image.Point{}, draw.Src)
	return out
}

// Frame paints the four border strips of bounds onto dst with s.Color. The
// area inside Inset(bounds) is left untouched.
func (s Spec) Frame(dst draw.Image, bounds image.Rectangle) {
	if s.IsZero() {
		return
	}
	fill := image.NewUniform(s.Color)
	inner := s.Inset(bounds)
	if inner.Empty() {
		draw.Draw(dst, bounds, fill, image.Point{}, draw.Src)
		return
	}
	strips := []image.Rectangle{
		image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, inner.Min.Y), // top
		image.Rect(bounds.Min.X, inner.Max.Y, bounds.Max.X, bounds.Max.Y), // bottom
		image.Rect(bounds.Min.X, inner.Min.Y, inner.Min.X, inner.Max.Y),   // left
		image.Rect(inner.Max.X, inner.Min.Y, bounds.Max.X, inner.Max.Y),   // right
	}
	for _, r := range strips {
		r = r.Intersect(bounds)
		if r.Empty() {
			continue
		}
		draw.Draw(dst, r, fill, image.Point{}, draw.Src)
	}
}
