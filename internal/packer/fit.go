package packer

import "math"

// DefaultTolerance is the fractional size deviation below which a candidate
// is placed at its native size.
const DefaultTolerance = 0.5

// FitMode names the rule that produced a Fit.
type FitMode int

const (
	// FitNone means the region or the candidate is degenerate.
	FitNone FitMode = iota
	// FitNative keeps the candidate's own size.
	FitNative
	// FitWidth scales the candidate so its width equals the region width.
	FitWidth
	// FitHeight scales the candidate so its height equals the region height.
	FitHeight
	// FitFill scales and crops the candidate to exactly cover a grid cell.
	FitFill
)

func (m FitMode) String() string {
	switch m {
	case FitNative:
		return "native"
	case FitWidth:
		return "width"
	case FitHeight:
		return "height"
	case FitFill:
		return "fill"
	default:
		return "none"
	}
}

// Fit is the placed size chosen for a candidate.
type Fit struct {
	Width  int
	Height int
	Mode   FitMode
}

// Resized reports whether the candidate's pixels need resampling.
func (f Fit) Resized(w, h int) bool {
	return f.Width != w || f.Height != h
}

// FitSize decides the size a w × h candidate takes in a free rw × rh region.
//
// The deviation on each axis is |region - candidate| / region. A candidate
// whose deviation on both axes is below tolerance, and that does not
// overflow the region, keeps its size.
//
// Otherwise the candidate is scaled with its aspect ratio preserved. The
// width-constrained fit takes precedence: it is tried first whenever the
// width deviates by at least tolerance, regardless of the height. The
// height-constrained fit is tried first only when the width is within
// tolerance. Whichever fit is tried first, if its other dimension would
// overflow the region the opposite fit is used instead, so the result is
// always the largest proportional size that fits. A native-sized candidate
// that overflows is fit to its tighter axis.
//
// The result never exceeds the region and is at least 1 × 1. Degenerate
// inputs return FitNone.
func FitSize(w, h, rw, rh int, tolerance float64) Fit {
	if w <= 0 || h <= 0 || rw <= 0 || rh <= 0 {
		return Fit{Mode: FitNone}
	}

	devW := math.Abs(float64(rw-w)) / float64(rw)
	devH := math.Abs(float64(rh-h)) / float64(rh)

	byWidth := func() (Fit, bool) {
		fh := scaleDim(h, rw, w)
		return Fit{Width: rw, Height: fh, Mode: FitWidth}, fh <= rh
	}
	byHeight := func() (Fit, bool) {
		fw := scaleDim(w, rh, h)
		return Fit{Width: fw, Height: rh, Mode: FitHeight}, fw <= rw
	}

	switch {
	case devW >= tolerance:
		if f, ok := byWidth(); ok {
			return f
		}
		f, _ := byHeight()
		return f
	case devH >= tolerance:
		if f, ok := byHeight(); ok {
			return f
		}
		f, _ := byWidth()
		return f
	case w > rw || h > rh:
		if float64(rw)/float64(w) <= float64(rh)/float64(h) {
			f, _ := byWidth()
			return f
		}
		f, _ := byHeight()
		return f
	default:
		return Fit{Width: w, Height: h, Mode: FitNative}
	}
}

// scaleDim returns round(v * num / den), at least 1.
func scaleDim(v, num, den int) int {
	s := int(math.Round(float64(v) * float64(num) / float64(den)))
	if s < 1 {
		return 1
	}
	return s
}
