// Package occupancy records which rectangles of a canvas are already filled
// and answers the scan-line queries the packer needs: where the free
// frontier of a column lies and how far a new placement may extend before it
// runs into an existing one.
//
// # Complexity
//
// Every query is a linear scan over the working set. One generation places
// at most a few hundred images, so a slice is the simplest structure that is
// fast enough. Grids with thousands of cells would want an interval tree or a
// sorted skyline; either can replace the slice behind the same methods.
package occupancy

import "image"

// Tracker is the occupancy working set of one generation.
//
// Records are insertion-ordered and never removed. Tracker does not validate
// what it records: the packer is the only caller of Record and only records
// rectangles that lie inside Bounds and overlap nothing.
//
// A Tracker is not safe for concurrent use; every generation owns its own.
type Tracker struct {
	bounds  image.Rectangle
	records []image.Rectangle
}

// New creates an empty tracker over the packing area bounds (the canvas
// minus its border).
func New(bounds image.Rectangle) *Tracker {
	return &Tracker{bounds: bounds.Canon()}
}

// Bounds returns the packing area.
func (t *Tracker) Bounds() image.Rectangle { return t.bounds }

// Len returns the number of recorded rectangles.
func (t *Tracker) Len() int { return len(t.records) }

// Records returns a copy of the working set in insertion order.
func (t *Tracker) Records() []image.Rectangle {
	out := make([]image.Rectangle, len(t.records))
	copy(out, t.records)
	return out
}

// Record appends r to the working set.
func (t *Tracker) Record(r image.Rectangle) {
	t.records = append(t.records, r)
}

// IsOccupied reports whether (x, y) lies inside any recorded rectangle.
func (t *Tracker) IsOccupied(x, y int) bool {
	p := image.Pt(x, y)
	for _, r := range t.records {
		if p.In(r) {
			return true
		}
	}
	return false
}

// NextFreeY returns the smallest y at or below the top of the packing area
// such that (x, y) is not covered by any record. Gaps left beneath a wide
// placement are found before the area under the lowest record.
//
// The result is Bounds().Max.Y when the column is full.
func (t *Tracker) NextFreeY(x int) int {
	y := t.bounds.Min.Y
	for moved := true; moved && y < t.bounds.Max.Y; {
		moved = false
		for _, r := range t.records {
			if x >= r.Min.X && x < r.Max.X && y >= r.Min.Y && y < r.Max.Y {
				y = r.Max.Y
				moved = true
			}
		}
	}
	if y > t.bounds.Max.Y {
		y = t.bounds.Max.Y
	}
	return y
}

// NearestHorizontalLimit returns the left edge of the closest record that
// covers row y and starts at or right of x. With no such record the right
// edge of the packing area is returned.
func (t *Tracker) NearestHorizontalLimit(x, y int) int {
	limit := t.bounds.Max.X
	for _, r := range t.records {
		if y < r.Min.Y || y >= r.Max.Y {
			continue
		}
		if r.Min.X >= x && r.Min.X < limit {
			limit = r.Min.X
		}
	}
	return limit
}

// NearestVerticalLimit returns the top edge of the closest record that
// overlaps columns [x0, x1) and starts at or below y. With no such record the
// bottom edge of the packing area is returned.
//
// Together with NearestHorizontalLimit it bounds a box anchored at a free
// (x, y) that no record intersects.
func (t *Tracker) NearestVerticalLimit(x0, x1, y int) int {
	limit := t.bounds.Max.Y
	for _, r := range t.records {
		if r.Max.X <= x0 || r.Min.X >= x1 {
			continue
		}
		if r.Min.Y >= y && r.Min.Y < limit {
			limit = r.Min.Y
		}
	}
	return limit
}

// Overlaps reports whether r intersects any record.
func (t *Tracker) Overlaps(r image.Rectangle) bool {
	for _, rec := range t.records {
		if rec.Overlaps(r) {
			return true
		}
	}
	return false
}

// Coverage returns the fraction of the packing area covered by records.
// Records never overlap, so their areas add.
func (t *Tracker) Coverage() float64 {
	total := t.bounds.Dx() * t.bounds.Dy()
	if total <= 0 {
		return 0
	}
	filled := 0
	for _, r := range t.records {
		filled += r.Dx() * r.Dy()
	}
	return float64(filled) / float64(total)
}
