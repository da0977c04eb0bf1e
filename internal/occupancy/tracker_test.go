package occupancy

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Empty(t *testing.T) {
	tr := New(image.Rect(10, 20, 110, 220))

	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, 20, tr.NextFreeY(50), "frontier starts at the top of the packing area")
	assert.Equal(t, 110, tr.NearestHorizontalLimit(10, 20))
	assert.Equal(t, 220, tr.NearestVerticalLimit(10, 110, 20))
	assert.False(t, tr.IsOccupied(10, 20))
}

func TestNextFreeY_StacksRecords(t *testing.T) {
	tr := New(image.Rect(0, 0, 100, 100))
	tr.Record(image.Rect(0, 0, 50, 30))
	tr.Record(image.Rect(0, 30, 20, 45))

	assert.Equal(t, 45, tr.NextFreeY(0))
	assert.Equal(t, 45, tr.NextFreeY(19))
	assert.Equal(t, 30, tr.NextFreeY(20))
	assert.Equal(t, 30, tr.NextFreeY(49))
	assert.Equal(t, 0, tr.NextFreeY(50), "half-open: x=50 is outside [0,50)")
}

func TestNextFreeY_FindsGapBeneathRecord(t *testing.T) {
	tr := New(image.Rect(0, 0, 100, 100))
	tr.Record(image.Rect(0, 0, 10, 20))
	// A wide placement that left a gap under column 5 between y=20 and y=40.
	tr.Record(image.Rect(0, 40, 30, 60))

	assert.Equal(t, 20, tr.NextFreeY(5))
	assert.Equal(t, 0, tr.NextFreeY(15))
}

func TestNextFreeY_FullColumn(t *testing.T) {
	tr := New(image.Rect(0, 0, 10, 10))
	tr.Record(image.Rect(0, 0, 10, 10))

	assert.Equal(t, 10, tr.NextFreeY(3))
}

func TestNearestHorizontalLimit(t *testing.T) {
	tr := New(image.Rect(0, 0, 200, 100))
	tr.Record(image.Rect(120, 0, 150, 50))
	tr.Record(image.Rect(80, 10, 100, 20))
	tr.Record(image.Rect(10, 0, 40, 50)) // left of x, ignored

	assert.Equal(t, 120, tr.NearestHorizontalLimit(50, 5), "row 5 only crosses the record at 120")
	assert.Equal(t, 80, tr.NearestHorizontalLimit(50, 15))
	assert.Equal(t, 80, tr.NearestHorizontalLimit(80, 15), "a record starting at x is a limit")
	assert.Equal(t, 200, tr.NearestHorizontalLimit(50, 60), "no record crosses row 60")
}

func TestNearestVerticalLimit(t *testing.T) {
	tr := New(image.Rect(0, 0, 100, 100))
	tr.Record(image.Rect(0, 0, 100, 10))
	tr.Record(image.Rect(30, 50, 60, 70))
	tr.Record(image.Rect(70, 40, 90, 45))

	assert.Equal(t, 50, tr.NearestVerticalLimit(0, 50, 10))
	assert.Equal(t, 40, tr.NearestVerticalLimit(0, 100, 10))
	assert.Equal(t, 100, tr.NearestVerticalLimit(0, 30, 10), "x1 is exclusive")
	assert.Equal(t, 100, tr.NearestVerticalLimit(60, 70, 10), "records touching the column span do not count")
}

func TestIsOccupied_HalfOpen(t *testing.T) {
	tr := New(image.Rect(0, 0, 100, 100))
	tr.Record(image.Rect(10, 10, 20, 20))

	assert.True(t, tr.IsOccupied(10, 10))
	assert.True(t, tr.IsOccupied(19, 19))
	assert.False(t, tr.IsOccupied(20, 10))
	assert.False(t, tr.IsOccupied(10, 20))
	assert.False(t, tr.IsOccupied(9, 15))
}

func TestFreeBoxIsEmpty(t *testing.T) {
	tr := New(image.Rect(0, 0, 300, 300))
	for _, r := range []image.Rectangle{
		image.Rect(0, 0, 120, 40),
		image.Rect(120, 0, 300, 90),
		image.Rect(0, 60, 120, 100), // leaves a gap [0,120)x[40,60)
		image.Rect(50, 150, 70, 160),
	} {
		require.False(t, tr.Overlaps(r))
		tr.Record(r)
	}

	for x := 0; x < 300; x += 7 {
		y := tr.NextFreeY(x)
		if y >= 300 || tr.IsOccupied(x, y) {
			continue
		}
		w := tr.NearestHorizontalLimit(x, y) - x
		h := tr.NearestVerticalLimit(x, x+w, y) - y
		require.Positive(t, w)
		require.Positive(t, h)
		box := image.Rect(x, y, x+w, y+h)
		assert.False(t, tr.Overlaps(box), "free box %v at column %d overlaps a record", box, x)
		assert.True(t, box.In(tr.Bounds()))
	}
}

func TestRecords_IsCopy(t *testing.T) {
	tr := New(image.Rect(0, 0, 10, 10))
	tr.Record(image.Rect(0, 0, 5, 5))

	recs := tr.Records()
	recs[0] = image.Rect(1, 1, 2, 2)

	assert.Equal(t, image.Rect(0, 0, 5, 5), tr.Records()[0])
}

func TestCoverage(t *testing.T) {
	tr := New(image.Rect(0, 0, 10, 10))
	assert.Zero(t, tr.Coverage())

	tr.Record(image.Rect(0, 0, 5, 10))
	assert.InDelta(t, 0.5, tr.Coverage(), 1e-9)

	assert.Zero(t, New(image.Rectangle{}).Coverage())
}
