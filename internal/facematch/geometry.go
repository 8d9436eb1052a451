package facematch

import (
	"cmp"
	"slices"

	"github.com/kozaktomas/face-finder/internal/database"
)

// ClampBBox converts a detector bounding box [x1, y1, x2, y2] in pixels to an
// integer x/y/w/h box clipped to a width x height image. Coordinates are
// truncated toward zero before clamping. Returns false for malformed input.
func ClampBBox(bbox []float64, width, height int) (database.BBox, bool) {
	if len(bbox) != 4 || width <= 0 || height <= 0 {
		return database.BBox{}, false
	}

	x1 := max(0, int(bbox[0]))
	y1 := max(0, int(bbox[1]))
	x2 := min(width, int(bbox[2]))
	y2 := min(height, int(bbox[3]))
	if x2 < x1 || y2 < y1 {
		return database.BBox{X: x1, Y: y1}, true
	}

	return database.BBox{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}, true
}

// IsTooSmall reports whether either side of b is under minSize pixels.
func IsTooSmall(b database.BBox, minSize int) bool {
	return b.W < minSize || b.H < minSize
}

// SortLeftToRight orders items by the x coordinate of their box, stable for equal x.
func SortLeftToRight[T any](items []T, box func(T) database.BBox) {
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(box(a).X, box(b).X)
	})
}
