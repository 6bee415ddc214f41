package raster

import (
	"errors"
	"image"
	"math"
)

// ErrInvalidPolygon is returned when an outline has fewer than three points
// and therefore encloses no area.
var ErrInvalidPolygon = errors.New("polygon must have at least 3 points")

// Point is an integer pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Polygon is an ordered outline of pixel coordinates. The outline is
// implicitly closed: the last point connects back to the first. Winding
// order is not specified; both orientations are accepted everywhere.
type Polygon []Point

// Validate reports ErrInvalidPolygon when the outline has fewer than three
// points.
func (p Polygon) Validate() error {
	if len(p) < 3 {
		return ErrInvalidPolygon
	}
	return nil
}

// BoundingBox returns the smallest rectangle containing every vertex. The
// rectangle follows the image.Rectangle convention (Max is exclusive), so a
// polygon whose vertices span x∈[2,7] yields Min.X=2, Max.X=8. An empty
// polygon yields the zero rectangle.
func (p Polygon) BoundingBox() image.Rectangle {
	if len(p) == 0 {
		return image.Rectangle{}
	}
	minX, minY := p[0].X, p[0].Y
	maxX, maxY := p[0].X, p[0].Y
	for _, pt := range p[1:] {
		if pt.X < minX {
			minX = pt.X
		}
		if pt.X > maxX {
			maxX = pt.X
		}
		if pt.Y < minY {
			minY = pt.Y
		}
		if pt.Y > maxY {
			maxY = pt.Y
		}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// Clamp returns a copy of the polygon with every vertex clamped to
// [0, w-1] × [0, h-1].
func (p Polygon) Clamp(w, h int) Polygon {
	out := make(Polygon, len(p))
	for i, pt := range p {
		x, y := pt.X, pt.Y
		if x < 0 {
			x = 0
		}
		if x > w-1 {
			x = w - 1
		}
		if y < 0 {
			y = 0
		}
		if y > h-1 {
			y = h - 1
		}
		out[i] = Point{X: x, Y: y}
	}
	return out
}

// Area returns the polygon's enclosed area by the shoelace formula,
// independent of winding order. Degenerate outlines (fewer than three
// points) have zero area.
func (p Polygon) Area() float64 {
	if len(p) < 3 {
		return 0
	}
	sum := 0.0
	for i, a := range p {
		b := p[(i+1)%len(p)]
		sum += float64(a.X)*float64(b.Y) - float64(b.X)*float64(a.Y)
	}
	return math.Abs(sum) / 2
}
