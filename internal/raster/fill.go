package raster

import (
	"math"
	"sort"
)

// fill implements even-odd scanline rasterization. The even-odd rule was
// chosen over non-zero winding because upstream outlines are simple (possibly
// concave, never self-intersecting) and even-odd keeps the span computation a
// plain sort-and-pair pass.

// FillPolygon rasterizes the outline onto a w×h canvas and returns the
// resulting mask: foreground inside the polygon, boundary pixels included.
// Concave outlines are handled by the scanline rule itself; no convexity
// hint is consulted.
//
// Algorithm:
//  1. For each scanline y, intersect every non-horizontal edge with the
//     line, treating each edge as half-open in y so shared vertices count
//     once.
//  2. Sort the intersection xs and fill pixels between successive pairs.
//  3. Stamp the outline edges so boundary pixels are always foreground,
//     including horizontal edges skipped by step 1 and spans thinner than
//     one pixel.
//
// Returns ErrInvalidPolygon when the outline has fewer than three points.
func FillPolygon(p Polygon, w, h int) (*Mask, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	m := NewMask(w, h)
	if m.W == 0 {
		return m, nil
	}

	// Restrict the scan to the rows the outline can touch.
	box := p.BoundingBox()
	yMin, yMax := box.Min.Y, box.Max.Y-1
	if yMin < 0 {
		yMin = 0
	}
	if yMax > h-1 {
		yMax = h - 1
	}

	xs := make([]float64, 0, len(p))
	for y := yMin; y <= yMax; y++ {
		xs = xs[:0]
		fy := float64(y)
		for i, a := range p {
			b := p[(i+1)%len(p)]
			y1, y2 := float64(a.Y), float64(b.Y)
			if y1 == y2 {
				continue // horizontal edges are stamped in step 3
			}
			// Half-open span [min(y1,y2), max(y1,y2)) so a vertex shared
			// by two edges produces exactly one crossing.
			if (y1 <= fy && fy < y2) || (y2 <= fy && fy < y1) {
				t := (fy - y1) / (y2 - y1)
				xs = append(xs, float64(a.X)+t*float64(b.X-a.X))
			}
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			x1 := int(math.Ceil(xs[i]))
			x2 := int(math.Floor(xs[i+1]))
			if x1 < 0 {
				x1 = 0
			}
			if x2 > w-1 {
				x2 = w - 1
			}
			row := m.Pix[y*w:]
			for x := x1; x <= x2; x++ {
				row[x] = Foreground
			}
		}
	}

	// Step 3: outline pixels are part of the region.
	for i, a := range p {
		b := p[(i+1)%len(p)]
		stampLine(m, a.X, a.Y, b.X, b.Y)
	}
	return m, nil
}

// stampLine marks every pixel on the segment from (x1,y1) to (x2,y2) using
// Bresenham's algorithm. Out-of-bounds pixels are dropped by Mask.Set.
func stampLine(m *Mask, x1, y1, x2, y2 int) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx + dy
	for {
		m.Set(x1, y1)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
