package raster

// Boundary tracing turns a mask back into an outline. Only outer boundaries
// are traced: holes inside a component are ignored, matching what the
// downstream cutout and removal stages need (they re-rasterize the outline,
// which refills any hole anyway).

// traceStepMargin pads the Moore walk's step cap of 4·W·H (a closed outer
// boundary is always shorter) so single-pixel masks still get a full scan.
const traceStepMargin = 8

// Clockwise 8-neighbourhood starting east: E, SE, S, SW, W, NW, N, NE.
var (
	mooreDX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	mooreDY = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
)

// TraceBoundary returns the ordered outer boundary of the largest foreground
// component, as pixel coordinates in walk order. Collinear runs are
// compressed. Winding order is an artefact of the walk and callers must not
// rely on it. An all-background mask yields a nil polygon, not an error.
//
// Algorithm:
//  1. Label 8-connected components with a row-major scan + flood fill,
//     recording each component's first pixel (its topmost-leftmost).
//  2. Moore-neighbour trace each component's outer boundary, starting at
//     that pixel with the backtrack on its western neighbour (guaranteed
//     background by the scan order) and stopping on Jacob's criterion:
//     the walk re-enters the start pixel with the original backtrack.
//  3. Keep the outline enclosing the greatest shoelace area.
func TraceBoundary(m *Mask) Polygon {
	if m == nil || m.W == 0 || m.H == 0 {
		return nil
	}
	starts := componentStarts(m)
	if len(starts) == 0 {
		return nil
	}

	var best Polygon
	bestArea := -1.0
	for _, s := range starts {
		poly := traceFrom(m, s)
		if a := poly.Area(); a > bestArea {
			best, bestArea = poly, a
		}
	}
	return best
}

// componentStarts returns the first-scanned pixel of every 8-connected
// foreground component, in row-major discovery order.
func componentStarts(m *Mask) []Point {
	w, h := m.W, m.H
	seen := make([]bool, w*h)
	var starts []Point
	var stack []int

	for i, v := range m.Pix {
		if v == 0 || seen[i] {
			continue
		}
		starts = append(starts, Point{X: i % w, Y: i / w})

		// Flood the component so later pixels of it are skipped.
		stack = append(stack[:0], i)
		seen[i] = true
		for len(stack) > 0 {
			j := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := j%w, j/w
			for d := 0; d < 8; d++ {
				nx, ny := x+mooreDX[d], y+mooreDY[d]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				n := ny*w + nx
				if m.Pix[n] != 0 && !seen[n] {
					seen[n] = true
					stack = append(stack, n)
				}
			}
		}
	}
	return starts
}

// traceFrom walks the outer boundary of the component containing start,
// which must be the component's topmost-leftmost pixel.
func traceFrom(m *Mask, start Point) Polygon {
	pts := make(Polygon, 0, 64)
	push := func(p Point) {
		n := len(pts)
		if n > 0 && pts[n-1] == p {
			return
		}
		if n >= 2 && straightRun(pts[n-2], pts[n-1], p) {
			pts = pts[:n-1] // middle point sits on the segment
		}
		pts = append(pts, p)
	}
	push(start)

	cur := start
	back := Point{X: start.X - 1, Y: start.Y} // western neighbour, background
	origin := back

	limit := m.W*m.H*4 + traceStepMargin
	for step := 0; step < limit; step++ {
		// Scan clockwise from the backtrack direction for the next
		// boundary pixel, carrying the last background neighbour examined
		// as the next backtrack.
		startDir := dirBetween(cur, back)
		next := cur
		found := false
		for k := 1; k <= 8; k++ {
			d := (startDir + k) % 8
			nx, ny := cur.X+mooreDX[d], cur.Y+mooreDY[d]
			if m.At(nx, ny) {
				next = Point{X: nx, Y: ny}
				pd := (startDir + k - 1) % 8
				back = Point{X: cur.X + mooreDX[pd], Y: cur.Y + mooreDY[pd]}
				found = true
				break
			}
		}
		if !found {
			break // isolated pixel
		}
		cur = next
		if cur == start && back == origin {
			break // full cycle (Jacob's criterion)
		}
		push(cur)
	}

	// Drop a duplicated closing point left by the walk, then compress
	// collinear runs across the implicit closing edge, which the push-time
	// check cannot see.
	if len(pts) >= 2 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	for len(pts) >= 3 && straightRun(pts[len(pts)-2], pts[len(pts)-1], pts[0]) {
		pts = pts[:len(pts)-1]
	}
	for len(pts) >= 3 && straightRun(pts[len(pts)-1], pts[0], pts[1]) {
		pts = pts[1:]
	}
	return pts
}

// straightRun reports whether b lies strictly between a and c on one
// straight segment. A zero cross product alone is not enough: the walk
// doubles back over a one-pixel-wide spike (a→b→a is "collinear" too) and
// the spike's tip must survive compression, so both steps must also point
// the same way.
func straightRun(a, b, c Point) bool {
	abx, aby := b.X-a.X, b.Y-a.Y
	bcx, bcy := c.X-b.X, c.Y-b.Y
	return abx*bcy-aby*bcx == 0 && abx*bcx+aby*bcy > 0
}

// dirBetween returns the neighbourhood index of b relative to a. The two
// points must be 8-adjacent.
func dirBetween(a, b Point) int {
	dx, dy := b.X-a.X, b.Y-a.Y
	for i := 0; i < 8; i++ {
		if mooreDX[i] == dx && mooreDY[i] == dy {
			return i
		}
	}
	return 0
}
