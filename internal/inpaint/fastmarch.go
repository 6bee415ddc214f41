// Package inpaint fills masked holes in an image by propagating the
// surrounding pixels inward. Two classical schemes are provided: a
// fast-marching fill in the manner of Telea's 2004 algorithm (FastMarch) and
// an iterative isotropic diffusion (Diffuse). Both are used by the removal
// pipeline for textured backgrounds where a solid fill would be visible.
package inpaint

import (
	"container/heap"
	"image"
	"math"

	"github.com/plateworks/cleanplate/internal/raster"
)

// Pixel states during the march.
const (
	stateKnown uint8 = iota // colour is trusted (original or already filled)
	stateBand               // on the advancing front, queued
	stateInside             // hole pixel, not yet reached
)

// farDistance initialises unreached hole pixels; any real travel time is
// smaller.
const farDistance = 1e6

// weightEpsilon keeps degenerate weights from zeroing a whole neighbourhood.
const weightEpsilon = 1e-6

// FastMarch fills the masked region in place by marching the hole boundary
// inward in distance order, colouring each pixel from the known pixels in a
// window of the given radius. The weighting favours donors that are close,
// in the propagation direction, and on the same level set, which continues
// linear structures into the hole far better than plain averaging.
//
// Steps:
//  1. Known pixels get distance 0. Hole pixels start far away. Known
//     pixels 4-adjacent to the hole form the initial band.
//  2. Repeatedly pop the nearest band pixel, fix its distance, and relax
//     its 4-neighbours: a hole neighbour gets its eikonal distance, its
//     colour, and a place in the band; a band neighbour with an improved
//     distance is re-queued.
//  3. Every filled pixel has at least its popped parent as donor, so the
//     fill always resolves.
//
// radius values below 1 are treated as 1. An empty mask is a no-op.
func FastMarch(img *image.NRGBA, m *raster.Mask, radius int) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if m == nil || m.W != w || m.H != h || m.Empty() {
		return
	}
	if radius < 1 {
		radius = 1
	}

	// Step 1: initial state, distances, and band.
	state := make([]uint8, w*h)
	dist := make([]float64, w*h)
	q := &pixelQueue{}
	for i, v := range m.Pix {
		if v != 0 {
			state[i] = stateInside
			dist[i] = farDistance
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if state[i] != stateKnown {
				continue
			}
			if isInside(state, w, h, x+1, y) || isInside(state, w, h, x-1, y) ||
				isInside(state, w, h, x, y+1) || isInside(state, w, h, x, y-1) {
				state[i] = stateBand
				heap.Push(q, pixelDist{index: i, dist: 0})
			}
		}
	}

	// Step 2: march.
	for q.Len() > 0 {
		p := heap.Pop(q).(pixelDist)
		i := p.index
		if state[i] == stateKnown || p.dist > dist[i] {
			continue // stale queue entry
		}
		state[i] = stateKnown
		x, y := i%w, i/w

		for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			nx, ny := x+d[0], y+d[1]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			n := ny*w + nx
			if state[n] == stateKnown {
				continue
			}
			t := eikonalUpdate(state, dist, w, h, nx, ny)
			if state[n] == stateInside {
				dist[n] = t
				fillPixel(img, state, dist, w, h, nx, ny, radius)
				state[n] = stateBand
				heap.Push(q, pixelDist{index: n, dist: t})
			} else if t < dist[n] {
				dist[n] = t
				heap.Push(q, pixelDist{index: n, dist: t})
			}
		}
	}
}

func isInside(state []uint8, w, h, x, y int) bool {
	if x < 0 || y < 0 || x >= w || y >= h {
		return false
	}
	return state[y*w+x] == stateInside
}

// eikonalUpdate solves |∇T| = 1 at (x, y) from the resolved horizontal and
// vertical neighbour distances.
func eikonalUpdate(state []uint8, dist []float64, w, h, x, y int) float64 {
	horiz := resolvedMin(state, dist, w, h, x-1, y, x+1, y)
	vert := resolvedMin(state, dist, w, h, x, y-1, x, y+1)
	switch {
	case horiz >= farDistance && vert >= farDistance:
		return farDistance
	case horiz >= farDistance:
		return vert + 1
	case vert >= farDistance:
		return horiz + 1
	}
	diff := horiz - vert
	if math.Abs(diff) >= 1 {
		return math.Min(horiz, vert) + 1
	}
	// Both axes constrain the front: quadratic solution.
	return (horiz + vert + math.Sqrt(2-diff*diff)) / 2
}

// resolvedMin returns the smaller distance of the two pixels, counting only
// pixels whose distance has been fixed or queued.
func resolvedMin(state []uint8, dist []float64, w, h, x1, y1, x2, y2 int) float64 {
	best := farDistance
	for _, c := range [2][2]int{{x1, y1}, {x2, y2}} {
		x, y := c[0], c[1]
		if x < 0 || y < 0 || x >= w || y >= h {
			continue
		}
		i := y*w + x
		if state[i] != stateInside && dist[i] < best {
			best = dist[i]
		}
	}
	return best
}

// fillPixel colours (x, y) from the colour-resolved pixels in the radius
// window, weighting each donor by direction, distance and level-set
// proximity.
func fillPixel(img *image.NRGBA, state []uint8, dist []float64, w, h, x, y, radius int) {
	gx, gy := distGradient(state, dist, w, h, x, y)

	var sumR, sumG, sumB, sumW float64
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			kx, ky := x+dx, y+dy
			if kx < 0 || ky < 0 || kx >= w || ky >= h {
				continue
			}
			k := ky*w + kx
			if state[k] == stateInside {
				continue // no colour yet
			}
			lenSq := float64(dx*dx + dy*dy)
			if lenSq > float64(radius*radius) {
				continue
			}
			length := math.Sqrt(lenSq)

			direction := (float64(dx)*gx + float64(dy)*gy) / length
			if direction < 0 {
				direction = -direction
			}
			if direction < weightEpsilon {
				direction = weightEpsilon
			}
			proximity := 1 / lenSq
			levelSet := 1 / (1 + math.Abs(dist[k]-dist[y*w+x]))

			wgt := direction * proximity * levelSet
			o := img.PixOffset(kx, ky)
			sumR += wgt * float64(img.Pix[o])
			sumG += wgt * float64(img.Pix[o+1])
			sumB += wgt * float64(img.Pix[o+2])
			sumW += wgt
		}
	}
	o := img.PixOffset(x, y)
	if sumW > 0 {
		img.Pix[o] = clamp8(sumR / sumW)
		img.Pix[o+1] = clamp8(sumG / sumW)
		img.Pix[o+2] = clamp8(sumB / sumW)
	}
	img.Pix[o+3] = 0xFF
}

// distGradient estimates ∇T at (x, y) by central differences, degrading to
// one-sided differences at the front.
func distGradient(state []uint8, dist []float64, w, h, x, y int) (gx, gy float64) {
	sample := func(sx, sy int) (float64, bool) {
		if sx < 0 || sy < 0 || sx >= w || sy >= h {
			return 0, false
		}
		i := sy*w + sx
		if state[i] == stateInside {
			return 0, false
		}
		return dist[i], true
	}
	here := dist[y*w+x]
	if prev, okP := sample(x-1, y); okP {
		if next, okN := sample(x+1, y); okN {
			gx = (next - prev) / 2
		} else {
			gx = here - prev
		}
	} else if next, okN := sample(x+1, y); okN {
		gx = next - here
	}
	if prev, okP := sample(x, y-1); okP {
		if next, okN := sample(x, y+1); okN {
			gy = (next - prev) / 2
		} else {
			gy = here - prev
		}
	} else if next, okN := sample(x, y+1); okN {
		gy = next - here
	}
	return gx, gy
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// pixelDist is a queue entry: a pixel index and its tentative distance.
type pixelDist struct {
	index int
	dist  float64
}

// pixelQueue is a min-heap of pixels ordered by distance.
type pixelQueue []pixelDist

func (q pixelQueue) Len() int            { return len(q) }
func (q pixelQueue) Less(i, j int) bool  { return q[i].dist < q[j].dist }
func (q pixelQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *pixelQueue) Push(x interface{}) { *q = append(*q, x.(pixelDist)) }
func (q *pixelQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
