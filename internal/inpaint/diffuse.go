package inpaint

import (
	"image"

	"github.com/plateworks/cleanplate/internal/raster"
)

// Diffusion parameters. Iterations scale with the radius so wider holes get
// proportionally more smoothing passes; convergence usually stops the loop
// well before the cap.
const (
	diffuseIterationsPerRadius = 30
	diffuseConvergenceDelta    = 0.5
)

// Diffuse fills the masked region in place by isotropic diffusion: the hole
// is first seeded layer by layer from its rim (onion peel), then repeatedly
// relaxed toward the average of each pixel's 4-neighbours until the largest
// per-channel change in a pass drops below the convergence delta. Smoother
// than FastMarch but blurs structure; kept for backgrounds where the
// fast-marching fill leaves directional streaks.
//
// radius values below 1 are treated as 1. An empty mask is a no-op.
func Diffuse(img *image.NRGBA, m *raster.Mask, radius int) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if m == nil || m.W != w || m.H != h || m.Empty() {
		return
	}
	if radius < 1 {
		radius = 1
	}

	hole := seedOnionPeel(img, m)
	if len(hole) == 0 {
		return
	}

	// Relaxation over float buffers; only hole pixels move.
	rf := make([]float64, w*h)
	gf := make([]float64, w*h)
	bf := make([]float64, w*h)
	for i := 0; i < w*h; i++ {
		rf[i] = float64(img.Pix[i*4])
		gf[i] = float64(img.Pix[i*4+1])
		bf[i] = float64(img.Pix[i*4+2])
	}

	maxIter := diffuseIterationsPerRadius * radius
	for iter := 0; iter < maxIter; iter++ {
		maxDelta := 0.0
		for _, i := range hole {
			x, y := i%w, i/w
			var sr, sg, sb float64
			n := 0
			for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				sr += rf[j]
				sg += gf[j]
				sb += bf[j]
				n++
			}
			if n == 0 {
				continue
			}
			nr, ng, nb := sr/float64(n), sg/float64(n), sb/float64(n)
			if d := absf(nr - rf[i]); d > maxDelta {
				maxDelta = d
			}
			if d := absf(ng - gf[i]); d > maxDelta {
				maxDelta = d
			}
			if d := absf(nb - bf[i]); d > maxDelta {
				maxDelta = d
			}
			rf[i], gf[i], bf[i] = nr, ng, nb
		}
		if maxDelta < diffuseConvergenceDelta {
			break
		}
	}

	for _, i := range hole {
		img.Pix[i*4] = clamp8(rf[i])
		img.Pix[i*4+1] = clamp8(gf[i])
		img.Pix[i*4+2] = clamp8(bf[i])
		img.Pix[i*4+3] = 0xFF
	}
}

// seedOnionPeel initialises every hole pixel with the average of its already
// known 4-neighbours, peeling the hole from the rim inward so each layer has
// donors. Returns the hole pixel indices in peel order, which is also a good
// relaxation order. A hole with no known neighbours anywhere (mask covers
// the whole image) seeds to mid-grey.
func seedOnionPeel(img *image.NRGBA, m *raster.Mask) []int {
	w, h := m.W, m.H
	unknown := make([]bool, w*h)
	remaining := 0
	for i, v := range m.Pix {
		if v != 0 {
			unknown[i] = true
			remaining++
		}
	}

	order := make([]int, 0, remaining)
	for remaining > 0 {
		var layer []int
		for i, u := range unknown {
			if !u {
				continue
			}
			x, y := i%w, i/w
			var sr, sg, sb float64
			n := 0
			for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if unknown[j] {
					continue
				}
				o := j * 4
				sr += float64(img.Pix[o])
				sg += float64(img.Pix[o+1])
				sb += float64(img.Pix[o+2])
				n++
			}
			if n == 0 {
				continue
			}
			o := i * 4
			img.Pix[o] = clamp8(sr / float64(n))
			img.Pix[o+1] = clamp8(sg / float64(n))
			img.Pix[o+2] = clamp8(sb / float64(n))
			img.Pix[o+3] = 0xFF
			layer = append(layer, i)
		}
		if len(layer) == 0 {
			// Nothing known anywhere: seed the rest to mid-grey.
			for i, u := range unknown {
				if !u {
					continue
				}
				o := i * 4
				img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = 128, 128, 128, 0xFF
				order = append(order, i)
			}
			return order
		}
		for _, i := range layer {
			unknown[i] = false
		}
		order = append(order, layer...)
		remaining -= len(layer)
	}
	return order
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
