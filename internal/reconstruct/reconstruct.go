// Package reconstruct removes regions from a photograph and fills the
// resulting holes. The fill is chosen per request: solid white, the
// profiled background colour, or one of two diffusion inpaints for textured
// backgrounds, with the auto strategy deferring to the background
// profiler's uniformity verdict.
package reconstruct

import (
	"errors"
	"fmt"
	"image"

	"github.com/plateworks/cleanplate/internal/bgprofile"
	"github.com/plateworks/cleanplate/internal/imgutil"
	"github.com/plateworks/cleanplate/internal/inpaint"
	"github.com/plateworks/cleanplate/internal/raster"
)

// ErrNoValidPolygons is returned when every outline in a removal batch has
// fewer than three points. A partially invalid batch is not an error:
// invalid outlines are skipped and reported as warnings.
var ErrNoValidPolygons = errors.New("no valid polygons in batch")

// Strategy selects how removal holes are filled.
type Strategy int

const (
	// StrategyAuto fills with the detected background colour when the
	// profiler judges the background uniform, and white otherwise.
	StrategyAuto Strategy = iota
	// StrategyForceWhite always fills with pure white.
	StrategyForceWhite
	// StrategyForceDetected always fills with the profiled colour
	// (snapped to pure white when the colour is near-white).
	StrategyForceDetected
	// StrategyDiffusionA inpaints by fast marching (Telea-style).
	StrategyDiffusionA
	// StrategyDiffusionB inpaints by iterative diffusion (NS-style).
	StrategyDiffusionB
)

var strategyNames = map[Strategy]string{
	StrategyAuto:          "auto",
	StrategyForceWhite:    "forceWhite",
	StrategyForceDetected: "forceDetected",
	StrategyDiffusionA:    "diffusionA",
	StrategyDiffusionB:    "diffusionB",
}

func (s Strategy) String() string {
	if n, ok := strategyNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy maps a strategy name to its value. The short aliases the
// upstream service historically used (white, detected, telea, ns) are
// accepted alongside the canonical names.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "auto", "":
		return StrategyAuto, nil
	case "forceWhite", "white":
		return StrategyForceWhite, nil
	case "forceDetected", "detected":
		return StrategyForceDetected, nil
	case "diffusionA", "telea":
		return StrategyDiffusionA, nil
	case "diffusionB", "ns":
		return StrategyDiffusionB, nil
	}
	return StrategyAuto, fmt.Errorf("unknown fill strategy %q", name)
}

// Defaults for the removal radii, matching the upstream service.
const (
	DefaultDilateRadius    = 5
	DefaultDiffusionRadius = 5
)

// Options configures one removal request. The zero value uses the default
// radii and the auto strategy.
type Options struct {
	Strategy Strategy
	// DilateRadius is the side of the square kernel grown around the
	// combined removal mask, absorbing the anti-aliased fringe the
	// segmentation leaves at object edges. nil uses DefaultDilateRadius;
	// an explicit 0 disables the dilation, removing exactly the outlined
	// pixels.
	DilateRadius *int
	// DiffusionRadius is the neighbourhood radius used by the diffusion
	// strategies; the solid-fill strategies ignore it.
	DiffusionRadius int
}

func (o Options) dilateRadius() int {
	if o.DilateRadius == nil {
		return DefaultDilateRadius
	}
	if *o.DilateRadius < 0 {
		return 0
	}
	return *o.DilateRadius
}

func (o Options) diffusionRadius() int {
	if o.DiffusionRadius > 0 {
		return o.DiffusionRadius
	}
	return DefaultDiffusionRadius
}

// Result carries a removal's output image plus the profiling verdict and
// any per-polygon warnings accumulated along the way.
type Result struct {
	Image    *image.NRGBA
	Verdict  bgprofile.Verdict
	Warnings []string
}

// RemoveRegions erases the outlined regions from img and fills the holes
// per the options. The output always has the source's dimensions and the
// source is never mutated. Outlines with fewer than three points are
// skipped with a warning; when every outline is invalid the call fails with
// ErrNoValidPolygons.
//
// Steps:
//  1. rasterize each valid outline and union the masks;
//  2. dilate the union by the removal radius;
//  3. profile the background, excluding the dilated mask;
//  4. fill per strategy.
func RemoveRegions(img image.Image, polys []raster.Polygon, opts Options, prof *bgprofile.Profiler) (Result, error) {
	if prof == nil {
		prof = &bgprofile.Profiler{}
	}
	src := imgutil.AsNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()

	var warnings []string
	combined := raster.NewMask(w, h)
	valid := 0
	for i, p := range polys {
		m, err := raster.FillPolygon(p.Clamp(w, h), w, h)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("polygon %d: fewer than 3 points, skipped", i))
			continue
		}
		combined.Union(m)
		valid++
	}
	if valid == 0 {
		return Result{Warnings: warnings}, ErrNoValidPolygons
	}

	dilated := raster.DilateRect(combined, opts.dilateRadius(), 1)
	verdict := prof.Profile(src, dilated)

	out := imgutil.CloneNRGBA(src)
	switch resolveStrategy(opts.Strategy, verdict) {
	case StrategyForceWhite:
		fillSolid(out, dilated, bgprofile.RGB{R: 255, G: 255, B: 255})
	case StrategyForceDetected:
		c := verdict.Color
		if prof.NearWhite(c) {
			c = bgprofile.RGB{R: 255, G: 255, B: 255}
		}
		fillSolid(out, dilated, c)
	case StrategyDiffusionA:
		inpaint.FastMarch(out, dilated, opts.diffusionRadius())
	case StrategyDiffusionB:
		inpaint.Diffuse(out, dilated, opts.diffusionRadius())
	}

	return Result{Image: out, Verdict: verdict, Warnings: warnings}, nil
}

// resolveStrategy collapses auto onto a concrete fill using the verdict.
func resolveStrategy(s Strategy, v bgprofile.Verdict) Strategy {
	if s != StrategyAuto {
		return s
	}
	if v.Uniform {
		return StrategyForceDetected
	}
	return StrategyForceWhite
}

// fillSolid paints every masked pixel with the given colour, opaque.
func fillSolid(img *image.NRGBA, m *raster.Mask, c bgprofile.RGB) {
	for i, v := range m.Pix {
		if v == 0 {
			continue
		}
		o := i * 4
		img.Pix[o] = c.R
		img.Pix[o+1] = c.G
		img.Pix[o+2] = c.B
		img.Pix[o+3] = 0xFF
	}
}
