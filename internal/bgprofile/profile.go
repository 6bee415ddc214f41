// Package bgprofile decides whether a photograph sits on a statistically
// uniform background and what that background's colour is. The removal
// pipeline consults the verdict to choose between solid fills and diffusion
// fills. Profiling never fails: when nothing can be sampled it degrades to a
// safe white/non-uniform verdict, because reconstruction should always
// produce something displayable.
package bgprofile

import (
	"image"
	"image/color"

	"gonum.org/v1/gonum/stat"

	"github.com/plateworks/cleanplate/internal/imgutil"
	"github.com/plateworks/cleanplate/internal/raster"
)

// Sampling defaults. The variance and white thresholds are empirical; they
// are exposed through Profiler (and the tuning config) rather than treated
// as load-bearing invariants.
const (
	DefaultSampleRatio             = 0.05
	DefaultVarianceThreshold       = 25.0
	DefaultWhiteThreshold          = 240
	DefaultMinSamples              = 100
	DefaultCornerScale             = 3
	DefaultExcludeDilateRadius     = 7 // 15×15 disc
	DefaultExcludeDilateIterations = 2

	// fallbackVariance is reported when not a single pixel could be
	// sampled, so callers treating variance as a confidence signal see an
	// obviously hopeless value.
	fallbackVariance = 999.0
)

// RGB is an 8-bit colour triple.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// NRGBA returns the colour as an opaque color.NRGBA.
func (c RGB) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xFF}
}

// Verdict is the profiler's output: the representative background colour,
// whether the background is statistically uniform, and the mean per-channel
// variance that produced that call.
type Verdict struct {
	Color    RGB     `json:"color"`
	Uniform  bool    `json:"uniform"`
	Variance float64 `json:"variance"`
}

// Profiler samples a photograph's periphery. The zero value uses the
// package defaults; fields are only consulted when positive so a partially
// filled Profiler behaves sensibly.
type Profiler struct {
	SampleRatio             float64 // peripheral band width as a fraction of each dimension
	VarianceThreshold       float64 // mean per-channel variance below this is uniform
	WhiteThreshold          uint8   // every channel at or above this is near-white
	MinSamples              int     // fall back to corner blocks below this
	CornerScale             int     // corner blocks are this multiple of the margins
	ExcludeDilateRadius     int     // disc radius applied to the exclusion mask
	ExcludeDilateIterations int
}

func (p *Profiler) sampleRatio() float64 {
	if p.SampleRatio > 0 {
		return p.SampleRatio
	}
	return DefaultSampleRatio
}

func (p *Profiler) varianceThreshold() float64 {
	if p.VarianceThreshold > 0 {
		return p.VarianceThreshold
	}
	return DefaultVarianceThreshold
}

func (p *Profiler) whiteThreshold() uint8 {
	if p.WhiteThreshold > 0 {
		return p.WhiteThreshold
	}
	return DefaultWhiteThreshold
}

func (p *Profiler) minSamples() int {
	if p.MinSamples > 0 {
		return p.MinSamples
	}
	return DefaultMinSamples
}

func (p *Profiler) cornerScale() int {
	if p.CornerScale > 0 {
		return p.CornerScale
	}
	return DefaultCornerScale
}

func (p *Profiler) excludeDilate() (radius, iterations int) {
	radius, iterations = DefaultExcludeDilateRadius, DefaultExcludeDilateIterations
	if p.ExcludeDilateRadius > 0 {
		radius = p.ExcludeDilateRadius
	}
	if p.ExcludeDilateIterations > 0 {
		iterations = p.ExcludeDilateIterations
	}
	return radius, iterations
}

// NearWhite reports whether the verdict's colour clears the profiler's
// white threshold on every channel.
func (p *Profiler) NearWhite(c RGB) bool {
	t := p.whiteThreshold()
	return c.R >= t && c.G >= t && c.B >= t
}

// Profile samples the image's peripheral band and classifies the
// background. An optional exclusion mask marks pixels belonging to
// foreground objects; it is grown by the exclusion dilation before
// subtraction so object fringe near the border is never sampled.
//
// Sampling cascade:
//  1. the peripheral band minus the dilated exclusion mask;
//  2. below MinSamples usable pixels: the four corner blocks (CornerScale×
//     the margins), ignoring the exclusion mask;
//  3. still nothing (degenerate geometry): white, non-uniform, variance 999.
func (p *Profiler) Profile(img image.Image, exclude *raster.Mask) Verdict {
	rs, gs, bs := p.collectSamples(imgutil.AsNRGBA(img), exclude)
	return p.verdictFrom(rs, gs, bs)
}

// Samples returns the raw per-channel values the profiler would base its
// verdict on, for diagnostic tooling that wants the distribution rather
// than the summary.
func (p *Profiler) Samples(img image.Image, exclude *raster.Mask) (rs, gs, bs []float64) {
	return p.collectSamples(imgutil.AsNRGBA(img), exclude)
}

// verdictFrom summarises collected samples. The mean colour truncates to
// 8 bits; variance is the mean of the three per-channel population
// variances.
func (p *Profiler) verdictFrom(rs, gs, bs []float64) Verdict {
	if len(rs) == 0 {
		return Verdict{Color: RGB{255, 255, 255}, Uniform: false, Variance: fallbackVariance}
	}
	mr, vr := stat.PopMeanVariance(rs, nil)
	mg, vg := stat.PopMeanVariance(gs, nil)
	mb, vb := stat.PopMeanVariance(bs, nil)
	variance := (vr + vg + vb) / 3

	return Verdict{
		Color:    RGB{R: uint8(mr), G: uint8(mg), B: uint8(mb)},
		Uniform:  variance < p.varianceThreshold(),
		Variance: variance,
	}
}

// collectSamples runs the sampling cascade and returns the per-channel
// sample values. Empty slices mean even the corner fallback found nothing.
func (p *Profiler) collectSamples(src *image.NRGBA, exclude *raster.Mask) (rs, gs, bs []float64) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w < 1 || h < 1 {
		return nil, nil, nil
	}

	marginX := max(1, int(float64(w)*p.sampleRatio()))
	marginY := max(1, int(float64(h)*p.sampleRatio()))

	band := raster.NewMask(w, h)
	for y := 0; y < h; y++ {
		edgeRow := y < marginY || y >= h-marginY
		for x := 0; x < w; x++ {
			if edgeRow || x < marginX || x >= w-marginX {
				band.Set(x, y)
			}
		}
	}
	if exclude != nil && exclude.W == w && exclude.H == h {
		radius, iterations := p.excludeDilate()
		band.Subtract(raster.DilateDisk(exclude, radius, iterations))
	}

	rs, gs, bs = sampleWhere(src, band)
	if len(rs) < p.minSamples() {
		rs, gs, bs = sampleCorners(src, marginX*p.cornerScale(), marginY*p.cornerScale())
	}
	return rs, gs, bs
}

// sampleWhere collects the colour channels of every pixel set in the mask.
func sampleWhere(src *image.NRGBA, m *raster.Mask) (rs, gs, bs []float64) {
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			if !m.At(x, y) {
				continue
			}
			i := src.PixOffset(x, y)
			rs = append(rs, float64(src.Pix[i]))
			gs = append(gs, float64(src.Pix[i+1]))
			bs = append(bs, float64(src.Pix[i+2]))
		}
	}
	return rs, gs, bs
}

// sampleCorners collects the four corner blocks of the given size, clipped
// to the image.
func sampleCorners(src *image.NRGBA, blockW, blockH int) (rs, gs, bs []float64) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	blockW = min(blockW, w)
	blockH = min(blockH, h)

	grab := func(x0, y0, x1, y1 int) {
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				i := src.PixOffset(x, y)
				rs = append(rs, float64(src.Pix[i]))
				gs = append(gs, float64(src.Pix[i+1]))
				bs = append(bs, float64(src.Pix[i+2]))
			}
		}
	}
	grab(0, 0, blockW, blockH)
	grab(w-blockW, 0, w, blockH)
	grab(0, h-blockH, blockW, h)
	grab(w-blockW, h-blockH, w, h)
	return rs, gs, bs
}
