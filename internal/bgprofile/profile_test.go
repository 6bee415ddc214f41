package bgprofile

import (
	"image"
	"image/color"
	"testing"

	"github.com/plateworks/cleanplate/internal/imgutil"
	"github.com/plateworks/cleanplate/internal/raster"
)

func fillBlock(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

func checkerboard(w, h, cell int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{A: 0xFF}
			if (x/cell+y/cell)%2 == 0 {
				c = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestProfile_UniformNearWhite(t *testing.T) {
	// Near-white canvas with a centred foreign block that never touches
	// the 5% border band.
	img := imgutil.NewFilled(200, 200, color.NRGBA{R: 240, G: 240, B: 240, A: 0xFF})
	fillBlock(img, 75, 75, 124, 124, color.NRGBA{R: 30, G: 60, B: 90, A: 0xFF})

	var p Profiler
	for _, exclude := range []*raster.Mask{nil, blockMask(200, 200, 75, 75, 124, 124)} {
		v := p.Profile(img, exclude)
		if !v.Uniform {
			t.Errorf("exclude=%v: expected uniform background, got variance %.2f", exclude != nil, v.Variance)
		}
		if v.Color != (RGB{240, 240, 240}) {
			t.Errorf("exclude=%v: expected colour (240,240,240), got %+v", exclude != nil, v.Color)
		}
		if !p.NearWhite(v.Color) {
			t.Errorf("exclude=%v: (240,240,240) should classify near-white", exclude != nil)
		}
	}
}

func blockMask(w, h, x0, y0, x1, y1 int) *raster.Mask {
	m := raster.NewMask(w, h)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			m.Set(x, y)
		}
	}
	return m
}

func TestProfile_Checkerboard(t *testing.T) {
	var p Profiler
	v := p.Profile(checkerboard(200, 200, 8), nil)
	if v.Uniform {
		t.Errorf("checkerboard should not be uniform (variance %.2f)", v.Variance)
	}
	if v.Variance <= DefaultVarianceThreshold {
		t.Errorf("expected variance far above threshold, got %.2f", v.Variance)
	}
}

func TestProfile_ExclusionUnskewsBorder(t *testing.T) {
	// A dark object overlapping the border contaminates the band unless it
	// is excluded (and grown past its fringe by the disc dilation).
	img := imgutil.NewFilled(200, 200, color.NRGBA{R: 240, G: 240, B: 240, A: 0xFF})
	fillBlock(img, 0, 0, 30, 30, color.NRGBA{A: 0xFF})

	var p Profiler
	if v := p.Profile(img, nil); v.Uniform {
		t.Errorf("contaminated band should not read uniform (variance %.2f)", v.Variance)
	}
	v := p.Profile(img, blockMask(200, 200, 0, 0, 30, 30))
	if !v.Uniform {
		t.Errorf("excluded object should leave a uniform band, got variance %.2f", v.Variance)
	}
	if v.Color != (RGB{240, 240, 240}) {
		t.Errorf("expected clean colour (240,240,240), got %+v", v.Color)
	}
}

func TestProfile_CornerFallback(t *testing.T) {
	// A 20×20 image has a 76-pixel band, under the 100-sample minimum, so
	// sampling falls back to the corner blocks.
	img := imgutil.NewFilled(20, 20, color.NRGBA{R: 100, G: 150, B: 200, A: 0xFF})

	var p Profiler
	v := p.Profile(img, nil)
	if v.Color != (RGB{100, 150, 200}) {
		t.Errorf("expected corner fallback colour (100,150,200), got %+v", v.Color)
	}
	if !v.Uniform {
		t.Errorf("solid image should be uniform, got variance %.2f", v.Variance)
	}
}

func TestProfile_DegenerateImage(t *testing.T) {
	var p Profiler
	v := p.Profile(image.NewNRGBA(image.Rect(0, 0, 0, 0)), nil)
	if v.Uniform || v.Variance != 999.0 || v.Color != (RGB{255, 255, 255}) {
		t.Errorf("expected the safe default verdict, got %+v", v)
	}
}

func TestProfile_MismatchedExclusionIgnored(t *testing.T) {
	img := imgutil.NewFilled(200, 200, color.NRGBA{R: 10, G: 20, B: 30, A: 0xFF})
	var p Profiler
	v := p.Profile(img, raster.NewMask(50, 50))
	if v.Color != (RGB{10, 20, 30}) || !v.Uniform {
		t.Errorf("mismatched exclusion mask should be ignored, got %+v", v)
	}
}

func TestNearWhite_Threshold(t *testing.T) {
	var p Profiler
	if !p.NearWhite(RGB{240, 240, 240}) {
		t.Error("(240,240,240) should be near-white at the default threshold")
	}
	if p.NearWhite(RGB{239, 255, 255}) {
		t.Error("one channel below threshold should not be near-white")
	}
	strict := Profiler{WhiteThreshold: 250}
	if strict.NearWhite(RGB{240, 240, 240}) {
		t.Error("raised threshold should reject (240,240,240)")
	}
}

func TestProfile_TunedThreshold(t *testing.T) {
	// A two-tone border reads non-uniform by default but uniform once the
	// variance threshold admits it.
	img := imgutil.NewFilled(200, 200, color.NRGBA{R: 200, G: 200, B: 200, A: 0xFF})
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			if (x+y)%2 == 0 {
				img.SetNRGBA(x, y, color.NRGBA{R: 210, G: 210, B: 210, A: 0xFF})
			}
		}
	}
	def := Profiler{}
	if v := def.Profile(img, nil); v.Uniform {
		t.Errorf("±5 dither variance %.2f should exceed the default threshold", v.Variance)
	}
	loose := Profiler{VarianceThreshold: 40}
	if v := loose.Profile(img, nil); !v.Uniform {
		t.Errorf("threshold 40 should accept the ±5 dither, got variance %.2f", v.Variance)
	}
}
