package inpaint

import (
	"image"
	"image/color"
	"testing"

	"github.com/plateworks/cleanplate/internal/imgutil"
	"github.com/plateworks/cleanplate/internal/raster"
	"github.com/plateworks/cleanplate/internal/testutil"
)

func TestFastMarch_SolidSurround(t *testing.T) {
	// A hole in a solid red image must come back solid red: every donor is
	// red, so the weighted average cannot produce anything else.
	img := testutil.FlatImage(40, 40, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
	m := testutil.RectMask(40, 40, 15, 15, 24, 24)

	FastMarch(img, m, 5)

	for y := 15; y <= 24; y++ {
		for x := 15; x <= 24; x++ {
			o := img.PixOffset(x, y)
			r, g, b := img.Pix[o], img.Pix[o+1], img.Pix[o+2]
			if r != 200 || g != 30 || b != 30 {
				t.Fatalf("pixel (%d,%d) = (%d,%d,%d), expected solid red", x, y, r, g, b)
			}
		}
	}
}

func TestFastMarch_HorizontalGradientContinues(t *testing.T) {
	// Two half-planes, dark left and light right, with a hole straddling
	// the seam. The fill must stay between the two source values and keep
	// left-of-hole darker than right-of-hole.
	img := image.NewNRGBA(image.Rect(0, 0, 60, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 60; x++ {
			v := uint8(40)
			if x >= 30 {
				v = 220
			}
			o := img.PixOffset(x, y)
			img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = v, v, v, 255
		}
	}
	m := testutil.RectMask(60, 30, 22, 10, 37, 19)

	FastMarch(img, m, 5)

	for y := 10; y <= 19; y++ {
		for x := 22; x <= 37; x++ {
			v := img.Pix[img.PixOffset(x, y)]
			if v < 40 || v > 220 {
				t.Fatalf("pixel (%d,%d) = %d outside the source range [40,220]", x, y, v)
			}
		}
	}
	left := img.Pix[img.PixOffset(23, 14)]
	right := img.Pix[img.PixOffset(36, 14)]
	if left >= right {
		t.Errorf("fill lost the gradient direction: left %d >= right %d", left, right)
	}
}

func TestFastMarch_LeavesUnmaskedPixelsAlone(t *testing.T) {
	img := testutil.FlatImage(20, 20, color.NRGBA{R: 10, G: 120, B: 240, A: 255})
	want := imgutil.CloneNRGBA(img)
	m := testutil.RectMask(20, 20, 5, 5, 8, 8)

	FastMarch(img, m, 3)

	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if m.At(x, y) {
				continue
			}
			o := img.PixOffset(x, y)
			for c := 0; c < 4; c++ {
				if img.Pix[o+c] != want.Pix[o+c] {
					t.Fatalf("unmasked pixel (%d,%d) channel %d changed", x, y, c)
				}
			}
		}
	}
}

func TestFastMarch_EmptyMaskNoOp(t *testing.T) {
	img := testutil.FlatImage(10, 10, color.NRGBA{R: 77, G: 77, B: 77, A: 255})
	want := imgutil.CloneNRGBA(img)

	FastMarch(img, raster.NewMask(10, 10), 5)

	for i := range img.Pix {
		if img.Pix[i] != want.Pix[i] {
			t.Fatal("empty mask must not change the image")
		}
	}
}

func TestDiffuse_SolidSurround(t *testing.T) {
	img := testutil.FlatImage(40, 40, color.NRGBA{R: 60, G: 180, B: 90, A: 255})
	m := testutil.RectMask(40, 40, 12, 12, 27, 27)

	Diffuse(img, m, 5)

	for y := 12; y <= 27; y++ {
		for x := 12; x <= 27; x++ {
			o := img.PixOffset(x, y)
			r, g, b := img.Pix[o], img.Pix[o+1], img.Pix[o+2]
			// Rounding during seeding may drift a count or two.
			if delta(r, 60) > 2 || delta(g, 180) > 2 || delta(b, 90) > 2 {
				t.Fatalf("pixel (%d,%d) = (%d,%d,%d), expected ≈(60,180,90)", x, y, r, g, b)
			}
		}
	}
}

func TestDiffuse_InterpolatesBetweenHalves(t *testing.T) {
	// Black left half, white right half, hole across the seam: diffusion
	// must produce values strictly between the extremes at the hole centre.
	img := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			v := uint8(0)
			if x >= 20 {
				v = 255
			}
			o := img.PixOffset(x, y)
			img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = v, v, v, 255
		}
	}
	m := testutil.RectMask(40, 20, 14, 6, 25, 13)

	Diffuse(img, m, 5)

	centre := img.Pix[img.PixOffset(19, 9)]
	if centre == 0 || centre == 255 {
		t.Errorf("hole centre = %d, expected an interpolated grey", centre)
	}
	if l, r := img.Pix[img.PixOffset(15, 9)], img.Pix[img.PixOffset(24, 9)]; l >= r {
		t.Errorf("diffusion lost the gradient direction: left %d >= right %d", l, r)
	}
}

func TestDiffuse_WholeImageMask(t *testing.T) {
	// Nothing known anywhere: the fill seeds mid-grey rather than looping.
	img := testutil.FlatImage(8, 8, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	m := testutil.RectMask(8, 8, 0, 0, 7, 7)

	Diffuse(img, m, 2)

	o := img.PixOffset(4, 4)
	if img.Pix[o] != 128 || img.Pix[o+3] != 255 {
		t.Errorf("fully masked image should seed mid-grey, got %d alpha %d", img.Pix[o], img.Pix[o+3])
	}
}

func delta(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
