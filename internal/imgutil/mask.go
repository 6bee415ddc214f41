package imgutil

import (
	"image"

	"github.com/plateworks/cleanplate/internal/raster"
)

// maskLumaThreshold splits mask-image pixels into foreground and
// background. Oracle masks are nominally black/white; the midpoint keeps
// resampled greys on the right side.
const maskLumaThreshold = 128

// MaskFromImage converts a mask image into a binary mask: pixels at or
// above the luma threshold are foreground. Alpha is ignored.
func MaskFromImage(img image.Image) *raster.Mask {
	src := AsNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	m := raster.NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := src.PixOffset(x, y)
			// Integer Rec. 601 luma.
			luma := (299*int(src.Pix[i]) + 587*int(src.Pix[i+1]) + 114*int(src.Pix[i+2])) / 1000
			if luma >= maskLumaThreshold {
				m.Set(x, y)
			}
		}
	}
	return m
}

// MaskToImage renders a binary mask as a grey image: white foreground on
// black.
func MaskToImage(m *raster.Mask) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.W, m.H))
	for i, v := range m.Pix {
		if v != 0 {
			img.Pix[i] = 0xFF
		}
	}
	return img
}
