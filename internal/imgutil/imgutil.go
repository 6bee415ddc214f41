// Package imgutil holds the pixel-buffer conversions shared by the pipeline
// stages. Stages operate on NRGBA buffers anchored at the origin; these
// helpers normalise whatever decoded image arrives into that shape.
package imgutil

import (
	"image"
	"image/color"
	"image/draw"
)

// AsNRGBA returns img as an origin-anchored *image.NRGBA. The original
// buffer is reused when it already has that shape, so the result must be
// treated as read-only; use CloneNRGBA before mutating.
func AsNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == image.Pt(0, 0) {
		return n
	}
	return CloneNRGBA(img)
}

// CloneNRGBA copies img into a freshly allocated origin-anchored NRGBA
// buffer.
func CloneNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// NewFilled returns a w×h NRGBA buffer with every pixel set to c.
func NewFilled(w, h int, c color.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = c.R
		dst.Pix[i+1] = c.G
		dst.Pix[i+2] = c.B
		dst.Pix[i+3] = c.A
	}
	return dst
}
