// Package sprite cuts single elements out of a photograph as standalone
// transparent images, cropped to the element's bounding box.
package sprite

import (
	"image"

	"github.com/plateworks/cleanplate/internal/imgutil"
	"github.com/plateworks/cleanplate/internal/raster"
)

// Cutout extracts the region outlined by poly from img as a freshly
// allocated RGBA image: colour channels copied verbatim from the source,
// alpha 255 inside the outline and 0 outside, cropped to the outline's
// bounding box. The source image is never mutated. Vertices outside the
// canvas are clamped before use.
//
// Returns raster.ErrInvalidPolygon when the outline has fewer than three
// points.
func Cutout(img image.Image, poly raster.Polygon) (*image.NRGBA, error) {
	if err := poly.Validate(); err != nil {
		return nil, err
	}
	src := imgutil.AsNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()

	clamped := poly.Clamp(w, h)
	mask, err := raster.FillPolygon(clamped, w, h)
	if err != nil {
		return nil, err
	}

	box := clamped.BoundingBox()
	out := image.NewNRGBA(image.Rect(0, 0, box.Dx(), box.Dy()))
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			si := src.PixOffset(x, y)
			di := out.PixOffset(x-box.Min.X, y-box.Min.Y)
			out.Pix[di] = src.Pix[si]
			out.Pix[di+1] = src.Pix[si+1]
			out.Pix[di+2] = src.Pix[si+2]
			out.Pix[di+3] = mask.Pix[y*w+x] // 0 or 255
		}
	}
	return out, nil
}
