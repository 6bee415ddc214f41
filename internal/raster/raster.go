// Package raster provides the binary-mask and polygon primitives used by the
// decomposition pipeline: rasterizing region outlines into masks, tracing
// mask boundaries back into outlines, and the morphological operations the
// removal path needs. Masks use the same convention as the upstream
// segmentation output: one byte per pixel, 0 for background, 255 for
// foreground.
package raster

import "image"

// Foreground is the byte value stored for set mask pixels. Alpha channels
// are built by copying mask bytes directly, so this must stay 255.
const Foreground uint8 = 0xFF

// Mask is a dense row-major binary mask over a W×H pixel grid.
type Mask struct {
	W, H int
	Pix  []uint8
}

// NewMask returns an all-background mask of the given dimensions.
func NewMask(w, h int) *Mask {
	if w < 1 || h < 1 {
		return &Mask{W: 0, H: 0}
	}
	return &Mask{W: w, H: h, Pix: make([]uint8, w*h)}
}

// At reports whether the pixel at (x, y) is foreground. Out-of-bounds
// coordinates are background.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return false
	}
	return m.Pix[y*m.W+x] != 0
}

// Set marks the pixel at (x, y) as foreground. Out-of-bounds coordinates are
// ignored.
func (m *Mask) Set(x, y int) {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return
	}
	m.Pix[y*m.W+x] = Foreground
}

// Clear marks the pixel at (x, y) as background.
func (m *Mask) Clear(x, y int) {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return
	}
	m.Pix[y*m.W+x] = 0
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Empty reports whether the mask has no foreground pixels.
func (m *Mask) Empty() bool {
	for _, v := range m.Pix {
		if v != 0 {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the mask.
func (m *Mask) Clone() *Mask {
	out := &Mask{W: m.W, H: m.H, Pix: make([]uint8, len(m.Pix))}
	copy(out.Pix, m.Pix)
	return out
}

// Bounds returns the mask's pixel rectangle.
func (m *Mask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.W, m.H)
}

// Union overlays src onto m in place. Both masks must share dimensions;
// mismatched masks leave m unchanged.
func (m *Mask) Union(src *Mask) {
	if src == nil || src.W != m.W || src.H != m.H {
		return
	}
	for i, v := range src.Pix {
		if v != 0 {
			m.Pix[i] = Foreground
		}
	}
}

// Invert flips every pixel in place.
func (m *Mask) Invert() {
	for i, v := range m.Pix {
		if v != 0 {
			m.Pix[i] = 0
		} else {
			m.Pix[i] = Foreground
		}
	}
}

// Subtract clears every pixel of m that is foreground in src. Mismatched
// masks leave m unchanged.
func (m *Mask) Subtract(src *Mask) {
	if src == nil || src.W != m.W || src.H != m.H {
		return
	}
	for i, v := range src.Pix {
		if v != 0 {
			m.Pix[i] = 0
		}
	}
}
