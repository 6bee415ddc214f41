package raster

import (
	"errors"
	"image"
	"testing"
)

func TestFillPolygon_RejectsDegenerate(t *testing.T) {
	for _, p := range []Polygon{nil, {{X: 1, Y: 1}}, {{X: 1, Y: 1}, {X: 5, Y: 5}}} {
		if _, err := FillPolygon(p, 10, 10); !errors.Is(err, ErrInvalidPolygon) {
			t.Errorf("polygon with %d points: expected ErrInvalidPolygon, got %v", len(p), err)
		}
	}
}

func TestFillPolygon_Rectangle(t *testing.T) {
	// Rectangle spanning x∈[2,7], y∈[3,6] inclusive: 6×4 = 24 pixels.
	p := Polygon{{X: 2, Y: 3}, {X: 7, Y: 3}, {X: 7, Y: 6}, {X: 2, Y: 6}}
	m, err := FillPolygon(p, 10, 10)
	if err != nil {
		t.Fatalf("FillPolygon: %v", err)
	}
	if got := m.Count(); got != 24 {
		t.Errorf("expected 24 foreground pixels, got %d", got)
	}
	for _, c := range []Point{{2, 3}, {7, 3}, {7, 6}, {2, 6}, {4, 5}} {
		if !m.At(c.X, c.Y) {
			t.Errorf("pixel (%d,%d) should be foreground", c.X, c.Y)
		}
	}
	if m.At(1, 3) || m.At(8, 3) || m.At(2, 2) || m.At(2, 7) {
		t.Error("foreground leaked outside the rectangle")
	}
}

func TestFillPolygon_ConcaveNotch(t *testing.T) {
	// Notched rectangle, 8 points. Outer box x∈[2,17], y∈[2,11] with a
	// notch open at the top: walls at x=8 and x=11, floor at y=6.
	//
	//   ######..######      rows 2–5: x∈[2,8] and x∈[11,17] → 14 px each
	//   ##############      rows 6–11: full width → 16 px each
	//
	// 4·14 + 6·16 = 152 pixels.
	p := Polygon{
		{X: 2, Y: 2}, {X: 8, Y: 2}, {X: 8, Y: 6}, {X: 11, Y: 6},
		{X: 11, Y: 2}, {X: 17, Y: 2}, {X: 17, Y: 11}, {X: 2, Y: 11},
	}
	m, err := FillPolygon(p, 20, 14)
	if err != nil {
		t.Fatalf("FillPolygon: %v", err)
	}
	if got := m.Count(); got != 152 {
		t.Errorf("expected 152 foreground pixels, got %d", got)
	}

	// The notch interior stays background all the way to the floor.
	for y := 2; y < 6; y++ {
		for x := 9; x <= 10; x++ {
			if m.At(x, y) {
				t.Errorf("notch pixel (%d,%d) should be background", x, y)
			}
		}
	}
	// Walls and floor are part of the region.
	for _, c := range []Point{{8, 3}, {11, 3}, {9, 6}, {10, 6}} {
		if !m.At(c.X, c.Y) {
			t.Errorf("boundary pixel (%d,%d) should be foreground", c.X, c.Y)
		}
	}
}

func TestFillPolygon_ContainedInBoundingBox(t *testing.T) {
	p := Polygon{{X: 10, Y: 5}, {X: 30, Y: 5}, {X: 20, Y: 25}}
	m, err := FillPolygon(p, 40, 40)
	if err != nil {
		t.Fatalf("FillPolygon: %v", err)
	}
	box := p.BoundingBox()
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			if m.At(x, y) && !(image.Pt(x, y).In(box)) {
				t.Fatalf("pixel (%d,%d) outside bounding box %v", x, y, box)
			}
		}
	}
}

func TestFillPolygon_VerticesOutsideCanvas(t *testing.T) {
	// Spans and stamped edges clip to the canvas instead of wrapping.
	p := Polygon{{X: -5, Y: -5}, {X: 14, Y: -5}, {X: 14, Y: 14}, {X: -5, Y: 14}}
	m, err := FillPolygon(p, 10, 10)
	if err != nil {
		t.Fatalf("FillPolygon: %v", err)
	}
	if got := m.Count(); got != 100 {
		t.Errorf("expected a fully covered 10×10 canvas, got %d pixels", got)
	}
}
