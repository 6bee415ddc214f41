package raster

import "testing"

func TestDilateRect_SinglePixel(t *testing.T) {
	m := NewMask(9, 9)
	m.Set(4, 4)

	out := DilateRect(m, 3, 1)
	if got := out.Count(); got != 9 {
		t.Errorf("3×3 dilation of one pixel: expected 9 pixels, got %d", got)
	}
	for y := 3; y <= 5; y++ {
		for x := 3; x <= 5; x++ {
			if !out.At(x, y) {
				t.Errorf("pixel (%d,%d) should be foreground", x, y)
			}
		}
	}
	if m.Count() != 1 {
		t.Error("source mask was mutated")
	}
}

func TestDilateRect_Iterations(t *testing.T) {
	m := NewMask(11, 11)
	m.Set(5, 5)

	// Two 3×3 passes reach the same pixels as one 5×5 pass.
	out := DilateRect(m, 3, 2)
	if got := out.Count(); got != 25 {
		t.Errorf("expected 25 pixels after two iterations, got %d", got)
	}
}

func TestDilateRect_NoOpSides(t *testing.T) {
	m := NewMask(6, 6)
	m.Set(2, 2)
	if got := DilateRect(m, 1, 1).Count(); got != 1 {
		t.Errorf("side-1 dilation should not grow the mask, got %d pixels", got)
	}
	if got := DilateRect(m, 5, 0).Count(); got != 1 {
		t.Errorf("zero iterations should not grow the mask, got %d pixels", got)
	}
}

func TestDilateRect_ClipsAtBorder(t *testing.T) {
	m := NewMask(5, 5)
	m.Set(0, 0)
	out := DilateRect(m, 3, 1)
	// Only the in-canvas quarter of the 3×3 element survives.
	if got := out.Count(); got != 4 {
		t.Errorf("expected 4 pixels at the corner, got %d", got)
	}
}

func TestDilateDisk_Radius1(t *testing.T) {
	m := NewMask(7, 7)
	m.Set(3, 3)
	out := DilateDisk(m, 1, 1)
	// dx²+dy² ≤ 1 keeps the centre plus its 4-neighbours.
	if got := out.Count(); got != 5 {
		t.Errorf("expected a 5-pixel plus shape, got %d", got)
	}
	if !out.At(3, 2) || !out.At(2, 3) || !out.At(4, 3) || !out.At(3, 4) || !out.At(3, 3) {
		t.Error("plus shape incomplete")
	}
	if out.At(2, 2) {
		t.Error("diagonal pixel should stay background at radius 1")
	}
}

func TestDilateDisk_TwoIterations(t *testing.T) {
	m := NewMask(31, 31)
	m.Set(15, 15)

	// Two radius-2 passes cover at least the radius-2 disc and stay inside
	// the radius-4 square.
	out := DilateDisk(m, 2, 2)
	one := DilateDisk(m, 2, 1)
	if out.Count() <= one.Count() {
		t.Errorf("second iteration should grow the mask: %d vs %d", out.Count(), one.Count())
	}
	for y := 0; y < 31; y++ {
		for x := 0; x < 31; x++ {
			if out.At(x, y) && (abs(x-15) > 4 || abs(y-15) > 4) {
				t.Errorf("pixel (%d,%d) outside the reachable square", x, y)
			}
		}
	}
}

func TestMaskUnionSubtract(t *testing.T) {
	a := NewMask(6, 6)
	b := NewMask(6, 6)
	fillRect(a, 0, 0, 2, 2)
	fillRect(b, 2, 2, 4, 4)

	u := a.Clone()
	u.Union(b)
	if got := u.Count(); got != 17 {
		t.Errorf("union: expected 9+9-1 = 17 pixels, got %d", got)
	}

	u.Subtract(b)
	if got := u.Count(); got != 8 {
		t.Errorf("subtract: expected 8 pixels, got %d", got)
	}
	if u.At(2, 2) {
		t.Error("overlap pixel should have been subtracted")
	}
}

func TestMaskInvert(t *testing.T) {
	m := NewMask(4, 4)
	fillRect(m, 0, 0, 1, 1)

	m.Invert()
	if got := m.Count(); got != 12 {
		t.Errorf("inverted count = %d, want 12", got)
	}
	if m.At(0, 0) || !m.At(3, 3) {
		t.Error("invert flipped the wrong pixels")
	}

	m.Invert()
	if got := m.Count(); got != 4 {
		t.Errorf("double invert count = %d, want 4", got)
	}
}
