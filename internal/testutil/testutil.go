// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"image"
	"image/color"
	"testing"

	"github.com/plateworks/cleanplate/internal/imgutil"
	"github.com/plateworks/cleanplate/internal/raster"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// FlatImage returns a w×h opaque image filled with one colour.
func FlatImage(w, h int, c color.NRGBA) *image.NRGBA {
	return imgutil.NewFilled(w, h, c)
}

// RectMask returns a w×h mask with the rectangle [x0,x1]×[y0,y1]
// (inclusive) set.
func RectMask(w, h, x0, y0, x1, y1 int) *raster.Mask {
	m := raster.NewMask(w, h)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			m.Set(x, y)
		}
	}
	return m
}
