package artifact

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/plateworks/cleanplate/internal/testutil"
)

func TestEncodePNG_RoundTripPreservesAlpha(t *testing.T) {
	img := testutil.FlatImage(6, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	// Punch a transparent pixel to prove alpha survives.
	img.SetNRGBA(2, 1, color.NRGBA{})

	raw, err := EncodePNG(img)
	testutil.AssertNoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode round trip: %v", err)
	}
	if decoded.Bounds() != image.Rect(0, 0, 6, 4) {
		t.Errorf("round-trip bounds = %v", decoded.Bounds())
	}
	if _, _, _, a := decoded.At(2, 1).RGBA(); a != 0 {
		t.Errorf("transparent pixel came back with alpha %d", a)
	}
	if r, _, _, a := decoded.At(0, 0).RGBA(); a != 0xFFFF || r>>8 != 10 {
		t.Errorf("opaque pixel corrupted: r=%d a=%d", r>>8, a)
	}
}

func TestEncodePNG_NilImage(t *testing.T) {
	if _, err := EncodePNG(nil); !errors.Is(err, ErrEncodingFailure) {
		t.Errorf("expected ErrEncodingFailure, got %v", err)
	}
}

func TestDataURI(t *testing.T) {
	img := testutil.FlatImage(3, 3, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	uri, err := DataURI(img)
	testutil.AssertNoError(t, err)
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatalf("unexpected prefix: %.40s", uri)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(raw)); err != nil {
		t.Fatalf("payload is not a PNG: %v", err)
	}
}
