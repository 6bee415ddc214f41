package imagesource

import (
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/plateworks/cleanplate/internal/imgutil"
)

func writePNG(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, imgutil.NewFilled(4, 4, c)); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestLoad_FileAndCacheHit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	writePNG(t, path, color.NRGBA{R: 9, G: 9, B: 9, A: 255})

	src := New(4)
	first, err := src.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := src.Load(path)
	if err != nil {
		t.Fatalf("Load (cached): %v", err)
	}
	if first != second {
		t.Error("second load should return the cached decode")
	}
}

func TestLoad_ReloadsWhenFileChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	writePNG(t, path, color.NRGBA{R: 10, G: 0, B: 0, A: 255})

	src := New(4)
	if _, err := src.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	writePNG(t, path, color.NRGBA{R: 0, G: 10, B: 0, A: 255})
	// Force a distinguishable mtime even on coarse-resolution filesystems.
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	img, err := src.Load(path)
	if err != nil {
		t.Fatalf("Load after change: %v", err)
	}
	if _, g, _, _ := img.At(0, 0).RGBA(); g>>8 != 10 {
		t.Errorf("stale image served after the file changed (g=%d)", g>>8)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	src := New(2)
	if _, err := src.Load(filepath.Join(t.TempDir(), "nope.png")); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("expected ErrImageNotFound, got %v", err)
	}
}

func TestLoad_UndecodableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "junk.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	src := New(2)
	if _, err := src.Load(path); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("expected ErrImageNotFound, got %v", err)
	}
}

func TestRegisterAndLoadMemRef(t *testing.T) {
	src := New(2)
	img := imgutil.NewFilled(3, 3, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	ref := src.Register("scratch", img)
	if ref != "mem:scratch" {
		t.Fatalf("Register returned %q", ref)
	}

	got, err := src.Load(ref)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != img {
		t.Error("mem ref should return the registered buffer itself")
	}

	src.Unregister("scratch")
	if _, err := src.Load(ref); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("expected ErrImageNotFound after Unregister, got %v", err)
	}
}

func TestInvalidateForcesReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	writePNG(t, path, color.NRGBA{R: 5, G: 5, B: 5, A: 255})

	src := New(4)
	first, err := src.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	src.Invalidate(path)
	second, err := src.Load(path)
	if err != nil {
		t.Fatalf("Load after invalidate: %v", err)
	}
	if first == second {
		t.Error("invalidate should force a fresh decode")
	}
}
