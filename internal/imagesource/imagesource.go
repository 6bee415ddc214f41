// Package imagesource resolves opaque image references to decoded pixel
// buffers. A reference is either a filesystem path or a mem:<name> handle
// registered by the caller. File loads go through an explicit LRU cache
// keyed by path plus file identity (size and mtime), so an edited file is
// re-read rather than served stale; there is no process-global current
// image.
package imagesource

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/plateworks/cleanplate/internal/monitoring"

	// Decoders beyond the stdlib trio; photographs arrive in all of these.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrImageNotFound is returned when a reference cannot be resolved to a
// decodable image.
var ErrImageNotFound = errors.New("image not found")

// DefaultCacheCapacity bounds the decoded-image LRU when no capacity is
// configured.
const DefaultCacheCapacity = 16

// memPrefix marks in-memory references.
const memPrefix = "mem:"

type cacheEntry struct {
	img   image.Image
	size  int64
	mtime int64
}

// Source loads and caches images. Safe for concurrent use.
type Source struct {
	mu    sync.Mutex
	cache *lru.Cache[string, cacheEntry]
	mem   map[string]image.Image
}

// New returns a Source with an LRU of the given capacity; capacities below
// 1 use DefaultCacheCapacity.
func New(capacity int) *Source {
	if capacity < 1 {
		capacity = DefaultCacheCapacity
	}
	cache, _ := lru.New[string, cacheEntry](capacity)
	return &Source{cache: cache, mem: make(map[string]image.Image)}
}

// Register makes img available under the reference "mem:<name>" and returns
// that reference. Registered buffers bypass the LRU; they are dropped only
// by Unregister.
func (s *Source) Register(name string, img image.Image) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mem[name] = img
	return memPrefix + name
}

// Unregister drops a registered in-memory image.
func (s *Source) Unregister(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mem, name)
}

// Load resolves ref to a decoded image. File references are cached; a file
// whose size or mtime changed since it was cached is decoded again. Returns
// ErrImageNotFound (wrapped with the ref) when the reference cannot be
// resolved or decoded.
func (s *Source) Load(ref string) (image.Image, error) {
	if name, ok := strings.CutPrefix(ref, memPrefix); ok {
		s.mu.Lock()
		img, ok := s.mem[name]
		s.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("%w: no registered buffer %q", ErrImageNotFound, name)
		}
		return img, nil
	}

	info, err := os.Stat(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrImageNotFound, ref, err)
	}

	if entry, ok := s.cache.Get(ref); ok {
		if entry.size == info.Size() && entry.mtime == info.ModTime().UnixNano() {
			return entry.img, nil
		}
		// File changed underneath the cache.
		s.cache.Remove(ref)
		monitoring.Logf("[cache] %s changed on disk, reloading", ref)
	}

	raw, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrImageNotFound, ref, err)
	}
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrImageNotFound, ref, err)
	}
	monitoring.Logf("[cache] loaded %s (%s, %dx%d)", ref, format, img.Bounds().Dx(), img.Bounds().Dy())

	s.cache.Add(ref, cacheEntry{img: img, size: info.Size(), mtime: info.ModTime().UnixNano()})
	return img, nil
}

// Invalidate drops one file reference from the cache.
func (s *Source) Invalidate(ref string) {
	s.cache.Remove(ref)
}

// Purge drops every cached file reference. Registered in-memory buffers are
// unaffected.
func (s *Source) Purge() {
	s.cache.Purge()
}
