package scene

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/plateworks/cleanplate/internal/artifact"
	"github.com/plateworks/cleanplate/internal/bgprofile"
	"github.com/plateworks/cleanplate/internal/imagesource"
	"github.com/plateworks/cleanplate/internal/monitoring"
	"github.com/plateworks/cleanplate/internal/raster"
	"github.com/plateworks/cleanplate/internal/reconstruct"
	"github.com/plateworks/cleanplate/internal/sprite"
)

// DefaultParallelism bounds concurrent sprite cutouts per assembly.
const DefaultParallelism = 4

// Options configures one assembly run.
type Options struct {
	Removal reconstruct.Options
	// RemovableRoles overrides which roles are erased from the plate;
	// empty means DefaultRemovableRoles.
	RemovableRoles []Role
	// Parallelism bounds concurrent cutouts; values below 1 use
	// DefaultParallelism.
	Parallelism int
	// Profiler overrides the background profiler tuning; nil uses the
	// package defaults.
	Profiler *bgprofile.Profiler
}

// Sprite is one extracted element artifact.
type Sprite struct {
	ElementID string          `json:"element_id"`
	Name      string          `json:"name,omitempty"`
	Kind      string          `json:"kind,omitempty"`
	Bounds    image.Rectangle `json:"-"`
	Image     *image.NRGBA    `json:"-"`
	DataURI   string          `json:"data_uri"`
}

// Result is a completed assembly: per-element sprites, the reconstructed
// plate, and everything a run record needs.
type Result struct {
	RunID      string            `json:"run_id"`
	Sprites    []Sprite          `json:"sprites"`
	CleanPlate *image.NRGBA      `json:"-"`
	PlateURI   string            `json:"background_clean_data_url"`
	Verdict    bgprofile.Verdict `json:"verdict"`
	Warnings   []string          `json:"warnings,omitempty"`
	Duration   time.Duration     `json:"-"`
}

// Assemble cuts every element with a valid outline into a sprite and
// produces a clean plate with the removable elements erased. Invalid
// outlines are skipped with a warning; the call fails only when the image
// cannot be loaded or not a single removable outline is usable.
//
// Cutouts run in parallel: each one reads the shared source image and owns
// its own mask and output buffers, so no locking is needed beyond the
// errgroup itself.
func Assemble(ctx context.Context, src *imagesource.Source, ref string, elements []Element, opts Options) (*Result, error) {
	start := time.Now()
	img, err := src.Load(ref)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	res := &Result{RunID: runID}
	monitoring.Logf("[scene] run %.8s: %d elements from %s", runID, len(elements), ref)

	parallelism := opts.Parallelism
	if parallelism < 1 {
		parallelism = DefaultParallelism
	}

	// Sprites, one slot per element so output order is stable.
	sprites := make([]*Sprite, len(elements))
	warnSlots := make([]string, len(elements))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, el := range elements {
		g.Go(func() error {
			cut, err := sprite.Cutout(img, el.Polygon)
			if err != nil {
				warnSlots[i] = fmt.Sprintf("element %s: %v", el.ID, err)
				return nil // partial success: skip, never abort the batch
			}
			uri, err := artifact.DataURI(cut)
			if err != nil {
				return fmt.Errorf("element %s: %w", el.ID, err)
			}
			sprites[i] = &Sprite{
				ElementID: el.ID,
				Name:      el.Name,
				Kind:      el.Kind,
				Bounds:    el.Polygon.Clamp(img.Bounds().Dx(), img.Bounds().Dy()).BoundingBox(),
				Image:     cut,
				DataURI:   uri,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i := range elements {
		if sprites[i] != nil {
			res.Sprites = append(res.Sprites, *sprites[i])
		}
		if warnSlots[i] != "" {
			res.Warnings = append(res.Warnings, warnSlots[i])
			monitoring.Logf("[scene] run %.8s: %s", runID, warnSlots[i])
		}
	}

	// Clean plate: union of the removable elements' outlines.
	removable := removableSet(opts.RemovableRoles)
	var outlines []raster.Polygon
	for _, el := range elements {
		if removable[el.Role] {
			outlines = append(outlines, el.Polygon)
		}
	}
	if len(outlines) == 0 {
		return nil, fmt.Errorf("run %.8s: no removable elements in scene", runID)
	}

	removal, err := reconstruct.RemoveRegions(img, outlines, opts.Removal, opts.Profiler)
	res.Warnings = append(res.Warnings, removal.Warnings...)
	if err != nil {
		return nil, fmt.Errorf("run %.8s: %w", runID, err)
	}
	res.CleanPlate = removal.Image
	res.Verdict = removal.Verdict
	if res.PlateURI, err = artifact.DataURI(removal.Image); err != nil {
		return nil, fmt.Errorf("run %.8s: %w", runID, err)
	}

	res.Duration = time.Since(start)
	monitoring.Logf("[scene] run %.8s: %d sprites, plate %v, uniform=%v in %v",
		runID, len(res.Sprites), removal.Image.Bounds().Size(), removal.Verdict.Uniform, res.Duration.Round(time.Millisecond))
	return res, nil
}
