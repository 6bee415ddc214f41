package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"github.com/plateworks/cleanplate/internal/artifact"
	"github.com/plateworks/cleanplate/internal/config"
	"github.com/plateworks/cleanplate/internal/imagesource"
	"github.com/plateworks/cleanplate/internal/imgutil"
	"github.com/plateworks/cleanplate/internal/monitoring"
	"github.com/plateworks/cleanplate/internal/raster"
	"github.com/plateworks/cleanplate/internal/reconstruct"
	"github.com/plateworks/cleanplate/internal/runstore"
	"github.com/plateworks/cleanplate/internal/scene"
	"github.com/plateworks/cleanplate/internal/sprite"
)

// newSource builds the image source with the configured cache capacity.
func newSource(cfg *config.TuningConfig) *imagesource.Source {
	return imagesource.New(cfg.GetCacheCapacity())
}

// loadPolygons reads a polygon file: either a single polygon (array of
// points) or an array of polygons.
func loadPolygons(path string) ([]raster.Polygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read polygon file: %w", err)
	}
	var many []raster.Polygon
	if err := json.Unmarshal(data, &many); err == nil {
		return many, nil
	}
	var one raster.Polygon
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("parse polygon file %s: %w", path, err)
	}
	return []raster.Polygon{one}, nil
}

// writeJSON marshals v to the given path, or stdout when path is empty.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// writePNG saves img as a PNG file.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

func runTrace(cfg *config.TuningConfig, args []string) error {
	fs := flag.NewFlagSet("trace", flag.ExitOnError)
	in := fs.String("in", "", "mask image: white foreground on black (required)")
	out := fs.String("out", "", "output polygon JSON path (default stdout)")
	fs.Parse(args)
	if *in == "" {
		fs.Usage()
		return fmt.Errorf("-in is required")
	}

	img, err := newSource(cfg).Load(*in)
	if err != nil {
		return err
	}
	poly := raster.TraceBoundary(imgutil.MaskFromImage(img))
	monitoring.Logf("[trace] %s: %d boundary points", *in, len(poly))
	return writeJSON(*out, poly)
}

func runRasterize(cfg *config.TuningConfig, args []string) error {
	fs := flag.NewFlagSet("rasterize", flag.ExitOnError)
	polyPath := fs.String("poly", "", "polygon JSON file (required)")
	width := fs.Int("width", 0, "canvas width (required)")
	height := fs.Int("height", 0, "canvas height (required)")
	out := fs.String("out", "mask.png", "output mask PNG path")
	fs.Parse(args)
	if *polyPath == "" || *width < 1 || *height < 1 {
		fs.Usage()
		return fmt.Errorf("-poly, -width and -height are required")
	}

	polys, err := loadPolygons(*polyPath)
	if err != nil {
		return err
	}
	combined := raster.NewMask(*width, *height)
	for _, p := range polys {
		m, err := raster.FillPolygon(p.Clamp(*width, *height), *width, *height)
		if err != nil {
			return err
		}
		combined.Union(m)
	}
	monitoring.Logf("[rasterize] %d polygons, %d foreground pixels", len(polys), combined.Count())
	return writePNG(*out, imgutil.MaskToImage(combined))
}

func runCutout(cfg *config.TuningConfig, args []string) error {
	fs := flag.NewFlagSet("cutout", flag.ExitOnError)
	imagePath := fs.String("image", "", "source photograph (required)")
	polyPath := fs.String("poly", "", "polygon JSON file, one or many (required)")
	outDir := fs.String("out", ".", "output directory for sprite PNGs")
	dataURI := fs.Bool("data-uri", false, "print data URIs instead of writing files")
	fs.Parse(args)
	if *imagePath == "" || *polyPath == "" {
		fs.Usage()
		return fmt.Errorf("-image and -poly are required")
	}

	img, err := newSource(cfg).Load(*imagePath)
	if err != nil {
		return err
	}
	polys, err := loadPolygons(*polyPath)
	if err != nil {
		return err
	}

	base := filepath.Base(*imagePath)
	base = base[:len(base)-len(filepath.Ext(base))]
	for i, p := range polys {
		cut, err := sprite.Cutout(img, p)
		if err != nil {
			return fmt.Errorf("polygon %d: %w", i, err)
		}
		if *dataURI {
			uri, err := artifact.DataURI(cut)
			if err != nil {
				return err
			}
			fmt.Println(uri)
			continue
		}
		name := filepath.Join(*outDir, fmt.Sprintf("%s_sprite_%02d.png", base, i))
		if err := writePNG(name, cut); err != nil {
			return err
		}
		monitoring.Logf("[cutout] wrote %s (%dx%d)", name, cut.Rect.Dx(), cut.Rect.Dy())
	}
	return nil
}

func runProfile(cfg *config.TuningConfig, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	imagePath := fs.String("image", "", "photograph to profile (required)")
	maskPath := fs.String("mask", "", "optional exclusion mask image")
	describe := fs.Bool("describe", false, "include dominant colour and palette diagnostics")
	out := fs.String("out", "", "output JSON path (default stdout)")
	fs.Parse(args)
	if *imagePath == "" {
		fs.Usage()
		return fmt.Errorf("-image is required")
	}

	src := newSource(cfg)
	img, err := src.Load(*imagePath)
	if err != nil {
		return err
	}
	var exclude *raster.Mask
	if *maskPath != "" {
		maskImg, err := src.Load(*maskPath)
		if err != nil {
			return err
		}
		exclude = imgutil.MaskFromImage(maskImg)
	}

	prof := cfg.Profiler()
	if *describe {
		return writeJSON(*out, prof.Describe(img, exclude, 0))
	}
	return writeJSON(*out, prof.Profile(img, exclude))
}

func runRemove(cfg *config.TuningConfig, args []string) error {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	imagePath := fs.String("image", "", "source photograph (required)")
	polyPath := fs.String("poly", "", "polygon JSON file, one or many (required)")
	strategyName := fs.String("strategy", "auto", "fill strategy: auto|forceWhite|forceDetected|diffusionA|diffusionB")
	dilate := fs.Int("dilate", cfg.GetDilateRadius(), "removal mask dilation radius (0 disables)")
	diffusion := fs.Int("diffusion", cfg.GetDiffusionRadius(), "diffusion fill radius")
	out := fs.String("out", "clean.png", "output PNG path")
	fs.Parse(args)
	if *imagePath == "" || *polyPath == "" {
		fs.Usage()
		return fmt.Errorf("-image and -poly are required")
	}

	strategy, err := reconstruct.ParseStrategy(*strategyName)
	if err != nil {
		return err
	}
	img, err := newSource(cfg).Load(*imagePath)
	if err != nil {
		return err
	}
	polys, err := loadPolygons(*polyPath)
	if err != nil {
		return err
	}

	res, err := reconstruct.RemoveRegions(img, polys, reconstruct.Options{
		Strategy:        strategy,
		DilateRadius:    dilate,
		DiffusionRadius: *diffusion,
	}, cfg.Profiler())
	for _, w := range res.Warnings {
		monitoring.Logf("[remove] warning: %s", w)
	}
	if err != nil {
		return err
	}
	monitoring.Logf("[remove] strategy=%s uniform=%v variance=%.1f", strategy, res.Verdict.Uniform, res.Verdict.Variance)
	return writePNG(*out, res.Image)
}

func runScene(cfg *config.TuningConfig, args []string) error {
	fs := flag.NewFlagSet("scene", flag.ExitOnError)
	scenePath := fs.String("scene", "", "scene description JSON (required)")
	outDir := fs.String("out", "scene_out", "output directory")
	strategyName := fs.String("strategy", "auto", "fill strategy for the clean plate")
	dilate := fs.Int("dilate", cfg.GetDilateRadius(), "removal mask dilation radius (0 disables)")
	diffusion := fs.Int("diffusion", cfg.GetDiffusionRadius(), "diffusion fill radius")
	parallel := fs.Int("parallel", cfg.GetParallelism(), "concurrent sprite cutouts")
	maxDim := fs.Int("max-dim", 0, "downscale the photograph so neither side exceeds this (0 = off)")
	record := fs.Bool("record", true, "record the run in the run store")
	fs.Parse(args)
	if *scenePath == "" {
		fs.Usage()
		return fmt.Errorf("-scene is required")
	}

	strategy, err := reconstruct.ParseStrategy(*strategyName)
	if err != nil {
		return err
	}
	desc, err := scene.LoadDescription(*scenePath)
	if err != nil {
		return err
	}

	src := newSource(cfg)
	ref := desc.Image
	elements := desc.Elements
	if *maxDim > 0 {
		img, err := src.Load(ref)
		if err != nil {
			return err
		}
		if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w > *maxDim || h > *maxDim {
			scaled := imaging.Fit(img, *maxDim, *maxDim, imaging.Lanczos)
			factor := float64(scaled.Bounds().Dx()) / float64(w)
			elements = scaleElements(elements, factor)
			ref = src.Register("scaled", scaled)
			monitoring.Logf("[scene] downscaled %dx%d by %.3f for -max-dim %d", w, h, factor, *maxDim)
		}
	}

	start := time.Now()
	res, err := scene.Assemble(context.Background(), src, ref, elements, scene.Options{
		Removal: reconstruct.Options{
			Strategy:        strategy,
			DilateRadius:    dilate,
			DiffusionRadius: *diffusion,
		},
		Parallelism: *parallel,
		Profiler:    cfg.Profiler(),
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}
	for _, s := range res.Sprites {
		name := filepath.Join(*outDir, fmt.Sprintf("sprite_%s.png", s.ElementID))
		if err := writePNG(name, s.Image); err != nil {
			return err
		}
	}
	if err := writePNG(filepath.Join(*outDir, "clean_plate.png"), res.CleanPlate); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(*outDir, "result.json"), res); err != nil {
		return err
	}

	if *record {
		store, err := runstore.Open(cfg.GetDatabasePath())
		if err != nil {
			return err
		}
		defer store.Close()
		err = store.Record(&runstore.Run{
			RunID:           res.RunID,
			ImageRef:        desc.Image,
			Strategy:        strategy.String(),
			DilateRadius:    *dilate,
			DiffusionRadius: *diffusion,
			Verdict:         res.Verdict,
			SpriteCount:     len(res.Sprites),
			Warnings:        res.Warnings,
			DurationMs:      time.Since(start).Milliseconds(),
		})
		if err != nil {
			return err
		}
	}

	fmt.Printf("run-%.8s: %d sprites + clean plate written to %s\n", res.RunID, len(res.Sprites), *outDir)
	return nil
}

func runRuns(cfg *config.TuningConfig, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	limit := fs.Int("limit", 20, "number of runs to list")
	id := fs.String("id", "", "show one run as JSON")
	pruneDays := fs.Int("prune", 0, "delete runs older than this many days")
	fs.Parse(args)

	store, err := runstore.Open(cfg.GetDatabasePath())
	if err != nil {
		return err
	}
	defer store.Close()

	if *pruneDays > 0 {
		n, err := store.Prune(time.Now().AddDate(0, 0, -*pruneDays))
		if err != nil {
			return err
		}
		fmt.Printf("pruned %d runs\n", n)
		return nil
	}
	if *id != "" {
		run, err := store.Get(*id)
		if err != nil {
			return err
		}
		return writeJSON("", run)
	}

	runs, err := store.List(*limit)
	if err != nil {
		return err
	}
	fmt.Printf("%-12s %-19s %-14s %-8s %-8s %s\n", "RUN", "CREATED", "STRATEGY", "SPRITES", "UNIFORM", "IMAGE")
	for _, r := range runs {
		fmt.Printf("run-%.8s %-19s %-14s %-8d %-8v %s\n",
			r.RunID,
			time.Unix(r.CreatedAt, 0).Format("2006-01-02 15:04:05"),
			r.Strategy, r.SpriteCount, r.Verdict.Uniform, r.ImageRef)
	}
	return nil
}

// scaleElements scales every outline by factor, for downscaled inputs.
func scaleElements(elements []scene.Element, factor float64) []scene.Element {
	out := make([]scene.Element, len(elements))
	for i, el := range elements {
		scaled := make(raster.Polygon, len(el.Polygon))
		for j, pt := range el.Polygon {
			scaled[j] = raster.Point{
				X: int(float64(pt.X)*factor + 0.5),
				Y: int(float64(pt.Y)*factor + 0.5),
			}
		}
		el.Polygon = scaled
		out[i] = el
	}
	return out
}
