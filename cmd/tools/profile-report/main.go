// Command profile-report produces offline background-profiling diagnostics
// for one photograph: per-channel histograms of the peripheral samples as
// PNG charts, plus a static HTML report with the verdict, the dominant
// colour, the clustered palette, and a thumbnail.
package main

import (
	"flag"
	"fmt"
	"html/template"
	"image"
	"log"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/plateworks/cleanplate/internal/artifact"
	"github.com/plateworks/cleanplate/internal/bgprofile"
	"github.com/plateworks/cleanplate/internal/config"
	"github.com/plateworks/cleanplate/internal/imagesource"
	"github.com/plateworks/cleanplate/internal/imgutil"
	"github.com/plateworks/cleanplate/internal/raster"
)

const thumbnailMaxDim = 320

func main() {
	imagePath := flag.String("image", "", "photograph to profile (required)")
	maskPath := flag.String("mask", "", "optional exclusion mask image")
	configPath := flag.String("config", "", "tuning config JSON file")
	outDir := flag.String("out", "profile_report", "output directory")
	paletteK := flag.Int("k", 0, "palette cluster count (0 = default)")
	flag.Parse()
	if *imagePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadTuningConfig(*configPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	src := imagesource.New(cfg.GetCacheCapacity())
	img, err := src.Load(*imagePath)
	if err != nil {
		log.Fatalf("load image: %v", err)
	}
	var exclude *raster.Mask
	if *maskPath != "" {
		maskImg, err := src.Load(*maskPath)
		if err != nil {
			log.Fatalf("load mask: %v", err)
		}
		exclude = imgutil.MaskFromImage(maskImg)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}

	prof := cfg.Profiler()
	summary := prof.Describe(img, exclude, *paletteK)
	rs, gs, bs := prof.Samples(img, exclude)

	if err := writeHistograms(*outDir, rs, gs, bs); err != nil {
		log.Fatalf("write histograms: %v", err)
	}
	if err := writePaletteChart(*outDir, summary); err != nil {
		log.Fatalf("write palette chart: %v", err)
	}
	if err := writeHTMLReport(*outDir, *imagePath, img, summary); err != nil {
		log.Fatalf("write report: %v", err)
	}

	log.Printf("report for %s written to %s (uniform=%v variance=%.2f samples=%d)",
		*imagePath, *outDir, summary.Verdict.Uniform, summary.Verdict.Variance, summary.Samples)
}

// writeHistograms renders one 32-bin histogram PNG per colour channel.
func writeHistograms(dir string, rs, gs, bs []float64) error {
	channels := []struct {
		name    string
		samples []float64
	}{
		{"red", rs}, {"green", gs}, {"blue", bs},
	}
	for _, ch := range channels {
		if len(ch.samples) == 0 {
			continue
		}
		p := plot.New()
		p.Title.Text = fmt.Sprintf("Peripheral samples: %s channel", ch.name)
		p.X.Label.Text = "value"
		p.X.Min, p.X.Max = 0, 255
		p.Y.Label.Text = "count"

		hist, err := plotter.NewHist(plotter.Values(ch.samples), 32)
		if err != nil {
			return fmt.Errorf("%s histogram: %w", ch.name, err)
		}
		p.Add(hist)

		file := filepath.Join(dir, fmt.Sprintf("hist_%s.png", ch.name))
		if err := p.Save(8*vg.Inch, 4*vg.Inch, file); err != nil {
			return fmt.Errorf("save %s: %w", file, err)
		}
	}
	return nil
}

// writePaletteChart renders the k-means palette shares as an HTML bar chart.
func writePaletteChart(dir string, s bgprofile.Summary) error {
	if len(s.Palette) == 0 {
		return nil
	}
	labels := make([]string, len(s.Palette))
	data := make([]opts.BarData, len(s.Palette))
	for i, e := range s.Palette {
		hex := fmt.Sprintf("#%02x%02x%02x", e.Color.R, e.Color.G, e.Color.B)
		labels[i] = hex
		data[i] = opts.BarData{
			Value:     e.Share,
			ItemStyle: &opts.ItemStyle{Color: hex},
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Peripheral palette", Width: "800px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Peripheral palette", Subtitle: fmt.Sprintf("%d samples", s.Samples)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("share", data)

	f, err := os.Create(filepath.Join(dir, "palette.html"))
	if err != nil {
		return err
	}
	defer f.Close()
	return bar.Render(f)
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html><head><title>Background profile: {{.Name}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
.swatch { display: inline-block; width: 3em; height: 3em; border: 1px solid #999; vertical-align: middle; }
table { border-collapse: collapse; } td, th { border: 1px solid #ccc; padding: 0.4em 0.8em; }
</style></head><body>
<h1>Background profile: {{.Name}}</h1>
<img src="{{.Thumbnail}}" alt="thumbnail">
<h2>Verdict</h2>
<table>
<tr><th>Representative</th><td><span class="swatch" style="background:{{.RepHex}}"></span> {{.RepHex}}</td></tr>
<tr><th>Uniform</th><td>{{.Uniform}}</td></tr>
<tr><th>Variance</th><td>{{printf "%.2f" .Variance}}</td></tr>
<tr><th>Samples</th><td>{{.Samples}}</td></tr>
<tr><th>Dominant</th><td><span class="swatch" style="background:{{.DomHex}}"></span> {{.DomHex}} (Lab distance {{printf "%.3f" .DomDistance}})</td></tr>
</table>
<h2>Palette</h2>
<table><tr><th>Colour</th><th>Share</th></tr>
{{range .Palette}}<tr><td><span class="swatch" style="background:{{.Hex}}"></span> {{.Hex}}</td><td>{{printf "%.1f%%" .Percent}}</td></tr>
{{end}}</table>
<p>Channel histograms: hist_red.png, hist_green.png, hist_blue.png.
Interactive palette chart: palette.html.</p>
</body></html>
`))

type paletteRow struct {
	Hex     string
	Percent float64
}

// writeHTMLReport renders the static summary page with an inline thumbnail.
func writeHTMLReport(dir, name string, img image.Image, s bgprofile.Summary) error {
	thumb := imaging.Fit(img, thumbnailMaxDim, thumbnailMaxDim, imaging.Lanczos)
	thumbURI, err := artifact.DataURI(thumb)
	if err != nil {
		return err
	}

	palette := make([]paletteRow, len(s.Palette))
	for i, e := range s.Palette {
		palette[i] = paletteRow{
			Hex:     fmt.Sprintf("#%02x%02x%02x", e.Color.R, e.Color.G, e.Color.B),
			Percent: e.Share * 100,
		}
	}

	f, err := os.Create(filepath.Join(dir, "report.html"))
	if err != nil {
		return err
	}
	defer f.Close()
	return reportTemplate.Execute(f, map[string]interface{}{
		"Name":        filepath.Base(name),
		"Thumbnail":   template.URL(thumbURI),
		"RepHex":      fmt.Sprintf("#%02x%02x%02x", s.Verdict.Color.R, s.Verdict.Color.G, s.Verdict.Color.B),
		"Uniform":     s.Verdict.Uniform,
		"Variance":    s.Verdict.Variance,
		"Samples":     s.Samples,
		"DomHex":      fmt.Sprintf("#%02x%02x%02x", s.Dominant.R, s.Dominant.G, s.Dominant.B),
		"DomDistance": s.DominantDistance,
		"Palette":     palette,
	})
}
