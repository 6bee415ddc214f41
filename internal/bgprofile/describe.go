package bgprofile

import (
	"image"
	"sort"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/plateworks/cleanplate/internal/imgutil"
	"github.com/plateworks/cleanplate/internal/raster"
)

// DefaultPaletteK is the number of k-means clusters reported by Describe.
const DefaultPaletteK = 4

// paletteMaxSamples caps the k-means input so large borders stay tractable.
const paletteMaxSamples = 12000

// PaletteEntry is one clustered border colour and the share of samples that
// landed in its cluster.
type PaletteEntry struct {
	Color RGB     `json:"color"`
	Share float64 `json:"share"`
}

// Summary augments a Verdict with diagnostic colour analysis of the sampled
// band. None of it feeds back into the verdict; it exists for reports and
// run records.
type Summary struct {
	Verdict  Verdict `json:"verdict"`
	Samples  int     `json:"samples"`
	Dominant RGB     `json:"dominant"`
	// DominantDistance is the CIE-Lab distance between the representative
	// and dominant colours; large values flag a border whose mean is not a
	// colour that actually occurs there.
	DominantDistance float64        `json:"dominant_distance"`
	Palette          []PaletteEntry `json:"palette,omitempty"`
}

// Describe profiles the image and adds the diagnostic extras: the dominant
// sampled colour, its Lab distance from the representative mean, and a
// k-cluster palette of the band. Like Profile it never fails; the palette is
// simply omitted when clustering cannot run.
func (p *Profiler) Describe(img image.Image, exclude *raster.Mask, k int) Summary {
	src := imgutil.AsNRGBA(img)
	rs, gs, bs := p.collectSamples(src, exclude)

	verdict := p.verdictFrom(rs, gs, bs)
	out := Summary{Verdict: verdict, Samples: len(rs), Dominant: verdict.Color}
	if len(rs) == 0 {
		return out
	}

	// Dominant colour of the band, via a strip image of the raw samples.
	strip := image.NewNRGBA(image.Rect(0, 0, len(rs), 1))
	for i := range rs {
		strip.Pix[i*4] = uint8(rs[i])
		strip.Pix[i*4+1] = uint8(gs[i])
		strip.Pix[i*4+2] = uint8(bs[i])
		strip.Pix[i*4+3] = 0xFF
	}
	dom := dominantcolor.Find(strip)
	out.Dominant = RGB{R: dom.R, G: dom.G, B: dom.B}

	if rep, ok := colorful.MakeColor(verdict.Color.NRGBA()); ok {
		if domc, ok := colorful.MakeColor(out.Dominant.NRGBA()); ok {
			out.DominantDistance = rep.DistanceLab(domc)
		}
	}

	out.Palette = clusterPalette(rs, gs, bs, k)
	return out
}

// clusterPalette k-means-clusters the samples and returns the cluster
// centres ordered by population.
func clusterPalette(rs, gs, bs []float64, k int) []PaletteEntry {
	if k <= 0 {
		k = DefaultPaletteK
	}
	step := 1
	if len(rs) > paletteMaxSamples {
		step = len(rs)/paletteMaxSamples + 1
	}
	dataset := make(clusters.Observations, 0, len(rs)/step+1)
	for i := 0; i < len(rs); i += step {
		dataset = append(dataset, clusters.Coordinates{
			rs[i] / 255.0,
			gs[i] / 255.0,
			bs[i] / 255.0,
		})
	}
	if k > len(dataset) {
		k = len(dataset)
	}
	if k < 1 {
		return nil
	}

	km := kmeans.New()
	cc, err := km.Partition(dataset, k)
	if err != nil || len(cc) == 0 {
		return nil
	}
	sort.Slice(cc, func(i, j int) bool {
		return len(cc[i].Observations) > len(cc[j].Observations)
	})

	out := make([]PaletteEntry, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped()
		r8, g8, b8 := col.RGB255()
		out = append(out, PaletteEntry{
			Color: RGB{R: r8, G: g8, B: b8},
			Share: float64(len(c.Observations)) / float64(len(dataset)),
		})
	}
	return out
}
