package raster

// DilateRect grows the mask with a square structuring element of the given
// side length, repeated for the given number of iterations. The element is
// anchored at its centre (side/2 for even sides, matching the common
// convention). Removal masks are grown this way to absorb the anti-aliased
// fringe the segmentation leaves around an object; side 1 or fewer
// iterations than 1 return an unchanged copy.
func DilateRect(m *Mask, side, iterations int) *Mask {
	out := m.Clone()
	if side <= 1 || iterations < 1 || m.W == 0 {
		return out
	}
	lo := -(side / 2)
	hi := side - 1 - side/2

	// A square element separates into a horizontal and a vertical pass.
	tmp := NewMask(m.W, m.H)
	for it := 0; it < iterations; it++ {
		dilateSpanH(out, tmp, lo, hi)
		dilateSpanV(tmp, out, lo, hi)
	}
	return out
}

// dilateSpanH sets dst(x,y) when any src(x+o,y) for o in [lo,hi] is set.
func dilateSpanH(src, dst *Mask, lo, hi int) {
	w := src.W
	for y := 0; y < src.H; y++ {
		row := src.Pix[y*w : (y+1)*w]
		drow := dst.Pix[y*w : (y+1)*w]

		// Running count of set pixels inside the sliding window.
		count := 0
		for x := lo; x < hi; x++ {
			if x >= 0 && x < w && row[x] != 0 {
				count++
			}
		}
		for x := 0; x < w; x++ {
			if in := x + hi; in >= 0 && in < w && row[in] != 0 {
				count++
			}
			if drop := x + lo - 1; drop >= 0 && drop < w && row[drop] != 0 {
				count--
			}
			if count > 0 {
				drow[x] = Foreground
			} else {
				drow[x] = 0
			}
		}
	}
}

// dilateSpanV sets dst(x,y) when any src(x,y+o) for o in [lo,hi] is set.
func dilateSpanV(src, dst *Mask, lo, hi int) {
	w, h := src.W, src.H
	for x := 0; x < w; x++ {
		count := 0
		for y := lo; y < hi; y++ {
			if y >= 0 && y < h && src.Pix[y*w+x] != 0 {
				count++
			}
		}
		for y := 0; y < h; y++ {
			if in := y + hi; in >= 0 && in < h && src.Pix[in*w+x] != 0 {
				count++
			}
			if drop := y + lo - 1; drop >= 0 && drop < h && src.Pix[drop*w+x] != 0 {
				count--
			}
			if count > 0 {
				dst.Pix[y*w+x] = Foreground
			} else {
				dst.Pix[y*w+x] = 0
			}
		}
	}
}

// DilateDisk grows the mask with a disc structuring element of the given
// radius (a radius-7 disc spans the familiar 15×15 kernel), repeated for the
// given number of iterations. The exclusion mask handed to the background
// profiler is grown this way so border samples never touch object fringe.
func DilateDisk(m *Mask, radius, iterations int) *Mask {
	out := m.Clone()
	if radius < 1 || iterations < 1 || m.W == 0 {
		return out
	}

	// Offsets inside the disc, precomputed once.
	var offs []Point
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				offs = append(offs, Point{X: dx, Y: dy})
			}
		}
	}

	w, h := m.W, m.H
	for it := 0; it < iterations; it++ {
		src := out
		out = NewMask(w, h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if src.Pix[y*w+x] == 0 {
					continue
				}
				for _, o := range offs {
					out.Set(x+o.X, y+o.Y)
				}
			}
		}
	}
	return out
}
