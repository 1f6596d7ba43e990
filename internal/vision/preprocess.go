package vision

// Preprocessor normalizes a frame and cuts out candidate plate
// regions. It is a pure transformation: same frame in, same regions
// out, no I/O.
type Preprocessor struct {
	// EdgeThreshold is the minimum horizontal gradient magnitude
	// counted as an edge pixel.
	EdgeThreshold int
	// MinDensity is the fraction of edge pixels a row must carry to
	// belong to a candidate band. Plate characters produce dense
	// horizontal transitions.
	MinDensity float64
	MinWidth   int
	MinHeight  int
	MaxRegions int
}

func NewPreprocessor() *Preprocessor {
	return &Preprocessor{
		EdgeThreshold: 40,
		MinDensity:    0.08,
		MinWidth:      24,
		MinHeight:     8,
		MaxRegions:    4,
	}
}

// Prepare returns zero or more candidate regions ordered top to
// bottom. Regions are grayscale crops with bounds in the original
// frame's coordinate space.
func (p *Preprocessor) Prepare(f Frame) ([]CandidateRegion, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	gray := grayscale(f)
	stretchContrast(gray)
	blurred := boxBlur3(gray, f.Width, f.Height)

	edges, rowCounts := horizontalEdges(blurred, f.Width, f.Height, p.EdgeThreshold)

	var regions []CandidateRegion
	minRow := int(p.MinDensity * float64(f.Width))
	y := 0
	for y < f.Height && len(regions) < p.MaxRegions {
		if rowCounts[y] < minRow {
			y++
			continue
		}
		top := y
		for y < f.Height && rowCounts[y] >= minRow {
			y++
		}
		bottom := y // exclusive
		if bottom-top < p.MinHeight {
			continue
		}
		left, right := columnSpan(edges, f.Width, top, bottom)
		if right-left < p.MinWidth {
			continue
		}
		regions = append(regions, CandidateRegion{
			Frame:  crop(blurred, f, left, top, right, bottom),
			Bounds: Rect{X: left, Y: top, W: right - left, H: bottom - top},
		})
	}
	return regions, nil
}

func grayscale(f Frame) []byte {
	if f.Channels == 1 {
		out := make([]byte, len(f.Pixels))
		copy(out, f.Pixels)
		return out
	}
	out := make([]byte, f.Width*f.Height)
	for i := range out {
		r := int(f.Pixels[i*3])
		g := int(f.Pixels[i*3+1])
		b := int(f.Pixels[i*3+2])
		out[i] = byte((299*r + 587*g + 114*b) / 1000)
	}
	return out
}

// stretchContrast rescales intensities to the full [0,255] range in
// place. Flat images are left untouched.
func stretchContrast(px []byte) {
	lo, hi := byte(255), byte(0)
	for _, v := range px {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi <= lo {
		return
	}
	span := int(hi) - int(lo)
	for i, v := range px {
		px[i] = byte((int(v) - int(lo)) * 255 / span)
	}
}

// boxBlur3 applies a 3x3 mean filter, the denoise step.
func boxBlur3(px []byte, w, h int) []byte {
	out := make([]byte, len(px))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum, n := 0, 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					yy, xx := y+dy, x+dx
					if yy < 0 || yy >= h || xx < 0 || xx >= w {
						continue
					}
					sum += int(px[yy*w+xx])
					n++
				}
			}
			out[y*w+x] = byte(sum / n)
		}
	}
	return out
}

func horizontalEdges(px []byte, w, h, threshold int) ([]bool, []int) {
	edges := make([]bool, w*h)
	rowCounts := make([]int, h)
	for y := 0; y < h; y++ {
		for x := 1; x < w; x++ {
			d := int(px[y*w+x]) - int(px[y*w+x-1])
			if d < 0 {
				d = -d
			}
			if d >= threshold {
				edges[y*w+x] = true
				rowCounts[y]++
			}
		}
	}
	return edges, rowCounts
}

// columnSpan finds the horizontal extent of edge activity inside a
// row band. Returns an empty span when the band has no edges.
func columnSpan(edges []bool, w, top, bottom int) (int, int) {
	left, right := w, 0
	for y := top; y < bottom; y++ {
		for x := 0; x < w; x++ {
			if !edges[y*w+x] {
				continue
			}
			if x < left {
				left = x
			}
			if x+1 > right {
				right = x + 1
			}
		}
	}
	if left >= right {
		return 0, 0
	}
	return left, right
}

func crop(px []byte, f Frame, left, top, right, bottom int) Frame {
	w, h := right-left, bottom-top
	out := make([]byte, w*h)
	for y := 0; y < h; y++ {
		copy(out[y*w:(y+1)*w], px[(top+y)*f.Width+left:(top+y)*f.Width+right])
	}
	return Frame{
		Width:     w,
		Height:    h,
		Channels:  1,
		Pixels:    out,
		Timestamp: f.Timestamp,
	}
}
