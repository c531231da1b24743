package segmentation

import "math"

const minBandHz = 40.0

// bandEdges splits nBins spectrum bins into at most nBands log-spaced bands
// between minBandHz and Nyquist. Every band holds at least one bin.
func bandEdges(nBins, nBands, sampleRate int) []int {
	binHz := float64(sampleRate) / 2 / float64(nBins)
	lo := math.Max(1, math.Floor(minBandHz/binHz))
	hi := float64(nBins)

	edges := []int{int(lo)}
	ratio := math.Pow(hi/lo, 1/float64(nBands))
	for k := 1; k <= nBands; k++ {
		e := int(math.Round(lo * math.Pow(ratio, float64(k))))
		if e <= edges[len(edges)-1] {
			e = edges[len(edges)-1] + 1
		}
		if e > nBins {
			e = nBins
		}
		if e == edges[len(edges)-1] {
			break
		}
		edges = append(edges, e)
	}
	return edges
}

// BandFeatures reduces each magnitude frame to log-compressed mean band
// magnitudes.
func BandFeatures(spec [][]float64, nBands, sampleRate int) [][]float64 {
	if len(spec) == 0 || len(spec[0]) == 0 {
		return nil
	}
	edges := bandEdges(len(spec[0]), nBands, sampleRate)

	out := make([][]float64, len(spec))
	for t, frame := range spec {
		feat := make([]float64, len(edges)-1)
		for b := 0; b+1 < len(edges); b++ {
			var sum float64
			for i := edges[b]; i < edges[b+1]; i++ {
				sum += frame[i]
			}
			feat[b] = math.Log1p(sum / float64(edges[b+1]-edges[b]))
		}
		out[t] = feat
	}
	return out
}

// Pool averages consecutive groups of size frames. A trailing partial group
// is dropped.
func Pool(frames [][]float64, size int) [][]float64 {
	if size <= 1 {
		return frames
	}
	n := len(frames) / size
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		avg := make([]float64, len(frames[i*size]))
		for j := 0; j < size; j++ {
			for d, v := range frames[i*size+j] {
				avg[d] += v
			}
		}
		for d := range avg {
			avg[d] /= float64(size)
		}
		out[i] = avg
	}
	return out
}

// normalize scales each vector to unit length so that dot products are
// cosine similarities. Zero vectors stay zero.
func normalize(frames [][]float64) [][]float64 {
	out := make([][]float64, len(frames))
	for i, f := range frames {
		var norm float64
		for _, v := range f {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		u := make([]float64, len(f))
		if norm > 0 {
			for d, v := range f {
				u[d] = v / norm
			}
		}
		out[i] = u
	}
	return out
}
