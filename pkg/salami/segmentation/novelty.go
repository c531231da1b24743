package segmentation

import "math"

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// checkerboard returns a Gaussian-tapered checkerboard kernel of size 2L x 2L,
// indexed by offsets -L..L-1, normalized so absolute weights sum to 1.
func checkerboard(L int) [][]float64 {
	sigma := float64(L) / 2
	k := make([][]float64, 2*L)
	var total float64
	for a := -L; a < L; a++ {
		row := make([]float64, 2*L)
		for b := -L; b < L; b++ {
			x, y := float64(a)+0.5, float64(b)+0.5
			w := math.Exp(-(x*x + y*y) / (2 * sigma * sigma))
			if (a < 0) != (b < 0) {
				w = -w
			}
			row[b+L] = w
			total += math.Abs(w)
		}
		k[a+L] = row
	}
	for _, row := range k {
		for i := range row {
			row[i] /= total
		}
	}
	return k
}

// Novelty correlates a checkerboard kernel of half-width L along the diagonal
// of the cosine self-similarity matrix of features. Value i measures the
// contrast between blocks [i-L, i) and [i, i+L); positions without a full
// kernel on both sides are zero.
func Novelty(features [][]float64, L int) []float64 {
	n := len(features)
	out := make([]float64, n)
	if L < 1 || n < 2*L {
		return out
	}

	unit := normalize(features)
	kernel := checkerboard(L)
	for i := L; i+L <= n; i++ {
		var v float64
		for a := -L; a < L; a++ {
			for b := -L; b < L; b++ {
				v += kernel[a+L][b+L] * dot(unit[i+a], unit[i+b])
			}
		}
		out[i] = v
	}
	return out
}
