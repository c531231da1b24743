package segmentation

import (
	"math"
	"sort"
)

// PickPeaks returns indexes of local maxima of curve that exceed
// mean + delta·stddev of the curve. A peak must be the largest value within
// radius positions on either side; of equal neighbours the first wins.
// Peaks closer than minGap to a stronger peak are dropped.
func PickPeaks(curve []float64, radius int, delta float64, minGap int) []int {
	if len(curve) == 0 {
		return nil
	}

	var sum, sq float64
	for _, v := range curve {
		sum += v
	}
	mean := sum / float64(len(curve))
	for _, v := range curve {
		sq += (v - mean) * (v - mean)
	}
	threshold := mean + delta*math.Sqrt(sq/float64(len(curve)))

	var candidates []int
	for i, v := range curve {
		if v <= 0 || v < threshold {
			continue
		}
		isMax := true
		for j := i - radius; j <= i+radius; j++ {
			if j < 0 || j >= len(curve) || j == i {
				continue
			}
			if curve[j] > v || (curve[j] == v && j < i) {
				isMax = false
				break
			}
		}
		if isMax {
			candidates = append(candidates, i)
		}
	}

	// strongest first, then enforce spacing
	sort.SliceStable(candidates, func(a, b int) bool {
		return curve[candidates[a]] > curve[candidates[b]]
	})
	var kept []int
	for _, c := range candidates {
		ok := true
		for _, k := range kept {
			if abs(c-k) < minGap {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, c)
		}
	}
	sort.Ints(kept)
	return kept
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
