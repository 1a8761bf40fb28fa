package render

import (
	"math"

	"github.com/daniacca/popsim/internal/popsim"
)

// RadialAverage averages g over rings of equal distance from (cx, cy).
// Distances use the nearest periodic image and are rounded to the nearest
// integer, so element r of the result is the mean count of the sites whose
// rounded distance is r.
func RadialAverage(g popsim.Grid, cx, cy int) []float64 {
	if g.Width == 0 || g.Height == 0 {
		return nil
	}
	var sums []float64
	var counts []int
	for y := range g.Height {
		for x := range g.Width {
			dx := periodicDelta(x-cx, g.Width)
			dy := periodicDelta(y-cy, g.Height)
			r := int(math.Round(math.Hypot(float64(dx), float64(dy))))
			for len(sums) <= r {
				sums = append(sums, 0)
				counts = append(counts, 0)
			}
			sums[r] += float64(g.At(x, y))
			counts[r]++
		}
	}
	for r := range sums {
		if counts[r] > 0 {
			sums[r] /= float64(counts[r])
		}
	}
	return sums
}

// periodicDelta maps d onto the shortest signed offset on a ring of size n.
func periodicDelta(d, n int) int {
	d %= n
	if d > n/2 {
		d -= n
	} else if d < -n/2 {
		d += n
	}
	return d
}
