package testpoints

import "gonum.org/v1/gonum/floats"

// Merge averages every group of candidates lying within sqrt(sep2) of a
// surviving candidate into one point, consuming the rest of the group.
// Passes repeat until no two points are closer than that, so merging the
// output again changes nothing.
func Merge(points []Vertex, sep2 float64) []Vertex {
	out := append([]Vertex(nil), points...)
	for {
		var merged bool
		out, merged = mergePass(out, sep2)
		if !merged {
			return out
		}
	}
}

func mergePass(points []Vertex, sep2 float64) ([]Vertex, bool) {
	consumed := make([]bool, len(points))
	out := make([]Vertex, 0, len(points))
	merged := false

	for i, p := range points {
		if consumed[i] {
			continue
		}
		sum := []float64{p.X, p.Y, p.Z, p.T}
		n := 1
		for j := i + 1; j < len(points); j++ {
			if consumed[j] || Distance2(p, points[j]) >= sep2 {
				continue
			}
			q := points[j]
			floats.Add(sum, []float64{q.X, q.Y, q.Z, q.T})
			consumed[j] = true
			n++
		}
		if n > 1 {
			merged = true
			floats.Scale(1/float64(n), sum)
		}
		out = append(out, Vertex{X: sum[0], Y: sum[1], Z: sum[2], T: sum[3], Source: p.Source})
	}
	return out, merged
}
