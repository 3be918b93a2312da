package hitselect

import (
	"github.com/banshee-data/clever/internal/config"
	"github.com/banshee-data/clever/internal/geometry"
	"github.com/banshee-data/clever/internal/hits"
)

// testLimits mirrors a 10 m x 10 m cylindrical detector.
func testLimits() geometry.Limits {
	return geometry.Limits{
		DeltaTMax:    15,
		DeltaRMax2:   560 * 560,
		TraverseTMax: 65,
		SearchRadius: 450,
		SearchHeight: 450,
		CmPerNs:      21.8,
	}
}

func identicalHits(n int) []hits.Hit {
	out := make([]hits.Hit, n)
	for i := range out {
		out[i] = hits.Hit{Time: 1, Charge: 1, X: 1, Y: 1, Z: 1}
	}
	return out
}

// setWithEdges builds a set of n hits with distinct times and the given
// relations, counts kept in sync through Relate.
func setWithEdges(n int, edges [][2]int) *hits.Set {
	raw := make([]hits.Hit, n)
	for i := range raw {
		raw[i] = hits.Hit{Time: float64(i), Charge: 1}
	}
	s := hits.NewSet(raw)
	for _, e := range edges {
		s.Relate(e[0], e[1])
	}
	return s
}

func clique(members ...int) [][2]int {
	var out [][2]int
	for a := 0; a < len(members); a++ {
		for b := a + 1; b < len(members); b++ {
			out = append(out, [2]int{members[a], members[b]})
		}
	}
	return out
}

func indices(s *hits.Set) []int {
	out := make([]int, s.Len())
	for i, r := range s.Records {
		out[i] = r.Index
	}
	return out
}

func defaultConstants() config.Constants {
	return config.DefaultConstants()
}
