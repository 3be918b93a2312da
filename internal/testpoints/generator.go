package testpoints

import (
	"errors"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/banshee-data/clever/internal/config"
	"github.com/banshee-data/clever/internal/geometry"
	"github.com/banshee-data/clever/internal/hits"
	"github.com/banshee-data/clever/internal/monitoring"
)

// Stats counts what one Generate call produced.
type Stats struct {
	Seeds        int
	Combinations int // four-hit systems solved
	Solved       int // four-hit vertices before merging
	Degenerate   int // systems with more than one admissible vertex
	Unsolved     int // systems with none
	Merged       int // four-hit vertices after merging
}

// Generator builds vertex candidates for one detector configuration. It
// holds no per-event state.
type Generator struct {
	limits       geometry.Limits
	sideFraction float64
	capFraction  float64
	sep2         float64
}

// NewGenerator creates a candidate generator.
func NewGenerator(c config.Constants, l geometry.Limits) *Generator {
	return &Generator{
		limits:       l,
		sideFraction: c.SideFraction,
		capFraction:  c.CapFraction,
		sep2:         c.MinPointSeparation2,
	}
}

// Generate returns the seeds of every hit followed by the merged solutions
// of every four-hit combination within bounds. hits must be ascending in
// time, and bounds[i] is the last hit index combinable with hit i.
func (g *Generator) Generate(ascending []hits.Hit, bounds []int) ([]Vertex, Stats) {
	seeds := g.Seeds(ascending)
	solved, stats := g.solveAll(ascending, bounds)
	merged := Merge(solved, g.sep2)

	stats.Seeds = len(seeds)
	stats.Solved = len(solved)
	stats.Merged = len(merged)
	return append(seeds, merged...), stats
}

func (g *Generator) solveAll(ascending []hits.Hit, bounds []int) ([]Vertex, Stats) {
	var (
		stats Stats
		out   []Vertex
		pick  = make([]int, 3)
		quad  [4]hits.Hit
	)

	for i, last := range bounds {
		k := last - i
		if k < 3 {
			continue
		}
		quad[0] = ascending[i]
		gen := combin.NewCombinationGenerator(k, 3)
		for gen.Next() {
			gen.Combination(pick)
			for q, off := range pick {
				quad[q+1] = ascending[i+1+off]
			}
			stats.Combinations++

			sol, err := SolveFourHit(quad, g.limits.CmPerNs)
			if err != nil {
				monitoring.Logf("testpoints: start hit %d: %v", i, err)
				stats.Unsolved++
				continue
			}
			if errors.Is(sol.Err(), hits.ErrNumericDegeneracy) {
				stats.Degenerate++
			}
			if len(sol.Vertices) == 0 {
				stats.Unsolved++
			}
			out = append(out, sol.Vertices...)
		}
	}
	return out, stats
}
