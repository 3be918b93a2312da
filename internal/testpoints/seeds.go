package testpoints

import (
	"math"

	"github.com/banshee-data/clever/internal/hits"
)

// Seed projects a hit's sensor position inward: side-wall sensors move
// towards the axis by SideFraction, cap sensors towards the mid-plane by
// CapFraction. The seed time is the hit time less the light travel time
// over the projection distance. ok is false when the projected point falls
// outside the search volume.
func (g *Generator) Seed(h hits.Hit) (v Vertex, ok bool) {
	x, y, z := h.X, h.Y, h.Z
	if math.Abs(h.Z) < g.limits.SearchHeight {
		x *= g.sideFraction
		y *= g.sideFraction
	} else {
		z *= g.capFraction
	}
	if !g.limits.Contains(x, y, z) {
		return Vertex{}, false
	}

	dx, dy, dz := h.X-x, h.Y-y, h.Z-z
	d := math.Sqrt(dx*dx + dy*dy + dz*dz)
	return Vertex{X: x, Y: y, Z: z, T: h.Time - d/g.limits.CmPerNs, Source: SourceSeed}, true
}

// Seeds returns one seed per hit whose projection lands in the search
// volume, in hit order.
func (g *Generator) Seeds(selected []hits.Hit) []Vertex {
	out := make([]Vertex, 0, len(selected))
	for _, h := range selected {
		if v, ok := g.Seed(h); ok {
			out = append(out, v)
		}
	}
	return out
}
