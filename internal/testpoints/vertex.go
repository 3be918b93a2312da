package testpoints

import "math"

// Source records how a vertex candidate was produced.
type Source int

const (
	SourceSeed Source = iota
	SourceFourHit
)

func (s Source) String() string {
	switch s {
	case SourceSeed:
		return "seed"
	case SourceFourHit:
		return "fourhit"
	default:
		return "unknown"
	}
}

// Vertex is a candidate emission point: position in cm, time in ns.
type Vertex struct {
	X, Y, Z, T float64
	Source     Source
}

// Distance2 returns the squared spatial separation of two vertices.
func Distance2(a, b Vertex) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return dx*dx + dy*dy + dz*dz
}

func (v Vertex) finite() bool {
	for _, f := range [...]float64{v.X, v.Y, v.Z, v.T} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
