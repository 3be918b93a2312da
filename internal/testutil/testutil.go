// Package testutil provides shared test utilities and fixtures.
//
// The fixtures build a cylindrical detector and synthetic events lit by a
// known point source, so reconstruction tests can compare candidates with
// the true vertex.
package testutil

import (
	"math"
	"math/rand"
	"testing"

	"github.com/banshee-data/clever/internal/geometry"
	"github.com/banshee-data/clever/internal/hits"
)

// Source is a true event vertex: position in cm, emission time in ns.
type Source struct {
	X, Y, Z, T float64
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// CylinderSensors lays sensors on the side wall of a cylinder in rings
// spaced by pitch, and on both end caps on a square grid of the same pitch.
func CylinderSensors(radius, halfHeight, pitch float64) []geometry.Position {
	var out []geometry.Position

	perRing := int(2 * math.Pi * radius / pitch)
	for z := -halfHeight; z <= halfHeight+1e-9; z += pitch {
		for k := 0; k < perRing; k++ {
			phi := 2 * math.Pi * float64(k) / float64(perRing)
			out = append(out, geometry.Position{X: radius * math.Cos(phi), Y: radius * math.Sin(phi), Z: z})
		}
	}

	inner := radius - pitch/2
	for x := -inner; x <= inner; x += pitch {
		for y := -inner; y <= inner; y += pitch {
			if x*x+y*y > inner*inner {
				continue
			}
			out = append(out,
				geometry.Position{X: x, Y: y, Z: halfHeight},
				geometry.Position{X: x, Y: y, Z: -halfHeight},
			)
		}
	}
	return out
}

// PointSourceHits lights n randomly chosen sensors from src with no timing
// noise. Charge falls off with distance.
func PointSourceHits(sensors []geometry.Position, src Source, cmPerNs float64, n int, rng *rand.Rand) []hits.Hit {
	idx := rng.Perm(len(sensors))
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]hits.Hit, 0, n)
	for _, k := range idx[:n] {
		p := sensors[k]
		d := Distance(p.X, p.Y, p.Z, src.X, src.Y, src.Z)
		out = append(out, hits.Hit{
			Time:   src.T + d/cmPerNs,
			Charge: 1e4 / (d*d + 1),
			X:      p.X,
			Y:      p.Y,
			Z:      p.Z,
		})
	}
	return out
}

// NoiseHits returns n hits on random sensors at uniformly random times in
// [t0, t0+span).
func NoiseHits(sensors []geometry.Position, t0, span float64, n int, rng *rand.Rand) []hits.Hit {
	out := make([]hits.Hit, 0, n)
	for i := 0; i < n; i++ {
		p := sensors[rng.Intn(len(sensors))]
		out = append(out, hits.Hit{
			Time:   t0 + rng.Float64()*span,
			Charge: rng.Float64(),
			X:      p.X,
			Y:      p.Y,
			Z:      p.Z,
		})
	}
	return out
}

// Distance returns the Euclidean distance between two points.
func Distance(x1, y1, z1, x2, y2, z2 float64) float64 {
	dx, dy, dz := x1-x2, y1-y2, z1-z2
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
