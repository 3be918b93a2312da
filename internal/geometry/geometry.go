// Package geometry derives the per-configuration distance and time limits
// the hit selection and test point stages read. It runs once per detector
// configuration, never per event.
package geometry

import (
	"errors"
	"math"

	"github.com/banshee-data/clever/internal/config"
)

// ErrNoSensors is returned when the sensor table is empty.
var ErrNoSensors = errors.New("geometry: no sensors")

// Position is a sensor location in cm.
type Position struct {
	X, Y, Z float64
}

// Limits holds everything the reconstruction core needs from the detector
// geometry. It is immutable once built.
type Limits struct {
	DeltaTMax    float64 // ns, max time difference for two coincident sensors
	DeltaRMax2   float64 // cm², max squared separation for two coincident sensors
	TraverseTMax float64 // ns, light travel time across the detector diagonal
	SearchRadius float64 // cm
	SearchHeight float64 // cm, half-height
	CmPerNs      float64 // group speed of light in the medium
}

// FromSensors scans the sensor positions for the outer radius and
// half-height and derives the limits from them.
func FromSensors(sensors []Position, c config.Constants) (Limits, error) {
	if len(sensors) == 0 {
		return Limits{}, ErrNoSensors
	}

	var r2max, zmax float64
	for _, p := range sensors {
		if r2 := p.X*p.X + p.Y*p.Y; r2 > r2max {
			r2max = r2
		}
		if z := math.Abs(p.Z); z > zmax {
			zmax = z
		}
	}

	rmax := math.Sqrt(r2max)
	circumference := 2 * math.Pi * rmax
	dRmax := c.PairDistanceFraction * circumference

	return Limits{
		DeltaTMax:    c.PairTimeFraction * circumference / c.CmPerNs,
		DeltaRMax2:   dRmax * dRmax,
		TraverseTMax: 2 * math.Sqrt(r2max+zmax*zmax) / c.CmPerNs,
		SearchRadius: rmax - c.StandoffCm,
		SearchHeight: zmax - c.StandoffCm,
		CmPerNs:      c.CmPerNs,
	}, nil
}

// SearchRadius2 returns the squared search radius.
func (l Limits) SearchRadius2() float64 {
	return l.SearchRadius * l.SearchRadius
}

// Contains reports whether (x, y, z) lies inside the search volume.
func (l Limits) Contains(x, y, z float64) bool {
	return math.Abs(z) < l.SearchHeight && x*x+y*y < l.SearchRadius2()
}
