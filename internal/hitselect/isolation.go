package hitselect

import (
	"github.com/banshee-data/clever/internal/config"
	"github.com/banshee-data/clever/internal/geometry"
	"github.com/banshee-data/clever/internal/hits"
)

// StageIsolation names the isolation filter in errors and logs.
const StageIsolation = "isolation"

// IsolationFilter removes hits that have no other hit close to them in both
// time and space.
type IsolationFilter struct {
	deltaTMax  float64
	deltaRMax2 float64
	minHits    int
}

// NewIsolationFilter creates an isolation filter for one detector
// configuration.
func NewIsolationFilter(c config.Constants, l geometry.Limits) *IsolationFilter {
	return &IsolationFilter{
		deltaTMax:  l.DeltaTMax,
		deltaRMax2: l.DeltaRMax2,
		minHits:    c.MinIsolatedHits,
	}
}

// CheckCoincidence reports whether hits i and j are close enough in time and
// space to vouch for each other.
func (f *IsolationFilter) CheckCoincidence(s *hits.Set, i, j int) bool {
	a, b := s.Records[i].Hit, s.Records[j].Hit
	return hits.DeltaT(a, b) < f.deltaTMax && hits.Distance2(a, b) < f.deltaRMax2
}

// DeltaDistance2 returns the squared separation of hits i and j.
func DeltaDistance2(s *hits.Set, i, j int) float64 {
	return hits.Distance2(s.Records[i].Hit, s.Records[j].Hit)
}

// Apply marks every hit with at least one coincident partner and compacts
// the set to the marked hits. It never grows the set.
func (f *IsolationFilter) Apply(s *hits.Set) error {
	n := s.Len()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if s.Records[i].Selected && s.Records[j].Selected {
				continue
			}
			if f.CheckCoincidence(s, i, j) {
				s.Records[i].Selected = true
				s.Records[j].Selected = true
			}
		}
	}

	s.Compact(func(_ int, r *hits.Record) bool { return r.Selected })

	if s.Len() < f.minHits {
		return hits.Insufficient(StageIsolation, s.Len(), f.minHits)
	}
	return nil
}
