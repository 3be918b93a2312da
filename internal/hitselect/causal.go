package hitselect

import (
	"github.com/banshee-data/clever/internal/config"
	"github.com/banshee-data/clever/internal/geometry"
	"github.com/banshee-data/clever/internal/hits"
)

// StageCausal names the causal graph builder in errors and logs.
const StageCausal = "causal"

// CausalGraphBuilder relates pairs of hits that could have been lit by the
// same point source and prunes hits with too few relations.
type CausalGraphBuilder struct {
	coincidence  float64
	traverseTMax float64
	speed2       float64
	minRelated   int
}

// NewCausalGraphBuilder creates a builder for one detector configuration.
func NewCausalGraphBuilder(c config.Constants, l geometry.Limits) *CausalGraphBuilder {
	return &CausalGraphBuilder{
		coincidence:  c.CoincidenceNs,
		traverseTMax: l.TraverseTMax,
		speed2:       l.CmPerNs * l.CmPerNs,
		minRelated:   c.MinRelated,
	}
}

// CheckCausal reports whether a and b are causally related: the light
// travel time between the two sensors must be at least their time
// difference, unless the hits are in perfect coincidence.
func (b *CausalGraphBuilder) CheckCausal(x, y hits.Hit) bool {
	dt := hits.DeltaT(x, y)
	if dt <= b.coincidence {
		return true
	}
	if dt > b.traverseTMax {
		return false
	}
	return dt*dt <= hits.Distance2(x, y)/b.speed2
}

// Build replaces the relation graph of s with the causal relation and
// resets every cached count to match.
func (b *CausalGraphBuilder) Build(s *hits.Set) {
	n := s.Len()
	s.Graph = hits.NewGraph(n)
	for i := range s.Records {
		s.Records[i].RelationCount = 0
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if b.CheckCausal(s.Records[i].Hit, s.Records[j].Hit) {
				s.Relate(i, j)
			}
		}
	}
}

// Prune clears the relations of every hit with fewer than minRelated (but
// more than zero) relations, drops hits left without relations, and sorts
// the survivors by relation count then charge, both descending.
//
// The clearing pass runs once over a snapshot of the counts. Hits pushed
// below the threshold by that pass keep their remaining relations.
func (b *CausalGraphBuilder) Prune(s *hits.Set) error {
	var weak []int
	for i := range s.Records {
		if c := s.Records[i].RelationCount; c > 0 && c < b.minRelated {
			weak = append(weak, i)
		}
	}
	for _, i := range weak {
		s.ClearRelations(i)
	}

	s.Compact(func(_ int, r *hits.Record) bool { return r.RelationCount > 0 })

	if s.Len() <= b.minRelated {
		return hits.Insufficient(StageCausal, s.Len(), b.minRelated+1)
	}

	s.SortStable(func(x, y *hits.Record) bool {
		if x.RelationCount != y.RelationCount {
			return x.RelationCount > y.RelationCount
		}
		return x.Charge > y.Charge
	})
	return nil
}

// Apply builds the causal graph and prunes it.
func (b *CausalGraphBuilder) Apply(s *hits.Set) error {
	b.Build(s)
	return b.Prune(s)
}
