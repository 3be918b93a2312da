package hitselect

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/banshee-data/clever/internal/config"
	"github.com/banshee-data/clever/internal/hits"
)

// StageCluster names the cluster finder in errors and logs.
const StageCluster = "cluster"

// ClusterStats summarises one cluster search.
type ClusterStats struct {
	Retained      int // clusters that reached the running best size
	BestSize      int // size of the largest retained cluster
	MinOccurrence int // occurrence threshold applied to the chosen cluster
}

// ClusterFinder searches the causal graph for the largest set of mutually
// related hits.
type ClusterFinder struct {
	minRelated int
	tieBreak   string
}

// NewClusterFinder creates a cluster finder. The tie-break policy decides
// which retained cluster wins when several share the maximal size.
func NewClusterFinder(c config.Constants) *ClusterFinder {
	return &ClusterFinder{minRelated: c.MinRelated, tieBreak: c.ClusterTieBreak}
}

// Apply runs the seed-pair search on a set sorted by the causal builder and
// reduces the set to the chosen cluster, sorted by time descending.
func (f *ClusterFinder) Apply(s *hits.Set) (ClusterStats, error) {
	retained := f.search(s)
	stats := ClusterStats{Retained: len(retained)}
	if len(retained) == 0 {
		return stats, hits.Insufficient(StageCluster, 0, f.minRelated)
	}

	for _, c := range retained {
		c.Iterate(func(m uint32) bool {
			s.Records[m].ClusterOccurrence++
			return true
		})
	}

	chosen := f.choose(retained)
	stats.BestSize = int(chosen.GetCardinality())
	stats.MinOccurrence = 1 + 2*(len(retained)-1)/3

	final := roaring.New()
	chosen.Iterate(func(m uint32) bool {
		if s.Records[m].ClusterOccurrence >= stats.MinOccurrence {
			final.Add(m)
		}
		return true
	})

	// One pass over relations inside the surviving set, counted before any
	// member is dropped.
	keep := roaring.New()
	final.Iterate(func(m uint32) bool {
		c := s.Graph.DegreeWithin(int(m), final)
		s.Records[m].SelectedRelationCount = c
		if c >= f.minRelated {
			keep.Add(m)
		}
		return true
	})

	if int(keep.GetCardinality()) < f.minRelated {
		return stats, hits.Insufficient(StageCluster, int(keep.GetCardinality()), f.minRelated)
	}

	s.Compact(func(i int, _ *hits.Record) bool { return keep.Contains(uint32(i)) })
	s.Recount()
	s.SortStable(func(x, y *hits.Record) bool { return x.Time > y.Time })
	return stats, nil
}

// search enumerates seed pairs in sorted order and returns every candidate
// cluster that reached the running best size, in discovery order.
func (f *ClusterFinder) search(s *hits.Set) []*roaring.Bitmap {
	n := s.Len()
	g := s.Graph
	best := f.minRelated
	var retained []*roaring.Bitmap

	for s1 := 0; s1 < n; s1++ {
		for s2 := s1 + 1; s2 < n; s2++ {
			if !g.Related(s1, s2) || s.Records[s2].RelationCount < best {
				continue
			}

			candidate := g.Common(s1, s2)
			candidate.Add(uint32(s1))
			candidate.Add(uint32(s2))
			if int(candidate.GetCardinality()) < f.minRelated {
				continue
			}

			repair(g, candidate)

			if size := int(candidate.GetCardinality()); size >= best {
				retained = append(retained, candidate)
				best = size
			}
		}
	}
	return retained
}

// repair removes members until every pair in candidate is related. For the
// first unrelated pair found, the member with fewer relations inside the
// candidate goes; on a tie both go. Counts are recomputed after each drop.
func repair(g *hits.Graph, candidate *roaring.Bitmap) {
	for {
		a, b, ok := firstUnrelatedPair(g, candidate)
		if !ok {
			return
		}
		da := g.DegreeWithin(a, candidate)
		db := g.DegreeWithin(b, candidate)
		switch {
		case da < db:
			candidate.Remove(uint32(a))
		case db < da:
			candidate.Remove(uint32(b))
		default:
			candidate.Remove(uint32(a))
			candidate.Remove(uint32(b))
		}
	}
}

// firstUnrelatedPair returns the lexicographically first pair (a < b) of
// candidate members that are not related.
func firstUnrelatedPair(g *hits.Graph, candidate *roaring.Bitmap) (int, int, bool) {
	members := candidate.ToArray()
	size := len(members)
	for ai, a := range members {
		// A member related to every other member cannot start a bad pair.
		if g.DegreeWithin(int(a), candidate) == size-1 {
			continue
		}
		for _, b := range members[ai+1:] {
			if !g.Related(int(a), int(b)) {
				return int(a), int(b), true
			}
		}
	}
	return 0, 0, false
}

// choose picks the maximal-size retained cluster according to the
// tie-break policy.
func (f *ClusterFinder) choose(retained []*roaring.Bitmap) *roaring.Bitmap {
	var maxSize uint64
	for _, c := range retained {
		if c.GetCardinality() > maxSize {
			maxSize = c.GetCardinality()
		}
	}
	if f.tieBreak == config.TieBreakFirst {
		for _, c := range retained {
			if c.GetCardinality() == maxSize {
				return c
			}
		}
	}
	for i := len(retained) - 1; i >= 0; i-- {
		if retained[i].GetCardinality() == maxSize {
			return retained[i]
		}
	}
	return nil
}
