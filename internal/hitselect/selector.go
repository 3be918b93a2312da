package hitselect

import (
	"fmt"

	"github.com/banshee-data/clever/internal/config"
	"github.com/banshee-data/clever/internal/geometry"
	"github.com/banshee-data/clever/internal/hits"
)

// StageSelection names the final selected-hit count check.
const StageSelection = "selection"

// Counts records the working-set size after each stage of one selection.
type Counts struct {
	Raw      int
	Isolated int
	Causal   int
	Selected int
	Cluster  ClusterStats
}

// Selector chains the isolation filter, causal graph builder and cluster
// finder for one detector configuration. It holds no per-event state and is
// safe for concurrent use.
type Selector struct {
	isolation   *IsolationFilter
	causal      *CausalGraphBuilder
	cluster     *ClusterFinder
	maxHits     int
	minSelected int
}

// NewSelector builds every selection stage from the same constants and
// limits.
func NewSelector(c config.Constants, l geometry.Limits) *Selector {
	return &Selector{
		isolation:   NewIsolationFilter(c, l),
		causal:      NewCausalGraphBuilder(c, l),
		cluster:     NewClusterFinder(c),
		maxHits:     c.MaxHits,
		minSelected: c.MinSelectedHits,
	}
}

// Select runs the three stages over the raw hits of one event. On success
// the returned set holds the selected hits sorted by time descending. On
// failure the counts show how far the event got.
func (sel *Selector) Select(raw []hits.Hit) (*hits.Set, Counts, error) {
	counts := Counts{Raw: len(raw)}
	if len(raw) > sel.maxHits {
		return nil, counts, fmt.Errorf("%d hits exceeds limit %d: %w", len(raw), sel.maxHits, hits.ErrTooManyHits)
	}

	s := hits.NewSet(raw)

	if err := sel.isolation.Apply(s); err != nil {
		counts.Isolated = s.Len()
		return nil, counts, err
	}
	counts.Isolated = s.Len()

	if err := sel.causal.Apply(s); err != nil {
		counts.Causal = s.Len()
		return nil, counts, err
	}
	counts.Causal = s.Len()

	stats, err := sel.cluster.Apply(s)
	counts.Cluster = stats
	if err != nil {
		return nil, counts, err
	}
	counts.Selected = s.Len()

	if s.Len() < sel.minSelected {
		return nil, counts, hits.Insufficient(StageSelection, s.Len(), sel.minSelected)
	}
	return s, counts, nil
}
