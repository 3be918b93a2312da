package hitselect

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/clever/internal/config"
	"github.com/banshee-data/clever/internal/hits"
)

func TestClusterFinder_RepairsToClique(t *testing.T) {
	edges := append(clique(0, 1, 2, 3, 4), [2]int{5, 0}, [2]int{5, 1}, [2]int{6, 5})
	s := setWithEdges(7, edges)

	stats, err := NewClusterFinder(defaultConstants()).Apply(s)
	require.NoError(t, err)

	assert.Equal(t, ClusterStats{Retained: 1, BestSize: 5, MinOccurrence: 1}, stats)
	assert.Equal(t, []int{4, 3, 2, 1, 0}, indices(s), "selected hits sorted by time descending")
	for _, r := range s.Records {
		assert.Equal(t, 4, r.SelectedRelationCount)
	}
	require.NoError(t, s.CheckInvariants())
}

func TestClusterFinder_TieBreak(t *testing.T) {
	// Two disjoint four-cliques bridged by one edge whose endpoints seed
	// both searches.
	edges := append(clique(0, 1, 2, 3), clique(4, 5, 6, 7)...)
	edges = append(edges, [2]int{1, 5})

	tests := []struct {
		policy string
		want   []int
	}{
		{config.TieBreakLast, []int{7, 6, 5, 4}},
		{config.TieBreakFirst, []int{3, 2, 1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			c := defaultConstants()
			c.ClusterTieBreak = tt.policy
			s := setWithEdges(8, edges)

			stats, err := NewClusterFinder(c).Apply(s)
			require.NoError(t, err)
			assert.Equal(t, 2, stats.Retained)
			assert.Equal(t, 4, stats.BestSize)
			assert.Equal(t, tt.want, indices(s))
		})
	}
}

func TestClusterFinder_NoCluster(t *testing.T) {
	s := setWithEdges(4, [][2]int{{0, 1}, {1, 2}, {2, 3}})

	_, err := NewClusterFinder(defaultConstants()).Apply(s)
	require.Error(t, err)

	var se *hits.StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageCluster, se.Stage)
}

func TestClusterFinder_OccurrenceCounted(t *testing.T) {
	edges := append(clique(0, 1, 2, 3), clique(4, 5, 6, 7)...)
	edges = append(edges, [2]int{1, 5})
	s := setWithEdges(8, edges)
	before := make(map[int]bool)
	for _, r := range s.Records {
		before[r.Index] = true
	}

	_, err := NewClusterFinder(defaultConstants()).Apply(s)
	require.NoError(t, err)
	for _, r := range s.Records {
		assert.True(t, before[r.Index])
		assert.Equal(t, 1, r.ClusterOccurrence)
	}
}
