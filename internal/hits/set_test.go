package hits

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fiveHits() []Hit {
	return []Hit{
		{Time: 10, Charge: 1, X: 0},
		{Time: 11, Charge: 2, X: 10},
		{Time: 12, Charge: 3, X: 20},
		{Time: 13, Charge: 4, X: 30},
		{Time: 14, Charge: 5, X: 40},
	}
}

func TestGraph_SymmetricAndIrreflexive(t *testing.T) {
	g := NewGraph(4)

	assert.False(t, g.Relate(2, 2), "self edge must be ignored")
	assert.True(t, g.Relate(0, 3))
	assert.False(t, g.Relate(3, 0), "reverse edge already exists")

	for i := 0; i < 4; i++ {
		assert.False(t, g.Related(i, i))
		for j := 0; j < 4; j++ {
			assert.Equal(t, g.Related(i, j), g.Related(j, i), "related(%d,%d)", i, j)
		}
	}
	require.NoError(t, g.Validate())

	assert.True(t, g.Unrelate(3, 0))
	assert.False(t, g.Related(0, 3))
	assert.Equal(t, 0, g.Degree(0))
}

func TestGraph_Common(t *testing.T) {
	g := NewGraph(5)
	g.Relate(0, 1)
	g.Relate(0, 2)
	g.Relate(0, 3)
	g.Relate(1, 2)
	g.Relate(1, 3)
	g.Relate(1, 4)

	common := g.Common(0, 1)
	assert.Equal(t, []uint32{2, 3}, common.ToArray())
	assert.Equal(t, 2, g.DegreeWithin(1, common))
	assert.Equal(t, 0, g.DegreeWithin(4, common))
}

func TestGraph_Permute(t *testing.T) {
	g := NewGraph(4)
	g.Relate(0, 1)
	g.Relate(1, 3)
	g.Relate(2, 3)

	// New order: old 3, old 1, old 0 (old 2 dropped).
	p := g.Permute([]int{3, 1, 0})
	require.Equal(t, 3, p.Len())
	assert.True(t, p.Related(0, 1), "old 3-1")
	assert.True(t, p.Related(1, 2), "old 1-0")
	assert.False(t, p.Related(0, 2), "old 3-0 never existed")
	assert.Equal(t, 1, p.Degree(0), "edge to dropped old 2 removed")
	require.NoError(t, p.Validate())
}

func TestSet_RelateKeepsCountsInSync(t *testing.T) {
	s := NewSet(fiveHits())
	s.Relate(0, 1)
	s.Relate(0, 2)
	s.Relate(1, 2)
	s.Relate(1, 2) // duplicate
	s.Relate(3, 3) // self

	require.NoError(t, s.CheckInvariants())
	assert.Equal(t, 2, s.Records[0].RelationCount)
	assert.Equal(t, 2, s.Records[1].RelationCount)
	assert.Equal(t, 0, s.Records[3].RelationCount)

	s.ClearRelations(1)
	require.NoError(t, s.CheckInvariants())
	assert.Equal(t, 0, s.Records[1].RelationCount)
	assert.Equal(t, 1, s.Records[0].RelationCount)
	assert.Equal(t, 1, s.Records[2].RelationCount)
}

func TestSet_CompactIsStable(t *testing.T) {
	s := NewSet(fiveHits())
	s.Relate(0, 4)
	s.Relate(1, 4)
	s.Relate(2, 3)

	s.Compact(func(_ int, r *Record) bool { return r.Index != 2 })

	require.Equal(t, 4, s.Len())
	got := []int{}
	for _, r := range s.Records {
		got = append(got, r.Index)
	}
	assert.Equal(t, []int{0, 1, 3, 4}, got)

	// Cached counts are not touched by compaction, so the record that lost
	// its only partner must be re-synced by whichever stage dropped it.
	assert.True(t, s.Graph.Related(0, 3), "old 0-4")
	assert.True(t, s.Graph.Related(1, 3), "old 1-4")
	assert.Equal(t, 0, s.Graph.Degree(2), "old 3 lost its partner")
	assert.Error(t, s.CheckInvariants())

	s.Recount()
	require.NoError(t, s.CheckInvariants())
	assert.Equal(t, 0, s.Records[2].RelationCount)
}

func TestSet_SortStable(t *testing.T) {
	raw := fiveHits()
	raw[1].Charge = 9
	raw[3].Charge = 9
	s := NewSet(raw)
	s.Relate(1, 3)

	s.SortStable(func(a, b *Record) bool { return a.Charge > b.Charge })

	assert.Equal(t, 1, s.Records[0].Index)
	assert.Equal(t, 3, s.Records[1].Index, "tie keeps input order")
	assert.True(t, s.Graph.Related(0, 1))
	require.NoError(t, s.CheckInvariants())
}

func TestDeltaAndDistance(t *testing.T) {
	a := Hit{Time: 5, X: 1, Y: 2, Z: 3}
	b := Hit{Time: 2, X: 4, Y: 6, Z: 3}
	assert.Equal(t, 3.0, DeltaT(a, b))
	assert.Equal(t, 3.0, DeltaT(b, a))
	assert.Equal(t, 25.0, Distance2(a, b))
}

func TestFromArrays(t *testing.T) {
	out, err := FromArrays([]float64{1, 2}, []float64{3, 4}, []float64{5, 6}, []float64{7, 8}, []float64{9, 10})
	require.NoError(t, err)
	assert.Equal(t, Hit{Time: 2, Charge: 4, X: 6, Y: 8, Z: 10}, out[1])

	_, err = FromArrays([]float64{1}, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestStageError(t *testing.T) {
	err := Insufficient("isolation", 2, 3)
	assert.True(t, errors.Is(err, ErrInsufficientHits))

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "isolation", se.Stage)
	assert.Contains(t, err.Error(), "2 hits remaining, need 3")
}
