package hits

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Graph is the symmetric, irreflexive relation between the records of one
// event. Row i holds the positions related to position i.
type Graph struct {
	rows []*roaring.Bitmap
}

// NewGraph returns an empty graph over n positions.
func NewGraph(n int) *Graph {
	rows := make([]*roaring.Bitmap, n)
	for i := range rows {
		rows[i] = roaring.New()
	}
	return &Graph{rows: rows}
}

// Len returns the number of positions.
func (g *Graph) Len() int { return len(g.rows) }

// Relate adds the edge i-j to both rows. It reports whether the edge is new.
// Self-edges are ignored.
func (g *Graph) Relate(i, j int) bool {
	if i == j {
		return false
	}
	if !g.rows[i].CheckedAdd(uint32(j)) {
		return false
	}
	g.rows[j].Add(uint32(i))
	return true
}

// Unrelate removes the edge i-j from both rows. It reports whether the edge
// existed.
func (g *Graph) Unrelate(i, j int) bool {
	if i == j {
		return false
	}
	if !g.rows[i].CheckedRemove(uint32(j)) {
		return false
	}
	g.rows[j].Remove(uint32(i))
	return true
}

// Related reports whether i and j are related.
func (g *Graph) Related(i, j int) bool {
	return g.rows[i].Contains(uint32(j))
}

// Degree returns the popcount of row i.
func (g *Graph) Degree(i int) int {
	return int(g.rows[i].GetCardinality())
}

// Neighbors returns the positions related to i in ascending order.
func (g *Graph) Neighbors(i int) []int {
	arr := g.rows[i].ToArray()
	out := make([]int, len(arr))
	for k, v := range arr {
		out[k] = int(v)
	}
	return out
}

// Common returns the positions related to both i and j. Neither i nor j is
// ever in the result.
func (g *Graph) Common(i, j int) *roaring.Bitmap {
	return roaring.And(g.rows[i], g.rows[j])
}

// DegreeWithin returns how many members of set are related to i.
func (g *Graph) DegreeWithin(i int, set *roaring.Bitmap) int {
	return int(g.rows[i].AndCardinality(set))
}

// Permute returns a new graph whose position k is old position order[k].
// Positions missing from order are dropped together with their edges.
func (g *Graph) Permute(order []int) *Graph {
	inv := make([]int, len(g.rows))
	for i := range inv {
		inv[i] = -1
	}
	for k, old := range order {
		inv[old] = k
	}

	out := &Graph{rows: make([]*roaring.Bitmap, len(order))}
	for k, old := range order {
		row := roaring.New()
		g.rows[old].Iterate(func(j uint32) bool {
			if nk := inv[j]; nk >= 0 {
				row.Add(uint32(nk))
			}
			return true
		})
		out.rows[k] = row
	}
	return out
}

// Validate checks symmetry and irreflexivity.
func (g *Graph) Validate() error {
	for i, row := range g.rows {
		if row.Contains(uint32(i)) {
			return fmt.Errorf("position %d is related to itself", i)
		}
		var err error
		row.Iterate(func(j uint32) bool {
			if int(j) >= len(g.rows) {
				err = fmt.Errorf("position %d relates to out-of-range %d", i, j)
				return false
			}
			if !g.rows[j].Contains(uint32(i)) {
				err = fmt.Errorf("relation %d-%d is not symmetric", i, j)
				return false
			}
			return true
		})
		if err != nil {
			return err
		}
	}
	return nil
}
