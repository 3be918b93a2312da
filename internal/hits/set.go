package hits

import (
	"fmt"
	"sort"
)

// Set is the working hit list of one event together with its relation
// graph. Stages shrink and reorder it in place.
type Set struct {
	Records []Record
	Graph   *Graph
}

// NewSet wraps raw hits in records. Index follows input order and the graph
// starts empty.
func NewSet(raw []Hit) *Set {
	records := make([]Record, len(raw))
	for i, h := range raw {
		records[i] = Record{Hit: h, Index: i}
	}
	return &Set{Records: records, Graph: NewGraph(len(raw))}
}

// Len returns the number of records in the working set.
func (s *Set) Len() int { return len(s.Records) }

// Hits returns the raw hits in current order.
func (s *Set) Hits() []Hit {
	out := make([]Hit, len(s.Records))
	for i := range s.Records {
		out[i] = s.Records[i].Hit
	}
	return out
}

// Relate records a relation between i and j and bumps both cached counts
// when the edge is new.
func (s *Set) Relate(i, j int) {
	if s.Graph.Relate(i, j) {
		s.Records[i].RelationCount++
		s.Records[j].RelationCount++
	}
}

// Unrelate removes the relation between i and j, decrementing both cached
// counts when the edge existed.
func (s *Set) Unrelate(i, j int) {
	if s.Graph.Unrelate(i, j) {
		s.Records[i].RelationCount--
		s.Records[j].RelationCount--
	}
}

// ClearRelations removes every relation of i. Each cleared edge decrements
// the counterpart's count once.
func (s *Set) ClearRelations(i int) {
	for _, j := range s.Graph.Neighbors(i) {
		s.Unrelate(i, j)
	}
}

// Compact keeps the records for which keep returns true, preserving their
// relative order, and drops the rest together with their edges.
func (s *Set) Compact(keep func(i int, r *Record) bool) {
	order := make([]int, 0, len(s.Records))
	for i := range s.Records {
		if keep(i, &s.Records[i]) {
			order = append(order, i)
		}
	}
	if len(order) == len(s.Records) {
		return
	}
	s.Reorder(order)
}

// Reorder makes position k hold the record previously at order[k]. Records
// not named in order are dropped.
func (s *Set) Reorder(order []int) {
	records := make([]Record, len(order))
	for k, old := range order {
		records[k] = s.Records[old]
	}
	s.Records = records
	s.Graph = s.Graph.Permute(order)
}

// SortStable reorders the set by less, keeping equal records in their
// current relative order.
func (s *Set) SortStable(less func(a, b *Record) bool) {
	order := make([]int, len(s.Records))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return less(&s.Records[order[a]], &s.Records[order[b]])
	})
	s.Reorder(order)
}

// Recount resets every cached relation count to its row popcount.
func (s *Set) Recount() {
	for i := range s.Records {
		s.Records[i].RelationCount = s.Graph.Degree(i)
	}
}

// CheckInvariants verifies that the graph is symmetric and irreflexive and
// that every cached relation count equals its row popcount.
func (s *Set) CheckInvariants() error {
	if s.Graph.Len() != len(s.Records) {
		return fmt.Errorf("graph has %d rows for %d records", s.Graph.Len(), len(s.Records))
	}
	if err := s.Graph.Validate(); err != nil {
		return err
	}
	for i := range s.Records {
		if got, want := s.Records[i].RelationCount, s.Graph.Degree(i); got != want {
			return fmt.Errorf("record %d caches %d relations, row has %d", i, got, want)
		}
	}
	return nil
}
