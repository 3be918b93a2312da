package hitselect

import (
	"errors"
	"testing"

	"github.com/banshee-data/clever/internal/hits"
)

func TestCheckCoincidence_IdenticalHits(t *testing.T) {
	s := hits.NewSet(identicalHits(10))
	f := NewIsolationFilter(defaultConstants(), testLimits())

	if !f.CheckCoincidence(s, 2, 3) {
		t.Error("CheckCoincidence(2,3) = false, want true")
	}
	if d := DeltaDistance2(s, 2, 3); d != 0 {
		t.Errorf("DeltaDistance2(2,3) = %v, want 0", d)
	}
	if err := f.Apply(s); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if s.Len() != 10 {
		t.Errorf("kept %d hits, want 10", s.Len())
	}
}

func TestIsolationFilter_DropsIsolatedHits(t *testing.T) {
	raw := []hits.Hit{
		{Time: 10, X: 0},
		{Time: 12, X: 100},
		{Time: 14, X: 200},
		{Time: 500, X: 300}, // isolated in time
		{Time: 11, X: 5000}, // isolated in space
		{Time: 13, X: 50, Y: 50},
	}
	s := hits.NewSet(raw)
	f := NewIsolationFilter(defaultConstants(), testLimits())

	if err := f.Apply(s); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	got := indices(s)
	want := []int{0, 1, 2, 5}
	if len(got) != len(want) {
		t.Fatalf("kept %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("kept %v, want %v", got, want)
			break
		}
	}
	for _, r := range s.Records {
		if !r.Selected {
			t.Errorf("record %d kept without selection mark", r.Index)
		}
	}
}

func TestIsolationFilter_NeverGrows(t *testing.T) {
	tests := []struct {
		name string
		raw  []hits.Hit
	}{
		{"all coincident", identicalHits(6)},
		{"spread", []hits.Hit{{Time: 0}, {Time: 100}, {Time: 200}, {Time: 201}, {Time: 202}}},
		{"empty", nil},
	}
	f := NewIsolationFilter(defaultConstants(), testLimits())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := hits.NewSet(tt.raw)
			_ = f.Apply(s)
			if s.Len() > len(tt.raw) {
				t.Errorf("output %d > input %d", s.Len(), len(tt.raw))
			}
		})
	}
}

func TestIsolationFilter_InsufficientHits(t *testing.T) {
	s := hits.NewSet([]hits.Hit{{Time: 0}, {Time: 1}, {Time: 900}})
	err := NewIsolationFilter(defaultConstants(), testLimits()).Apply(s)
	if !errors.Is(err, hits.ErrInsufficientHits) {
		t.Fatalf("expected ErrInsufficientHits, got %v", err)
	}
	var se *hits.StageError
	if !errors.As(err, &se) || se.Stage != StageIsolation || se.Remaining != 2 {
		t.Errorf("unexpected stage error %+v", se)
	}
}
