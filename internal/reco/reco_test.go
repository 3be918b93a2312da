package reco

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/clever/internal/config"
	"github.com/banshee-data/clever/internal/geometry"
	"github.com/banshee-data/clever/internal/hits"
	"github.com/banshee-data/clever/internal/monitoring"
	"github.com/banshee-data/clever/internal/testpoints"
	"github.com/banshee-data/clever/internal/testutil"
	"github.com/banshee-data/clever/internal/timeutil"
)

func quiet(t *testing.T) {
	t.Helper()
	prev := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(prev) })
}

func newReconstructor(t *testing.T) (*Reconstructor, []geometry.Position, config.Constants) {
	t.Helper()
	c := config.DefaultConstants()
	sensors := testutil.CylinderSensors(500, 500, 100)
	limits, err := geometry.FromSensors(sensors, c)
	require.NoError(t, err)
	return New(c, limits), sensors, c
}

func TestReconstruct_PointSource(t *testing.T) {
	quiet(t)
	r, sensors, c := newReconstructor(t)
	r.SetClock(timeutil.NewSteppingClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Millisecond))

	src := testutil.Source{X: 120, Y: -80, Z: 40, T: 10}
	rng := rand.New(rand.NewSource(7))
	ev := Event{ID: "ev-1", Hits: testutil.PointSourceHits(sensors, src, c.CmPerNs, 24, rng)}

	res, err := r.Reconstruct(ev)
	require.NoError(t, err)
	require.True(t, res.Reconstructed())
	assert.Equal(t, "ev-1", res.EventID)
	assert.Equal(t, time.Millisecond, res.Elapsed)
	assert.NoError(t, res.Err)

	require.GreaterOrEqual(t, len(res.Selected), c.MinSelectedHits)
	for i := 1; i < len(res.Selected); i++ {
		assert.GreaterOrEqual(t, res.Selected[i-1].Time, res.Selected[i].Time)
	}
	assert.Equal(t, len(res.Selected), res.Counts.Selected)
	assert.Len(t, res.Window.Bounds, len(res.Selected)-3)

	require.NotEmpty(t, res.Candidates)
	best := 1e9
	for _, v := range res.Candidates {
		if v.Source != testpoints.SourceFourHit {
			continue
		}
		if d := testutil.Distance(v.X, v.Y, v.Z, src.X, src.Y, src.Z); d < best {
			best = d
		}
	}
	assert.Less(t, best, 15.0)
}

func TestReconstruct_AssignsEventID(t *testing.T) {
	quiet(t)
	r, _, _ := newReconstructor(t)

	res, err := r.Reconstruct(Event{Hits: []hits.Hit{{Time: 1}, {Time: 2}}})
	require.Error(t, err)
	_, perr := uuid.Parse(res.EventID)
	assert.NoError(t, perr)
}

func TestReconstruct_Skipped(t *testing.T) {
	quiet(t)
	r, _, _ := newReconstructor(t)

	res, err := r.Reconstruct(Event{ID: "sparse", Hits: []hits.Hit{{Time: 0}, {Time: 1, X: 10}, {Time: 900}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, hits.ErrInsufficientHits))
	assert.Equal(t, monitoring.OutcomeSkipped, res.Outcome)
	assert.Equal(t, err, res.Err)
	assert.Equal(t, 3, res.Counts.Raw)
	assert.Empty(t, res.Candidates)
}

func TestReconstruct_TooManyHitsFails(t *testing.T) {
	quiet(t)
	c := config.DefaultConstants()
	c.MaxHits = 4
	r := New(c, geometry.Limits{CmPerNs: c.CmPerNs, DeltaTMax: 10, DeltaRMax2: 1e6, TraverseTMax: 50})

	res, err := r.Reconstruct(Event{ID: "busy", Hits: make([]hits.Hit, 5)})
	require.ErrorIs(t, err, hits.ErrTooManyHits)
	assert.Equal(t, monitoring.OutcomeFailed, res.Outcome)
	assert.False(t, res.Reconstructed())
}

func TestAscendingHits(t *testing.T) {
	in := []hits.Record{{Hit: hits.Hit{Time: 3}}, {Hit: hits.Hit{Time: 2}}, {Hit: hits.Hit{Time: 1}}}
	got := ascendingHits(in)
	assert.Equal(t, []float64{1, 2, 3}, []float64{got[0].Time, got[1].Time, got[2].Time})
}

type recordingSink struct {
	mu     sync.Mutex
	seen   map[string]string
	failOn string
}

func (s *recordingSink) PersistResult(_ context.Context, runID string, r *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.EventID == s.failOn {
		return errors.New("disk full")
	}
	if s.seen == nil {
		s.seen = make(map[string]string)
	}
	s.seen[r.EventID] = runID + ":" + r.Outcome
	return nil
}

func batchEvents(t *testing.T, sensors []geometry.Position, c config.Constants) []Event {
	t.Helper()
	rng := rand.New(rand.NewSource(11))
	var events []Event
	for i := 0; i < 6; i++ {
		src := testutil.Source{X: float64(40 * i), Y: -60, Z: float64(20 * i), T: 0}
		events = append(events, Event{
			ID:   "good-" + string(rune('a'+i)),
			Hits: testutil.PointSourceHits(sensors, src, c.CmPerNs, 12, rng),
		})
	}
	events = append(events, Event{ID: "sparse", Hits: []hits.Hit{{Time: 0}, {Time: 500}}})
	return events
}

func TestBatch_Run(t *testing.T) {
	quiet(t)
	r, sensors, c := newReconstructor(t)
	events := batchEvents(t, sensors, c)
	sink := &recordingSink{}

	b := &Batch{Reconstructor: r, Workers: 3, Sink: sink, RunID: "run-1"}
	results, sum, err := b.Run(context.Background(), events)
	require.NoError(t, err)
	require.Len(t, results, len(events))

	for i, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, events[i].ID, res.EventID, "results keep input order")
	}
	assert.Equal(t, Summary{
		RunID:         "run-1",
		Events:        7,
		Reconstructed: 6,
		Skipped:       1,
		Candidates:    sum.Candidates,
	}, sum)
	assert.Greater(t, sum.Candidates, 0)

	assert.Len(t, sink.seen, 7)
	assert.Equal(t, "run-1:"+monitoring.OutcomeSkipped, sink.seen["sparse"])
	assert.Contains(t, sum.String(), "6 reconstructed")
}

func TestBatch_SinkError(t *testing.T) {
	quiet(t)
	r, sensors, c := newReconstructor(t)
	events := batchEvents(t, sensors, c)

	b := &Batch{Reconstructor: r, Workers: 1, Sink: &recordingSink{failOn: "good-b"}}
	_, _, err := b.Run(context.Background(), events)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "good-b")
}

func TestBatch_Cancelled(t *testing.T) {
	quiet(t)
	r, sensors, c := newReconstructor(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := &Batch{Reconstructor: r}
	_, sum, err := b.Run(ctx, batchEvents(t, sensors, c))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, sum.Events)
}
