package reco

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/clever/internal/combos"
	"github.com/banshee-data/clever/internal/config"
	"github.com/banshee-data/clever/internal/geometry"
	"github.com/banshee-data/clever/internal/hits"
	"github.com/banshee-data/clever/internal/hitselect"
	"github.com/banshee-data/clever/internal/monitoring"
	"github.com/banshee-data/clever/internal/testpoints"
	"github.com/banshee-data/clever/internal/timeutil"
)

// Event is one triggered readout: the raw hits of every reporting sensor.
type Event struct {
	ID   string // assigned a random UUID when empty
	Hits []hits.Hit
}

// Result is everything the pipeline learned about one event. Selected is
// sorted by time descending; Candidates hold the seeds followed by the
// merged four-hit solutions.
type Result struct {
	EventID    string
	Outcome    string // one of the monitoring.Outcome* values
	Err        error  // why the event was skipped or failed
	Selected   []hits.Record
	Candidates []testpoints.Vertex
	Counts     hitselect.Counts
	Window     combos.Result
	Points     testpoints.Stats
	Notes      []error // non-fatal outcomes: window fallback, degenerate solves
	Elapsed    time.Duration
}

// Reconstructed reports whether the event produced a candidate list.
func (r *Result) Reconstructed() bool {
	return r.Outcome == monitoring.OutcomeReconstructed
}

// SelectedHits returns the selected hits, time descending.
func (r *Result) SelectedHits() []hits.Hit {
	out := make([]hits.Hit, len(r.Selected))
	for i := range r.Selected {
		out[i] = r.Selected[i].Hit
	}
	return out
}

// Reconstructor runs the full pipeline for one detector configuration. It
// holds no per-event state and is safe for concurrent use.
type Reconstructor struct {
	selector  *hitselect.Selector
	solver    *combos.Solver
	generator *testpoints.Generator
	clock     timeutil.Clock
}

// New builds every stage from the same constants and limits.
func New(c config.Constants, l geometry.Limits) *Reconstructor {
	return &Reconstructor{
		selector:  hitselect.NewSelector(c, l),
		solver:    combos.NewSolver(c),
		generator: testpoints.NewGenerator(c, l),
		clock:     timeutil.RealClock{},
	}
}

// SetClock replaces the clock used for elapsed times.
func (r *Reconstructor) SetClock(clock timeutil.Clock) {
	r.clock = clock
}

// Reconstruct runs one event through the pipeline. The returned result is
// never nil. When an event is skipped (too few hits at some stage) or fails
// (input rejected), the error is returned and also stored in Result.Err
// alongside the stage counts reached.
func (r *Reconstructor) Reconstruct(ev Event) (*Result, error) {
	start := r.clock.Now()
	res := &Result{EventID: ev.ID}
	if res.EventID == "" {
		res.EventID = uuid.NewString()
	}

	set, counts, err := r.selector.Select(ev.Hits)
	res.Counts = counts
	observeCounts(counts)
	if err != nil {
		res.Err = err
		res.Outcome = monitoring.OutcomeFailed
		if errors.Is(err, hits.ErrInsufficientHits) {
			res.Outcome = monitoring.OutcomeSkipped
		}
		res.Elapsed = r.clock.Since(start)
		monitoring.EventsTotal.WithLabelValues(res.Outcome).Inc()
		monitoring.Stagef(stageOf(err), res.EventID, "%s: %v", res.Outcome, err)
		return res, err
	}

	res.Selected = append([]hits.Record(nil), set.Records...)
	ascending := ascendingHits(res.Selected)
	times := make([]float64, len(ascending))
	for i, h := range ascending {
		times[i] = h.Time
	}

	res.Window = r.solver.Solve(times)
	if err := res.Window.Err(); err != nil {
		res.Notes = append(res.Notes, err)
		monitoring.WindowFallbacks.Inc()
	}

	res.Candidates, res.Points = r.generator.Generate(ascending, res.Window.Bounds)
	if res.Points.Degenerate > 0 {
		res.Notes = append(res.Notes, fmt.Errorf("%d of %d four-hit systems: %w",
			res.Points.Degenerate, res.Points.Combinations, hits.ErrNumericDegeneracy))
		monitoring.DegenerateSolves.Add(float64(res.Points.Degenerate))
	}

	res.Outcome = monitoring.OutcomeReconstructed
	res.Elapsed = r.clock.Since(start)
	monitoring.EventsTotal.WithLabelValues(res.Outcome).Inc()
	monitoring.Candidates.Observe(float64(len(res.Candidates)))
	monitoring.Stagef("reco", res.EventID, "hits raw=%d isolated=%d causal=%d selected=%d window=%.2fns combos=%d candidates=%d (%d seeds) in %v",
		counts.Raw, counts.Isolated, counts.Causal, counts.Selected,
		res.Window.Window, res.Window.Combinations, len(res.Candidates), res.Points.Seeds, res.Elapsed)
	return res, nil
}

// ascendingHits reverses the time-descending selection.
func ascendingHits(selected []hits.Record) []hits.Hit {
	out := make([]hits.Hit, len(selected))
	for i := range selected {
		out[len(selected)-1-i] = selected[i].Hit
	}
	return out
}

func observeCounts(c hitselect.Counts) {
	monitoring.StageHits.WithLabelValues("raw").Observe(float64(c.Raw))
	if c.Isolated > 0 {
		monitoring.StageHits.WithLabelValues(hitselect.StageIsolation).Observe(float64(c.Isolated))
	}
	if c.Causal > 0 {
		monitoring.StageHits.WithLabelValues(hitselect.StageCausal).Observe(float64(c.Causal))
	}
	if c.Selected > 0 {
		monitoring.StageHits.WithLabelValues(hitselect.StageCluster).Observe(float64(c.Selected))
	}
}

func stageOf(err error) string {
	var se *hits.StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return hitselect.StageSelection
}
