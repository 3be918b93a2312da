package recodb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/clever/internal/config"
	"github.com/banshee-data/clever/internal/hits"
	"github.com/banshee-data/clever/internal/reco"
	"github.com/banshee-data/clever/internal/testpoints"
	"github.com/banshee-data/clever/internal/timeutil"
)

// ErrNotFound is returned when a run or event does not exist.
var ErrNotFound = errors.New("recodb: not found")

// Run is one stored batch.
type Run struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    *time.Time
	Sensors       int
	Constants     config.Constants
	Notes         string
	Events        int
	Reconstructed int
	Skipped       int
	Failed        int
}

// EventRow is the stored summary of one event.
type EventRow struct {
	RunID             string
	EventID           string
	Outcome           string
	Error             string
	RawHits           int
	IsolatedHits      int
	CausalHits        int
	SelectedHits      int
	ClustersRetained  int
	WindowNs          float64
	IdealCombinations int64
	Combinations      int64
	WindowFallback    bool
	DegenerateSolves  int
	Seeds             int
	Elapsed           time.Duration
}

// Store reads and writes reconstruction results. It implements reco.Sink.
type Store struct {
	db    *DB
	clock timeutil.Clock
}

var _ reco.Sink = (*Store)(nil)

// NewStore creates a Store over a migrated database.
func NewStore(db *DB) *Store {
	return &Store{db: db, clock: timeutil.RealClock{}}
}

// SetClock replaces the clock used for run timestamps.
func (s *Store) SetClock(c timeutil.Clock) {
	s.clock = c
}

// StartRun records a new run and returns its generated ID.
func (s *Store) StartRun(ctx context.Context, c config.Constants, sensors int, notes string) (string, error) {
	constants, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode constants: %w", err)
	}
	id := uuid.New().String()
	started := s.clock.Now().UnixNano()

	err = retryOnBusy(func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO runs (run_id, started_at, sensor_count, constants_json, notes)
			VALUES (?, ?, ?, ?, ?)`,
			id, started, sensors, string(constants), notes)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	return id, nil
}

// FinishRun stamps the run with its end time and outcome totals.
func (s *Store) FinishRun(ctx context.Context, runID string, sum reco.Summary) error {
	finished := s.clock.Now().UnixNano()
	var res sql.Result
	err := retryOnBusy(func() error {
		var err error
		res, err = s.db.ExecContext(ctx, `
			UPDATE runs
			SET finished_at = ?, events = ?, reconstructed = ?, skipped = ?, failed = ?
			WHERE run_id = ?`,
			finished, sum.Events, sum.Reconstructed, sum.Skipped, sum.Failed, runID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// PersistResult writes one event with its selected hits and candidates in
// a single transaction.
func (s *Store) PersistResult(ctx context.Context, runID string, r *reco.Result) error {
	return retryOnBusy(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if err := insertEvent(ctx, tx, runID, r); err != nil {
			return err
		}
		for i, rec := range r.Selected {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO selected_hits (run_id, event_id, position, hit_index, t_ns, charge, x_cm, y_cm, z_cm, relation_count)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				runID, r.EventID, i, rec.Index, rec.Time, rec.Charge, rec.X, rec.Y, rec.Z, rec.RelationCount); err != nil {
				return fmt.Errorf("failed to insert selected hit: %w", err)
			}
		}
		for i, v := range r.Candidates {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO candidates (run_id, event_id, position, source, x_cm, y_cm, z_cm, t_ns)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				runID, r.EventID, i, v.Source.String(), v.X, v.Y, v.Z, v.T); err != nil {
				return fmt.Errorf("failed to insert candidate: %w", err)
			}
		}
		return tx.Commit()
	})
}

func insertEvent(ctx context.Context, tx *sql.Tx, runID string, r *reco.Result) error {
	var errText string
	if r.Err != nil {
		errText = r.Err.Error()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO events (
			run_id, event_id, outcome, error,
			raw_hits, isolated_hits, causal_hits, selected_hits, clusters_retained,
			window_ns, ideal_combinations, combinations, window_fallback,
			degenerate_solves, seeds, elapsed_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, r.EventID, r.Outcome, errText,
		r.Counts.Raw, r.Counts.Isolated, r.Counts.Causal, r.Counts.Selected, r.Counts.Cluster.Retained,
		r.Window.Window, r.Window.Ideal, r.Window.Combinations, r.Window.Fallback,
		r.Points.Degenerate, r.Points.Seeds, r.Elapsed.Nanoseconds())
	if err != nil {
		return fmt.Errorf("failed to insert event %s: %w", r.EventID, err)
	}
	return nil
}

// GetRun loads one run.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	var (
		run       Run
		started   int64
		finished  sql.NullInt64
		constants string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, started_at, finished_at, sensor_count, constants_json, notes,
		       events, reconstructed, skipped, failed
		FROM runs WHERE run_id = ?`, runID).Scan(
		&run.ID, &started, &finished, &run.Sensors, &constants, &run.Notes,
		&run.Events, &run.Reconstructed, &run.Skipped, &run.Failed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	run.StartedAt = time.Unix(0, started).UTC()
	if finished.Valid {
		t := time.Unix(0, finished.Int64).UTC()
		run.FinishedAt = &t
	}
	if err := json.Unmarshal([]byte(constants), &run.Constants); err != nil {
		return nil, fmt.Errorf("failed to decode constants of run %s: %w", runID, err)
	}
	return &run, nil
}

// ListEvents returns the events of a run ordered by event ID.
func (s *Store) ListEvents(ctx context.Context, runID string) ([]EventRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, event_id, outcome, error,
		       raw_hits, isolated_hits, causal_hits, selected_hits, clusters_retained,
		       window_ns, ideal_combinations, combinations, window_fallback,
		       degenerate_solves, seeds, elapsed_ns
		FROM events WHERE run_id = ? ORDER BY event_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var (
			e       EventRow
			elapsed int64
		)
		if err := rows.Scan(&e.RunID, &e.EventID, &e.Outcome, &e.Error,
			&e.RawHits, &e.IsolatedHits, &e.CausalHits, &e.SelectedHits, &e.ClustersRetained,
			&e.WindowNs, &e.IdealCombinations, &e.Combinations, &e.WindowFallback,
			&e.DegenerateSolves, &e.Seeds, &elapsed); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		e.Elapsed = time.Duration(elapsed)
		out = append(out, e)
	}
	return out, rows.Err()
}

// SelectedHits returns the stored selected hits of an event, time
// descending as they were selected.
func (s *Store) SelectedHits(ctx context.Context, runID, eventID string) ([]hits.Hit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t_ns, charge, x_cm, y_cm, z_cm FROM selected_hits
		WHERE run_id = ? AND event_id = ? ORDER BY position`, runID, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query selected hits: %w", err)
	}
	defer rows.Close()

	var out []hits.Hit
	for rows.Next() {
		var h hits.Hit
		if err := rows.Scan(&h.Time, &h.Charge, &h.X, &h.Y, &h.Z); err != nil {
			return nil, fmt.Errorf("failed to scan selected hit: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Candidates returns the stored vertex candidates of an event in output
// order.
func (s *Store) Candidates(ctx context.Context, runID, eventID string) ([]testpoints.Vertex, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, x_cm, y_cm, z_cm, t_ns FROM candidates
		WHERE run_id = ? AND event_id = ? ORDER BY position`, runID, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	var out []testpoints.Vertex
	for rows.Next() {
		var (
			v      testpoints.Vertex
			source string
		)
		if err := rows.Scan(&source, &v.X, &v.Y, &v.Z, &v.T); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		if source == testpoints.SourceFourHit.String() {
			v.Source = testpoints.SourceFourHit
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
