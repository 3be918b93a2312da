package reco

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/clever/internal/monitoring"
)

// Sink receives every finished result of a batch, skipped ones included.
// Calls are serialised by the batch, so implementations need no locking of
// their own.
type Sink interface {
	PersistResult(ctx context.Context, runID string, r *Result) error
}

// Summary totals the outcomes of one batch.
type Summary struct {
	RunID         string
	Events        int
	Reconstructed int
	Skipped       int
	Failed        int
	Candidates    int
}

func (s Summary) String() string {
	return fmt.Sprintf("run %s: %d events, %d reconstructed, %d skipped, %d failed, %d candidates",
		s.RunID, s.Events, s.Reconstructed, s.Skipped, s.Failed, s.Candidates)
}

// Batch processes independent events on a bounded worker pool.
type Batch struct {
	Reconstructor *Reconstructor
	Workers       int  // defaults to GOMAXPROCS
	Sink          Sink // optional
	RunID         string

	mu sync.Mutex
}

// Run reconstructs every event and returns the results in input order.
// Per-event skips and failures are recorded in the results; Run itself
// fails only when the context is cancelled or the sink rejects a result.
func (b *Batch) Run(ctx context.Context, events []Event) ([]*Result, Summary, error) {
	workers := b.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]*Result, len(events))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, ev := range events {
		if gctx.Err() != nil {
			break
		}
		i, ev := i, ev
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, _ := b.Reconstructor.Reconstruct(ev)
			results[i] = res
			if b.Sink == nil {
				return nil
			}
			b.mu.Lock()
			defer b.mu.Unlock()
			if err := b.Sink.PersistResult(gctx, b.RunID, res); err != nil {
				return fmt.Errorf("persisting event %s: %w", res.EventID, err)
			}
			return nil
		})
	}

	err := g.Wait()
	sum := summarise(b.RunID, results)
	monitoring.Logf("[batch] %s", sum)
	if err == nil {
		err = ctx.Err()
	}
	return results, sum, err
}

func summarise(runID string, results []*Result) Summary {
	sum := Summary{RunID: runID}
	for _, r := range results {
		if r == nil {
			continue
		}
		sum.Events++
		switch r.Outcome {
		case monitoring.OutcomeReconstructed:
			sum.Reconstructed++
			sum.Candidates += len(r.Candidates)
		case monitoring.OutcomeSkipped:
			sum.Skipped++
		default:
			sum.Failed++
		}
	}
	return sum
}
