package combos

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/banshee-data/clever/internal/config"
	"github.com/banshee-data/clever/internal/hits"
)

// minPartners is the number of later hits a start hit needs to form one
// four-hit combination.
const minPartners = 3

// Result is the outcome of one window search.
type Result struct {
	Window       float64 // ns; hits combine with a start hit when t_j - t_i < Window
	Ideal        int64
	Combinations int64 // combinations under Window, capped at MaxCombinations
	Steps        int
	AllHits      bool // every start hit combines with all later hits
	Fallback     bool // no exact match; Window is the best one observed

	// Bounds[i] is the index of the last hit combinable with start hit i,
	// inclusive. Bounds[i] == i means hit i starts no combination. There is
	// one entry per start hit, i.e. max(N-3, 0) entries.
	Bounds []int
}

// Err reports ErrCombinationOverflow when the search fell back to its best
// observed window. The result is usable either way.
func (r Result) Err() error {
	if r.Fallback {
		return fmt.Errorf("window %.3f ns gives %d combinations, ideal %d: %w",
			r.Window, r.Combinations, r.Ideal, hits.ErrCombinationOverflow)
	}
	return nil
}

// Solver searches the combination window for one detector configuration.
// It holds no per-event state.
type Solver struct {
	maxComboHits    int
	maxCombinations int64
	tolerance       float64
	maxSteps        int
}

// NewSolver creates a window solver.
func NewSolver(c config.Constants) *Solver {
	return &Solver{
		maxComboHits:    c.MaxComboHits,
		maxCombinations: c.MaxCombinations,
		tolerance:       c.WindowToleranceNs,
		maxSteps:        c.MaxWindowSteps,
	}
}

// IdealCombinations returns the target combination count for n selected
// hits:
//
//	0.5 + (n-3)·(1 + ratio·(C(m,3)/4 - 1)),  ratio = (m-3)/(n-3)
//
// truncated and capped at max. It needs n >= 4.
func IdealCombinations(n, m int, max int64) int64 {
	if n < 4 {
		return 0
	}
	ratio := float64(m-3) / float64(n-3)
	ideal := 0.5 + float64(n-3)*(1+ratio*(0.25*float64(combin.Binomial(m, 3))-1))
	if ideal >= float64(max) {
		return max
	}
	return int64(ideal)
}

// Count returns Σ C(k_i, 3) over start hits i, where k_i is the number of
// later hits with t_j - t_i < w. times must be ascending. The sum saturates
// at the solver's MaxCombinations.
func (s *Solver) Count(times []float64, w float64) int64 {
	var total int64
	for i := range times {
		k := partners(times, i, w)
		if k < minPartners {
			continue
		}
		total += int64(combin.Binomial(k, minPartners))
		if total >= s.maxCombinations {
			return s.maxCombinations
		}
	}
	return total
}

// partners counts hits after i that fall inside the window.
func partners(times []float64, i int, w float64) int {
	rest := times[i+1:]
	return sort.Search(len(rest), func(j int) bool { return rest[j]-times[i] >= w })
}

// Solve picks the window for hits with the given ascending times.
func (s *Solver) Solve(times []float64) Result {
	n := len(times)
	if n < 4 {
		return Result{}
	}

	ideal := IdealCombinations(n, s.maxComboHits, s.maxCombinations)
	if total := int64(combin.Binomial(n, 4)); total <= ideal {
		return s.allHits(n, times, ideal, total)
	}

	lo, hi := 0.0, times[n-1]-times[0]+s.tolerance
	w := hi / 2
	c := s.Count(times, w)
	best, bestDiff := w, absDiff(c, ideal)
	exact := c == ideal

	steps := 0
	for ; !exact && steps < s.maxSteps; steps++ {
		if c < ideal {
			lo = w
		} else {
			hi = w
		}
		if hi-lo < s.tolerance {
			break
		}

		w = s.next(w, c, ideal, lo, hi)
		c = s.Count(times, w)
		if d := absDiff(c, ideal); d < bestDiff {
			best, bestDiff = w, d
		}
		exact = c == ideal
	}

	bounds := Bounds(times, best)
	return Result{
		Window:       best,
		Ideal:        ideal,
		Combinations: s.Count(times, best),
		Steps:        steps,
		Fallback:     !exact,
		Bounds:       bounds,
	}
}

// next bisects the bracket while the count is far from ideal and takes a
// cube-root Newton step once it is close.
func (s *Solver) next(w float64, c, ideal int64, lo, hi float64) float64 {
	mid := 0.5 * (lo + hi)
	if c == 0 || float64(absDiff(c, ideal)) > 0.5*float64(ideal) {
		return mid
	}
	step := w * float64(2*c+ideal) / float64(3*c)
	if step <= lo || step >= hi || math.IsNaN(step) {
		return mid
	}
	return step
}

func (s *Solver) allHits(n int, times []float64, ideal, total int64) Result {
	bounds := make([]int, n-minPartners)
	for i := range bounds {
		bounds[i] = n - 1
	}
	if total > s.maxCombinations {
		total = s.maxCombinations
	}
	return Result{
		Window:       times[n-1] - times[0] + s.tolerance,
		Ideal:        ideal,
		Combinations: total,
		AllHits:      true,
		Bounds:       bounds,
	}
}

// Bounds returns, for every start hit, the index of its last combinable
// hit under window w. Start hits with fewer than three partners map to
// themselves.
func Bounds(times []float64, w float64) []int {
	n := len(times)
	if n < 4 {
		return nil
	}
	out := make([]int, n-minPartners)
	for i := range out {
		k := partners(times, i, w)
		if k < minPartners {
			out[i] = i
			continue
		}
		out[i] = i + k
	}
	return out
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
