package testpoints

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/clever/internal/hits"
)

const (
	// Singular values below rankTolerance times the largest count as zero.
	rankTolerance = 1e-10
	// Emission may trail the origin hit by at most this much (cm of light
	// travel) before a root is rejected.
	tauTolerance = 1e-6
)

// ErrSolveFailed is returned when the SVD of a four-hit system does not
// converge.
var ErrSolveFailed = errors.New("four-hit SVD did not converge")

// Solution holds the admissible vertices of one four-hit system.
type Solution struct {
	Vertices []Vertex
	Nullity  int // dimension of the system's null space, 2 in the generic case
}

// Err reports ErrNumericDegeneracy when the system admits more than one
// vertex. Every vertex is kept either way.
func (s Solution) Err() error {
	if len(s.Vertices) > 1 {
		return fmt.Errorf("%d candidates from nullity %d: %w", len(s.Vertices), s.Nullity, hits.ErrNumericDegeneracy)
	}
	return nil
}

// SolveFourHit finds the points from which light at cmPerNs reaches the
// four hits at their measured times.
//
// With the earliest hit as origin, each other hit i contributes the row
//
//	[-2dx, -2dy, -2dz, 2δ, |d|² - δ²] · [vx, vy, vz, τ, 1] = 0
//
// where d and δ = c·dt are its offsets from the origin, v is the vertex
// relative to the origin and τ = c·(T - t0). The null space of the 3×5
// system is generically a line; the origin's own light cone |v|² = τ²
// closes it to at most two points, and only roots with emission no later
// than the origin hit are kept.
func SolveFourHit(quad [4]hits.Hit, cmPerNs float64) (Solution, error) {
	o := 0
	for k := 1; k < len(quad); k++ {
		if quad[k].Time < quad[o].Time {
			o = k
		}
	}
	origin := quad[o]

	a := mat.NewDense(3, 5, nil)
	row := 0
	for k, h := range quad {
		if k == o {
			continue
		}
		dx, dy, dz := h.X-origin.X, h.Y-origin.Y, h.Z-origin.Z
		dt := cmPerNs * (h.Time - origin.Time)
		a.SetRow(row, []float64{-2 * dx, -2 * dy, -2 * dz, 2 * dt, dx*dx + dy*dy + dz*dz - dt*dt})
		row++
	}

	null, err := nullSpace(a)
	if err != nil {
		return Solution{}, err
	}

	var rel [][]float64
	if len(null) == 2 {
		rel = closeNullLine(null[0], null[1])
	} else {
		for _, n := range null {
			if math.Abs(n[4]) < rankTolerance {
				continue
			}
			rel = append(rel, affine(n))
		}
	}

	sol := Solution{Nullity: len(null)}
	for _, p := range rel {
		v := Vertex{
			X:      origin.X + p[0],
			Y:      origin.Y + p[1],
			Z:      origin.Z + p[2],
			T:      origin.Time + p[3]/cmPerNs,
			Source: SourceFourHit,
		}
		if v.finite() {
			sol.Vertices = append(sol.Vertices, v)
		}
	}
	return sol, nil
}

// nullSpace returns the right singular vectors of a whose singular values
// vanish, including the ones a wide matrix has no value for.
func nullSpace(a *mat.Dense) ([][]float64, error) {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFull) {
		return nil, ErrSolveFailed
	}
	values := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)

	rank := 0
	if len(values) > 0 && values[0] > 0 {
		for _, s := range values {
			if s > rankTolerance*values[0] {
				rank++
			}
		}
	}

	_, cols := v.Dims()
	out := make([][]float64, 0, cols-rank)
	for j := rank; j < cols; j++ {
		out = append(out, mat.Col(nil, j, &v))
	}
	return out, nil
}

// closeNullLine intersects the affine line through the two null vectors
// with the light cone |v|² = τ². It returns the admissible points as
// [vx, vy, vz, τ].
func closeNullLine(n1, n2 []float64) [][]float64 {
	if math.Abs(n2[4]) > math.Abs(n1[4]) {
		n1, n2 = n2, n1
	}
	if math.Abs(n1[4]) < rankTolerance {
		return nil
	}

	// p is the point with last component 1, dir the direction with last
	// component 0.
	p := affine(n1)
	dir := make([]float64, 5)
	copy(dir, n2)
	floats.AddScaled(dir, -n2[4], append(p, 1))
	dir = dir[:4]
	if norm := floats.Norm(dir, 2); norm > 0 {
		floats.Scale(1/norm, dir)
	} else {
		return admissible([][]float64{p})
	}

	qa := cone(dir, dir)
	qb := 2 * cone(p, dir)
	qc := cone(p, p)

	var out [][]float64
	for _, s := range quadraticRoots(qa, qb, qc) {
		x := make([]float64, 4)
		floats.AddScaledTo(x, p, s, dir)
		out = append(out, x)
	}
	return admissible(out)
}

// affine scales a null vector to last component 1 and drops it.
func affine(n []float64) []float64 {
	out := make([]float64, 4)
	floats.ScaleTo(out, 1/n[4], n[:4])
	return out
}

// cone is the Minkowski product x·y - x_τ·y_τ.
func cone(x, y []float64) float64 {
	return x[0]*y[0] + x[1]*y[1] + x[2]*y[2] - x[3]*y[3]
}

// quadraticRoots solves a·s² + b·s + c = 0. A negative discriminant yields
// the vertex of the parabola, the closest approach to the cone.
func quadraticRoots(a, b, c float64) []float64 {
	scale := math.Max(math.Abs(b), math.Abs(c))
	if math.Abs(a) <= rankTolerance*scale {
		if b == 0 {
			return nil
		}
		return []float64{-c / b}
	}
	disc := b*b - 4*a*c
	if disc <= 0 {
		return []float64{-b / (2 * a)}
	}
	q := -0.5 * (b + math.Copysign(math.Sqrt(disc), b))
	if q == 0 {
		return []float64{0}
	}
	return []float64{q / a, c / q}
}

func admissible(points [][]float64) [][]float64 {
	out := points[:0]
	for _, p := range points {
		if p[3] <= tauTolerance {
			out = append(out, p)
		}
	}
	return out
}
