package hits

import "fmt"

// Hit is one sensor's reading for an event: arrival time in ns, charge, and
// the sensor position in cm.
type Hit struct {
	Time   float64
	Charge float64
	X      float64
	Y      float64
	Z      float64
}

// Record is a Hit plus the bookkeeping the selection stages attach to it.
type Record struct {
	Hit
	Index                 int  // detector-assigned order within the raw event
	Selected              bool // set by the isolation filter
	RelationCount         int  // cached popcount of the record's relation row
	ClusterOccurrence     int  // retained clusters containing this record
	SelectedRelationCount int  // relations within the final selected set
}

// DeltaT returns |a.Time - b.Time|.
func DeltaT(a, b Hit) float64 {
	dt := a.Time - b.Time
	if dt < 0 {
		return -dt
	}
	return dt
}

// Distance2 returns the squared separation of two sensors in cm².
func Distance2(a, b Hit) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return dx*dx + dy*dy + dz*dz
}

// FromArrays builds raw hits from the per-sensor arrays an event reader
// produces. All slices must have the same length.
func FromArrays(times, charges, xs, ys, zs []float64) ([]Hit, error) {
	n := len(times)
	if len(charges) != n || len(xs) != n || len(ys) != n || len(zs) != n {
		return nil, fmt.Errorf("hit arrays differ in length: t=%d q=%d x=%d y=%d z=%d",
			len(times), len(charges), len(xs), len(ys), len(zs))
	}
	out := make([]Hit, n)
	for i := range out {
		out[i] = Hit{Time: times[i], Charge: charges[i], X: xs[i], Y: ys[i], Z: zs[i]}
	}
	return out, nil
}
