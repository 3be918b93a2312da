package eventio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/clever/internal/hits"
	"github.com/banshee-data/clever/internal/reco"
)

// maxEventFileSize bounds the events file read into memory (256MB).
const maxEventFileSize = 256 * 1024 * 1024

// HitJSON is one hit as stored on disk.
type HitJSON struct {
	Sensor int     `json:"sensor"`
	Time   float64 `json:"t"`
	Charge float64 `json:"q"`
}

// EventJSON is one event as stored on disk.
type EventJSON struct {
	ID   string    `json:"id,omitempty"`
	Hits []HitJSON `json:"hits"`
}

// File is the top-level events document.
type File struct {
	Events []EventJSON `json:"events"`
}

// LoadEvents reads an events JSON file and resolves it against sensors.
func LoadEvents(path string, sensors *SensorTable) ([]reco.Event, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat events file: %w", err)
	}
	if info.Size() > maxEventFileSize {
		return nil, fmt.Errorf("events file too large: %d bytes (max %d)", info.Size(), maxEventFileSize)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open events file: %w", err)
	}
	defer file.Close()
	return ReadEvents(file, sensors)
}

// ReadEvents decodes an events document and resolves every hit's sensor.
func ReadEvents(r io.Reader, sensors *SensorTable) ([]reco.Event, error) {
	var f File
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse events JSON: %w", err)
	}

	events := make([]reco.Event, len(f.Events))
	for i, ev := range f.Events {
		hs, err := Resolve(ev.Hits, sensors)
		if err != nil {
			return nil, fmt.Errorf("event %d (%q): %w", i, ev.ID, err)
		}
		events[i] = reco.Event{ID: ev.ID, Hits: hs}
	}
	return events, nil
}

// Resolve attaches sensor positions to raw hits.
func Resolve(raw []HitJSON, sensors *SensorTable) ([]hits.Hit, error) {
	out := make([]hits.Hit, len(raw))
	for i, h := range raw {
		pos, ok := sensors.Lookup(h.Sensor)
		if !ok {
			return nil, fmt.Errorf("hit %d: sensor %d: %w", i, h.Sensor, ErrUnknownSensor)
		}
		out[i] = hits.Hit{Time: h.Time, Charge: h.Charge, X: pos.X, Y: pos.Y, Z: pos.Z}
	}
	return out, nil
}

// WriteEvents encodes events back to the on-disk form. Hits are matched to
// sensor IDs by exact position.
func WriteEvents(w io.Writer, events []reco.Event, sensors *SensorTable) error {
	byPos := make(map[[3]float64]int, sensors.Len())
	for id, i := range sensors.index {
		p := sensors.Positions[i]
		byPos[[3]float64{p.X, p.Y, p.Z}] = id
	}

	f := File{Events: make([]EventJSON, len(events))}
	for i, ev := range events {
		f.Events[i] = EventJSON{ID: ev.ID, Hits: make([]HitJSON, len(ev.Hits))}
		for j, h := range ev.Hits {
			id, ok := byPos[[3]float64{h.X, h.Y, h.Z}]
			if !ok {
				return fmt.Errorf("event %d hit %d at (%g, %g, %g): %w", i, j, h.X, h.Y, h.Z, ErrUnknownSensor)
			}
			f.Events[i].Hits[j] = HitJSON{Sensor: id, Time: h.Time, Charge: h.Charge}
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}
