package eventio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/clever/internal/geometry"
)

// ErrUnknownSensor is returned when a hit names a sensor missing from the
// table.
var ErrUnknownSensor = errors.New("unknown sensor")

// SensorTable maps sensor IDs to positions in cm. Positions keeps file
// order.
type SensorTable struct {
	Positions []geometry.Position
	index     map[int]int
}

// Len returns the number of sensors.
func (t *SensorTable) Len() int { return len(t.Positions) }

// Lookup returns the position of sensor id.
func (t *SensorTable) Lookup(id int) (geometry.Position, bool) {
	i, ok := t.index[id]
	if !ok {
		return geometry.Position{}, false
	}
	return t.Positions[i], true
}

// LoadSensors reads a sensor table CSV file.
func LoadSensors(path string) (*SensorTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sensor table: %w", err)
	}
	defer file.Close()
	return ReadSensors(file)
}

// ReadSensors parses rows of id,x,y,z. A header row whose first column is
// not an integer is skipped.
func ReadSensors(r io.Reader) (*SensorTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 4
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read sensor CSV: %w", err)
	}
	if len(records) > 0 {
		if _, err := strconv.Atoi(strings.TrimSpace(records[0][0])); err != nil {
			records = records[1:]
		}
	}
	if len(records) == 0 {
		return nil, errors.New("sensor table is empty")
	}

	t := &SensorTable{
		Positions: make([]geometry.Position, 0, len(records)),
		index:     make(map[int]int, len(records)),
	}
	for i, rec := range records {
		id, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid sensor id %q", i+1, rec[0])
		}
		var xyz [3]float64
		for j := range xyz {
			xyz[j], err = strconv.ParseFloat(strings.TrimSpace(rec[j+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid coordinate %q: %w", i+1, rec[j+1], err)
			}
		}
		if _, dup := t.index[id]; dup {
			return nil, fmt.Errorf("row %d: duplicate sensor id %d", i+1, id)
		}
		t.index[id] = len(t.Positions)
		t.Positions = append(t.Positions, geometry.Position{X: xyz[0], Y: xyz[1], Z: xyz[2]})
	}
	return t, nil
}
