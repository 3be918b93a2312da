package eventio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/clever/internal/geometry"
	"github.com/banshee-data/clever/internal/hits"
	"github.com/banshee-data/clever/internal/reco"
	"github.com/banshee-data/clever/internal/testutil"
)

const sensorCSV = `id,x,y,z
# barrel
1, 100, 0, -50
2, 0, 100, -50
7, -100, 0, 50
`

func mustSensors(t *testing.T) *SensorTable {
	t.Helper()
	table, err := ReadSensors(strings.NewReader(sensorCSV))
	require.NoError(t, err)
	return table
}

func TestReadSensors(t *testing.T) {
	table := mustSensors(t)
	assert.Equal(t, 3, table.Len())

	want := []geometry.Position{{X: 100, Z: -50}, {Y: 100, Z: -50}, {X: -100, Z: 50}}
	if diff := cmp.Diff(want, table.Positions); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}

	pos, ok := table.Lookup(7)
	assert.True(t, ok)
	assert.Equal(t, geometry.Position{X: -100, Z: 50}, pos)

	_, ok = table.Lookup(3)
	assert.False(t, ok)
}

func TestReadSensors_NoHeader(t *testing.T) {
	table, err := ReadSensors(strings.NewReader("5,1,2,3\n"))
	testutil.AssertNoError(t, err)
	pos, ok := table.Lookup(5)
	require.True(t, ok)
	assert.Equal(t, geometry.Position{X: 1, Y: 2, Z: 3}, pos)
}

func TestReadSensors_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "header only", input: "id,x,y,z\n"},
		{name: "wrong column count", input: "1,2,3\n"},
		{name: "bad coordinate", input: "1,2,three,4\n"},
		{name: "duplicate id", input: "1,0,0,0\n1,1,1,1\n"},
		{name: "bad id after header", input: "id,x,y,z\nsix,0,0,0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSensors(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestReadEvents(t *testing.T) {
	doc := `{"events":[
		{"id":"a","hits":[{"sensor":1,"t":12.5,"q":3},{"sensor":7,"t":20,"q":1}]},
		{"hits":[]}
	]}`
	events, err := ReadEvents(strings.NewReader(doc), mustSensors(t))
	require.NoError(t, err)

	want := []reco.Event{
		{ID: "a", Hits: []hits.Hit{
			{Time: 12.5, Charge: 3, X: 100, Z: -50},
			{Time: 20, Charge: 1, X: -100, Z: 50},
		}},
		{Hits: []hits.Hit{}},
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestReadEvents_UnknownSensor(t *testing.T) {
	doc := `{"events":[{"id":"a","hits":[{"sensor":42,"t":1,"q":1}]}]}`
	_, err := ReadEvents(strings.NewReader(doc), mustSensors(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownSensor))
	assert.Contains(t, err.Error(), "sensor 42")
}

func TestReadEvents_RejectsUnknownFields(t *testing.T) {
	doc := `{"events":[{"id":"a","hits":[{"sensor":1,"time":1}]}]}`
	_, err := ReadEvents(strings.NewReader(doc), mustSensors(t))
	assert.Error(t, err)
}

func TestWriteEventsRoundTrip(t *testing.T) {
	sensors := mustSensors(t)
	events := []reco.Event{{ID: "x", Hits: []hits.Hit{
		{Time: 3, Charge: 2, Y: 100, Z: -50},
		{Time: 4, Charge: 1, X: 100, Z: -50},
	}}}

	dir := t.TempDir()
	path := filepath.Join(dir, "events.json")
	var buf bytes.Buffer
	require.NoError(t, WriteEvents(&buf, events, sensors))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	got, err := LoadEvents(path, sensors)
	require.NoError(t, err)
	assert.Equal(t, events, got)
	assert.Contains(t, buf.String(), `"sensor": 2`)
}

func TestWriteEvents_UnknownPosition(t *testing.T) {
	events := []reco.Event{{Hits: []hits.Hit{{X: 1, Y: 2, Z: 3}}}}
	err := WriteEvents(&bytes.Buffer{}, events, mustSensors(t))
	assert.True(t, errors.Is(err, ErrUnknownSensor))
}

func TestLoadSensors_Missing(t *testing.T) {
	_, err := LoadSensors(filepath.Join(t.TempDir(), "nope.csv"))
	testutil.AssertError(t, err)
}
