package recoplot

import (
	"bytes"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/clever/internal/hits"
	"github.com/banshee-data/clever/internal/monitoring"
	"github.com/banshee-data/clever/internal/reco"
	"github.com/banshee-data/clever/internal/testpoints"
)

func sampleResult(id string) *reco.Result {
	return &reco.Result{
		EventID: id,
		Outcome: monitoring.OutcomeReconstructed,
		Selected: []hits.Record{
			{Hit: hits.Hit{Time: 40, X: 300, Y: 0, Z: 100}},
			{Hit: hits.Hit{Time: 30, X: 0, Y: 300, Z: -50}},
			{Hit: hits.Hit{Time: 20, X: -300, Y: 0, Z: 0}},
			{Hit: hits.Hit{Time: 10, X: 0, Y: -300, Z: 200}},
		},
		Candidates: []testpoints.Vertex{
			{X: 10, Y: 10, Z: 0, T: -3, Source: testpoints.SourceSeed},
			{X: 12, Y: 9, Z: 1, T: -2, Source: testpoints.SourceFourHit},
		},
	}
}

func TestViewProject(t *testing.T) {
	x, y := ViewXY.project(3, 4, 5)
	assert.Equal(t, []float64{3, 4}, []float64{x, y})

	r, z := ViewRZ.project(3, 4, 5)
	assert.InDelta(t, 5, r, 1e-12)
	assert.Equal(t, 5.0, z)

	assert.Equal(t, "xy", ViewXY.String())
	assert.Equal(t, "rz", ViewRZ.String())
}

func TestTimeColors_FollowArrivalOrder(t *testing.T) {
	hs := []hits.Hit{{Time: 30}, {Time: 10}, {Time: 20}}
	got := timeColors(hs)
	palette := generateColors(3)
	assert.Equal(t, []color.Color{palette[2], palette[0], palette[1]}, got)
}

func TestGenerateColors(t *testing.T) {
	assert.Nil(t, generateColors(0))
	colors := generateColors(4)
	require.Len(t, colors, 4)
	assert.Equal(t, color.RGBA{R: 216, G: 38, B: 38, A: 255}, colors[0])
	for i := 1; i < len(colors); i++ {
		assert.NotEqual(t, colors[i-1], colors[i])
	}
}

func TestHexColor(t *testing.T) {
	assert.Equal(t, "#ff5252", hexColor(fourHitColor))
	assert.Equal(t, "#000000", hexColor(color.Black))
}

func TestSafeName(t *testing.T) {
	tests := map[string]string{
		"ev-1":        "ev-1",
		"run/7 evt:3": "run_7_evt_3",
		"":            "event",
	}
	for in, want := range tests {
		assert.Equal(t, want, safeName(in), "safeName(%q)", in)
	}
}

func TestMakePlotOutputDir(t *testing.T) {
	now := time.Date(2026, 1, 7, 17, 31, 29, 0, time.UTC)
	assert.Equal(t, filepath.Join("plots", "events", "20260107_173129"),
		MakePlotOutputDir("plots", "/data/events.json", now))
	assert.Equal(t, filepath.Join("plots", "run_20260107_173129"),
		MakePlotOutputDir("plots", "", now))
}

func TestNewProjection_NothingToPlot(t *testing.T) {
	_, err := NewProjection(&reco.Result{EventID: "empty"}, ViewXY)
	assert.True(t, errors.Is(err, ErrNothingToPlot))
}

func TestSaveProjections(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots")
	paths, err := SaveProjections(dir, sampleResult("ev/1"))
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "ev_1_xy.png"),
		filepath.Join(dir, "ev_1_rz.png"),
	}, paths)

	for _, p := range paths {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), "%s is not a PNG", p)
	}
}

func TestWriteReport(t *testing.T) {
	skipped := &reco.Result{EventID: "quiet-event", Outcome: monitoring.OutcomeSkipped}
	results := []*reco.Result{sampleResult("loud-event"), skipped, nil}

	var buf bytes.Buffer
	err := WriteReport(&buf, results, reco.Summary{Events: 2, Reconstructed: 1, Skipped: 1})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "Outcomes")
	assert.Contains(t, html, "loud-event")
	assert.False(t, strings.Contains(html, "quiet-event"), "skipped events are not drawn")
}
