package recoplot

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/clever/internal/hits"
	"github.com/banshee-data/clever/internal/reco"
	"github.com/banshee-data/clever/internal/testpoints"
)

// ErrNothingToPlot is returned for an event with no selected hits and no
// candidates.
var ErrNothingToPlot = errors.New("recoplot: nothing to plot")

// View is a 2D projection of detector coordinates.
type View int

const (
	ViewXY View = iota // top-down
	ViewRZ             // cylindrical radius against height
)

func (v View) String() string {
	if v == ViewRZ {
		return "rz"
	}
	return "xy"
}

func (v View) project(x, y, z float64) (float64, float64) {
	if v == ViewRZ {
		return math.Hypot(x, y), z
	}
	return x, y
}

func (v View) labels() (string, string) {
	if v == ViewRZ {
		return "R (cm)", "Z (cm)"
	}
	return "X (cm)", "Y (cm)"
}

var (
	hitColor     = color.RGBA{R: 0x21, G: 0x96, B: 0xf3, A: 255}
	seedColor    = color.RGBA{R: 0x9e, G: 0x9e, B: 0x9e, A: 255}
	fourHitColor = color.RGBA{R: 0xff, G: 0x52, B: 0x52, A: 255}
)

// NewProjection builds one projection of an event. Selected hits are dots
// coloured by arrival order; seed candidates are grey crosses and four-hit
// candidates red rings.
func NewProjection(r *reco.Result, v View) (*plot.Plot, error) {
	selected := r.SelectedHits()
	if len(selected) == 0 && len(r.Candidates) == 0 {
		return nil, fmt.Errorf("event %s: %w", r.EventID, ErrNothingToPlot)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Event %s (%s)", r.EventID, r.Outcome)
	p.X.Label.Text, p.Y.Label.Text = v.labels()
	p.Add(plotter.NewGrid())

	if len(selected) > 0 {
		s, err := hitScatter(selected, v)
		if err != nil {
			return nil, err
		}
		p.Add(s)
		p.Legend.Add("selected hits", s)
	}

	for _, src := range []testpoints.Source{testpoints.SourceSeed, testpoints.SourceFourHit} {
		pts := candidateXYs(r.Candidates, src, v)
		if len(pts) == 0 {
			continue
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Radius = vg.Points(4)
		if src == testpoints.SourceSeed {
			s.GlyphStyle.Shape = draw.CrossGlyph{}
			s.GlyphStyle.Color = seedColor
		} else {
			s.GlyphStyle.Shape = draw.RingGlyph{}
			s.GlyphStyle.Color = fourHitColor
		}
		p.Add(s)
		p.Legend.Add(src.String()+" candidates", s)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

func hitScatter(hs []hits.Hit, v View) (*plotter.Scatter, error) {
	pts := make(plotter.XYs, len(hs))
	for i, h := range hs {
		pts[i].X, pts[i].Y = v.project(h.X, h.Y, h.Z)
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	colors := timeColors(hs)
	s.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{Color: colors[i], Radius: vg.Points(3), Shape: draw.CircleGlyph{}}
	}
	return s, nil
}

func candidateXYs(vs []testpoints.Vertex, src testpoints.Source, v View) plotter.XYs {
	var pts plotter.XYs
	for _, c := range vs {
		if c.Source != src {
			continue
		}
		x, y := v.project(c.X, c.Y, c.Z)
		pts = append(pts, plotter.XY{X: x, Y: y})
	}
	return pts
}

// SaveProjections writes the XY and RZ projections of an event as PNG files
// under dir and returns their paths.
func SaveProjections(dir string, r *reco.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	var paths []string
	for _, v := range []View{ViewXY, ViewRZ} {
		p, err := NewProjection(r, v)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", safeName(r.EventID), v))
		if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
			return paths, fmt.Errorf("save %s projection: %w", v, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// safeName maps an event ID onto a file name component.
func safeName(id string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, id)
	if name == "" {
		return "event"
	}
	return name
}

// FormatTimestamp generates a timestamp string for directory naming.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// MakePlotOutputDir returns a timestamped output directory for plots of a
// run: <baseDir>/<input basename>/<timestamp>.
func MakePlotOutputDir(baseDir, inputFile string, now time.Time) string {
	ts := FormatTimestamp(now)
	if inputFile == "" {
		return filepath.Join(baseDir, "run_"+ts)
	}
	base := filepath.Base(inputFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(baseDir, name, ts)
}
