package recoplot

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/clever/internal/reco"
	"github.com/banshee-data/clever/internal/testpoints"
)

// MaxReportEvents caps how many events a single HTML report draws.
const MaxReportEvents = 50

// NewEventChart builds an interactive scatter of one projection of an event.
func NewEventChart(r *reco.Result, v View) *charts.Scatter {
	xName, yName := v.labels()

	selected := r.SelectedHits()
	hitPts := make([]opts.ScatterData, len(selected))
	for i, h := range selected {
		x, y := v.project(h.X, h.Y, h.Z)
		hitPts[i] = opts.ScatterData{Value: []interface{}{x, y, h.Time}}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Reconstruction", Width: "720px", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Event %s (%s)", r.EventID, v),
			Subtitle: fmt.Sprintf("outcome=%s selected=%d candidates=%d", r.Outcome, len(selected), len(r.Candidates)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: xName, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName, NameLocation: "middle", NameGap: 40}),
	)

	scatter.AddSeries("selected hits", hitPts,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(hitColor)}))
	scatter.AddSeries("seed candidates", candidateData(r.Candidates, testpoints.SourceSeed, v),
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(seedColor)}))
	scatter.AddSeries("four-hit candidates", candidateData(r.Candidates, testpoints.SourceFourHit, v),
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(fourHitColor)}))
	return scatter
}

func candidateData(vs []testpoints.Vertex, src testpoints.Source, v View) []opts.ScatterData {
	data := make([]opts.ScatterData, 0, len(vs))
	for _, c := range vs {
		if c.Source != src {
			continue
		}
		x, y := v.project(c.X, c.Y, c.Z)
		data = append(data, opts.ScatterData{Value: []interface{}{x, y, c.T}})
	}
	return data
}

// NewOutcomeChart summarises a batch as a bar per outcome.
func NewOutcomeChart(sum reco.Summary) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "720px", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Outcomes", Subtitle: sum.String()}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis([]string{"reconstructed", "skipped", "failed"}).
		AddSeries("events", []opts.BarData{
			{Value: sum.Reconstructed},
			{Value: sum.Skipped},
			{Value: sum.Failed},
		}, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}

// WriteReport renders an HTML page with the batch outcomes followed by both
// projections of the first MaxReportEvents reconstructed events.
func WriteReport(w io.Writer, results []*reco.Result, sum reco.Summary) error {
	page := components.NewPage()
	page.AddCharts(NewOutcomeChart(sum))

	drawn := 0
	for _, r := range results {
		if r == nil || !r.Reconstructed() {
			continue
		}
		if drawn == MaxReportEvents {
			break
		}
		page.AddCharts(NewEventChart(r, ViewXY), NewEventChart(r, ViewRZ))
		drawn++
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}
