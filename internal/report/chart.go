package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteChart renders an HTML page with a heatmap of the value table and a line
// of the per-sweep deltas. Row 0 of values is drawn at the bottom.
func WriteChart(w io.Writer, title string, values [][]float64, deltas []float64) error {
	if len(values) == 0 {
		return fmt.Errorf("report: empty value table")
	}

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(valueHeatMap(title, values), deltaLine(deltas))
	return page.Render(w)
}

func valueHeatMap(title string, values [][]float64) *charts.HeatMap {
	cols := len(values[0])
	xs := make([]string, cols)
	for c := range xs {
		xs[c] = fmt.Sprintf("%d", c)
	}
	ys := make([]string, len(values))
	for r := range ys {
		ys[r] = fmt.Sprintf("%d", r)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	items := make([]opts.HeatMapData, 0, len(values)*cols)
	for r, row := range values {
		for c, v := range row {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
			items = append(items, opts.HeatMapData{Value: [3]interface{}{c, r, math.Round(v*100) / 100}})
		}
	}
	if lo == hi {
		hi = lo + 1
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "state values"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: ys}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Min: float32(lo),
			Max: float32(hi),
			InRange: &opts.VisualMapInRange{
				Color: []string{"#d73027", "#fee08b", "#1a9850"},
			},
		}),
	)
	hm.SetXAxis(xs).AddSeries("value", items)
	return hm
}

func deltaLine(deltas []float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "sweep deltas"}),
	)

	sweeps := make([]string, len(deltas))
	items := make([]opts.LineData, 0, len(deltas))
	for i, d := range deltas {
		sweeps[i] = fmt.Sprintf("%d", i+1)
		items = append(items, opts.LineData{Value: d})
	}
	line.SetXAxis(sweeps).AddSeries("delta", items)
	return line
}
