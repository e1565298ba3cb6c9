package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Axis titles of the scatter chart.
const (
	XAxisName = "Haystack Size"
	YAxisName = "Needle Size"
	ZAxisName = "Time processing (ns)"
)

const chartTitle = "Substring search time by haystack and needle size"

// Plot renders every series as one labeled 3-D scatter chart in a
// standalone HTML page.
func Plot(w io.Writer, series []Series) error {
	if len(series) == 0 {
		return fmt.Errorf("no series to plot")
	}

	sc := charts.NewScatter3D()
	sc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: chartTitle,
			Width:     "1200px",
			Height:    "800px",
		}),
		charts.WithTitleOpts(opts.Title{Title: chartTitle}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: XAxisName, Type: "value"}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: YAxisName, Type: "value"}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: ZAxisName, Type: "value"}),
	)

	for _, s := range series {
		sc.AddSeries(s.Label, scatterData(s))
	}

	page := components.NewPage().SetPageTitle(chartTitle)
	page.AddCharts(sc)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	return nil
}

func scatterData(s Series) []opts.Chart3DData {
	xs, ys, zs := Columns(s.Samples)

	data := make([]opts.Chart3DData, len(xs))
	for i := range xs {
		data[i] = opts.Chart3DData{
			Value: []interface{}{xs[i], ys[i], zs[i]},
		}
	}

	return data
}
