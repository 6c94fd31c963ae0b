package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/colprofile/pkg/profile"
)

// Chart defaults.
const (
	chartHeight        = "420px"
	dataZoomEndPercent = 100
	labelRotate        = 30
)

// PlotRenderer writes an HTML page with one bar chart per profiled column.
type PlotRenderer struct{}

// Render implements Renderer.
func (PlotRenderer) Render(w io.Writer, rep *Report) error {
	page := components.NewPage()
	page.PageTitle = "colprofile: " + rep.Source.Location

	for i := range rep.Sections {
		sec := &rep.Sections[i]
		if sec.Status != profile.StatusOK {
			continue
		}

		page.AddCharts(buildBar(sec, rep.Source.Location))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render plot page: %w", err)
	}

	return nil
}

func buildBar(sec *Section, location string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{
			Title:    sec.Label,
			Subtitle: fmt.Sprintf("%s, %d observed, %d distinct", location, sec.Observed, sec.Distinct),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: dataZoomEndPercent}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Rotate: labelRotate}}),
		charts.WithYAxisOpts(opts.YAxis{Name: "count"}),
	)

	labels := make([]string, 0, len(sec.Values))
	data := make([]opts.BarData, 0, len(sec.Values))

	for _, v := range sec.Values {
		label := v.Value
		if label == "" {
			label = "(empty)"
		}

		labels = append(labels, label)
		data = append(data, opts.BarData{Value: v.Count})
	}

	bar.SetXAxis(labels).AddSeries("count", data)

	return bar
}
