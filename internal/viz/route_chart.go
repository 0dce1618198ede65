package viz

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/models"
)

// RouteLabel names a (start, end) series
func RouteLabel(start, end string) string {
	return start + " → " + end
}

// RouteChart builds a stacked bar chart with one bar per interval and one
// series per route, valued by the route's total count
func RouteChart(a *models.RouteAnalytics) *charts.Bar {
	var periods []string
	var routes []string
	seen := make(map[string]bool)
	for _, b := range a.CountsAtTimes {
		periods = append(periods, b.PeriodFrom.UTC().Format(time.TimeOnly))
		for _, rc := range b.RouteCounts {
			label := RouteLabel(rc.Start, rc.End)
			if !seen[label] {
				seen[label] = true
				routes = append(routes, label)
			}
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Route counts", Width: "100%", Height: "640px"}),
		charts.WithTitleOpts(opts.Title{Title: a.DataSource, Subtitle: fmt.Sprintf("%d intervals, %d routes", len(periods), len(routes))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "period (UTC)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "trajectories"}),
	)
	bar.SetXAxis(periods)

	for _, route := range routes {
		data := make([]opts.BarData, len(a.CountsAtTimes))
		for i, b := range a.CountsAtTimes {
			n := 0
			for _, rc := range b.RouteCounts {
				if RouteLabel(rc.Start, rc.End) == route {
					n = rc.Counts["total"]
				}
			}
			data[i] = opts.BarData{Value: n}
		}
		bar.AddSeries(route, data, charts.WithBarChartOpts(opts.BarChart{Stack: "routes"}))
	}

	return bar
}

// RenderRouteChart writes the chart as a standalone HTML page
func RenderRouteChart(w io.Writer, a *models.RouteAnalytics) error {
	if err := RouteChart(a).Render(w); err != nil {
		return fmt.Errorf("failed to render route chart: %w", err)
	}
	return nil
}
