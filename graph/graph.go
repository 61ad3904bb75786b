// Package graph renders benchmark results as PNG bar charts.
package graph

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"

	"github.com/fwbench/fwbench/bench"
	"github.com/fwbench/fwbench/framework"
	"github.com/fwbench/fwbench/report"
)

// CombinedFile is the grouped chart covering every endpoint.
const CombinedFile = "benchmark_combined.png"

var palette = []color.RGBA{
	{51, 153, 255, 255},  // blue
	{255, 159, 64, 255},  // orange
	{75, 192, 192, 255},  // green blue
	{255, 99, 132, 255},  // pinkish-red
	{153, 102, 255, 255}, // purple
	{255, 206, 86, 255},  // yellow
}

// FileName is the per-endpoint chart file, e.g. benchmark_json_1k.png.
func FileName(ep framework.Endpoint) string {
	return "benchmark_" + ep.Slug() + ".png"
}

// Render writes one chart per endpoint with results plus the combined chart
// into outDir, creating it if needed, and returns the written paths.
func Render(outDir string, results []bench.Result, endpoints []framework.Endpoint) ([]string, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("no results to plot")
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create graphs directory: %w", err)
	}

	endpoints = report.Endpoints(endpoints, results)

	var paths []string

	for _, ep := range endpoints {
		rows := report.ByEndpoint(results, ep.ID())
		if len(rows) == 0 {
			continue
		}

		path := filepath.Join(outDir, FileName(ep))
		if err := renderEndpoint(path, ep, rows); err != nil {
			return paths, fmt.Errorf("render %s: %w", ep.ID(), err)
		}

		paths = append(paths, path)
	}

	path := filepath.Join(outDir, CombinedFile)
	if err := renderCombined(path, endpoints, results); err != nil {
		return paths, fmt.Errorf("render combined chart: %w", err)
	}

	return append(paths, path), nil
}

// renderEndpoint draws frameworks left to right by ascending RPS, each bar
// labelled with its value.
func renderEndpoint(path string, ep framework.Endpoint, rows []bench.Result) error {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].RPS < rows[j].RPS })

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%s)", ep.DisplayName(), ep.ID())
	p.Y.Label.Text = "Requests/sec"

	values := make(plotter.Values, len(rows))
	ticks := make([]plot.Tick, len(rows))
	points := make(plotter.XYs, len(rows))
	labels := make([]string, len(rows))
	peak := 0.0

	for i, r := range rows {
		values[i] = r.RPS
		ticks[i] = plot.Tick{Value: float64(i), Label: r.Framework}
		points[i] = plotter.XY{X: float64(i), Y: r.RPS}
		labels[i] = strconv.FormatFloat(math.Round(r.RPS), 'f', 0, 64)
		peak = math.Max(peak, r.RPS)
	}

	bar, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return err
	}

	bar.Color = palette[0]
	p.Add(bar)

	valueLabels, err := plotter.NewLabels(plotter.XYLabels{XYs: points, Labels: labels})
	if err != nil {
		return err
	}

	for i := range valueLabels.TextStyle {
		valueLabels.TextStyle[i].XAlign = text.XCenter
	}

	valueLabels.Offset = vg.Point{Y: vg.Points(4)}
	p.Add(valueLabels)

	p.X.Min = -0.5
	p.X.Max = float64(len(rows)) - 0.5
	p.Y.Min = 0
	p.Y.Max = headroom(peak)
	p.X.Tick.Marker = plot.ConstantTicks(ticks)

	return p.Save(chartWidth(len(rows)), 4*vg.Inch, path)
}

// renderCombined groups one bar per framework under each endpoint.
// Frameworks appear in the legend ordered by average RPS, highest first.
func renderCombined(path string, endpoints []framework.Endpoint, results []bench.Result) error {
	names, plotted, series := combinedSeries(endpoints, results)

	p := plot.New()
	p.Title.Text = "Framework Comparison (RPS by Endpoint)"
	p.Y.Label.Text = "Requests/sec"
	p.Legend.Top = true

	width := vg.Points(60 / float64(len(names)))
	peak := 0.0

	for j, name := range names {
		for _, v := range series[j] {
			peak = math.Max(peak, v)
		}

		bar, err := plotter.NewBarChart(plotter.Values(series[j]), width)
		if err != nil {
			return err
		}

		bar.Color = palette[j%len(palette)]
		bar.LineStyle.Width = vg.Length(0)
		bar.Offset = vg.Length(float64(j)-float64(len(names)-1)/2) * width

		p.Add(bar)
		p.Legend.Add(name, bar)
	}

	ticks := make([]plot.Tick, len(plotted))
	for i, ep := range plotted {
		ticks[i] = plot.Tick{Value: float64(i), Label: ep.DisplayName()}
	}

	p.X.Min = -0.5
	p.X.Max = float64(len(plotted)) - 0.5
	p.Y.Min = 0
	p.Y.Max = headroom(peak)
	p.X.Tick.Marker = plot.ConstantTicks(ticks)

	return p.Save(chartWidth(len(plotted)*2), 5*vg.Inch, path)
}

// combinedSeries returns the legend order, the endpoints with results and,
// per framework, its RPS for each of those endpoints (zero when missing).
func combinedSeries(
	endpoints []framework.Endpoint,
	results []bench.Result,
) ([]string, []framework.Endpoint, [][]float64) {
	names := ByAverageRPS(results)

	var plotted []framework.Endpoint
	for _, ep := range endpoints {
		if len(report.ByEndpoint(results, ep.ID())) > 0 {
			plotted = append(plotted, ep)
		}
	}

	series := make([][]float64, len(names))
	for j, name := range names {
		series[j] = make([]float64, len(plotted))

		for i, ep := range plotted {
			for _, r := range results {
				if r.Framework == name && r.Endpoint == ep.ID() {
					series[j][i] = r.RPS
				}
			}
		}
	}

	return names, plotted, series
}

// ByAverageRPS returns framework names ordered by their mean RPS across the
// endpoints they have results for, highest first. Ties keep first-seen order.
func ByAverageRPS(results []bench.Result) []string {
	names := report.Frameworks(results)

	avg := make(map[string]float64, len(names))
	for _, name := range names {
		var sum float64

		n := 0
		for _, r := range results {
			if r.Framework == name {
				sum += r.RPS
				n++
			}
		}

		avg[name] = sum / float64(n)
	}

	sort.SliceStable(names, func(i, j int) bool { return avg[names[i]] > avg[names[j]] })

	return names
}

func chartWidth(bars int) vg.Length {
	return vg.Length(math.Max(6, 1.2*float64(bars))) * vg.Inch
}

// headroom leaves space above the tallest bar for its label.
func headroom(peak float64) float64 {
	if peak <= 0 {
		return 1
	}

	return peak * 1.15
}
