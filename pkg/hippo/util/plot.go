package util

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/vmplacement/hosim/pkg/hippo/framework"
)

// PlotConvergence renders the best-fitness and diversity histories of one or
// more runs as an HTML line chart at outputPath.
func PlotConvergence(outputPath string, results ...*framework.RunResult) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to plot")
	}

	longest := 0
	for _, r := range results {
		if r == nil {
			return fmt.Errorf("cannot plot a nil result")
		}
		longest = max(longest, len(r.ConvergenceHistory))
	}
	if longest == 0 {
		return fmt.Errorf("results have no recorded iterations")
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Convergence",
			Subtitle: fmt.Sprintf("%d items on %d bins", results[0].Metadata.ItemCount, results[0].Metadata.BinCount),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "iteration",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "value",
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}),
	)

	xs := make([]int, longest)
	for i := range xs {
		xs[i] = i
	}
	line.SetXAxis(xs)

	for _, r := range results {
		name := r.Metadata.Algorithm
		line.AddSeries(name+" best fitness", lineData(r.ConvergenceHistory))
		line.AddSeries(name+" diversity", lineData(r.DiversityHistory))
	}
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false)}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}),
	)

	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return line.Render(f)
}

func lineData(values []float64) []opts.LineData {
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		data[i] = opts.LineData{Value: v}
	}
	return data
}

// PlotParetoFront creates a scatter plot of two objectives of a Pareto front,
// selected by their index in framework.Objectives.
func PlotParetoFront(front []framework.ObjectiveSpacePoint, x, y int, algorithmName, outputPath string) error {
	if len(front) == 0 {
		return fmt.Errorf("front is empty for %s", algorithmName)
	}
	dims := len(front[0])
	if x < 0 || x >= dims || y < 0 || y >= dims {
		return fmt.Errorf("objective indices (%d, %d) out of range for %d objectives", x, y, dims)
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("%s Pareto front", algorithmName),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: string(framework.Objectives[x]),
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: string(framework.Objectives[y]),
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}))

	points := make([]opts.ScatterData, len(front))
	for i, p := range front {
		points[i] = opts.ScatterData{
			Value:      []float64{p[x], p[y]},
			Symbol:     "triangle",
			SymbolSize: 8,
		}
	}

	scatter.AddSeries(fmt.Sprintf("%s Solutions", algorithmName), points).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
			charts.WithEmphasisOpts(opts.Emphasis{}),
		)

	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return scatter.Render(f)
}
