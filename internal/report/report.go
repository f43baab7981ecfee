// Package report turns fitting traces into plot series, text summaries and
// PNG charts.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"symreg/internal/tuning"
)

type TracePoint struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// BuildTrace converts one fitting history to a plot series. Indices start at
// startIndex and advance by step per iteration.
func BuildTrace(history []float64, startIndex, step int) []TracePoint {
	if step <= 0 {
		step = 1
	}
	if startIndex < 0 {
		startIndex = 0
	}
	points := make([]TracePoint, 0, len(history))
	index := startIndex
	for _, value := range history {
		points = append(points, TracePoint{Index: index, Value: value})
		index += step
	}
	return points
}

// BuildAverageTrace averages several fitting histories column-wise. Shorter
// histories simply drop out of later columns, so runs of different length
// still produce one series.
func BuildAverageTrace(histories [][]float64, startIndex, step int) []TracePoint {
	if step <= 0 {
		step = 1
	}
	if startIndex < 0 {
		startIndex = 0
	}
	points := make([]TracePoint, 0, 128)
	index := startIndex
	for column := 0; ; column++ {
		values := make([]float64, 0, len(histories))
		for _, history := range histories {
			if column < len(history) {
				values = append(values, history[column])
			}
		}
		if len(values) == 0 {
			break
		}
		points = append(points, TracePoint{Index: index, Value: stat.Mean(values, nil)})
		index += step
	}
	return points
}

// Summary renders one fitting run as a short human-readable block.
func Summary(label string, r tuning.FitReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s/%s iterations, %s evaluations (%s accepted, %s rejected)\n",
		label,
		humanize.Comma(int64(r.IterationsExecuted)),
		humanize.Comma(int64(r.IterationsPlanned)),
		humanize.Comma(int64(r.Evaluations)),
		humanize.Comma(int64(r.Accepted)),
		humanize.Comma(int64(r.Rejected)))
	fmt.Fprintf(&b, "mse %.4g -> %.4g", r.InitialMSE, r.FinalMSE)
	if r.GoalReached {
		b.WriteString(" (goal reached)")
	}
	b.WriteString("\n")
	return b.String()
}

// WriteTraceFile persists a plot series as indented JSON, creating parent
// directories as needed.
func WriteTraceFile(path string, points []TracePoint) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(points, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadTraceFile loads a plot series written by WriteTraceFile.
func ReadTraceFile(path string) ([]TracePoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var points []TracePoint
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// SavePlot draws the series as a line chart and writes it to path. The image
// format follows the file extension (png, svg, pdf).
func SavePlot(points []TracePoint, title, path string) error {
	if len(points) == 0 {
		return fmt.Errorf("no points to plot")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "mse"
	p.Add(plotter.NewGrid())

	xys := make(plotter.XYs, len(points))
	for i, point := range points {
		xys[i].X = float64(point.Index)
		xys[i].Y = point.Value
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	p.Add(line)
	p.Legend.Add("best mse", line)

	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
