package render

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"

	"booking-metrics/internal/metrics"
)

// ErrNotEnoughData is returned when a chart would have no drawable range.
var ErrNotEnoughData = errors.New("render: not enough data points to chart")

// Bar is one labelled bar.
type Bar struct {
	Label string
	Value float64
}

// Line is one named series over numeric periods.
type Line struct {
	Name   string
	Points map[float64]float64
}

// PeriodRate is a classified rate at a numeric period (usually a year).
type PeriodRate struct {
	Period string
	Rate   metrics.Rate
}

// WriteBarChart renders labelled bars as PNG.
func WriteBarChart(path, title, yName string, bars []Bar) error {
	if len(bars) == 0 {
		return ErrNotEnoughData
	}

	values := make([]chart.Value, len(bars))
	lo, hi := 0.0, 0.0
	for i, b := range bars {
		values[i] = chart.Value{Label: truncateLabel(b.Label), Value: b.Value}
		lo = math.Min(lo, b.Value)
		hi = math.Max(hi, b.Value)
	}
	lo, hi = padRange(lo, hi)

	const barWidth, spacing = 60, 30
	width := len(bars)*(barWidth+spacing) + 200
	if width < 1024 {
		width = 1024
	}

	graph := chart.BarChart{
		Title:      title,
		Background: chart.Style{Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 20}},
		Width:      width,
		Height:     720,
		BarWidth:   barWidth,
		BarSpacing: spacing,
		YAxis: chart.YAxis{
			Name:           yName,
			ValueFormatter: floatFormatter("%.2f"),
			Range:          &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Bars: values,
	}
	return renderPNG(path, func(f *os.File) error { return graph.Render(chart.PNG, f) })
}

// WriteLineChart renders one or more series over numeric periods as PNG.
func WriteLineChart(path, title, xName, yName string, lines ...Line) error {
	xs := map[float64]struct{}{}
	lo, hi := math.Inf(1), math.Inf(-1)
	series := make([]chart.Series, 0, len(lines))
	for _, l := range lines {
		if len(l.Points) == 0 {
			continue
		}
		keys := make([]float64, 0, len(l.Points))
		for x := range l.Points {
			keys = append(keys, x)
			xs[x] = struct{}{}
		}
		sort.Float64s(keys)
		ys := make([]float64, len(keys))
		for i, x := range keys {
			ys[i] = l.Points[x]
			lo = math.Min(lo, ys[i])
			hi = math.Max(hi, ys[i])
		}
		series = append(series, chart.ContinuousSeries{
			Name:    l.Name,
			XValues: keys,
			YValues: ys,
			Style:   chart.Style{StrokeWidth: 2, DotWidth: 4},
		})
	}
	if len(xs) < 2 {
		return ErrNotEnoughData
	}
	lo, hi = padRange(math.Min(lo, 0), hi)

	ticks := make([]chart.Tick, 0, len(xs))
	for x := range xs {
		ticks = append(ticks, chart.Tick{Value: x, Label: strconv.FormatFloat(x, 'f', -1, 64)})
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i].Value < ticks[j].Value })

	graph := chart.Chart{
		Title:      title,
		Width:      1280,
		Height:     720,
		Background: chart.Style{Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:  xName,
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:           yName,
			ValueFormatter: floatFormatter("%.4f"),
			Range:          &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return renderPNG(path, func(f *os.File) error { return graph.Render(chart.PNG, f) })
}

// WriteRateChart plots numeric rates by period. Sentinel periods are never
// plotted; they are listed in the title instead.
func WriteRateChart(path, title string, rates []PeriodRate) error {
	points := map[float64]float64{}
	var excluded []string
	for _, pr := range rates {
		v, ok := pr.Rate.Value()
		if !ok {
			excluded = append(excluded, fmt.Sprintf("%s %s", pr.Period, pr.Rate.Display()))
			continue
		}
		x, err := strconv.ParseFloat(pr.Period, 64)
		if err != nil {
			return fmt.Errorf("period %q is not numeric: %w", pr.Period, err)
		}
		points[x] = v
	}
	if len(excluded) > 0 {
		title = fmt.Sprintf("%s (excluded: %s)", title, strings.Join(excluded, ", "))
	}
	return WriteLineChart(path, title, "Year", "Rate", Line{Name: "Rate", Points: points})
}

func renderPNG(path string, draw func(f *os.File) error) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return draw(file)
}

func floatFormatter(format string) chart.ValueFormatter {
	return func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, format)
	}
}

func padRange(lo, hi float64) (float64, float64) {
	if hi == lo {
		return lo - 1, hi + 1
	}
	pad := (hi - lo) * 0.1
	if lo < 0 {
		lo -= pad
	}
	return lo, hi + pad
}

func truncateLabel(s string) string {
	const max = 24
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
