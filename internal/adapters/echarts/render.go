// Package echarts renders the comparison chart for derived records.
package echarts

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ewilliams-labs/chartwatch/internal/core/domain"
)

// Options parameterize the rendering. Colors are CSS hex strings.
type Options struct {
	Title           string
	ViewsSeriesName string
	VotesSeriesName string

	// AnnotateThreshold hides difference annotations at or below the given
	// magnitude; zero annotates every record.
	AnnotateThreshold float64
	// MagnitudeThreshold switches the annotation to the bright shade.
	MagnitudeThreshold float64

	ViewsBarColor  string
	VotesBarColor  string
	PositiveBright string
	PositiveDark   string
	NegativeBright string
	NegativeDark   string
}

// Render builds the grouped bar comparison: one bar per series per record,
// labeled with rounded percentages, plus a signed difference mark per record
// above the annotation threshold. Records are drawn in input order.
func Render(derived []domain.Derived, o Options) *charts.Bar {
	titles := make([]string, len(derived))
	views := make([]opts.BarData, len(derived))
	votes := make([]opts.BarData, len(derived))
	for i, d := range derived {
		titles[i] = d.Title
		views[i] = opts.BarData{Value: math.Round(d.NormalizedViews)}
		votes[i] = opts.BarData{Value: math.Round(d.NormalizedVotes)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       o.Title,
			Width:           "1000px",
			Height:          "600px",
			BackgroundColor: "#f7f7f7",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    o.Title,
			Subtitle: referenceLine(derived),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:  opts.Bool(true),
			Right: "1%",
			Top:   "1%",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Show: opts.Bool(true), Rotate: 45, Interval: "0"},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			AxisLabel: &opts.AxisLabel{Show: opts.Bool(true), Formatter: "{value}%"},
		}),
	)

	bar.SetXAxis(titles).
		AddSeries(o.ViewsSeriesName, views,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: o.ViewsBarColor, Opacity: 0.8}),
			charts.WithMarkPointNameCoordItemOpts(annotations(derived, o)...),
		).
		AddSeries(o.VotesSeriesName, votes,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: o.VotesBarColor, Opacity: 0.8}),
		)

	bar.SetSeriesOptions(
		charts.WithLabelOpts(opts.Label{
			Show:      opts.Bool(true),
			Position:  "top",
			Formatter: "{c}%",
		}),
		charts.WithBarChartOpts(opts.BarChart{
			BarGap:         "10%",
			BarCategoryGap: "15%",
		}),
	)

	return bar
}

// RenderTo writes the standalone chart document to w.
func RenderTo(derived []domain.Derived, o Options, w io.Writer) error {
	if err := Render(derived, o).Render(w); err != nil {
		return fmt.Errorf("echarts adapter: %w", err)
	}
	return nil
}

// RenderToFile writes the standalone chart document to path.
func RenderToFile(derived []domain.Derived, o Options, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("echarts adapter: %w", err)
	}
	defer f.Close()
	return RenderTo(derived, o, f)
}

// annotations builds one mark point per record whose absolute difference
// exceeds the annotation threshold, placed above the taller bar.
func annotations(derived []domain.Derived, o Options) []opts.MarkPointNameCoordItem {
	items := make([]opts.MarkPointNameCoordItem, 0, len(derived))
	for _, d := range derived {
		diff := d.ProportionDifference
		if math.Abs(diff) <= o.AnnotateThreshold && o.AnnotateThreshold > 0 {
			continue
		}
		top := math.Max(d.NormalizedViews, d.NormalizedVotes) + 2
		items = append(items, opts.MarkPointNameCoordItem{
			Name:       d.Title,
			Value:      fmt.Sprintf("Δ%+.0f%%", diff),
			Coordinate: []interface{}{d.Title, top},
			Symbol:     "pin",
			SymbolSize: 45,
			ItemStyle:  &opts.ItemStyle{Color: annotationColor(diff, o)},
		})
	}
	return items
}

// annotationColor maps the difference sign to the green/red family and its
// magnitude to the bright or dark shade.
func annotationColor(diff float64, o Options) string {
	bright := math.Abs(diff) > o.MagnitudeThreshold
	if diff > 0 {
		if bright {
			return o.PositiveBright
		}
		return o.PositiveDark
	}
	if bright {
		return o.NegativeBright
	}
	return o.NegativeDark
}

// referenceLine names the reference record in the subtitle. The reference is
// the record that normalizes to exactly (100, 100).
func referenceLine(derived []domain.Derived) string {
	for _, d := range derived {
		if d.NormalizedViews == 100 && d.NormalizedVotes == 100 {
			return fmt.Sprintf("Reference: %s · %s views/day · %s votes",
				d.Title,
				humanize.CommafWithDigits(d.ViewsPerDay, 0),
				humanize.CommafWithDigits(d.VoteTotal, 0))
		}
	}
	return ""
}
