package render

import (
	"fmt"
	"io"
	"strconv"

	"insuranceInsights/domain"

	chart "github.com/wcharczuk/go-chart/v2"
)

const (
	chartWidth  = 960
	chartHeight = 480
)

// ChartTitles holds the display title of every view.
var ChartTitles = map[string]string{
	domain.ViewResponseProportion:    "Response Score Proportion (%)",
	domain.ViewBMICategoryProportion: "BMI Category Proportion (%)",
	domain.ViewBMIByResponse:         "BMI by Response Score",
	domain.ViewAgeGroupCounts:        "Applicants per Age Group",
	domain.ViewMeanResponseByProduct: "Mean Response by Product Code",
	domain.ViewMeanBMIByAgeLine:      "Mean BMI by Age Group",
	domain.ViewResponseByBMICategory: "Response by BMI Category",
	domain.ViewProductCodeCounts:     "Applicants per Product Code",
	domain.ViewMeanBMIByAgeBar:       "Mean BMI by Age Group",
	domain.ViewResponseHeatmap:       "Mean Response by BMI Category and Age Group",
}

// RenderChart writes a PNG for a bar or line view. Box plot and heatmap
// views return domain.ErrUnsupportedChart; views without defined values
// return domain.ErrNoData.
func RenderChart(view string, views domain.Views, w io.Writer) error {
	switch view {
	case domain.ViewResponseProportion:
		bars := make([]chart.Value, 0, len(views.ResponseProportion))
		for _, v := range views.ResponseProportion {
			bars = append(bars, chart.Value{Label: strconv.Itoa(v.Score), Value: v.Value})
		}
		return renderBars(view, bars, w)

	case domain.ViewBMICategoryProportion:
		bars := make([]chart.Value, 0, len(views.BMICategoryProportion))
		for _, v := range views.BMICategoryProportion {
			if v.Value.Valid {
				bars = append(bars, chart.Value{Label: v.Category.String(), Value: v.Value.Value})
			}
		}
		return renderBars(view, bars, w)

	case domain.ViewAgeGroupCounts:
		bars := make([]chart.Value, 0, len(views.AgeGroupCounts))
		for _, v := range views.AgeGroupCounts {
			bars = append(bars, chart.Value{Label: v.AgeGroup.String(), Value: float64(v.Count)})
		}
		return renderBars(view, bars, w)

	case domain.ViewMeanResponseByProduct:
		bars := make([]chart.Value, 0, len(views.MeanResponseByProduct))
		for _, v := range views.MeanResponseByProduct {
			bars = append(bars, chart.Value{Label: v.ProductCode, Value: v.Value})
		}
		return renderBars(view, bars, w)

	case domain.ViewProductCodeCounts:
		bars := make([]chart.Value, 0, len(views.ProductCodeCounts))
		for _, v := range views.ProductCodeCounts {
			bars = append(bars, chart.Value{Label: v.ProductCode, Value: float64(v.Count)})
		}
		return renderBars(view, bars, w)

	case domain.ViewMeanBMIByAgeBar:
		bars := make([]chart.Value, 0, len(views.MeanBMIByAgeBar))
		for _, v := range views.MeanBMIByAgeBar {
			if v.Value.Valid {
				bars = append(bars, chart.Value{Label: v.AgeGroup.String(), Value: v.Value.Value})
			}
		}
		return renderBars(view, bars, w)

	case domain.ViewMeanBMIByAgeLine:
		return renderAgeLine(view, views.MeanBMIByAgeLine, w)

	case domain.ViewBMIByResponse, domain.ViewResponseByBMICategory, domain.ViewResponseHeatmap:
		return fmt.Errorf("%s: %w", view, domain.ErrUnsupportedChart)

	default:
		return fmt.Errorf("view %q: %w", view, domain.ErrNotFound)
	}
}

func renderBars(view string, bars []chart.Value, w io.Writer) error {
	if len(bars) == 0 {
		return fmt.Errorf("%s: %w", view, domain.ErrNoData)
	}

	graph := chart.BarChart{
		Title:    ChartTitles[view],
		Width:    chartWidth,
		Height:   chartHeight,
		BarWidth: barWidth(len(bars)),
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: upperBound(bars)},
		},
		Bars: bars,
	}

	return graph.Render(chart.PNG, w)
}

func renderAgeLine(view string, values []domain.AgeGroupValue, w io.Writer) error {
	var xs, ys []float64
	ticks := make([]chart.Tick, 0, len(values))
	for i, v := range values {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: v.AgeGroup.String()})
		if v.Value.Valid {
			xs = append(xs, float64(i))
			ys = append(ys, v.Value.Value)
		}
	}
	if len(xs) == 0 {
		return fmt.Errorf("%s: %w", view, domain.ErrNoData)
	}

	points := make([]chart.Value, len(ys))
	for i, y := range ys {
		points[i] = chart.Value{Value: y}
	}

	graph := chart.Chart{
		Title:  ChartTitles[view],
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		XAxis: chart.XAxis{Ticks: ticks},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: upperBound(points)},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Mean BMI",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeWidth: 2,
					DotWidth:    4,
				},
			},
		},
	}

	return graph.Render(chart.PNG, w)
}

// upperBound leaves headroom above the tallest value and is never zero.
func upperBound(values []chart.Value) float64 {
	max := 0.0
	for _, v := range values {
		if v.Value > max {
			max = v.Value
		}
	}
	if max <= 0 {
		return 1
	}
	return max * 1.1
}

func barWidth(n int) int {
	w := (chartWidth - 120) / (n * 2)
	if w > 80 {
		return 80
	}
	if w < 8 {
		return 8
	}
	return w
}
