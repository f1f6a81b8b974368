package report

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/cintamani/seedgen/internal/models"
)

// MaxChartASNs is the number of autonomous systems shown in the chart
const MaxChartASNs = 20

// ASNCount is the number of admitted seeds in one autonomous system
type ASNCount struct {
	ASN   uint32
	Count int
}

// TopASNs returns per-ASN seed counts, largest first, ties by ASN
func TopASNs(result *models.SelectionResult, limit int) []ASNCount {
	counts := result.ASNCounts()
	out := make([]ASNCount, 0, len(counts))
	for asn, n := range counts {
		out = append(out, ASNCount{ASN: asn, Count: n})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ASN < out[j].ASN
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RenderASNChart draws a PNG bar chart of seeds per ASN for the most
// represented autonomous systems
func RenderASNChart(result *models.SelectionResult) (*bytes.Buffer, error) {
	if result == nil || len(result.Seeds) == 0 {
		return nil, fmt.Errorf("no seeds to chart")
	}

	top := TopASNs(result, MaxChartASNs)

	barColor := drawing.Color{R: 176, G: 224, B: 230, A: 255} // PowderBlue
	bars := make([]chart.Value, len(top))
	maxCount := 0
	for i, item := range top {
		if item.Count > maxCount {
			maxCount = item.Count
		}
		bars[i] = chart.Value{
			Label: fmt.Sprintf("AS%d", item.ASN),
			Value: float64(item.Count),
			Style: chart.Style{
				FillColor:   barColor,
				StrokeColor: barColor,
				StrokeWidth: 1,
			},
		}
	}

	graph := chart.BarChart{
		Width:  1200,
		Height: 600,
		Title:  fmt.Sprintf("Seeds per ASN (%s, %d seeds, %d ASNs)", result.Network, len(result.Seeds), result.Stats.DistinctASNs),
		TitleStyle: chart.Style{
			FontSize: 18,
		},
		Background: chart.Style{
			Padding: chart.Box{
				Top:    60,
				Left:   40,
				Right:  20,
				Bottom: 40,
			},
			FillColor: drawing.Color{R: 255, G: 255, B: 255, A: 255},
		},
		BarWidth:   40,
		BarSpacing: 12,
		XAxis: chart.Style{
			FontSize: 9,
		},
		YAxis: chart.YAxis{
			Name:      "Seeds",
			NameStyle: chart.Style{FontSize: 14},
			Range: &chart.ContinuousRange{
				Min: 0,
				Max: float64(maxCount) + 1,
			},
			ValueFormatter: func(v interface{}) string {
				if vf, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", vf)
				}
				return ""
			},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render ASN bar chart: %w", err)
	}

	return buffer, nil
}
