package export

import (
	"bytes"
	"errors"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ContentTypePNG is the media type of chart output.
const ContentTypePNG = "image/png"

// ErrNoEnds is returned when there is nothing to plot.
var ErrNoEnds = errors.New("no ends to chart")

// Palette colours a progress chart.
type Palette struct {
	Background drawing.Color
	Line       drawing.Color
	Dot        drawing.Color
	Text       drawing.Color
}

// DefaultPalette is a light theme.
var DefaultPalette = Palette{
	Background: drawing.ColorFromHex("ffffff"),
	Line:       drawing.ColorFromHex("1f6f43"),
	Dot:        drawing.ColorFromHex("d4a017"),
	Text:       drawing.ColorFromHex("333333"),
}

// CumulativeChart plots the running total after each end. The line starts at
// zero so a single end still draws a segment.
func CumulativeChart(cumulative []int, palette Palette) ([]byte, error) {
	if len(cumulative) == 0 {
		return nil, ErrNoEnds
	}

	xs := make([]float64, len(cumulative)+1)
	ys := make([]float64, len(cumulative)+1)
	top := 10.0
	for i, total := range cumulative {
		xs[i+1] = float64(i + 1)
		ys[i+1] = float64(total)
		if ys[i+1] > top {
			top = ys[i+1]
		}
	}

	graph := chart.Chart{
		Width:      800,
		Height:     400,
		Background: chart.Style{FillColor: palette.Background},
		Canvas:     chart.Style{FillColor: palette.Background},
		XAxis: chart.XAxis{
			Name:  "End",
			Style: chart.Style{FontColor: palette.Text},
			Range: &chart.ContinuousRange{Min: 0, Max: xs[len(xs)-1]},
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		YAxis: chart.YAxis{
			Name:  "Score",
			Style: chart.Style{FontColor: palette.Text},
			Range: &chart.ContinuousRange{Min: 0, Max: top},
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		Series: []chart.Series{chart.ContinuousSeries{
			Name:    "Cumulative score",
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: palette.Line,
				StrokeWidth: 2,
				DotWidth:    3,
				DotColor:    palette.Dot,
			},
		}},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
