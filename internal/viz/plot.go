package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/petrode/internal/analysis"
	"github.com/san-kum/petrode/internal/engine"
)

var seriesPalette = []asciigraph.AnsiColor{
	asciigraph.Cyan,
	asciigraph.Yellow,
	asciigraph.Green,
	asciigraph.Magenta,
	asciigraph.Red,
	asciigraph.Blue,
}

// PlotSeries draws the named places of sol as one line chart. With no ids
// every place is plotted. Series longer than width are downsampled.
func PlotSeries(sol *engine.Solution, ids []string, width, height int) (string, error) {
	if sol == nil || sol.Len() == 0 {
		return "", fmt.Errorf("viz: empty solution")
	}
	if len(ids) == 0 {
		ids = sol.Net().PlaceIDs()
	}

	data := make([][]float64, 0, len(ids))
	colors := make([]asciigraph.AnsiColor, 0, len(ids))
	legend := make([]string, 0, len(ids))
	for i, id := range ids {
		s, err := analysis.ExtractSeries(sol, id)
		if err != nil {
			return "", err
		}
		data = append(data, downsample(s, width))
		colors = append(colors, seriesPalette[i%len(seriesPalette)])
		legend = append(legend, fmt.Sprintf("%s■%s %s", colors[i], asciigraph.Default, id))
	}

	span := sol.Span()
	caption := fmt.Sprintf("t ∈ [%g, %g]", span.Start, span.End)
	graph := asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(2),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(caption),
	)
	return graph + "\n" + strings.Join(legend, "  "), nil
}

// downsample keeps at most n evenly spaced points, always including the last.
func downsample(v []float64, n int) []float64 {
	if n <= 1 || len(v) <= n {
		return v
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = v[i*(len(v)-1)/(n-1)]
	}
	return out
}
