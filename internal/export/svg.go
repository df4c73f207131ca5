package export

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/san-kum/petrode/internal/analysis"
	"github.com/san-kum/petrode/internal/engine"
)

var palette = []string{"#00ff88", "#ff5f87", "#5fafff", "#ffd75f", "#af87ff", "#5fffff", "#ff875f", "#d7d7d7"}

// SeriesSVG plots the named places against time, one polyline each, on a
// shared vertical scale.
func SeriesSVG(sol *engine.Solution, ids []string, width, height int) (string, error) {
	series := make([][]float64, len(ids))
	for i, id := range ids {
		s, err := analysis.ExtractSeries(sol, id)
		if err != nil {
			return "", err
		}
		series[i] = s
	}
	if sol.Len() < 2 {
		return "", fmt.Errorf("export: need at least 2 samples to plot, got %d", sol.Len())
	}

	minX, maxX := sol.Times[0], sol.Times[sol.Len()-1]
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s {
			minY = math.Min(minY, v)
			maxY = math.Max(maxY, v)
		}
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.05
	maxY += rangeY * 0.05
	rangeY = maxY - minY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for i, s := range series {
		color := palette[i%len(palette)]
		label := html.EscapeString(ids[i])
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" data-place="%s" d="M`, color, label))
		for k, v := range s {
			x := (sol.Times[k] - minX) / rangeX * float64(width)
			y := float64(height) - (v-minY)/rangeY*float64(height)
			if k == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
		sb.WriteString(fmt.Sprintf(`<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 16*(i+1), color, label))
	}

	sb.WriteString("</svg>")
	return sb.String(), nil
}
