package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/petrode/internal/analysis"
	"github.com/san-kum/petrode/internal/models"
)

const cellWidth = 9

var (
	cellStyle = lipgloss.NewStyle().
			Width(cellWidth).
			Align(lipgloss.Center).
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#444466"))

	markStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff"))
)

// Heatmap draws the board with every empty cell shaded by its normalized
// score and labelled with the raw score. Occupied cells show their mark;
// empty cells without a score are left blank.
func Heatmap(b models.Board, scores map[string]float64) string {
	norm := analysis.Normalize(scores)

	rows := make([]string, 0, 3)
	for r := 0; r < 3; r++ {
		cells := make([]string, 0, 3)
		for c := 0; c < 3; c++ {
			id := models.CellID(r, c)
			style := cellStyle
			label := "·"
			if m := b[r][c]; m != models.Empty {
				label = markStyle.Render(strings.ToUpper(m.String()))
			} else if s, ok := scores[id]; ok {
				style = style.Background(heatColor(norm[id]))
				label = fmt.Sprintf("%.2f", s)
			}
			cells = append(cells, style.Render(label))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// Ranking lists candidates best first with a bar scaled to the normalized
// score.
func Ranking(title string, ranked []analysis.Ranked, barWidth int) string {
	scores := make(map[string]float64, len(ranked))
	idWidth := 0
	for _, r := range ranked {
		scores[r.ID] = r.Score
		idWidth = max(idWidth, len(r.ID))
	}
	norm := analysis.Normalize(scores)

	var b strings.Builder
	b.WriteString(Title.Render(title))
	b.WriteByte('\n')
	for i, r := range ranked {
		fmt.Fprintf(&b, "%2d. %-*s %s %s\n",
			i+1, idWidth, r.ID,
			ProgressBar(norm[r.ID], barWidth),
			MetricValue.Render(fmt.Sprintf("%.4f", r.Score)))
	}
	return Panel.Render(strings.TrimRight(b.String(), "\n"))
}
