package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/petrode/internal/analysis"
	"github.com/san-kum/petrode/internal/engine"
)

const (
	frameInterval = time.Second / 30
	barWidth      = 30
	sparkWidth    = 40
	maxSpeed      = 64
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Player replays a solution one sample per frame, scaled by speed. It never
// re-solves; every frame is read from the stored samples.
type Player struct {
	sol     *engine.Solution
	title   string
	ids     []string
	series  [][]float64
	peak    float64
	head    int
	speed   int
	running bool
}

// NewPlayer prepares playback of the given places, or of every place when
// ids is empty.
func NewPlayer(title string, sol *engine.Solution, ids []string) (*Player, error) {
	if sol == nil || sol.Len() == 0 {
		return nil, fmt.Errorf("viz: empty solution")
	}
	if len(ids) == 0 {
		ids = sol.Net().PlaceIDs()
	}
	p := &Player{sol: sol, title: title, ids: ids, speed: 1, running: true}
	for _, id := range ids {
		s, err := analysis.ExtractSeries(sol, id)
		if err != nil {
			return nil, err
		}
		for _, v := range s {
			p.peak = max(p.peak, v)
		}
		p.series = append(p.series, s)
	}
	if p.peak == 0 {
		p.peak = 1
	}
	return p, nil
}

// Head is the index of the sample on screen.
func (p *Player) Head() int { return p.head }

func (p *Player) Running() bool { return p.running }

func (p *Player) Speed() int { return p.speed }

func (p *Player) Init() tea.Cmd { return tick() }

func (p *Player) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return p, tea.Quit
		case " ":
			p.running = !p.running
		case "right", "l":
			p.running = false
			p.seek(1)
		case "left", "h":
			p.running = false
			p.seek(-1)
		case "+", "=":
			p.speed = min(p.speed*2, maxSpeed)
		case "-":
			p.speed = max(p.speed/2, 1)
		case "r":
			p.head = 0
		}
	case TickMsg:
		if p.running {
			p.seek(p.speed)
			if p.head == p.sol.Len()-1 {
				p.running = false
			}
		}
		return p, tick()
	}
	return p, nil
}

func (p *Player) seek(delta int) {
	p.head = min(max(p.head+delta, 0), p.sol.Len()-1)
}

func (p *Player) View() string {
	var b strings.Builder
	b.WriteString(Title.Render(p.title))
	b.WriteString("  ")
	if p.running {
		b.WriteString(StatusRunning.Render("▶ playing"))
	} else {
		b.WriteString(StatusPaused.Render("❚❚ paused"))
	}
	b.WriteString("\n\n")

	n := p.sol.Len()
	span := p.sol.Span()
	fmt.Fprintf(&b, "%s %s  %s\n",
		MetricLabel.Render("time"),
		MetricValue.Render(fmt.Sprintf("%8.4f", p.sol.Times[p.head])),
		Subtle.Render(fmt.Sprintf("of %g  sample %d/%d  x%d", span.End, p.head+1, n, p.speed)))
	fmt.Fprintf(&b, "%s %s\n\n", MetricLabel.Render(""), ProgressBar(float64(p.head)/float64(max(n-1, 1)), barWidth))

	for i, id := range p.ids {
		v := p.series[i][p.head]
		fmt.Fprintf(&b, "%s %s %s  %s\n",
			MetricLabel.Render(id),
			ProgressBar(v/p.peak, barWidth),
			MetricValue.Render(fmt.Sprintf("%9.4f", v)),
			Sparkline(p.series[i][:p.head+1], sparkWidth))
	}

	b.WriteString("\n")
	b.WriteString(KeyHint.Render("space pause · ←/→ step · +/- speed · r rewind · q quit"))
	return Panel.Render(b.String())
}
