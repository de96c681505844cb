// Package sim runs the gauge in a terminal: the LED ring and the character
// display are drawn with lipgloss and the space bar presses the button.
package sim

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/chewxy/math32"

	"github.com/sweeney/gauge-fw/internal/gauge"
)

// TickMsg advances the gauge by one tick.
type TickMsg time.Time

// Gauge is the part of the multiplexer the simulator drives and shows.
type Gauge interface {
	Tick()
	ActiveName() string
	Transitioning() bool
}

// shared holds state shared between model copies. Bubble Tea uses value
// receivers, so pointer fields keep every copy on the same data.
type shared struct {
	gauge  Gauge
	strip  *Strip
	text   *Text
	button *Button
	ticks  int
}

// Model is the root Bubble Tea model of the simulator. The gauge is ticked
// from Update, so it only ever runs on the program's event loop.
type Model struct {
	tick   time.Duration
	shared *shared
}

// New creates a model ticking g every tick.
func New(g Gauge, strip *Strip, text *Text, button *Button, tick time.Duration) Model {
	return Model{
		tick: tick,
		shared: &shared{
			gauge:  g,
			strip:  strip,
			text:   text,
			button: button,
		},
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "space", "enter", "n":
			m.shared.button.Press()
		}
		return m, nil

	case TickMsg:
		m.shared.gauge.Tick()
		m.shared.ticks++
		return m, m.tickCmd()
	}
	return m, nil
}

// Ticks returns the number of gauge ticks run.
func (m Model) Ticks() int {
	return m.shared.ticks
}

func (m Model) View() string {
	title := StyleTitle.Render(m.shared.gauge.ActiveName())
	if m.shared.gauge.Transitioning() {
		title += " " + StyleTransition.Render("switching")
	}

	ring := renderRing(m.shared.strip.Frame())
	var display string
	if m.shared.text != nil {
		display = StyleDisplay.Render(strings.Join(m.shared.text.Lines(), "\n"))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Center, ring, "  ", display)
	help := StyleHelp.Render(fmt.Sprintf("space: next gauge  q: quit  ticks: %d", m.shared.ticks))
	return lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", help) + "\n"
}

// ringRadius is the ring radius in text rows. Columns are doubled to make
// the ring round in a terminal.
const ringRadius = 5

// renderRing draws pixels on a circle, index 0 at the top going clockwise.
func renderRing(pixels []gauge.Color) string {
	rows, cols := 2*ringRadius+1, 4*ringRadius+1
	grid := make([][]string, rows)
	for r := range grid {
		grid[r] = make([]string, cols)
		for c := range grid[r] {
			grid[r][c] = " "
		}
	}

	n := float32(len(pixels))
	for i, c := range pixels {
		angle := 2 * math32.Pi * float32(i) / n
		r := ringRadius - int(math32.Round(ringRadius*math32.Cos(angle)))
		col := 2*ringRadius + int(math32.Round(2*ringRadius*math32.Sin(angle)))
		grid[r][col] = renderLed(c)
	}

	lines := make([]string, rows)
	for r, cells := range grid {
		lines[r] = strings.Join(cells, "")
	}
	return strings.Join(lines, "\n")
}

func renderLed(c gauge.Color) string {
	if c == gauge.Black {
		return StyleLedOff.Render("○")
	}
	hex := fmt.Sprintf("#%02X%02X%02X", scaleUp(c.R), scaleUp(c.G), scaleUp(c.B))
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("●")
}

// scaleUp brightens a channel so dim ring colors stay visible on screen.
func scaleUp(v uint8) uint8 {
	return uint8(min(int(v)*4, 255))
}
