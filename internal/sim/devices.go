package sim

import (
	"fmt"
	"strings"

	"github.com/sweeney/gauge-fw/internal/gauge"
	"github.com/sweeney/gauge-fw/internal/obd"
)

// Strip is an on-screen LED ring. Flush publishes the buffer as the frame
// the view renders.
type Strip struct {
	pixels []gauge.Color
	frame  []gauge.Color
}

// NewStrip creates a ring of n pixels.
func NewStrip(n int) *Strip {
	return &Strip{pixels: make([]gauge.Color, n), frame: make([]gauge.Color, n)}
}

func (s *Strip) SetPixel(i int, c gauge.Color) {
	if i >= 0 && i < len(s.pixels) {
		s.pixels[i] = c
	}
}

func (s *Strip) Flush() error {
	copy(s.frame, s.pixels)
	return nil
}

func (s *Strip) PixelCount() int { return len(s.pixels) }

// Frame returns the last flushed frame.
func (s *Strip) Frame() []gauge.Color { return s.frame }

// Text is an on-screen character display. Scale and font are recorded but
// every character takes one cell.
type Text struct {
	cells    [][]rune
	col, row int
	scale    gauge.Scale
}

// NewText creates a display of width x height characters.
func NewText(width, height int) *Text {
	t := &Text{cells: make([][]rune, height), scale: gauge.Scale1X}
	for i := range t.cells {
		t.cells[i] = make([]rune, width)
	}
	t.Clear()
	return t
}

func (t *Text) SetCursor(col, row int) { t.col, t.row = col, row }

func (t *Text) Print(text string) {
	if t.row < 0 || t.row >= len(t.cells) {
		return
	}
	line := t.cells[t.row]
	for _, r := range text {
		if t.col >= 0 && t.col < len(line) {
			line[t.col] = r
		}
		t.col++
	}
}

func (t *Text) SetScale(s gauge.Scale) { t.scale = s }

func (t *Text) SetFont(gauge.Font) {}

func (t *Text) Home() { t.col, t.row = 0, 0 }

// Clear blanks the display.
func (t *Text) Clear() error {
	for _, line := range t.cells {
		for i := range line {
			line[i] = ' '
		}
	}
	return nil
}

// Lines returns the display content.
func (t *Text) Lines() []string {
	out := make([]string, len(t.cells))
	for i, line := range t.cells {
		out[i] = string(line)
	}
	return out
}

// HeightPx is the display height in 8 pixel character rows.
func (t *Text) HeightPx() int { return len(t.cells) * 8 }

// Button is a DebouncedInput pressed from the keyboard.
type Button struct {
	pending bool
	fell    bool
	presses int
}

// Press queues a press for the next Poll.
func (b *Button) Press() {
	b.pending = true
	b.presses++
}

func (b *Button) Poll() {
	b.fell = b.pending
	b.pending = false
}

func (b *Button) Fell() bool { return b.fell }

// Presses returns the number of key presses.
func (b *Button) Presses() int { return b.presses }

// wave is a triangle wave between lo and hi stepping by step per call,
// starting at v.
type wave struct {
	lo, hi, step int
	v            int
	down         bool
}

func (w *wave) next() int {
	if w.down {
		w.v -= w.step
		if w.v <= w.lo {
			w.v, w.down = w.lo, false
		}
	} else {
		w.v += w.step
		if w.v >= w.hi {
			w.v, w.down = w.hi, true
		}
	}
	return w.v
}

// Analog is a 10-bit converter whose channels sweep at different rates.
type Analog struct {
	waves [4]wave
}

// NewAnalog creates a simulated converter.
func NewAnalog() *Analog {
	a := &Analog{}
	for ch := range a.waves {
		a.waves[ch] = wave{lo: 100, hi: 1000, step: ch + 1, v: 100}
	}
	return a
}

func (a *Analog) ReadChannel(channel int) (int, error) {
	if channel < 0 || channel >= len(a.waves) {
		return 0, fmt.Errorf("sim: no analog channel %d", channel)
	}
	return a.waves[channel].next(), nil
}

// Barometer is an always ready pressure sensor at sea level.
type Barometer struct{}

func (Barometer) Ready() bool { return true }

func (Barometer) PressureKPa() (float32, error) { return 101.3, nil }

// Lines is a serial line sensor reporting an air/fuel ratio times ten.
type Lines struct {
	w wave
}

// NewLines creates a simulated serial sensor.
func NewLines() *Lines {
	return &Lines{w: wave{lo: 110, hi: 180, step: 1, v: 110}}
}

func (l *Lines) ReadLine() (string, bool) {
	return fmt.Sprintf("%d\r", l.w.next()), true
}

// OBD answers every supported query with a byte sweeping 0..255, decoded as
// a real adapter answer would be.
type OBD struct {
	w wave
}

// NewOBD creates a simulated adapter.
func NewOBD() *OBD {
	return &OBD{w: wave{lo: 0, hi: 255, step: 1}}
}

func (o *OBD) Init() error { return nil }

func (o *OBD) Get(command string) obd.Measurement {
	b := o.w.next()
	pid := strings.ToUpper(strings.TrimPrefix(command, "01"))
	m, err := obd.Decode(command, fmt.Sprintf("41%s%02X%02X", pid, b, b))
	if err != nil {
		return obd.Measurement{Command: command}
	}
	return m
}
