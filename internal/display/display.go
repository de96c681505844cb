// Package display renders measurement sources on a character display.
//
// Screens re-render unconditionally on every tick. Values are printed at 2x
// scale in the large font, units at 1x in the small font.
package display

import (
	"fmt"

	"github.com/sweeney/gauge-fw/internal/gauge"
)

// Clearer is implemented by text devices that can wipe the whole screen.
type Clearer interface {
	Clear() error
}

// prepare resets dev to the value font at 2x and clears it when supported.
func prepare(dev gauge.TextDevice) error {
	if c, ok := dev.(Clearer); ok {
		if err := c.Clear(); err != nil {
			return fmt.Errorf("clear display: %w", err)
		}
	}
	dev.SetFont(gauge.FontLarge)
	dev.SetScale(gauge.Scale2X)
	dev.Home()
	return nil
}

// printSource prints the value of src at (col, valueRow) and its unit at
// (col, unitRow), leaving the device at 2x in the large font.
func printSource(dev gauge.TextDevice, src gauge.Source, col, valueRow, unitRow int) {
	dev.SetScale(gauge.Scale2X)
	dev.SetCursor(col, valueRow)
	dev.Print(src.Format())

	dev.SetFont(gauge.FontSmall)
	dev.SetScale(gauge.Scale1X)
	dev.SetCursor(col, unitRow)
	dev.Print(src.Unit())

	dev.SetFont(gauge.FontLarge)
	dev.SetScale(gauge.Scale2X)
}

// Single shows one source.
type Single struct {
	dev      gauge.TextDevice
	src      gauge.Source
	col      int
	valueRow int
	unitRow  int
}

// NewSingle creates a screen printing src's value at (col, valueRow) and its
// unit at (col, unitRow).
func NewSingle(dev gauge.TextDevice, src gauge.Source, col, valueRow, unitRow int) *Single {
	return &Single{dev: dev, src: src, col: col, valueRow: valueRow, unitRow: unitRow}
}

func (s *Single) Init() error {
	return prepare(s.dev)
}

func (s *Single) Tick() {
	printSource(s.dev, s.src, s.col, s.valueRow, s.unitRow)
	s.dev.Home()
}

// UnitRowOffset is how many text rows below its value a unit is printed on a
// dual screen.
const UnitRowOffset = 2

// DualRows derives the top and bottom value rows from the display height in
// pixels. Rows that would be negative on very short displays are 0.
func DualRows(heightPx int) (top, bottom int) {
	h := float32(heightPx)
	top = int((h/3 - 20) / 7)
	bottom = int((h*2/3 - 8) / 7)
	return max(top, 0), max(bottom, 0)
}

// Dual shows two sources stacked vertically.
type Dual struct {
	dev       gauge.TextDevice
	top       gauge.Source
	bottom    gauge.Source
	col       int
	topRow    int
	bottomRow int

	// unitOffset is how many rows below each value its unit goes.
	unitOffset int
}

// DualOption configures a Dual screen.
type DualOption func(*Dual)

// WithRows overrides the value rows derived from the display height.
func WithRows(top, bottom int) DualOption {
	return func(d *Dual) {
		d.topRow = top
		d.bottomRow = bottom
	}
}

// CharacterLayout places the sources on a character display rows text rows
// tall that cannot magnify: each value sits directly above its unit and the
// bottom source starts half way down. Rows set with WithRows afterwards
// still apply.
func CharacterLayout(rows int) DualOption {
	return func(d *Dual) {
		d.topRow, d.bottomRow = 0, rows/2
		d.unitOffset = 1
	}
}

// NewDual creates a dual screen for a display heightPx pixels tall.
func NewDual(dev gauge.TextDevice, top, bottom gauge.Source, col, heightPx int, opts ...DualOption) *Dual {
	d := &Dual{dev: dev, top: top, bottom: bottom, col: col, unitOffset: UnitRowOffset}
	d.topRow, d.bottomRow = DualRows(heightPx)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Rows returns the top and bottom value rows.
func (d *Dual) Rows() (top, bottom int) {
	return d.topRow, d.bottomRow
}

func (d *Dual) Init() error {
	return prepare(d.dev)
}

func (d *Dual) Tick() {
	printSource(d.dev, d.top, d.col, d.topRow, d.topRow+d.unitOffset)
	printSource(d.dev, d.bottom, d.col, d.bottomRow, d.bottomRow+d.unitOffset)
	d.dev.Home()
}
