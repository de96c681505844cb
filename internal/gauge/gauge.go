// Package gauge contains the gauge orchestration core: the narrow interfaces
// every component and device implements, the CompositeGauge container and the
// Multiplexer that cycles between gauges sharing one LED strip.
// This package has NO hardware dependencies and no goroutines. Everything is
// driven by an external caller invoking Tick once per loop iteration.
package gauge

// Color is an RGB triple as written to an addressable LED.
type Color struct {
	R, G, B uint8
}

// Black is the conventional blank color.
var Black = Color{}

// Scaled returns c with every channel integer-divided by div.
func (c Color) Scaled(div uint8) Color {
	if div == 0 {
		return c
	}
	return Color{R: c.R / div, G: c.G / div, B: c.B / div}
}

// Tickable is a component that can be registered in a CompositeGauge.
// Init is called once on registration, Tick once per loop iteration.
type Tickable interface {
	Init() error
	Tick()
}

// Source is the read side of a measurement source, as used by renderers.
type Source interface {
	// Raw returns the last raw integer reading (ADC counts, sensor units).
	Raw() int
	// Format returns the human readable physical value.
	Format() string
	// Unit returns the unit of the formatted value.
	Unit() string
}

// PixelDevice is an addressable LED strip with a pixel buffer.
// SetPixel only writes the buffer; Flush transmits it.
type PixelDevice interface {
	SetPixel(index int, c Color)
	Flush() error
	PixelCount() int
}

// Scale is a character display text magnification.
type Scale int

const (
	Scale1X Scale = 1
	Scale2X Scale = 2
)

// Font selects a character display font.
type Font int

const (
	// FontLarge is the default value font.
	FontLarge Font = iota
	// FontSmall is used for unit lines.
	FontSmall
)

// TextDevice is a character display addressed in columns and text rows.
type TextDevice interface {
	SetCursor(col, row int)
	Print(text string)
	SetScale(s Scale)
	SetFont(f Font)
	Home()
}

// DebouncedInput is a debounced push button.
type DebouncedInput interface {
	// Poll samples the underlying input and updates the debounce state.
	Poll()
	// Fell reports whether the last Poll produced a falling edge (press).
	Fell() bool
}
