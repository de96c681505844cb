package gauge

import "fmt"

// PixelWrite is a single SetPixel call recorded by FakeStrip.
type PixelWrite struct {
	Index int
	Color Color
}

// FakeStrip is an in-memory PixelDevice that records every write.
type FakeStrip struct {
	// Pixels is the current pixel buffer.
	Pixels []Color

	// Writes contains every SetPixel call since the last Reset.
	Writes []PixelWrite

	// Flushes counts Flush calls.
	Flushes int

	// FlushError, if set, will be returned by Flush.
	FlushError error
}

// NewFakeStrip creates a FakeStrip with n pixels.
func NewFakeStrip(n int) *FakeStrip {
	return &FakeStrip{Pixels: make([]Color, n)}
}

// SetPixel records the write. Out of range indices are recorded but not stored.
func (f *FakeStrip) SetPixel(index int, c Color) {
	f.Writes = append(f.Writes, PixelWrite{Index: index, Color: c})
	if index >= 0 && index < len(f.Pixels) {
		f.Pixels[index] = c
	}
}

// Flush counts the call.
func (f *FakeStrip) Flush() error {
	if f.FlushError != nil {
		return f.FlushError
	}
	f.Flushes++
	return nil
}

// PixelCount returns the number of pixels.
func (f *FakeStrip) PixelCount() int {
	return len(f.Pixels)
}

// WritesTo returns the number of recorded writes to index.
func (f *FakeStrip) WritesTo(index int) int {
	n := 0
	for _, w := range f.Writes {
		if w.Index == index {
			n++
		}
	}
	return n
}

// Reset clears recorded writes and flush counts, keeping the pixel buffer.
func (f *FakeStrip) Reset() {
	f.Writes = nil
	f.Flushes = 0
	f.FlushError = nil
}

// FakeText is an in-memory TextDevice that records printed text.
type FakeText struct {
	Col, Row int
	Scale    Scale
	Font     Font

	// Lines records every Print as "col,row,scale:text".
	Lines []string

	// Homes counts Home calls.
	Homes int
}

// NewFakeText creates a FakeText at 1x scale.
func NewFakeText() *FakeText {
	return &FakeText{Scale: Scale1X}
}

func (f *FakeText) SetCursor(col, row int) {
	f.Col, f.Row = col, row
}

func (f *FakeText) Print(text string) {
	f.Lines = append(f.Lines, fmt.Sprintf("%d,%d,%dx:%s", f.Col, f.Row, f.Scale, text))
}

func (f *FakeText) SetScale(s Scale) {
	f.Scale = s
}

func (f *FakeText) SetFont(font Font) {
	f.Font = font
}

func (f *FakeText) Home() {
	f.Col, f.Row = 0, 0
	f.Homes++
}

// Reset clears recorded lines.
func (f *FakeText) Reset() {
	f.Lines = nil
	f.Homes = 0
}

// FakeButton is a DebouncedInput with scripted falling edges.
type FakeButton struct {
	// Edges contains the Fell result for each Poll, consumed in order.
	// Once exhausted, Fell reports false.
	Edges []bool

	polls int
	fell  bool
}

// NewFakeButton creates a button that reports the given edges.
func NewFakeButton(edges ...bool) *FakeButton {
	return &FakeButton{Edges: edges}
}

// Press schedules a falling edge on the next Poll.
func (f *FakeButton) Press() {
	for len(f.Edges) <= f.polls {
		f.Edges = append(f.Edges, false)
	}
	f.Edges[f.polls] = true
}

func (f *FakeButton) Poll() {
	f.fell = f.polls < len(f.Edges) && f.Edges[f.polls]
	f.polls++
}

func (f *FakeButton) Fell() bool {
	return f.fell
}

// Polls returns the number of Poll calls.
func (f *FakeButton) Polls() int {
	return f.polls
}

// FakeSource is a Source with a settable reading.
type FakeSource struct {
	Value    int
	Text     string
	UnitText string
}

func (f *FakeSource) Raw() int       { return f.Value }
func (f *FakeSource) Format() string { return f.Text }
func (f *FakeSource) Unit() string   { return f.UnitText }

// CountingComponent is a Tickable that counts calls, optionally recording
// its tick order into a shared log.
type CountingComponent struct {
	Name    string
	Inits   int
	Ticks   int
	InitErr error
	Log     *[]string
}

func (c *CountingComponent) Init() error {
	c.Inits++
	return c.InitErr
}

func (c *CountingComponent) Tick() {
	c.Ticks++
	if c.Log != nil {
		*c.Log = append(*c.Log, c.Name)
	}
}
