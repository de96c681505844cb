package mqtt

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/sweeney/gauge-fw/internal/gauge"
)

// StripDevice is a gauge.PixelDevice for a WLED controller listening on its
// JSON API topic. Each flush sends the whole frame as individual LED colors
// of the main segment; unchanged frames are not sent.
type StripDevice struct {
	pub   RawPublisher
	topic string

	pixels []gauge.Color
	sent   []gauge.Color
	synced bool
}

// NewStripDevice creates a strip of n pixels published to topic, usually
// "wled/<name>/api".
func NewStripDevice(pub RawPublisher, topic string, n int) *StripDevice {
	return &StripDevice{
		pub:    pub,
		topic:  topic,
		pixels: make([]gauge.Color, n),
		sent:   make([]gauge.Color, n),
	}
}

// SetPixel sets pixel i in the buffer. Indices outside the strip are ignored.
func (s *StripDevice) SetPixel(i int, c gauge.Color) {
	if i < 0 || i >= len(s.pixels) {
		return
	}
	s.pixels[i] = c
}

// PixelCount returns the number of pixels.
func (s *StripDevice) PixelCount() int {
	return len(s.pixels)
}

// Pixels returns a copy of the buffer.
func (s *StripDevice) Pixels() []gauge.Color {
	return slices.Clone(s.pixels)
}

// Flush publishes the buffer if it differs from the last frame sent.
func (s *StripDevice) Flush() error {
	if s.synced && slices.Equal(s.pixels, s.sent) {
		return nil
	}
	payload, err := FormatWLEDPayload(s.pixels)
	if err != nil {
		return fmt.Errorf("format wled payload: %w", err)
	}
	if err := s.pub.PublishRaw(s.topic, 0, false, payload); err != nil {
		return err
	}
	copy(s.sent, s.pixels)
	s.synced = true
	return nil
}

type wledState struct {
	On  bool        `json:"on"`
	Seg wledSegment `json:"seg"`
}

type wledSegment struct {
	I []any `json:"i"`
}

// FormatWLEDPayload encodes pixels as a WLED state update:
// {"on":true,"seg":{"i":[0,"RRGGBB",1,"RRGGBB",...]}}.
func FormatWLEDPayload(pixels []gauge.Color) ([]byte, error) {
	leds := make([]any, 0, 2*len(pixels))
	for i, c := range pixels {
		leds = append(leds, i, fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B))
	}
	return json.Marshal(wledState{On: true, Seg: wledSegment{I: leds}})
}
