package sweep

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sweeney/gauge-fw/internal/gauge"
)

// Strip is the LED strip gauge component: on every tick each sweep paints
// into the device buffer, then the buffer is flushed once.
type Strip struct {
	dev      gauge.PixelDevice
	painters []Painter
	logger   *zap.SugaredLogger
}

// NewStrip creates a strip component over dev. The device may be shared with
// other components and with a Multiplexer.
func NewStrip(dev gauge.PixelDevice, logger *zap.SugaredLogger) *Strip {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Strip{dev: dev, logger: logger}
}

// AddSweep appends a painter. Painters run in insertion order, so later ones
// win on shared indices.
func (s *Strip) AddSweep(p Painter) {
	s.painters = append(s.painters, p)
}

// Sweeps returns the registered painters.
func (s *Strip) Sweeps() []Painter {
	return s.painters
}

// Init blanks the strip.
func (s *Strip) Init() error {
	for i := 0; i < s.dev.PixelCount(); i++ {
		s.dev.SetPixel(i, gauge.Black)
	}
	if err := s.dev.Flush(); err != nil {
		return fmt.Errorf("clear strip: %w", err)
	}
	return nil
}

// Tick paints every sweep and flushes.
func (s *Strip) Tick() {
	for _, p := range s.painters {
		p.Update(s.dev)
	}
	if err := s.dev.Flush(); err != nil {
		s.logger.Debugw("strip flush failed", "error", err)
	}
}
