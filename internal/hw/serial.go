package hw

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// maxLineLength bounds a single line. Longer lines are discarded up to
// their newline.
const maxLineLength = 64

// maxReads bounds how many port reads one ReadLine makes.
const maxReads = 8

// SerialLines assembles newline-terminated lines from a serial port without
// blocking the caller for longer than the port read timeout.
type SerialLines struct {
	r      io.Reader
	closer io.Closer
	logger *zap.SugaredLogger

	buf      []byte
	scratch  []byte
	overflow bool
}

// OpenSerialLines opens port at baud with a short read timeout.
func OpenSerialLines(port string, baud int, logger *zap.SugaredLogger) (*SerialLines, error) {
	mode := &serial.Mode{
		BaudRate: baud,
	}
	sp, err := serial.Open(port, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", port, err)
	}
	if err := sp.SetReadTimeout(time.Millisecond); err != nil {
		sp.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", port, err)
	}
	l := NewSerialLines(sp, logger)
	l.closer = sp
	return l, nil
}

// NewSerialLines reads lines from r. Reads from r must not block.
func NewSerialLines(r io.Reader, logger *zap.SugaredLogger) *SerialLines {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SerialLines{r: r, logger: logger, scratch: make([]byte, maxLineLength)}
}

// ReadLine drains what the port has buffered and returns the newest complete
// non-empty line, without its terminator. Older lines are dropped so a sensor
// that sends faster than it is read never builds a backlog.
func (s *SerialLines) ReadLine() (string, bool) {
	var latest string
	found := false
	for range maxReads {
		n, err := s.r.Read(s.scratch)
		if err != nil && err != io.EOF {
			s.logger.Debugw("serial read failed", "error", err)
		}
		for _, b := range s.scratch[:n] {
			switch {
			case b == '\r':
			case b == '\n':
				if !s.overflow && len(s.buf) > 0 {
					latest, found = string(s.buf), true
				}
				s.buf = s.buf[:0]
				s.overflow = false
			case s.overflow:
			case len(s.buf) == maxLineLength:
				s.logger.Debugw("serial line too long, discarding", "bytes", len(s.buf))
				s.buf = s.buf[:0]
				s.overflow = true
			default:
				s.buf = append(s.buf, b)
			}
		}
		if n < len(s.scratch) {
			break
		}
	}
	return latest, found
}

// Close closes the port when it was opened by OpenSerialLines.
func (s *SerialLines) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
