// Package gpio provides the gauge's push button with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Line reads one GPIO input.
type Line interface {
	// Value returns true when the line is electrically high.
	Value() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Defaults (BCM numbering). The button pulls the line to ground.
const (
	DefaultChip      = "gpiochip0"
	DefaultButtonPin = 17
)
