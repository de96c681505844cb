// Package hw adapts Raspberry Pi peripherals to the gauge interfaces: an
// ADS1115 analog converter, a BMP280 barometer and an HD44780 character
// display on the I2C bus, and line-oriented serial sensors.
package hw

import (
	"fmt"

	"github.com/reef-pi/rpi/i2c"
)

// Bus adapts a Linux I2C bus to the transaction interface expected by the
// tinygo device drivers.
type Bus struct {
	bus i2c.Bus
}

// OpenBus opens the default I2C bus.
func OpenBus() (*Bus, error) {
	b, err := i2c.New()
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}
	return &Bus{bus: b}, nil
}

// NewBus wraps an already open bus.
func NewBus(b i2c.Bus) *Bus {
	return &Bus{bus: b}
}

// Raw returns the wrapped bus.
func (b *Bus) Raw() i2c.Bus {
	return b.bus
}

// Tx writes w then reads len(r) bytes from the device at addr. A single
// byte write followed by a read is a register read.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	a := byte(addr)
	switch {
	case len(w) == 1 && len(r) > 0:
		return b.bus.ReadFromReg(a, w[0], r)
	case len(w) > 0:
		if err := b.bus.WriteBytes(a, w); err != nil {
			return err
		}
		if len(r) == 0 {
			return nil
		}
	case len(r) == 0:
		return nil
	}
	got, err := b.bus.ReadBytes(a, len(r))
	if err != nil {
		return err
	}
	copy(r, got)
	return nil
}

// ReadRegister reads len(buf) bytes starting at register reg.
func (b *Bus) ReadRegister(addr uint8, reg uint8, buf []byte) error {
	return b.bus.ReadFromReg(addr, reg, buf)
}

// WriteRegister writes buf starting at register reg.
func (b *Bus) WriteRegister(addr uint8, reg uint8, buf []byte) error {
	return b.bus.WriteToReg(addr, reg, buf)
}

// Close closes the bus.
func (b *Bus) Close() error {
	return b.bus.Close()
}
