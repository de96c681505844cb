package hw

import (
	"errors"
	"fmt"
)

// fakeBus is an in-memory i2c.Bus keyed by device address and register.
type fakeBus struct {
	regs map[string][]byte
	// raw holds the bytes returned by ReadBytes per address.
	raw map[byte][]byte

	writes  []string
	readErr error
	closed  bool

	// onConfigRead, if set, is called on each config register read.
	onConfigRead func() []byte
}

func newFakeBus() *fakeBus {
	return &fakeBus{regs: map[string][]byte{}, raw: map[byte][]byte{}}
}

func regKey(addr, reg byte) string {
	return fmt.Sprintf("%02x/%02x", addr, reg)
}

func (f *fakeBus) ReadBytes(addr byte, num int) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := make([]byte, num)
	copy(out, f.raw[addr])
	return out, nil
}

func (f *fakeBus) WriteBytes(addr byte, value []byte) error {
	f.writes = append(f.writes, fmt.Sprintf("%02x:% x", addr, value))
	return nil
}

func (f *fakeBus) ReadFromReg(addr, reg byte, value []byte) error {
	if f.readErr != nil {
		return f.readErr
	}
	if reg == regConfig && f.onConfigRead != nil {
		copy(value, f.onConfigRead())
		return nil
	}
	copy(value, f.regs[regKey(addr, reg)])
	return nil
}

func (f *fakeBus) WriteToReg(addr, reg byte, value []byte) error {
	f.writes = append(f.writes, fmt.Sprintf("%02x/%02x:% x", addr, reg, value))
	f.regs[regKey(addr, reg)] = append([]byte(nil), value...)
	return nil
}

func (f *fakeBus) Close() error {
	f.closed = true
	return nil
}

var errBus = errors.New("bus error")
