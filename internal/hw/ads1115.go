package hw

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/reef-pi/rpi/i2c"
)

// ADS1115 registers
const (
	regConversion = 0x00
	regConfig     = 0x01
)

const (
	configOsSingle        uint16 = 0x8000
	configModeSingle      uint16 = 0x0100
	configDataRate860     uint16 = 0x00E0
	configComparatorQueue uint16 = 0x0003 // comparator disabled
)

// Gain is an ADS1115 programmable gain setting.
type Gain uint16

const (
	GainTwoThirds Gain = 0x0000 // +/- 6.144V
	GainOne       Gain = 0x0200 // +/- 4.096V
	GainTwo       Gain = 0x0400 // +/- 2.048V
)

// fullScale returns the full-scale voltage of g.
func (g Gain) fullScale() (float32, bool) {
	switch g {
	case GainTwoThirds:
		return 6.144, true
	case GainOne:
		return 4.096, true
	case GainTwo:
		return 2.048, true
	default:
		return 0, false
	}
}

// DefaultADS1115Address is the converter address with ADDR tied to ground.
const DefaultADS1115Address = 0x48

const (
	convTimeout  = 50 * time.Millisecond
	convPollWait = 200 * time.Microsecond
)

// ErrConversionTimeout is returned when a conversion does not complete.
var ErrConversionTimeout = errors.New("ads1115: conversion timeout")

// ADS1115 reads single-ended channels of an ADS1115 and rescales them to
// the counts a 10-bit converter with the given resolution would report.
type ADS1115 struct {
	bus     i2c.Bus
	addr    byte
	gain    Gain
	fs      float32
	vresInv float32

	sleep func(time.Duration)
	now   func() time.Time
}

// NewADS1115 creates a converter at addr. vResolutionInv is counts per volt
// of the emulated 10-bit converter, e.g. 204 for a 5 V reference.
func NewADS1115(bus i2c.Bus, addr byte, gain Gain, vResolutionInv float32) (*ADS1115, error) {
	fs, ok := gain.fullScale()
	if !ok {
		return nil, fmt.Errorf("ads1115: unknown gain 0x%04X", uint16(gain))
	}
	return &ADS1115{
		bus:     bus,
		addr:    addr,
		gain:    gain,
		fs:      fs,
		vresInv: vResolutionInv,
		sleep:   time.Sleep,
		now:     time.Now,
	}, nil
}

// ReadChannel performs a single-shot conversion of AINx against ground.
func (a *ADS1115) ReadChannel(channel int) (int, error) {
	if channel < 0 || channel > 3 {
		return 0, fmt.Errorf("ads1115: invalid channel %d", channel)
	}
	mux := uint16(0x4000) + uint16(channel)<<12

	config := configOsSingle | configModeSingle | configComparatorQueue |
		configDataRate860 | uint16(a.gain) | mux

	buf := []byte{byte(config >> 8), byte(config)}
	if err := a.bus.WriteToReg(a.addr, regConfig, buf); err != nil {
		return 0, fmt.Errorf("ads1115: write config: %w", err)
	}

	// Poll OS bit until conversion complete
	deadline := a.now().Add(convTimeout)
	cfg := make([]byte, 2)
	for {
		if err := a.bus.ReadFromReg(a.addr, regConfig, cfg); err != nil {
			return 0, fmt.Errorf("ads1115: read config: %w", err)
		}
		if binary.BigEndian.Uint16(cfg)&configOsSingle != 0 {
			break
		}
		if a.now().After(deadline) {
			return 0, ErrConversionTimeout
		}
		a.sleep(convPollWait)
	}

	b := make([]byte, 2)
	if err := a.bus.ReadFromReg(a.addr, regConversion, b); err != nil {
		return 0, fmt.Errorf("ads1115: read conversion: %w", err)
	}
	return a.scale(int16(binary.BigEndian.Uint16(b))), nil
}

// scale converts converter counts to 10-bit counts. Negative readings of a
// single-ended input are noise and read as 0.
func (a *ADS1115) scale(raw int16) int {
	if raw < 0 {
		return 0
	}
	volts := float32(raw) / 32768 * a.fs
	return int(volts * a.vresInv)
}
