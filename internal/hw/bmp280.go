package hw

import (
	"errors"
	"fmt"

	"tinygo.org/x/drivers/bmp280"
)

// ErrNotConfigured is returned by PressureKPa before the sensor was found.
var ErrNotConfigured = errors.New("bmp280: not configured")

// calibrationLength is the size of the trimming parameter block.
const calibrationLength = 24

// BMP280 is a barometer on the I2C bus. The device is configured the first
// time Ready finds it, so a sensor that comes up late still gets its
// calibration data.
type BMP280 struct {
	bus        *Bus
	dev        bmp280.Device
	configured bool
}

// NewBMP280 creates a BMP280 at its default address. No bus traffic happens
// until Ready.
func NewBMP280(bus *Bus) *BMP280 {
	return &BMP280{bus: bus, dev: bmp280.New(bus)}
}

// Ready reports whether the sensor answers on the bus. The first successful
// check configures continuous high-resolution sampling.
func (b *BMP280) Ready() bool {
	if !b.dev.Connected() {
		return false
	}
	if b.configured {
		return true
	}
	// The driver ignores a failed calibration read, so check it first.
	if err := b.bus.ReadRegister(uint8(b.dev.Address), bmp280.REG_CALI, make([]byte, calibrationLength)); err != nil {
		return false
	}
	b.dev.Configure(bmp280.STANDBY_125MS, bmp280.FILTER_4X, bmp280.SAMPLING_16X, bmp280.SAMPLING_16X, bmp280.MODE_NORMAL)
	b.configured = true
	return true
}

// PressureKPa returns the absolute pressure.
func (b *BMP280) PressureKPa() (float32, error) {
	if !b.configured {
		return 0, ErrNotConfigured
	}
	mpa, err := b.dev.ReadPressure()
	if err != nil {
		return 0, fmt.Errorf("bmp280: read pressure: %w", err)
	}
	return MilliPascalToKPa(mpa), nil
}

// MilliPascalToKPa converts the driver's milli-pascal reading to kPa.
func MilliPascalToKPa(mpa int32) float32 {
	return float32(mpa) / 1e6
}
