package hw

import (
	"fmt"

	"tinygo.org/x/drivers/hd44780i2c"

	"github.com/sweeney/gauge-fw/internal/gauge"
)

// DefaultLCDAddress is the usual address of a PCF8574 LCD backpack.
const DefaultLCDAddress = 0x27

// LCD is a character display behind an I2C backpack. It has a single font
// and no magnification, so scale and font changes are accepted and ignored.
type LCD struct {
	dev    hd44780i2c.Device
	width  int
	height int
}

// NewLCD configures a width x height display at addr.
func NewLCD(bus *Bus, addr uint8, width, height int) (*LCD, error) {
	dev := hd44780i2c.New(bus, addr)
	err := dev.Configure(hd44780i2c.Config{
		Width:  uint8(width),
		Height: uint8(height),
	})
	if err != nil {
		return nil, fmt.Errorf("configure lcd at %#x: %w", addr, err)
	}
	return &LCD{dev: dev, width: width, height: height}, nil
}

// SetCursor moves the cursor, clamped to the display.
func (l *LCD) SetCursor(col, row int) {
	col = min(max(col, 0), l.width-1)
	row = min(max(row, 0), l.height-1)
	l.dev.SetCursor(uint8(col), uint8(row))
}

// Print writes text at the cursor.
func (l *LCD) Print(text string) {
	l.dev.Print([]byte(text))
}

func (l *LCD) SetScale(gauge.Scale) {}

func (l *LCD) SetFont(gauge.Font) {}

// Home moves the cursor to the top left.
func (l *LCD) Home() {
	l.dev.SetCursor(0, 0)
}

// Clear wipes the display.
func (l *LCD) Clear() error {
	l.dev.ClearDisplay()
	return nil
}

// Rows returns the number of text rows.
func (l *LCD) Rows() int {
	return l.height
}

// HeightPx returns the display height in pixels of 8-dot character rows.
func (l *LCD) HeightPx() int {
	return l.height * 8
}
