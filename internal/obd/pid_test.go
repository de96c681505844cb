package obd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/gauge-fw/internal/source"
)

var _ source.Measurement = Measurement{}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		command string
		answer  string
		raw     int
		text    string
		unit    string
	}{
		{"rpm", "010C", "410C1AF8\r\r", 1726, " 1726", "rpm"},
		{"rpm lowercase with spaces", "010c", "41 0c 1a f8", 1726, " 1726", "rpm"},
		{"coolant", "0105", "41057B", 83, "   83", "C"},
		{"intake air", "010F", "410F28", 0, "    0", "C"},
		{"map", "010B", "410B65", 101, "  101", "kPa"},
		{"speed after search", "010D", "SEARCHING...\r410D32\r", 50, "   50", "km/h"},
		{"throttle", "0111", "4111FF", 255, "100.0", "%"},
		{"module voltage", "0142", "41420E10", 3600, "  3.6", "V"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Decode(tt.command, tt.answer)
			require.NoError(t, err)
			assert.True(t, m.Present())
			assert.Equal(t, tt.raw, m.RawValue())
			assert.Equal(t, tt.text, m.Value())
			assert.Equal(t, tt.unit, m.UnitName())
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode("010C", "NO DATA\r")
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Decode("0120", "4120FFFFFFFF")
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = Decode("010C", "410C1A")
	assert.Error(t, err)

	_, err = Decode("010C", "410CZZZZ")
	assert.Error(t, err)
}

func TestZeroMeasurementNotPresent(t *testing.T) {
	assert.False(t, Measurement{}.Present())
}

func TestCommandAndSupported(t *testing.T) {
	assert.Equal(t, "010C", Command("0c"))
	assert.True(t, Supported("0105"))
	assert.False(t, Supported("0905"))
	assert.False(t, Supported("01"))
	assert.False(t, Supported("0100"))
}
