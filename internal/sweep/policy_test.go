package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sweeney/gauge-fw/internal/gauge"
)

func paint(p Policy, n, lit int) []gauge.Color {
	out := make([]gauge.Color, n)
	for i := range out {
		out[i] = p.Color(i, lit, base, blank)
	}
	return out
}

func TestFullSweep(t *testing.T) {
	assert.Equal(t, []gauge.Color{base, base, base, blank, blank}, paint(FullSweep{}, 5, 2))
	assert.Equal(t, []gauge.Color{blank, blank, blank}, paint(FullSweep{}, 3, -1))
	assert.Equal(t, []gauge.Color{base, base, base}, paint(FullSweep{}, 3, 7))
}

func TestInverseSweep(t *testing.T) {
	assert.Equal(t, []gauge.Color{blank, blank, base, base, base}, paint(InverseSweep{}, 5, 2))
	assert.Equal(t, []gauge.Color{base, base, base}, paint(InverseSweep{}, 3, -1))
}

func TestLevelOnly(t *testing.T) {
	c := gauge.Color{R: 200, G: 40, B: 3}
	dim := gauge.Color{R: 50, G: 10, B: 0}

	got := make([]gauge.Color, 7)
	for i := range got {
		got[i] = LevelOnly{Radius: 1}.Color(i, 3, c, blank)
	}
	assert.Equal(t, []gauge.Color{blank, blank, dim, c, dim, blank, blank}, got)

	got = make([]gauge.Color, 4)
	for i := range got {
		got[i] = LevelOnly{}.Color(i, 1, c, blank)
	}
	assert.Equal(t, []gauge.Color{blank, c, blank, blank}, got)
}

func TestLevelOnlyBelowRange(t *testing.T) {
	// The level sits before the first LED, only the radius reaches in.
	assert.Equal(t, []gauge.Color{base.Scaled(LevelOnlyDim), blank, blank},
		paint(LevelOnly{Radius: 1}, 3, -1))
}
