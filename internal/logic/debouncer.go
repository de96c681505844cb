package logic

import "time"

// Debouncer turns raw samples of a bouncing input into stable levels and
// single-sample edges. A level must hold for the debounce interval before it
// becomes stable. No edges are reported until a baseline is established.
type Debouncer struct {
	interval time.Duration
	in       InputState
	edge     Edge
	presses  int
}

// NewDebouncer creates a debouncer with the given interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Update feeds a sample and returns the edge it produced, if any.
func (d *Debouncer) Update(s Sample) Edge {
	d.edge = d.process(levelOf(s.High), s.Time)
	if d.edge == EdgeFell {
		d.presses++
	}
	return d.edge
}

// Skip records a poll without a usable sample. Any previous edge is cleared.
func (d *Debouncer) Skip() {
	d.edge = EdgeNone
}

func (d *Debouncer) process(level Level, now time.Time) Edge {
	in := &d.in

	// First time seeing this input
	if !in.Baselined {
		if in.Pending != level {
			in.Pending = level
			in.PendingSince = now
		}
		if now.Sub(in.PendingSince) >= d.interval {
			in.Stable = level
			in.Baselined = true
			in.Pending = ""
		}
		return EdgeNone
	}

	if level == in.Stable {
		in.Pending = ""
		return EdgeNone
	}

	if in.Pending != level {
		in.Pending = level
		in.PendingSince = now
	}
	if now.Sub(in.PendingSince) < d.interval {
		return EdgeNone
	}

	in.Stable = level
	in.Pending = ""
	if level == LevelLow {
		return EdgeFell
	}
	return EdgeRose
}

func levelOf(high bool) Level {
	if high {
		return LevelHigh
	}
	return LevelLow
}

// Fell reports whether the last sample produced a falling edge.
func (d *Debouncer) Fell() bool { return d.edge == EdgeFell }

// Rose reports whether the last sample produced a rising edge.
func (d *Debouncer) Rose() bool { return d.edge == EdgeRose }

// IsBaselined returns whether the debouncer has established a baseline.
func (d *Debouncer) IsBaselined() bool { return d.in.Baselined }

// Stable returns the current stable level, empty before the baseline.
func (d *Debouncer) Stable() Level { return d.in.Stable }

// Presses returns the number of falling edges since creation.
func (d *Debouncer) Presses() int { return d.presses }
