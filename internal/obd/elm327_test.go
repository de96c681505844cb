package obd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/gauge-fw/internal/source"
)

var _ source.Driver[Measurement] = (*ELM327)(nil)

// fakeAdapter answers commands from a table. Held commands get no answer.
type fakeAdapter struct {
	answers  map[string]string
	held     map[string]bool
	writes   []string
	out      bytes.Buffer
	writeErr error
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		answers: map[string]string{
			"ATZ":   "\r\rELM327 v1.5\r\r",
			"ATE0":  "ATE0\rOK\r\r",
			"ATL0":  "OK\r\r",
			"ATS0":  "OK\r\r",
			"ATSP0": "OK\r\r",
		},
		held: map[string]bool{},
	}
}

func (f *fakeAdapter) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	cmd := strings.TrimSuffix(string(p), "\r")
	f.writes = append(f.writes, cmd)
	if f.held[cmd] {
		return len(p), nil
	}
	answer, ok := f.answers[cmd]
	if !ok {
		answer = "?\r\r"
	}
	f.out.WriteString(answer + ">")
	return len(p), nil
}

func (f *fakeAdapter) Read(p []byte) (int, error) {
	return f.out.Read(p)
}

type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

func (c *fakeClock) Sleep(time.Duration) {}

func newTestDriver(a *fakeAdapter, clock *fakeClock, opts ...Option) *ELM327 {
	opts = append([]Option{WithClock(clock.Now, clock.Sleep), WithAttempts(1)}, opts...)
	return New(a, opts...)
}

func TestInitHandshake(t *testing.T) {
	a := newFakeAdapter()
	e := newTestDriver(a, &fakeClock{now: time.Unix(0, 0)})

	require.NoError(t, e.Init())
	assert.Equal(t, []string{"ATZ", "ATE0", "ATL0", "ATS0", "ATSP0"}, a.writes)
	assert.Equal(t, "ELM327 v1.5", e.Version())
}

func TestInitRejectsUnexpectedAnswer(t *testing.T) {
	a := newFakeAdapter()
	a.answers["ATSP0"] = "?\r\r"
	e := newTestDriver(a, &fakeClock{now: time.Unix(0, 0)})

	err := e.Init()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ATSP0")
}

func TestInitTimeout(t *testing.T) {
	a := newFakeAdapter()
	a.held["ATZ"] = true
	e := newTestDriver(a, &fakeClock{now: time.Unix(0, 0), step: 100 * time.Millisecond})

	err := e.Init()
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestGetIsPipelined(t *testing.T) {
	a := newFakeAdapter()
	a.answers["010C"] = "410C1AF8\r\r"
	e := newTestDriver(a, &fakeClock{now: time.Unix(0, 0)})

	m := e.Get("010C")
	assert.False(t, m.Present(), "first query has no answer yet")

	m = e.Get("010C")
	require.True(t, m.Present())
	assert.Equal(t, 1726, m.RawValue())

	m = e.Get("010C")
	assert.True(t, m.Present())
	assert.Equal(t, []string{"010C", "010C", "010C"}, a.writes)
}

func TestGetNoData(t *testing.T) {
	a := newFakeAdapter()
	a.answers["0105"] = "NO DATA\r\r"
	e := newTestDriver(a, &fakeClock{now: time.Unix(0, 0)})

	e.Get("0105")
	assert.False(t, e.Get("0105").Present())
}

func TestGetSharedBetweenCommands(t *testing.T) {
	a := newFakeAdapter()
	a.answers["010C"] = "410C0FA0\r\r"
	a.answers["0105"] = "41055A\r\r"
	e := newTestDriver(a, &fakeClock{now: time.Unix(0, 0)})

	e.Get("010C")
	// The RPM answer is collected; the coolant query is sent.
	assert.False(t, e.Get("0105").Present())
	assert.Equal(t, 1000, e.Get("010C").RawValue())
	assert.Equal(t, 50, e.Get("0105").RawValue())
}

func TestGetQueryTimeout(t *testing.T) {
	a := newFakeAdapter()
	a.held["010D"] = true
	clock := &fakeClock{now: time.Unix(0, 0)}
	e := newTestDriver(a, clock, WithQueryTimeout(time.Second))

	e.Get("010D")
	e.Get("010D")
	assert.Len(t, a.writes, 1, "no resend while pending")

	clock.now = clock.now.Add(2 * time.Second)
	e.Get("010D")
	assert.Len(t, a.writes, 2, "resent after timeout")
}

func TestGetWriteError(t *testing.T) {
	a := newFakeAdapter()
	a.writeErr = errors.New("port closed")
	e := newTestDriver(a, &fakeClock{now: time.Unix(0, 0)})

	assert.False(t, e.Get("010C").Present())
	assert.NoError(t, e.Close())
}

// timedAdapter answers each command latency after it was written, like a
// real adapter talking to a slow ECU.
type timedAdapter struct {
	clock   *fakeClock
	latency time.Duration
	answers map[string]string
	writes  map[string]int
	due     time.Time
	out     string
}

func (a *timedAdapter) Write(p []byte) (int, error) {
	cmd := strings.TrimSuffix(string(p), "\r")
	a.writes[cmd]++
	a.out = a.answers[cmd] + ">"
	a.due = a.clock.now.Add(a.latency)
	return len(p), nil
}

func (a *timedAdapter) Read(p []byte) (int, error) {
	if a.out == "" || a.clock.now.Before(a.due) {
		return 0, nil
	}
	n := copy(p, a.out)
	a.out = a.out[n:]
	return n, nil
}

func TestGetRotatesCommandsWithSlowAdapter(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	a := &timedAdapter{
		clock:   clock,
		latency: 50 * time.Millisecond,
		answers: map[string]string{"010C": "410C0FA0\r\r", "0105": "41055A\r\r"},
		writes:  map[string]int{},
	}
	e := New(a, WithClock(clock.Now, clock.Sleep))

	rpm, coolant := 0, 0
	for range 500 {
		if m := e.Get("010C"); m.Present() {
			assert.Equal(t, 1000, m.RawValue())
			rpm++
		}
		if m := e.Get("0105"); m.Present() {
			assert.Equal(t, 50, m.RawValue())
			coolant++
		}
		clock.now = clock.now.Add(20 * time.Millisecond)
	}

	assert.Greater(t, rpm, 50)
	assert.Greater(t, coolant, 50)
	assert.InDelta(t, a.writes["010C"], a.writes["0105"], 1)
}

func TestGetRotationOrder(t *testing.T) {
	a := newFakeAdapter()
	a.answers["010C"] = "410C0FA0\r\r"
	a.answers["0105"] = "41055A\r\r"
	a.answers["010D"] = "410D3C\r\r"
	e := newTestDriver(a, &fakeClock{now: time.Unix(0, 0)})

	for range 2 {
		e.Get("010C")
		e.Get("0105")
		e.Get("010D")
	}
	assert.Equal(t, []string{"010C", "0105", "010D", "010C", "0105", "010D"}, a.writes)
}
