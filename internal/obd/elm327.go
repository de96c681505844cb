package obd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"go.bug.st/serial"
	"go.uber.org/zap"
)

// prompt terminates every adapter answer.
const prompt = '>'

// handshake configures the adapter: echo, linefeeds and spaces off, automatic
// protocol selection.
var handshake = []string{"ATE0", "ATL0", "ATS0", "ATSP0"}

// Defaults for the adapter.
const (
	DefaultBaud         = 38400
	DefaultQueryTimeout = time.Second
	resetTimeout        = 2 * time.Second
)

// ErrTimeout is returned when the adapter does not answer with a prompt.
var ErrTimeout = errors.New("elm327: timeout waiting for prompt")

// ELM327 drives an ELM327 adapter. Queries are pipelined over ticks: every
// command passed to Get joins a rotation, and whenever the adapter is idle
// the command sent least recently goes out. A later Get of that command
// returns the answer once the adapter has sent it. Get never waits for the
// adapter.
type ELM327 struct {
	rw     io.ReadWriter
	closer io.Closer
	logger *zap.SugaredLogger

	now          func() time.Time
	sleep        func(time.Duration)
	queryTimeout time.Duration
	attempts     uint

	buf     []byte
	scratch []byte
	pending string
	sentAt  time.Time
	answers map[string]Measurement

	// commands in first-requested order; lastSent holds the send sequence
	// number of each, 0 when never sent.
	commands []string
	lastSent map[string]uint64
	seq      uint64
	version string
}

// Option configures an ELM327.
type Option func(*ELM327)

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *ELM327) { e.logger = l }
}

// WithClock sets the time source and sleep function.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(e *ELM327) {
		e.now = now
		e.sleep = sleep
	}
}

// WithQueryTimeout sets how long a query may stay unanswered.
func WithQueryTimeout(d time.Duration) Option {
	return func(e *ELM327) { e.queryTimeout = d }
}

// WithAttempts sets how many times Init tries the handshake.
func WithAttempts(n uint) Option {
	return func(e *ELM327) { e.attempts = n }
}

// New creates a driver talking over rw. Reads from rw must not block for
// long; a serial port with a short read timeout is expected.
func New(rw io.ReadWriter, opts ...Option) *ELM327 {
	e := &ELM327{
		rw:           rw,
		logger:       zap.NewNop().Sugar(),
		now:          time.Now,
		sleep:        time.Sleep,
		queryTimeout: DefaultQueryTimeout,
		attempts:     3,
		scratch:      make([]byte, 128),
		answers:      map[string]Measurement{},
		lastSent:     map[string]uint64{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Open opens the adapter on a serial port.
func Open(port string, baud int, opts ...Option) (*ELM327, error) {
	sp, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open elm327 on %s: %w", port, err)
	}
	if err := sp.SetReadTimeout(5 * time.Millisecond); err != nil {
		sp.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", port, err)
	}
	e := New(sp, opts...)
	e.closer = sp
	return e, nil
}

// Init resets and configures the adapter, retrying the whole handshake.
func (e *ELM327) Init() error {
	err := retry.Do(
		e.handshake,
		retry.Attempts(e.attempts),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			e.logger.Debugw("elm327 handshake failed, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("elm327 handshake: %w", err)
	}
	e.logger.Infow("elm327 ready", "version", e.version)
	return nil
}

func (e *ELM327) handshake() error {
	e.buf = e.buf[:0]
	e.pending = ""
	clear(e.answers)

	answer, err := e.exchange("ATZ", resetTimeout)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	e.version = firstLine(answer)

	for _, cmd := range handshake {
		answer, err := e.exchange(cmd, e.queryTimeout)
		if err != nil {
			return fmt.Errorf("%s: %w", cmd, err)
		}
		if !strings.Contains(answer, "OK") {
			return fmt.Errorf("%s: unexpected answer %q", cmd, strings.TrimSpace(answer))
		}
	}
	return nil
}

// Version returns the adapter identification reported on reset.
func (e *ELM327) Version() string {
	return e.version
}

// exchange sends cmd and waits for the prompt. Only Init uses it.
func (e *ELM327) exchange(cmd string, timeout time.Duration) (string, error) {
	if err := e.send(cmd); err != nil {
		return "", err
	}
	deadline := e.now().Add(timeout)
	for {
		if answer, ok := e.poll(); ok {
			return answer, nil
		}
		if e.now().After(deadline) {
			return "", ErrTimeout
		}
		e.sleep(10 * time.Millisecond)
	}
}

func (e *ELM327) send(cmd string) error {
	if _, err := e.rw.Write([]byte(cmd + "\r")); err != nil {
		return fmt.Errorf("write %s: %w", cmd, err)
	}
	return nil
}

// poll reads what the adapter has sent and returns a complete answer.
func (e *ELM327) poll() (string, bool) {
	n, err := e.rw.Read(e.scratch)
	if err != nil && err != io.EOF {
		e.logger.Debugw("elm327 read failed", "error", err)
	}
	e.buf = append(e.buf, e.scratch[:n]...)

	i := bytes.IndexByte(e.buf, prompt)
	if i < 0 {
		return "", false
	}
	answer := string(e.buf[:i])
	e.buf = append(e.buf[:0], e.buf[i+1:]...)
	return answer, true
}

// Get returns the answer to command if one arrived since it was last
// requested. When the adapter is idle it sends the next command in the
// rotation, which need not be command itself.
func (e *ELM327) Get(command string) Measurement {
	command = strings.ToUpper(command)
	if _, ok := e.lastSent[command]; !ok {
		e.commands = append(e.commands, command)
		e.lastSent[command] = 0
	}

	if e.pending != "" {
		if answer, ok := e.poll(); ok {
			e.complete(e.pending, answer)
			e.pending = ""
		} else if e.now().Sub(e.sentAt) > e.queryTimeout {
			e.logger.Debugw("elm327 query timed out", "command", e.pending)
			e.pending = ""
			e.buf = e.buf[:0]
		}
	}

	m, ok := e.answers[command]
	if ok {
		delete(e.answers, command)
	}

	if e.pending == "" {
		e.sendNext()
	}
	return m
}

// sendNext sends the command that went out least recently.
func (e *ELM327) sendNext() {
	next := e.commands[0]
	for _, cmd := range e.commands[1:] {
		if e.lastSent[cmd] < e.lastSent[next] {
			next = cmd
		}
	}
	if err := e.send(next); err != nil {
		e.logger.Debugw("elm327 send failed", "command", next, "error", err)
		return
	}
	e.seq++
	e.lastSent[next] = e.seq
	e.pending = next
	e.sentAt = e.now()
}

func (e *ELM327) complete(command, answer string) {
	m, err := Decode(command, answer)
	if err != nil {
		e.logger.Debugw("elm327 answer not usable", "command", command, "error", err)
		return
	}
	e.answers[command] = m
}

// Close closes the port when it was opened by Open.
func (e *ELM327) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}

func firstLine(s string) string {
	for _, line := range strings.FieldsFunc(s, func(r rune) bool { return r == '\r' || r == '\n' }) {
		if line = strings.TrimSpace(line); line != "" && line != "ATZ" {
			return line
		}
	}
	return ""
}
