package location

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.bug.st/serial"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/monitoring"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/timeutil"
)

// PortOptions describes the serial connection parameters used when opening a
// GPS receiver. The fields mirror the configuration file so that options can
// be passed through without additional translation.
type PortOptions struct {
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`
}

// Normalize validates the options and applies defaults for any unset values.
// Consumer GPS receivers ship with NMEA at 9600 8N1.
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = 9600
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	parity := strings.TrimSpace(strings.ToUpper(opts.Parity))
	if parity == "" {
		parity = "N"
	}
	switch parity {
	case "N", "NONE":
		parity = "N"
	case "E", "EVEN":
		parity = "E"
	case "O", "ODD":
		parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}
	opts.Parity = parity

	return opts, nil
}

// SerialMode converts the port options into the serial.Mode structure
// required by go.bug.st/serial when opening a port.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		StopBits: serial.StopBits(opts.StopBits),
	}
	switch opts.Parity {
	case "N":
		mode.Parity = serial.NoParity
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	default:
		return nil, fmt.Errorf("unsupported parity %q", opts.Parity)
	}
	return mode, nil
}

// SerialNMEA reads NMEA sentences from a serial GPS receiver and emits
// position fixes on a channel consumed by a Watcher.
type SerialNMEA struct {
	port  io.ReadWriteCloser
	clock timeutil.Clock
	out   chan Fix

	mu     sync.Mutex
	closed bool
}

// OpenSerialNMEA opens a GPS receiver at the given device path.
func OpenSerialNMEA(path string, opts PortOptions, clock timeutil.Clock) (*SerialNMEA, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open GPS port %s: %w", path, err)
	}
	return NewSerialNMEA(port, clock), nil
}

// NewSerialNMEA wraps an already-open port. Used directly in tests with an
// in-memory pipe.
func NewSerialNMEA(port io.ReadWriteCloser, clock timeutil.Clock) *SerialNMEA {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &SerialNMEA{
		port:  port,
		clock: clock,
		out:   make(chan Fix, 1),
	}
}

// Fixes returns the channel of decoded fixes.
func (s *SerialNMEA) Fixes() <-chan Fix { return s.out }

// Run reads sentences from the port until the context is cancelled or the
// port is closed. Sentences without a valid fix and unsupported sentence
// types are skipped silently; malformed lines are logged and skipped.
func (s *SerialNMEA) Run(ctx context.Context) error {
	defer close(s.out)

	scanner := bufio.NewScanner(s.port)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fix, err := ParseSentence(line, s.clock.Now())
		if err != nil {
			if errors.Is(err, ErrNoFix) || errors.Is(err, ErrUnsupportedSentence) {
				continue
			}
			monitoring.Logf("gps: skipping malformed sentence: %v", err)
			continue
		}

		select {
		case s.out <- fix:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil && !s.isClosed() {
		return fmt.Errorf("gps port read failed: %w", err)
	}
	return ctx.Err()
}

func (s *SerialNMEA) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close closes the underlying port, unblocking Run.
func (s *SerialNMEA) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.port.Close()
}
