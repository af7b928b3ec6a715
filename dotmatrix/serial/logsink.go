package serial

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/valerio/go-dotmatrix/dotmatrix/addr"
	"github.com/valerio/go-dotmatrix/dotmatrix/bit"
)

// transferTicks is how long an internally clocked byte takes on DMG
// (8 bits at 8192 Hz).
const transferTicks = 4096

// LogSink implements a serial device with nothing on the other end of the
// cable: every received byte is 0xFF and outgoing bytes are logged as text.
// Test ROMs report their results this way.
type LogSink struct {
	irq            func(addr.Interrupt)
	sb, sc         byte
	transferActive bool
	countdown      int
	logger         *slog.Logger

	immediate bool
	defaultRX byte

	line   []byte
	output strings.Builder
}

type LogSinkOption func(*LogSink)

// WithImmediateTransfer completes transfers as soon as they start instead of
// after the hardware transfer time.
func WithImmediateTransfer() LogSinkOption { return func(s *LogSink) { s.immediate = true } }

// WithLogger sends completed lines to logger instead of slog.Default().
func WithLogger(logger *slog.Logger) LogSinkOption {
	return func(s *LogSink) { s.logger = logger }
}

// NewLogSink creates a new logging serial device. irq is called with the
// serial interrupt when a transfer completes.
func NewLogSink(irq func(addr.Interrupt), opts ...LogSinkOption) *LogSink {
	s := &LogSink{
		irq:       irq,
		defaultRX: 0xFF,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

func (s *LogSink) Write(address uint16, value byte) {
	switch address {
	case addr.SB:
		s.sb = value
	case addr.SC:
		s.sc = value & 0x81
		s.maybeStartTransfer()
	default:
		panic(fmt.Sprintf("serial: write to unowned address 0x%04X", address))
	}
}

func (s *LogSink) Read(address uint16) byte {
	switch address {
	case addr.SB:
		return s.sb
	case addr.SC:
		return s.sc | 0x7E
	default:
		panic(fmt.Sprintf("serial: read from unowned address 0x%04X", address))
	}
}

// Step advances an in-flight transfer by one tick.
func (s *LogSink) Step() {
	if !s.transferActive {
		return
	}
	s.countdown--
	if s.countdown == 0 {
		s.completeTransfer()
	}
}

func (s *LogSink) Reset() {
	s.sb = 0x00
	s.sc = 0x00
	s.transferActive = false
	s.countdown = 0
	s.line = s.line[:0]
	s.output.Reset()
}

// Output returns everything sent over the port so far.
func (s *LogSink) Output() string {
	return s.output.String()
}

func (s *LogSink) maybeStartTransfer() {
	if s.transferActive {
		return
	}
	// only internally clocked transfers (SC bits 7 and 0) run without a peer
	if !bit.IsSet(7, s.sc) || !bit.IsSet(0, s.sc) {
		return
	}

	b := s.sb
	if b != 0 {
		s.output.WriteByte(b)
	}
	if b == 0 || b == '\n' || b == '\r' {
		s.flushLine()
	} else {
		s.line = append(s.line, b)
	}

	if s.immediate {
		s.completeTransfer()
		return
	}

	s.transferActive = true
	s.countdown = transferTicks
}

func (s *LogSink) flushLine() {
	if len(s.line) > 0 {
		s.logger.Info("serial", "line", string(s.line))
		s.line = s.line[:0]
	}
}

func (s *LogSink) completeTransfer() {
	s.sb = s.defaultRX
	s.sc = bit.Clear(7, s.sc)
	s.transferActive = false
	if s.irq != nil {
		s.irq(addr.SerialInterrupt)
	}
}
