package memory

import (
	"github.com/valerio/go-dotmatrix/dotmatrix/addr"
	"github.com/valerio/go-dotmatrix/dotmatrix/bit"
)

// InterruptRequester is how peripherals raise interrupt request bits.
type InterruptRequester func(interrupt addr.Interrupt)

// tacLookup maps TAC input clock select (bits 1–0) to the bit position
// of the 16‑bit internal divider (systemCounter) used as the timer’s
// clock source.
//
// Mapping per Pan Docs (DMG):
//
//	00 -> bit 9  (4096 Hz)
//	01 -> bit 3  (262144 Hz)
//	10 -> bit 5  (65536 Hz)
//	11 -> bit 7  (16384 Hz)
var tacLookup = [4]uint16{9, 3, 5, 7}

// overflowDelay is the number of ticks TIMA reads 0x00 after overflowing,
// before it is reloaded from TMA.
const overflowDelay = 4

// Timer encapsulates the DIV/TIMA/TMA/TAC registers.
//
// TIMA increments on the falling edge of (timer enabled AND selected divider
// bit), so resetting DIV or disabling the timer while the bit is high also
// produces an increment, as on hardware.
type Timer struct {
	systemCounter uint16 // DIV is the upper 8 bits
	lastSignal    bool
	timaOverflow  int // ticks remaining before the TMA reload

	tima byte
	tma  byte
	tac  byte

	irq InterruptRequester
}

// NewTimer creates a timer that reports overflows through irq.
func NewTimer(irq InterruptRequester) *Timer {
	return &Timer{irq: irq}
}

// SetSeed initializes the internal divider counter, e.g. to the value left
// behind by the boot ROM.
func (t *Timer) SetSeed(seed uint16) {
	t.systemCounter = seed
	t.lastSignal = t.signal()
	t.timaOverflow = 0
}

func (t *Timer) signal() bool {
	if !bit.IsSet(2, t.tac) {
		return false
	}
	return t.systemCounter&(1<<tacLookup[t.tac&0x03]) != 0
}

// detectEdge increments TIMA if the timer signal fell since the last check.
func (t *Timer) detectEdge() {
	current := t.signal()
	if t.lastSignal && !current {
		t.incrementTIMA()
	}
	t.lastSignal = current
}

// Step advances the timer by one tick.
func (t *Timer) Step() {
	if t.timaOverflow > 0 {
		t.timaOverflow--
		if t.timaOverflow == 0 {
			t.tima = t.tma
			t.irq(addr.TimerInterrupt)
		}
	}

	t.systemCounter++
	t.detectEdge()
}

func (t *Timer) incrementTIMA() {
	t.tima++
	if t.tima == 0 {
		t.timaOverflow = overflowDelay
	}
}

func (t *Timer) Read(address uint16) byte {
	switch address {
	case addr.DIV:
		return byte(t.systemCounter >> 8)
	case addr.TIMA:
		return t.tima
	case addr.TMA:
		return t.tma
	case addr.TAC:
		return t.tac | 0xF8
	default:
		return 0xFF
	}
}

func (t *Timer) Write(address uint16, value byte) {
	switch address {
	case addr.DIV:
		t.systemCounter = 0
		t.detectEdge()
	case addr.TIMA:
		// a write during the overflow window cancels the reload
		t.tima = value
		t.timaOverflow = 0
	case addr.TMA:
		t.tma = value
	case addr.TAC:
		t.tac = value & 0x07
		t.detectEdge()
	}
}
