package memory

import (
	"time"

	"github.com/valerio/go-dotmatrix/dotmatrix/bit"
)

// Clock provides the wall time the RTC advances with.
type Clock interface {
	Now() time.Time
}

type systemClockFunc func() time.Time

func (s systemClockFunc) Now() time.Time {
	return s()
}

// RTC register indexes, selected by writing 08-0C to the MBC3 RAM bank register.
const (
	rtcSeconds uint8 = iota
	rtcMinutes
	rtcHours
	rtcDaysLow
	rtcDaysHigh
)

const (
	rtcHaltBit  = 6
	rtcCarryBit = 7

	secondsPerDay = 24 * 60 * 60
	maxDays       = 512
)

// RTC is the MBC3 real time clock. It keeps a live set of registers that
// advance with the clock, and a latched copy that the game reads.
//
// Days high register:
//
//	Bit 0 - bit 8 of the day counter
//	Bit 6 - halt (0=active, 1=stopped)
//	Bit 7 - day counter carry, sticky until cleared by a write
type RTC struct {
	clock   Clock
	last    time.Time
	live    [5]uint8
	latched [5]uint8
}

// NewRTC creates a clock starting at zero. A nil clock uses time.Now.
func NewRTC(clock Clock) *RTC {
	if clock == nil {
		clock = systemClockFunc(time.Now)
	}
	return &RTC{clock: clock, last: clock.Now()}
}

func (r *RTC) halted() bool {
	return bit.IsSet(rtcHaltBit, r.live[rtcDaysHigh])
}

func (r *RTC) days() int {
	return int(bit.Value(0, r.live[rtcDaysHigh]))<<8 | int(r.live[rtcDaysLow])
}

// advance folds the time elapsed since the last update into the live registers.
func (r *RTC) advance() {
	now := r.clock.Now()
	elapsed := int64(now.Sub(r.last) / time.Second)
	if elapsed <= 0 {
		return
	}
	r.last = r.last.Add(time.Duration(elapsed) * time.Second)
	if r.halted() {
		return
	}

	total := int64(r.live[rtcSeconds]) +
		int64(r.live[rtcMinutes])*60 +
		int64(r.live[rtcHours])*3600 +
		int64(r.days())*secondsPerDay +
		elapsed

	days := total / secondsPerDay
	rem := total % secondsPerDay

	high := r.live[rtcDaysHigh] & 0xC0
	if days >= maxDays {
		high = bit.Set(rtcCarryBit, high)
		days %= maxDays
	}

	r.live[rtcSeconds] = uint8(rem % 60)
	r.live[rtcMinutes] = uint8(rem / 60 % 60)
	r.live[rtcHours] = uint8(rem / 3600)
	r.live[rtcDaysLow] = uint8(days)
	r.live[rtcDaysHigh] = high | uint8(days>>8)&0x01
}

// Latch copies the current time into the readable registers.
func (r *RTC) Latch() {
	r.advance()
	r.latched = r.live
}

// Read returns a latched register.
func (r *RTC) Read(register uint8) uint8 {
	return r.latched[register]
}

// Write sets a live register. Writing the seconds register also resets the
// sub-second counter.
func (r *RTC) Write(register, value uint8) {
	r.advance()
	if register == rtcSeconds {
		r.last = r.clock.Now()
	}
	switch register {
	case rtcSeconds, rtcMinutes:
		value &= 0x3F
	case rtcHours:
		value &= 0x1F
	case rtcDaysHigh:
		value &= 0xC1
	}
	r.live[register] = value
}
