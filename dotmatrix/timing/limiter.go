package timing

import (
	"fmt"
	"time"
)

// Limiter paces emulation against the wall clock, one frame at a time.
type Limiter interface {
	// WaitForNextFrame blocks until the next frame is due. It returns
	// immediately when emulation is running behind.
	WaitForNextFrame()

	// Reset drops any accumulated schedule, e.g. after a pause.
	Reset()
}

// DMG clock constants.
const (
	TicksPerFrame = 70224
	ClockHz       = 4194304
)

// Kind selects a Limiter implementation.
type Kind string

const (
	Adaptive Kind = "adaptive"
	Ticker   Kind = "ticker"
	None     Kind = "none"
)

// New builds the limiter for kind.
func New(kind Kind) (Limiter, error) {
	switch kind {
	case Adaptive, "":
		return NewAdaptiveLimiter(), nil
	case Ticker:
		return NewTickerLimiter(), nil
	case None:
		return NewNoOpLimiter(), nil
	default:
		return nil, fmt.Errorf("unknown limiter %q", kind)
	}
}

// NewNoOpLimiter returns a limiter that never waits (headless runs, --no-limit).
func NewNoOpLimiter() Limiter {
	return noOpLimiter{}
}

type noOpLimiter struct{}

func (noOpLimiter) WaitForNextFrame() {}
func (noOpLimiter) Reset()            {}

// TargetFPS is the native refresh rate, roughly 59.73 Hz.
func TargetFPS() float64 {
	return float64(ClockHz) / float64(TicksPerFrame)
}

// FrameDuration is the wall-clock budget of one frame, roughly 16.74ms.
func FrameDuration() time.Duration {
	return time.Duration(float64(time.Second) / TargetFPS())
}
