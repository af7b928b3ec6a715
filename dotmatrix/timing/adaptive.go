package timing

import (
	"log/slog"
	"time"
)

const (
	spinThreshold  = 2 * time.Millisecond
	maxLag         = 5 * time.Millisecond
	driftWindow    = 60
	driftTolerance = 10 * time.Millisecond
)

// AdaptiveLimiter sleeps for most of the remaining frame budget and spins
// for the last stretch. It keeps an absolute schedule so short frames make
// up for long ones, and gives up on the backlog once it lags too far.
type AdaptiveLimiter struct {
	frame    time.Duration
	deadline time.Time
	started  time.Time
	frames   int64

	now   func() time.Time
	sleep func(time.Duration)
}

func NewAdaptiveLimiter() *AdaptiveLimiter {
	a := &AdaptiveLimiter{
		frame: FrameDuration(),
		now:   time.Now,
		sleep: time.Sleep,
	}
	a.Reset()
	return a
}

func (a *AdaptiveLimiter) WaitForNextFrame() {
	remaining := a.deadline.Sub(a.now())

	switch {
	case remaining > spinThreshold:
		a.sleep(remaining - time.Millisecond)
		a.spin()
	case remaining > 0:
		a.spin()
	case remaining < -maxLag:
		a.deadline = a.now()
	}

	target := a.deadline
	a.deadline = a.deadline.Add(a.frame)
	a.frames++

	if a.frames%driftWindow == 0 {
		a.correctDrift(target)
	}
}

func (a *AdaptiveLimiter) spin() {
	for a.now().Before(a.deadline) {
	}
}

// correctDrift compares the time the last frame was released with the
// deadline it was scheduled for.
func (a *AdaptiveLimiter) correctDrift(target time.Time) {
	now := a.now()
	drift := now.Sub(target)
	if drift.Abs() <= driftTolerance {
		return
	}
	a.deadline = a.deadline.Add(drift / 10)

	elapsed := now.Sub(a.started)
	if elapsed <= 0 {
		return
	}
	slog.Debug("frame pacing drift",
		"drift_ms", drift.Milliseconds(),
		"fps", float64(a.frames)/elapsed.Seconds())
}

func (a *AdaptiveLimiter) Reset() {
	a.started = a.now()
	a.deadline = a.started
	a.frames = 0
}
