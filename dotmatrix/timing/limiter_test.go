package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances a little on every read so spin loops terminate.
type fakeClock struct {
	t     time.Time
	step  time.Duration
	slept []time.Duration
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func (c *fakeClock) sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.t = c.t.Add(d)
}

func newFakeLimiter() (*AdaptiveLimiter, *fakeClock) {
	c := &fakeClock{t: time.Unix(0, 0), step: 50 * time.Microsecond}
	a := &AdaptiveLimiter{frame: FrameDuration(), now: c.now, sleep: c.sleep}
	a.Reset()
	return a, c
}

func TestFrameRate(t *testing.T) {
	assert.InDelta(t, 59.7275, TargetFPS(), 0.001)
	assert.InDelta(t, float64(16742706*time.Nanosecond), float64(FrameDuration()), float64(time.Microsecond))
}

func TestNew(t *testing.T) {
	testCases := []struct {
		kind Kind
		want any
	}{
		{Adaptive, &AdaptiveLimiter{}},
		{"", &AdaptiveLimiter{}},
		{None, noOpLimiter{}},
	}
	for _, tC := range testCases {
		t.Run(string(tC.kind), func(t *testing.T) {
			l, err := New(tC.kind)
			require.NoError(t, err)
			assert.IsType(t, tC.want, l)
		})
	}

	_, err := New("vsync")
	assert.Error(t, err)
}

func TestAdaptiveLimiterPacesFrames(t *testing.T) {
	a, c := newFakeLimiter()
	start := c.t

	for range 3 {
		a.WaitForNextFrame()
	}

	assert.NotEmpty(t, c.slept)
	assert.GreaterOrEqual(t, c.t.Sub(start), 2*FrameDuration())
	assert.Less(t, c.t.Sub(start), 3*FrameDuration())
}

func TestAdaptiveLimiterHoldsFrameRate(t *testing.T) {
	a, c := newFakeLimiter()
	a.WaitForNextFrame()
	start := c.t

	const frames = 600
	for range frames {
		a.WaitForNextFrame()
	}

	fps := frames / c.t.Sub(start).Seconds()
	assert.InDelta(t, TargetFPS(), fps, 0.01)
}

func TestAdaptiveLimiterDropsBacklog(t *testing.T) {
	a, c := newFakeLimiter()
	a.WaitForNextFrame()

	// a long stall: the limiter should not try to run the missed frames
	// back to back
	c.t = c.t.Add(100 * time.Millisecond)
	a.WaitForNextFrame()
	c.slept = nil

	a.WaitForNextFrame()
	require.Len(t, c.slept, 1)
	assert.Greater(t, c.slept[0], 10*time.Millisecond)
}

func TestNoOpLimiter(t *testing.T) {
	l := NewNoOpLimiter()
	start := time.Now()
	for range 100 {
		l.WaitForNextFrame()
	}
	l.Reset()
	assert.Less(t, time.Since(start), FrameDuration())
}
