package timing

import "time"

// TickerLimiter waits on a time.Ticker. Missed ticks are dropped by the
// runtime, so it never tries to catch up.
type TickerLimiter struct {
	ticker *time.Ticker
}

func NewTickerLimiter() *TickerLimiter {
	return &TickerLimiter{ticker: time.NewTicker(FrameDuration())}
}

func (t *TickerLimiter) WaitForNextFrame() {
	<-t.ticker.C
}

func (t *TickerLimiter) Reset() {
	t.ticker.Reset(FrameDuration())
}

// Stop releases the underlying ticker.
func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}
