package timer

import (
	"context"
	"time"
)

// PollInterval is the refresh rate for running timers.
const PollInterval = time.Second

// Poll calls tick once immediately and then every interval for as long as
// tick returns true. It never mutates state; tick only observes. Poll
// returns when tick reports the timer stopped or ctx is done.
func Poll(ctx context.Context, interval time.Duration, tick func(now time.Time) bool) {
	if interval <= 0 {
		interval = PollInterval
	}
	if !tick(time.Now()) {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !tick(now) {
				return
			}
		}
	}
}
