package glimpse

import (
	"log/slog"
	"sync"
	"time"
)

// rateLimitedLogger suppresses repeats of a chatty condition (skipped ticks
// against a slow origin would otherwise log every interval).
type rateLimitedLogger struct {
	mu       sync.Mutex
	lastAt   time.Time
	interval time.Duration
}

func newRateLimitedLogger(interval time.Duration) *rateLimitedLogger {
	return &rateLimitedLogger{interval: interval}
}

func (l *rateLimitedLogger) Warn(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if !l.lastAt.IsZero() && now.Sub(l.lastAt) < l.interval {
		return
	}
	l.lastAt = now
	slog.Warn(msg, args...)
}
