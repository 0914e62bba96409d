package track

import (
	"context"
	"log/slog"
	"time"
)

// pollLoop runs fn immediately and then once per interval until fn reports
// done, the attempt budget is exhausted, or ctx is cancelled. Errors from fn
// are treated as transient: they are logged and the loop keeps going, so the
// attempt budget is the only retry bound.
func pollLoop(ctx context.Context, name string, interval time.Duration, maxAttempts int, fn func(ctx context.Context, attempt int) (done bool, err error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return
		}
		done, err := fn(ctx, attempt)
		if err != nil {
			slog.Debug("poll iteration failed", slog.String("loop", name), slog.Int("attempt", attempt), slog.Any("err", err))
		}
		if done {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
	slog.Debug("poll budget exhausted", slog.String("loop", name), slog.Int("attempts", maxAttempts))
}
