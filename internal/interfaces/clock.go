package interfaces

import (
	"context"
	"time"
)

// Clock abstracts time for the poll loops so tests can run them instantly.
type Clock interface {
	Now() time.Time

	// Sleep blocks for d or until ctx is canceled, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock is the production Clock backed by the time package.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
