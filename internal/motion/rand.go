package motion

import (
	"context"
	"math/rand"
	"time"
)

// Source supplies uniform values in [0,1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// NewSource returns a seeded source. A zero seed uses the current time.
func NewSource(seed int64) Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// Clock suspends the caller between steps
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// WallClock sleeps on real timers
type WallClock struct{}

// Sleep waits for d or until ctx is done
func (WallClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
