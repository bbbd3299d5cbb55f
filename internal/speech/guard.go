package speech

import (
	"context"
	"time"

	"github.com/tbourn/go-voice-chat/internal/domain"
)

// DeviceGuard is a single-owner lock for the audio device.
type DeviceGuard struct {
	slot chan struct{}
	wait time.Duration
}

// NewDeviceGuard returns a free guard. A contender waits at most wait for the
// device; zero (or negative) means fail immediately.
func NewDeviceGuard(wait time.Duration) *DeviceGuard {
	if wait < 0 {
		wait = 0
	}
	return &DeviceGuard{slot: make(chan struct{}, 1), wait: wait}
}

// Acquire takes the device. The returned release func is safe to call once.
func (g *DeviceGuard) Acquire(ctx context.Context) (release func(), err error) {
	release = func() { <-g.slot }

	select {
	case g.slot <- struct{}{}:
		return release, nil
	default:
	}
	if g.wait == 0 {
		return nil, domain.ErrDeviceBusy
	}

	timer := time.NewTimer(g.wait)
	defer timer.Stop()
	select {
	case g.slot <- struct{}{}:
		return release, nil
	case <-timer.C:
		return nil, domain.ErrDeviceBusy
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Busy reports whether the device is currently held.
func (g *DeviceGuard) Busy() bool { return len(g.slot) == 1 }
