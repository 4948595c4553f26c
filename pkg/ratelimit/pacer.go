package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Pacer defines the interface for pausing between requests
type Pacer interface {
	// Wait blocks until the next request may be sent or ctx is done
	Wait(ctx context.Context) error
}

// Delay waits a fixed duration on every call
type Delay struct {
	interval time.Duration

	mu    sync.Mutex
	waits int
	total time.Duration
}

// NewDelay creates a fixed-delay pacer. A non-positive interval never waits.
func NewDelay(interval time.Duration) *Delay {
	if interval < 0 {
		interval = 0
	}
	return &Delay{interval: interval}
}

// Interval returns the configured pause
func (d *Delay) Interval() time.Duration {
	return d.interval
}

// Wait pauses for the configured interval
func (d *Delay) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.interval == 0 {
		d.record(0)
		return nil
	}

	start := time.Now()
	timer := time.NewTimer(d.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		d.record(time.Since(start))
		return ctx.Err()
	case <-timer.C:
		d.record(time.Since(start))
		return nil
	}
}

func (d *Delay) record(waited time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.waits++
	d.total += waited
}

// Stats returns how many waits happened and the time spent in them
func (d *Delay) Stats() (waits int, total time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.waits, d.total
}

// PacerFunc adapts a function to the Pacer interface
type PacerFunc func(ctx context.Context) error

// Wait calls f(ctx)
func (f PacerFunc) Wait(ctx context.Context) error {
	return f(ctx)
}
