package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Countdown polls a remaining-seconds source on a fixed interval. Every tick
// recomputes the value instead of decrementing a counter, so a tick that was
// delayed for minutes still reports the right number. When the value reaches
// zero the ready callback fires once and the loop ends.
type Countdown struct {
	log       *zap.Logger
	remaining func() int
	interval  time.Duration
	onTick    func(left int)
	onReady   func()
	ready     sync.Once
	quit      chan struct{}
	stop      sync.Once
}

// NewCountdown creates a Countdown over remaining.
func NewCountdown(remaining func() int, interval time.Duration, log *zap.Logger) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdown{
		log:       log,
		remaining: remaining,
		interval:  interval,
		quit:      make(chan struct{}),
	}
}

// OnTick registers fn to receive every recomputed value, including the final 0.
func (c *Countdown) OnTick(fn func(left int)) *Countdown {
	c.onTick = fn
	return c
}

// OnReady registers fn to run when resend becomes possible.
func (c *Countdown) OnReady(fn func()) *Countdown {
	c.onReady = fn
	return c
}

// Run blocks until the countdown reaches zero, Stop is called or ctx ends.
func (c *Countdown) Run(ctx context.Context) {
	if c.tick() {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if c.tick() {
				return
			}
		case <-c.quit:
			c.log.Debug("countdown stopped")
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop ends Run without firing the ready callback. Safe to call repeatedly.
func (c *Countdown) Stop() {
	c.stop.Do(func() { close(c.quit) })
}

func (c *Countdown) tick() bool {
	left := c.remaining()
	if c.onTick != nil {
		c.onTick(left)
	}
	if left > 0 {
		return false
	}
	c.ready.Do(func() {
		c.log.Debug("resend enabled")
		if c.onReady != nil {
			c.onReady()
		}
	})
	return true
}
