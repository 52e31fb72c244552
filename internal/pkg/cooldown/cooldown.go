/*
Package cooldown provides Countdown, a scoped timer used to throttle user actions such as
requesting a new one-time code.

A Countdown owns at most one ticker goroutine. The goroutine exits and the ticker is
released both when the countdown reaches zero and when Stop is called, so an owner that
is torn down early never leaves a periodic callback behind.
*/
package cooldown

import (
	"sync"
	"time"
)

// Countdown counts down from a fixed duration in whole ticks.
type Countdown struct {
	duration time.Duration
	tick     time.Duration

	mu        sync.Mutex
	remaining time.Duration
	stop      chan struct{}
	done      chan struct{}
}

// New returns a stopped countdown of d that ticks once per second.
func New(d time.Duration) *Countdown {
	return NewWithTick(d, time.Second)
}

// NewWithTick returns a stopped countdown of d that decrements by tick.
func NewWithTick(d, tick time.Duration) *Countdown {
	if tick <= 0 {
		tick = time.Second
	}

	return &Countdown{duration: d, tick: tick}
}

// Start begins the countdown. Starting an active countdown is a no-op.
func (c *Countdown) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stop != nil || c.duration <= 0 {
		return
	}

	c.remaining = c.duration
	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	go c.run(c.stop, c.done)
}

func (c *Countdown) run(stop <-chan struct{}, done chan<- struct{}) {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()
	defer close(done)

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			c.remaining -= c.tick
			finished := c.remaining <= 0
			if finished {
				c.reset()
			}
			c.mu.Unlock()

			if finished {
				return
			}

		case <-stop:
			return
		}
	}
}

// reset clears the running state. Caller holds mu.
func (c *Countdown) reset() {
	c.remaining = 0
	c.stop = nil
}

// Stop cancels the countdown and waits for its goroutine to exit. Safe to call
// on a stopped countdown.
func (c *Countdown) Stop() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	if stop != nil {
		close(stop)
		c.reset()
	}
	c.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Active reports whether the countdown is running.
func (c *Countdown) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stop != nil
}

// Remaining returns the time left, zero when stopped.
func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.remaining
}
