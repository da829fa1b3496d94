package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time to services so tests can pin it.
type Clock interface {
	Now() time.Time
}

// Real is a Clock backed by the system time.
type Real struct{}

// NewReal creates a new Real clock.
func NewReal() Real {
	return Real{}
}

// Now returns the current UTC time.
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Stub is a Clock that only moves when told to.
type Stub struct {
	mu  sync.Mutex
	now time.Time
}

// NewStub creates a Stub clock set to the given time.
func NewStub(now time.Time) *Stub {
	return &Stub{now: now.UTC()}
}

// Now returns the stubbed time.
func (c *Stub) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to now.
func (c *Stub) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now.UTC()
}

// Advance moves the clock forward by d and returns the new time.
func (c *Stub) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
