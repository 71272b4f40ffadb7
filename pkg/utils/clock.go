// Package utils provides logging and clock helpers shared by memscope packages.
package utils

import "time"

// Clock abstracts wall-clock reads so scan timings are testable.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// NewRealClock creates a new RealClock instance.
func NewRealClock() *RealClock {
	return &RealClock{}
}

// Now returns the current time.
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// Since returns the duration since the given time.
func (c *RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// FixedClock is a Clock that advances by Step on every Now call.
type FixedClock struct {
	Current time.Time
	Step    time.Duration
}

// Now returns the current fake time and advances it.
func (c *FixedClock) Now() time.Time {
	now := c.Current
	c.Current = c.Current.Add(c.Step)
	return now
}

// Since returns the fake elapsed time without advancing.
func (c *FixedClock) Since(t time.Time) time.Duration {
	return c.Current.Sub(t)
}
