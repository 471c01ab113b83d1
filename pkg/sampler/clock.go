package sampler

import "time"

// Clock supplies the device's monotonic time since boot and the pause between polls.
type Clock interface {
	Now() time.Duration
	Sleep(d time.Duration)
}

// SystemClock is the wall clock of the running program.
type SystemClock struct {
	boot time.Time
}

// NewSystemClock returns a clock whose zero is the moment of the call.
func NewSystemClock() *SystemClock {
	return &SystemClock{boot: time.Now()}
}

// Now returns the time elapsed since the clock was created.
func (c *SystemClock) Now() time.Duration {
	return time.Since(c.boot)
}

// Sleep pauses the caller.
func (c *SystemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
