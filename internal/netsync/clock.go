package netsync

import (
	"sort"
	"time"
)

// Clock estimates the offset between the authoritative server clock and the
// local monotonic clock from time-sync messages. The offset is the median of
// a bounded sample window, which shrugs off a single delayed packet without
// the lag a moving average would carry.
//
// All times are float64 seconds.
type Clock struct {
	now        func() float64 // injectable local clock
	samples    []float64      // ring of serverTime - localTime offsets
	next       int
	windowSize int
}

// NewClock creates a clock offset estimator with the given window size.
// A nil localNow defaults to the process monotonic clock.
func NewClock(windowSize int, localNow func() float64) *Clock {
	if windowSize <= 0 {
		windowSize = 5
	}
	if localNow == nil {
		start := time.Now()
		localNow = func() float64 { return time.Since(start).Seconds() }
	}
	return &Clock{
		now:        localNow,
		samples:    make([]float64, 0, windowSize),
		windowSize: windowSize,
	}
}

// LocalNow returns the current local clock reading in seconds.
func (c *Clock) LocalNow() float64 {
	return c.now()
}

// Sample records one (serverTime, localTimeAtReceipt) observation.
func (c *Clock) Sample(serverTime, localTime float64) {
	offset := serverTime - localTime
	if len(c.samples) < c.windowSize {
		c.samples = append(c.samples, offset)
		c.next = len(c.samples) % c.windowSize
		return
	}
	c.samples[c.next] = offset
	c.next = (c.next + 1) % c.windowSize
}

// SampleNow records a server timestamp received at the current local time.
func (c *Clock) SampleNow(serverTime float64) {
	c.Sample(serverTime, c.now())
}

// Offset returns the median offset of the window, or 0 with ok=false when
// no sample has arrived yet.
func (c *Clock) Offset() (float64, bool) {
	if len(c.samples) == 0 {
		return 0, false
	}
	sorted := make([]float64, len(c.samples))
	copy(sorted, c.samples)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2], true
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2, true
}

// EstimatedServerNow projects the local clock onto the server timeline.
// Before the first sample it returns the raw local clock, which keeps
// callers moving instead of stalling the render.
func (c *Clock) EstimatedServerNow() float64 {
	offset, _ := c.Offset()
	return c.now() + offset
}

// SampleCount returns how many offset samples are currently buffered.
func (c *Clock) SampleCount() int {
	return len(c.samples)
}

// Reset discards all samples, e.g. after a reconnect to a different host.
func (c *Clock) Reset() {
	c.samples = c.samples[:0]
	c.next = 0
}
