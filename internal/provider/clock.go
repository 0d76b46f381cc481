package provider

import (
	"time"

	"github.com/shirou/gopsutil/v4/host"
)

// Clock supplies PerfTime/PerfFreq for the object header.
type Clock interface {
	Now() (perfTime, perfFreq int64)
}

// TickClock counts milliseconds since the host booted, the same unit as GetTickCount.
type TickClock struct {
	boot time.Time
}

// NewTickClock reads the boot time once. When it is unavailable the clock counts from
// its own creation instead.
func NewTickClock() *TickClock {
	boot := time.Now()
	if secs, err := host.BootTime(); err == nil && secs > 0 {
		boot = time.Unix(int64(secs), 0)
	}
	return &TickClock{boot: boot}
}

// Now returns milliseconds since boot and a frequency of 1000.
func (c *TickClock) Now() (int64, int64) {
	return time.Since(c.boot).Milliseconds(), 1000
}
