package heart

import "time"

// Delayer blocks for a duration. There is no way to cut a delay short.
type Delayer interface {
	Delay(d time.Duration)
}

// DelayFunc adapts an ordinary function to a Delayer.
type DelayFunc func(time.Duration)

// Delay calls f(d).
func (f DelayFunc) Delay(d time.Duration) { f(d) }

var (
	// Spin busy-waits. Use it for sub-millisecond delays.
	Spin Delayer = DelayFunc(spin)

	// Sleep parks the calling goroutine. Used for pattern pacing.
	Sleep Delayer = DelayFunc(time.Sleep)
)

func spin(d time.Duration) {
	for start := time.Now(); time.Since(start) < d; {
	}
}
