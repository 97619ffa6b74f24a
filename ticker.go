package heart

import (
	"context"
	"sync"
	"time"
)

// DefaultTickPeriod is the interval between scan passes.
const DefaultTickPeriod = 2 * time.Millisecond

// Gate switches tick delivery on and off. The pattern sequencer only ever
// talks to the tick source through a Gate.
type Gate interface {
	Enable()
	Disable()
	Enabled() bool
}

// Ticker calls a handler once per period while enabled, much like a timer
// overflow interrupt. A tick that arrives while disabled is latched, and
// delivered as soon as the ticker is enabled again. Ticks that arrive while
// the handler is still running coalesce into at most one.
type Ticker struct {
	Period time.Duration // optional, uses DefaultTickPeriod if zero

	mu      sync.Mutex // held while the handler runs
	handler func()
	enabled bool
	pending bool
}

var _ Gate = (*Ticker)(nil)

// Handle registers f as the tick handler, replacing any previous one.
func (t *Ticker) Handle(f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = f
}

// Enable starts tick delivery. If a tick was latched while disabled, the
// handler runs before Enable returns.
func (t *Ticker) Enable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = true
	if t.pending {
		t.pending = false
		t.fire()
	}
}

// Disable stops tick delivery. It waits for a running handler to finish, so
// once it returns no handler is in progress.
func (t *Ticker) Disable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = false
}

// Enabled reports whether ticks are being delivered.
func (t *Ticker) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// Paused calls f with ticks disabled, then restores the prior state, even if
// f panics.
func Paused(g Gate, f func()) {
	if g.Enabled() {
		g.Disable()
		defer g.Enable()
	}
	f()
}

// Run delivers ticks until ctx is done.
func (t *Ticker) Run(ctx context.Context) error {
	p := t.Period
	if p == 0 {
		p = DefaultTickPeriod
	}
	tk := time.NewTicker(p)
	defer tk.Stop()
	return t.run(ctx, tk.C)
}

func (t *Ticker) run(ctx context.Context, c <-chan time.Time) error {
	for {
		select {
		case <-c:
			t.tick()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (t *Ticker) tick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		t.pending = true
		return
	}
	t.fire()
}

// fire runs the handler. t.mu must be held.
func (t *Ticker) fire() {
	if t.handler != nil {
		t.handler()
	}
}
