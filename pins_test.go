package heart

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// bench records what happens to a set of probe pins, and tracks the worst
// case seen: how many lines were outputs at once and how many were high.
type bench struct {
	mu      sync.Mutex
	events  []string
	out     [NumLines]bool
	level   [NumLines]gpio.Level
	halted  [NumLines]bool
	maxOut  int
	maxHigh int
}

func newBench(t *testing.T) (*bench, [NumLines]gpio.PinIO) {
	t.Helper()
	b := &bench{}
	var lines [NumLines]gpio.PinIO
	for i := range lines {
		lines[i] = &probe{
			Pin: &gpiotest.Pin{N: fmt.Sprintf("L%d", i), Num: i},
			b:   b,
			i:   i,
		}
	}
	return b, lines
}

func (b *bench) record(ev string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
}

func (b *bench) update(i int, out bool, l gpio.Level) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out[i], b.level[i], b.halted[i] = out, l, false

	outs, highs := 0, 0
	for j := range b.out {
		if b.out[j] {
			outs++
			if b.level[j] == gpio.High {
				highs++
			}
		}
	}
	if outs > b.maxOut {
		b.maxOut = outs
	}
	if highs > b.maxHigh {
		b.maxHigh = highs
	}
}

// wait is a Delayer that only records.
func (b *bench) wait(d time.Duration) {
	b.record("wait")
}

func (b *bench) Events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.events...)
}

func (b *bench) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
	b.maxOut, b.maxHigh = 0, 0
}

type snapshot struct {
	out    [NumLines]bool
	level  [NumLines]gpio.Level
	halted [NumLines]bool
}

func (b *bench) Snapshot() snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return snapshot{out: b.out, level: b.level, halted: b.halted}
}

// lit decodes the events into the slots that were pulsed, in order.
func lit(events []string) []int {
	var out [NumLines]bool
	var slots []int
	for _, ev := range events {
		if len(ev) != 2 {
			continue
		}
		i := int(ev[0] - '0')
		switch ev[1] {
		case 'z':
			out[i] = false
		case '-':
			out[i] = true
		case '+':
			for k, p := range Pairs {
				switch {
				case p.A == i && out[p.B]:
					slots = append(slots, 2*k)
				case p.B == i && out[p.A]:
					slots = append(slots, 2*k+1)
				}
			}
		}
	}
	return slots
}

var errProbe = errors.New("probe failure")

// probe is a gpiotest.Pin that reports to a bench.
type probe struct {
	*gpiotest.Pin
	b *bench
	i int

	failHigh bool
}

func (p *probe) In(pull gpio.Pull, edge gpio.Edge) error {
	if err := p.Pin.In(pull, edge); err != nil {
		return err
	}
	p.b.update(p.i, false, gpio.Low)
	p.b.record(fmt.Sprintf("%dz", p.i))
	return nil
}

func (p *probe) Out(l gpio.Level) error {
	if l == gpio.High && p.failHigh {
		return errProbe
	}
	if err := p.Pin.Out(l); err != nil {
		return err
	}
	p.b.update(p.i, true, l)
	if l == gpio.High {
		p.b.record(fmt.Sprintf("%d+", p.i))
	} else {
		p.b.record(fmt.Sprintf("%d-", p.i))
	}
	return nil
}

func (p *probe) Halt() error {
	p.b.mu.Lock()
	p.b.halted[p.i] = true
	p.b.mu.Unlock()
	p.b.record(fmt.Sprintf("%dh", p.i))
	return p.Pin.Halt()
}
