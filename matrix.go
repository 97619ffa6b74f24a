// Package heart drives a charlieplexed 10-LED heart through 4 GPIO lines
// (using periph.io), animating it with "chase" and "beat" patterns until
// power is cut.
package heart // import "github.com/DrJosh9000/heart"

import (
	"time"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
)

// NumLines is the number of shared matrix lines.
const NumLines = 4

// DefaultOnTime is how long each LED is driven during a pair render.
const DefaultOnTime = 800 * time.Microsecond

// Pair is an unordered pair of lines. Slot 2k of the matrix lights when A is
// driven high against B, and slot 2k+1 when B is driven high against A.
type Pair struct {
	A, B int
}

// Pairs lists the line pairs in scan order. Pair k carries slots 2k and
// 2k+1. Lines 0 and 3 are never paired.
var Pairs = [NumSlots / 2]Pair{
	{0, 1},
	{0, 2},
	{1, 2},
	{1, 3},
	{2, 3},
}

// Matrix implements the scanner for a charlieplexed matrix. Lines are
// expected to have no external pull; idle lines are left floating so that
// no current path exists through LEDs that are not being driven.
type Matrix struct {
	Lines  [NumLines]gpio.PinIO
	OnTime time.Duration // optional, uses DefaultOnTime if zero
	Delay  Delayer       // optional, uses Spin if nil
}

// ValidPair reports whether a and b are two distinct, connected lines.
func (m *Matrix) ValidPair(a, b int) bool {
	return a != b && m.validLine(a) && m.validLine(b)
}

func (m *Matrix) validLine(i int) bool {
	return i >= 0 && i < NumLines && m.Lines[i] != nil
}

// DrivePair lights up to two LEDs sharing lines a and b: the one forward
// biased from a to b if wantA, then the one from b to a if wantB. The two
// pulses never overlap. Requests naming an invalid pair, or lighting
// nothing, are ignored without touching any line.
func (m *Matrix) DrivePair(a, b int, wantA, wantB bool) error {
	if !m.ValidPair(a, b) || !(wantA || wantB) {
		return nil
	}

	if err := m.drivePair(a, b, wantA, wantB); err != nil {
		// Don't leave a line driven after a failure.
		m.Reset()
		return err
	}
	return nil
}

func (m *Matrix) drivePair(a, b int, wantA, wantB bool) error {
	if err := m.Reset(); err != nil {
		return err
	}
	if err := m.out(a, gpio.Low); err != nil {
		return err
	}
	if err := m.out(b, gpio.Low); err != nil {
		return err
	}

	if wantA {
		if err := m.pulse(a); err != nil {
			return err
		}
	}
	if wantB {
		if err := m.pulse(b); err != nil {
			return err
		}
	}

	return m.Reset()
}

// Scan renders every slot of s once by driving each of Pairs in turn. It
// stops at the first pin error.
func (m *Matrix) Scan(s *State) error {
	for k, p := range Pairs {
		if err := m.DrivePair(p.A, p.B, s.Get(2*k), s.Get(2*k+1)); err != nil {
			return errors.Wrapf(err, "pair %d-%d", p.A, p.B)
		}
	}
	return nil
}

// Reset floats every line.
func (m *Matrix) Reset() error {
	for i, l := range m.Lines {
		if l == nil {
			continue
		}
		if err := l.In(gpio.Float, gpio.NoEdge); err != nil {
			return errors.Wrapf(err, "float line %d", i)
		}
	}
	return nil
}

// Halt floats and then halts every line. Used when entering low power.
func (m *Matrix) Halt() error {
	if err := m.Reset(); err != nil {
		return err
	}
	for i, l := range m.Lines {
		if l == nil {
			continue
		}
		if err := l.Halt(); err != nil {
			return errors.Wrapf(err, "halt line %d", i)
		}
	}
	return nil
}

// pulse drives line i high for the on-time, then low again.
func (m *Matrix) pulse(i int) error {
	if err := m.out(i, gpio.High); err != nil {
		return err
	}
	m.delay()
	return m.out(i, gpio.Low)
}

func (m *Matrix) out(i int, l gpio.Level) error {
	if err := m.Lines[i].Out(l); err != nil {
		return errors.Wrapf(err, "drive line %d %s", i, l)
	}
	return nil
}

func (m *Matrix) delay() {
	d := m.OnTime
	if d == 0 {
		d = DefaultOnTime
	}
	dl := m.Delay
	if dl == nil {
		dl = Spin
	}
	dl.Delay(d)
}
