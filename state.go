package heart

import (
	"strings"
	"sync/atomic"
)

// NumSlots is the number of LEDs in the matrix.
const NumSlots = 10

// State is the desired on/off state of each LED slot. The pattern sequencer
// is the only writer and the scanner the only reader. Each slot is
// independently atomic; a reader may observe a mix of old and new slots while
// a multi-slot update is in progress, which only ever shows up as a
// one-pass glitch. Updates that must appear all at once should be made with
// ticks paused (see Paused).
type State struct {
	leds [NumSlots]atomic.Bool
}

// Set sets slot i. Out-of-range slots are ignored.
func (s *State) Set(i int, on bool) {
	if i < 0 || i >= NumSlots {
		return
	}
	s.leds[i].Store(on)
}

// Get reports whether slot i should be lit.
func (s *State) Get(i int) bool {
	if i < 0 || i >= NumSlots {
		return false
	}
	return s.leds[i].Load()
}

// Fill sets every slot to on.
func (s *State) Fill(on bool) {
	for i := range s.leds {
		s.leds[i].Store(on)
	}
}

// Lit returns the indices of the slots that are on, in ascending order.
func (s *State) Lit() []int {
	var lit []int
	for i := range s.leds {
		if s.leds[i].Load() {
			lit = append(lit, i)
		}
	}
	return lit
}

// String renders the state as a row of filled and hollow circles.
func (s *State) String() string {
	var sb strings.Builder
	for i := range s.leds {
		if s.leds[i].Load() {
			sb.WriteRune('●')
		} else {
			sb.WriteRune('○')
		}
	}
	return sb.String()
}
