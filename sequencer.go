package heart

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Timing holds the pattern pacing. Zero fields take the DefaultTiming value.
type Timing struct {
	ChaseStep time.Duration // between chase steps
	BeatOn    time.Duration // how long each beat flash is scanned
	BeatRest  time.Duration // dark time between the two flashes of a beat
	BeatGap   time.Duration // before each beat, and after the last one
	Beats     int           // beats per cycle
	ChaseRuns int           // sweeps per chase
}

// DefaultTiming gives roughly a 2 second cycle.
var DefaultTiming = Timing{
	ChaseStep: 2 * time.Millisecond,
	BeatOn:    20 * time.Microsecond,
	BeatRest:  100 * time.Millisecond,
	BeatGap:   500 * time.Millisecond,
	Beats:     3,
	ChaseRuns: 2,
}

func (t Timing) orDefault() Timing {
	d := DefaultTiming
	if t.ChaseStep == 0 {
		t.ChaseStep = d.ChaseStep
	}
	if t.BeatOn == 0 {
		t.BeatOn = d.BeatOn
	}
	if t.BeatRest == 0 {
		t.BeatRest = d.BeatRest
	}
	if t.BeatGap == 0 {
		t.BeatGap = d.BeatGap
	}
	if t.Beats == 0 {
		t.Beats = d.Beats
	}
	if t.ChaseRuns == 0 {
		t.ChaseRuns = d.ChaseRuns
	}
	return t
}

// Sequencer animates a State. It is the only writer of the State, and it
// controls when the scanner may run through Ticks.
type Sequencer struct {
	State  *State
	Ticks  Gate
	Delay  Delayer // optional, uses Sleep if nil
	Timing Timing
	Log    zerolog.Logger
}

// Chase sends two dots around the heart, starting from the opposite slots 0
// and 5 and advancing in lockstep until both halves have been swept. The
// last step only turns LEDs off, so the chase ends dark. Scanning is on for
// the duration and off when Chase returns.
func (q *Sequencer) Chase() {
	t := q.Timing.orDefault()
	q.Log.Debug().Int("runs", t.ChaseRuns).Msg("chase")

	Paused(q.Ticks, func() { q.State.Fill(false) })
	for run := 0; run < t.ChaseRuns; run++ {
		q.State.Set(0, true)
		q.State.Set(NumSlots/2, true)
		q.Ticks.Enable()
		for i := NumSlots/2 + 1; i <= NumSlots; i++ {
			q.pace(t.ChaseStep)
			q.chaseStep(i)
		}
	}
	q.Ticks.Disable()
}

// chaseStep moves the dots at i-6 and i-1 on to i-5 and i. At i == NumSlots
// there is nowhere left to move to and the dots just go out.
func (q *Sequencer) chaseStep(i int) {
	const half = NumSlots / 2
	q.State.Set(i-half-1, false)
	q.State.Set(i-1, false)
	if i < NumSlots {
		q.State.Set(i-half, true)
		q.State.Set(i, true)
	}
}

// Beat flashes every LED twice, like a heartbeat. The display is dark
// between and after the flashes, because scanning is off.
func (q *Sequencer) Beat() {
	t := q.Timing.orDefault()
	q.Log.Debug().Msg("beat")

	Paused(q.Ticks, func() { q.State.Fill(true) })
	q.flash(t.BeatOn)
	q.pace(t.BeatRest)
	q.flash(t.BeatOn)
}

func (q *Sequencer) flash(d time.Duration) {
	q.Ticks.Enable()
	q.pace(d)
	q.Ticks.Disable()
}

// Cycle runs one chase followed by the beats. ctx is only checked between
// patterns; a pattern that has started always runs to completion.
func (q *Sequencer) Cycle(ctx context.Context) error {
	t := q.Timing.orDefault()

	q.Chase()
	for i := 0; i < t.Beats; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		q.pace(t.BeatGap)
		q.Beat()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	q.pace(t.BeatGap)
	return ctx.Err()
}

// Run repeats Cycle until ctx is done.
func (q *Sequencer) Run(ctx context.Context) error {
	for {
		if err := q.Cycle(ctx); err != nil {
			return err
		}
	}
}

func (q *Sequencer) pace(d time.Duration) {
	dl := q.Delay
	if dl == nil {
		dl = Sleep
	}
	dl.Delay(d)
}
