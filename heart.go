package heart

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/gpio"
)

// Heart owns the LED state and everything that touches it: the matrix that
// renders it, the ticker that schedules rendering, and the sequencer that
// animates it.
type Heart struct {
	State  *State
	Matrix *Matrix
	Ticks  *Ticker
	Seq    *Sequencer
	Power  Power

	// FallbackAfter is how long to wait for the power to be cut before going
	// into low power. Zero waits forever.
	FallbackAfter time.Duration

	Log zerolog.Logger
}

// New wires a Heart to the given pins. cfg is assumed to be valid.
func New(cfg *Config, lines [NumLines]gpio.PinIO, power gpio.PinOut, log zerolog.Logger) *Heart {
	s := new(State)
	t := &Ticker{Period: time.Duration(cfg.Timing.Tick)}
	return &Heart{
		State: s,
		Matrix: &Matrix{
			Lines:  lines,
			OnTime: time.Duration(cfg.Timing.LEDOn),
		},
		Ticks: t,
		Seq: &Sequencer{
			State:  s,
			Ticks:  t,
			Timing: cfg.timing(),
			Log:    log,
		},
		Power:         Power{Pin: power},
		FallbackAfter: time.Duration(cfg.FallbackAfter),
		Log:           log,
	}
}

// Run latches the power on and animates the heart until ctx is done. If
// FallbackAfter passes first, the animation stops after the pattern in
// progress and the heart goes into low power (see LowPower).
func (h *Heart) Run(ctx context.Context) error {
	if err := h.Matrix.Reset(); err != nil {
		return errors.Wrap(err, "reset matrix")
	}
	if err := h.Power.Hold(); err != nil {
		return err
	}
	h.Ticks.Handle(h.scan)

	errg, ctx := errgroup.WithContext(ctx)
	tickCtx, stopTicks := context.WithCancel(ctx)
	defer stopTicks()

	errg.Go(func() error {
		err := h.Ticks.Run(tickCtx)
		if ctx.Err() == nil {
			// Stopped for low power.
			return nil
		}
		return err
	})

	errg.Go(func() error {
		seqCtx, cancel := ctx, context.CancelFunc(func() {})
		if h.FallbackAfter > 0 {
			seqCtx, cancel = context.WithTimeout(ctx, h.FallbackAfter)
		}
		defer cancel()

		err := h.Seq.Run(seqCtx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		stopTicks()
		return h.LowPower(ctx)
	})

	return errg.Wait()
}

// LowPower is the fail-safe for when the supply is not cut on time: scanning
// stops, every line is released, and LowPower blocks until ctx is done.
// There is no way back.
func (h *Heart) LowPower(ctx context.Context) error {
	h.Log.Warn().
		Dur("after", h.FallbackAfter).
		Msg("power still on; entering low power")

	h.Ticks.Disable()
	if err := h.Matrix.Halt(); err != nil {
		return errors.Wrap(err, "halt matrix")
	}

	<-ctx.Done()
	return ctx.Err()
}

func (h *Heart) scan() {
	if err := h.Matrix.Scan(h.State); err != nil {
		h.Log.Warn().Err(err).Msg("scan failed")
	}
}
