// Command heart drives the charlieplexed heart from a host's GPIO pins, or
// simulates it on the console.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/host/v3"

	"github.com/DrJosh9000/heart"
)

var (
	config  = ""
	sim     = false
	verbose = false
)

func init() {
	pflag.StringVarP(&config, "config", "c", config, "configuration file (defaults if empty)")
	pflag.BoolVarP(&sim, "sim", "s", sim, "simulate the pins and print the heart to the console")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose output")
}

func main() {
	pflag.Parse()

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	if err := run(log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(log zerolog.Logger) error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	if cfg.ScanBudgetExceeded() {
		log.Warn().
			Dur("scan", cfg.ScanTime()).
			Dur("tick", time.Duration(cfg.Timing.Tick)).
			Msg("a full scan pass can outlast a tick; ticks will coalesce")
	}

	lines, power, err := openPins(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	h := heart.New(cfg, lines, power, log)

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error { return h.Run(ctx) })
	if sim {
		errg.Go(func() error { return printLoop(ctx, h, log) })
	}

	if err := errg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "heart failed")
	}
	return nil
}

func readConfig() (*heart.Config, error) {
	if config == "" {
		return heart.DefaultConfig(), nil
	}

	f, err := os.Open(config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open config file")
	}
	defer f.Close()

	return heart.ParseConfig(f)
}

func openPins(cfg *heart.Config) (lines [heart.NumLines]gpio.PinIO, power gpio.PinOut, err error) {
	if sim {
		for i, name := range cfg.Pins.Lines {
			lines[i] = &gpiotest.Pin{N: name, Num: i}
		}
		return lines, &gpiotest.Pin{N: cfg.Pins.Power, Num: heart.NumLines}, nil
	}

	if _, err := host.Init(); err != nil {
		return lines, nil, errors.Wrap(err, "failed to initialize host drivers")
	}
	for i, name := range cfg.Pins.Lines {
		p := gpioreg.ByName(name)
		if p == nil {
			return lines, nil, fmt.Errorf("no such pin %q for line %d", name, i)
		}
		lines[i] = p
	}
	p := gpioreg.ByName(cfg.Pins.Power)
	if p == nil {
		return lines, nil, fmt.Errorf("no such pin %q for power", cfg.Pins.Power)
	}
	return lines, p, nil
}

// printLoop shows the LED state a few times a second. It reads the state the
// same way the scanner does, so it sees what would be lit if scanning were
// on.
func printLoop(ctx context.Context, h *heart.Heart, log zerolog.Logger) error {
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
		log.Info().
			Bool("scanning", h.Ticks.Enabled()).
			Str("leds", h.State.String()).
			Msg("")
	}
}
