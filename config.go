package heart

import (
	"encoding"
	"fmt"
	"io"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Config is the configuration for a Heart.
type Config struct {
	Pins    PinConfig     `toml:"pins"`
	Timing  TimingConfig  `toml:"timing"`
	Pattern PatternConfig `toml:"pattern"`
	// FallbackAfter is how long after startup to give up waiting for the
	// power cutoff and go into low power.
	FallbackAfter TOMLDuration `toml:"fallback_after"`
}

// PinConfig names the GPIO pins, as understood by gpioreg.ByName.
type PinConfig struct {
	// Lines are the four matrix lines in line index order.
	Lines []string `toml:"lines"`
	// Power is the power latch output.
	Power string `toml:"power"`
}

// TimingConfig is the configuration for scan and pattern timing.
type TimingConfig struct {
	Tick      TOMLDuration `toml:"tick"`
	LEDOn     TOMLDuration `toml:"led_on"`
	ChaseStep TOMLDuration `toml:"chase_step"`
	BeatOn    TOMLDuration `toml:"beat_on"`
	BeatRest  TOMLDuration `toml:"beat_rest"`
	BeatGap   TOMLDuration `toml:"beat_gap"`
}

// PatternConfig is the configuration for pattern repetition.
type PatternConfig struct {
	Beats     int `toml:"beats"`
	ChaseRuns int `toml:"chase_runs"`
}

// DefaultConfig returns the configuration used for any key missing from a
// config file.
func DefaultConfig() *Config {
	return &Config{
		Pins: PinConfig{
			Lines: []string{"GPIO17", "GPIO27", "GPIO22", "GPIO23"},
			Power: "GPIO24",
		},
		Timing: TimingConfig{
			Tick:      TOMLDuration(DefaultTickPeriod),
			LEDOn:     TOMLDuration(DefaultOnTime),
			ChaseStep: TOMLDuration(DefaultTiming.ChaseStep),
			BeatOn:    TOMLDuration(DefaultTiming.BeatOn),
			BeatRest:  TOMLDuration(DefaultTiming.BeatRest),
			BeatGap:   TOMLDuration(DefaultTiming.BeatGap),
		},
		Pattern: PatternConfig{
			Beats:     DefaultTiming.Beats,
			ChaseRuns: DefaultTiming.ChaseRuns,
		},
		FallbackAfter: TOMLDuration(75 * time.Second),
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Pins.Lines) != NumLines {
		return fmt.Errorf("need %d lines, got %d", NumLines, len(c.Pins.Lines))
	}

	seen := make(map[string]bool)
	for _, name := range append([]string{c.Pins.Power}, c.Pins.Lines...) {
		if name == "" {
			return errors.New("empty pin name")
		}
		if seen[name] {
			return fmt.Errorf("pin %q used more than once", name)
		}
		seen[name] = true
	}

	durations := []struct {
		name string
		d    TOMLDuration
	}{
		{"timing.tick", c.Timing.Tick},
		{"timing.led_on", c.Timing.LEDOn},
		{"timing.chase_step", c.Timing.ChaseStep},
		{"timing.beat_on", c.Timing.BeatOn},
		{"timing.beat_rest", c.Timing.BeatRest},
		{"timing.beat_gap", c.Timing.BeatGap},
		{"fallback_after", c.FallbackAfter},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", d.name, time.Duration(d.d))
		}
	}

	if c.Pattern.Beats <= 0 {
		return fmt.Errorf("pattern.beats must be positive, got %d", c.Pattern.Beats)
	}
	if c.Pattern.ChaseRuns <= 0 {
		return fmt.Errorf("pattern.chase_runs must be positive, got %d", c.Pattern.ChaseRuns)
	}

	return nil
}

// ScanTime is the longest a full scan pass can take: every LED on.
func (c *Config) ScanTime() time.Duration {
	return NumSlots * time.Duration(c.Timing.LEDOn)
}

// ScanBudgetExceeded reports whether a full scan pass can outlast a tick.
// When it does, ticks coalesce and the effective scan rate drops.
func (c *Config) ScanBudgetExceeded() bool {
	return c.ScanTime() > time.Duration(c.Timing.Tick)
}

func (c *Config) timing() Timing {
	return Timing{
		ChaseStep: time.Duration(c.Timing.ChaseStep),
		BeatOn:    time.Duration(c.Timing.BeatOn),
		BeatRest:  time.Duration(c.Timing.BeatRest),
		BeatGap:   time.Duration(c.Timing.BeatGap),
		Beats:     c.Pattern.Beats,
		ChaseRuns: c.Pattern.ChaseRuns,
	}
}

// TOMLDuration is a duration that can be parsed from TOML.
type TOMLDuration time.Duration

var (
	_ encoding.TextUnmarshaler = (*TOMLDuration)(nil)
	_ encoding.TextMarshaler   = (*TOMLDuration)(nil)
)

func (d *TOMLDuration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = TOMLDuration(duration)
	return nil
}

func (d TOMLDuration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// ParseConfig parses a configuration from a reader. Keys missing from the
// input take their DefaultConfig values.
func ParseConfig(r io.Reader) (*Config, error) {
	var config Config
	if err := toml.NewDecoder(r).Decode(&config); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	config.fillDefaults(DefaultConfig())
	return &config, nil
}

func (c *Config) fillDefaults(d *Config) {
	if c.Pins.Lines == nil {
		c.Pins.Lines = d.Pins.Lines
	}
	if c.Pins.Power == "" {
		c.Pins.Power = d.Pins.Power
	}
	for _, f := range []struct{ v, d *TOMLDuration }{
		{&c.Timing.Tick, &d.Timing.Tick},
		{&c.Timing.LEDOn, &d.Timing.LEDOn},
		{&c.Timing.ChaseStep, &d.Timing.ChaseStep},
		{&c.Timing.BeatOn, &d.Timing.BeatOn},
		{&c.Timing.BeatRest, &d.Timing.BeatRest},
		{&c.Timing.BeatGap, &d.Timing.BeatGap},
		{&c.FallbackAfter, &d.FallbackAfter},
	} {
		if *f.v == 0 {
			*f.v = *f.d
		}
	}
	if c.Pattern.Beats == 0 {
		c.Pattern.Beats = d.Pattern.Beats
	}
	if c.Pattern.ChaseRuns == 0 {
		c.Pattern.ChaseRuns = d.Pattern.ChaseRuns
	}
}
