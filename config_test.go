package heart

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	const doc = `
fallback_after = "90s"

[pins]
lines = ["5", "6", "13", "19"]
power = "26"

[timing]
tick = "4ms"
led_on = "300us"
chase_step = "10ms"
beat_on = "1ms"
beat_rest = "150ms"
beat_gap = "1s"

[pattern]
beats = 5
chase_runs = 1
`
	cfg, err := ParseConfig(strings.NewReader(doc))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"5", "6", "13", "19"}, cfg.Pins.Lines)
	assert.Equal(t, "26", cfg.Pins.Power)
	assert.Equal(t, TOMLDuration(90*time.Second), cfg.FallbackAfter)
	assert.Equal(t, Timing{
		ChaseStep: 10 * time.Millisecond,
		BeatOn:    time.Millisecond,
		BeatRest:  150 * time.Millisecond,
		BeatGap:   time.Second,
		Beats:     5,
		ChaseRuns: 1,
	}, cfg.timing())
	assert.Equal(t, 3*time.Millisecond, cfg.ScanTime())
	assert.False(t, cfg.ScanBudgetExceeded())
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(`
[timing]
tick = "10ms"
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	want := DefaultConfig()
	want.Timing.Tick = TOMLDuration(10 * time.Millisecond)
	assert.Equal(t, want, cfg)
}

func TestParseConfigBadDuration(t *testing.T) {
	_, err := ParseConfig(strings.NewReader(`
[timing]
tick = "soon"
`))
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultTiming, cfg.timing())
	assert.True(t, cfg.ScanBudgetExceeded(), "10 x 800µs does not fit in 2ms")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errStr string
	}{
		{
			name:   "too few lines",
			modify: func(c *Config) { c.Pins.Lines = c.Pins.Lines[:3] },
			errStr: "need 4 lines",
		},
		{
			name:   "duplicate line",
			modify: func(c *Config) { c.Pins.Lines[2] = c.Pins.Lines[0] },
			errStr: "used more than once",
		},
		{
			name:   "power shares a line",
			modify: func(c *Config) { c.Pins.Power = c.Pins.Lines[3] },
			errStr: "used more than once",
		},
		{
			name:   "empty pin",
			modify: func(c *Config) { c.Pins.Power = "" },
			errStr: "empty pin name",
		},
		{
			name:   "negative duration",
			modify: func(c *Config) { c.Timing.LEDOn = -1 },
			errStr: "timing.led_on",
		},
		{
			name:   "no fallback",
			modify: func(c *Config) { c.FallbackAfter = 0 },
			errStr: "fallback_after",
		},
		{
			name:   "no beats",
			modify: func(c *Config) { c.Pattern.Beats = 0 },
			errStr: "pattern.beats",
		},
		{
			name:   "no chase runs",
			modify: func(c *Config) { c.Pattern.ChaseRuns = -2 },
			errStr: "pattern.chase_runs",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultConfig()
			test.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.errStr)
		})
	}
}
