package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/jahartley/HvacStateMachine/internal/model"
)

func intPtr(n int) *int { return &n }

func fullActuators() Actuators {
	return Actuators{
		Compressor1:    intPtr(5),
		Compressor2:    intPtr(6),
		GasHeat:        intPtr(7),
		ReversingValve: intPtr(8),
		FanLow:         intPtr(9),
		FanHigh:        intPtr(10),
		CoachHeatLow:   intPtr(11),
		CoachHeatHigh:  intPtr(12),
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected zerolog.Level
	}{
		{"default to info", "", zerolog.InfoLevel},
		{"debug", "debug", zerolog.DebugLevel},
		{"warn", "warn", zerolog.WarnLevel},
		{"error", "error", zerolog.ErrorLevel},
		{"unknown", "weird", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := ParseLogLevel(tt.input)
			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestConfigValidate_MissingPin(t *testing.T) {
	cfg := &Config{
		GPIO: Actuators{
			Compressor1: intPtr(5),
		},
		Sense: Senses{ShorePower: intPtr(20), CoolantHot: intPtr(21)},
	}

	assert.Panics(t, func() { cfg.validate() })
}

func TestConfigValidate_PinConflict(t *testing.T) {
	gpio := fullActuators()
	gpio.FanHigh = intPtr(5) // collides with compressor_1
	cfg := &Config{
		GPIO:  gpio,
		Sense: Senses{ShorePower: intPtr(20), CoolantHot: intPtr(21)},
	}

	assert.PanicsWithValue(t,
		"Conflicting GPIO pins: gpio.fan_high and gpio.compressor_1 both use pin 5",
		func() { cfg.validate() },
	)
}

func TestConfigValidate_SenseConflictsWithActuator(t *testing.T) {
	cfg := &Config{
		GPIO:  fullActuators(),
		Sense: Senses{ShorePower: intPtr(12), CoolantHot: intPtr(21)},
	}

	assert.Panics(t, func() { cfg.validate() })
}

func TestConfigValidate_AllPresent(t *testing.T) {
	cfg := &Config{
		GPIO:  fullActuators(),
		Sense: Senses{ShorePower: intPtr(20), CoolantHot: intPtr(21)},
	}

	assert.NotPanics(t, func() { cfg.validate() })
}

func TestTimingDefaultsAndOverrides(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, model.DefaultTiming(), cfg.Timing())

	cfg.ValveSettleSeconds = 90
	cfg.CompRestartDelaySeconds = 300
	timing := cfg.Timing()
	assert.Equal(t, 90*time.Second, timing.ValveSettle)
	assert.Equal(t, 300*time.Second, timing.CompRestartDelay)
	assert.Equal(t, 30*time.Second, timing.DecidePeriod)
}

func TestPinsCarryPolarity(t *testing.T) {
	cfg := &Config{GPIO: fullActuators(), RelayActiveHigh: true}
	pins := cfg.Pins()
	assert.Len(t, pins, int(model.NumHardwareItems))
	assert.Equal(t, model.GPIOPin{Number: 8, ActiveHigh: true}, pins[model.ReversingValve])
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	assert.Equal(t, "data/hvac.db", cfg.DBPath)
	assert.Equal(t, 8080, cfg.APIPort)
	assert.Equal(t, 1, cfg.TickIntervalSeconds)
	assert.Equal(t, 15, cfg.SensorPollSeconds)
}
