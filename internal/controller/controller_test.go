package controller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jahartley/HvacStateMachine/internal/actuator"
	"github.com/jahartley/HvacStateMachine/internal/clock"
	"github.com/jahartley/HvacStateMachine/internal/model"
)

// recordingOutput captures the last commanded level per pin.
type recordingOutput struct {
	levels map[int]bool
}

func newRecordingOutput() *recordingOutput {
	return &recordingOutput{levels: make(map[int]bool)}
}

func (o *recordingOutput) Set(pin model.GPIOPin, energized bool) {
	o.levels[pin.Number] = energized
}

func testPins() map[model.HardwareItem]model.GPIOPin {
	pins := make(map[model.HardwareItem]model.GPIOPin)
	for _, item := range model.Items() {
		pins[item] = model.GPIOPin{Number: 10 + int(item), ActiveHigh: true}
	}
	return pins
}

func newTestController() (*Controller, *clock.Manual, *recordingOutput) {
	clk := clock.NewManual()
	out := newRecordingOutput()
	c := New(Config{
		Clock:  clk,
		Output: actuator.Output(out),
		Pins:   testPins(),
		Timing: model.DefaultTiming(),
	})
	return c, clk, out
}

// tickSeconds advances the clock one second at a time, ticking after
// each step, the way the host loop drives the controller.
func tickSeconds(c *Controller, clk *clock.Manual, n int) {
	for i := 0; i < n; i++ {
		clk.Advance(time.Second)
		c.Tick()
	}
}

func TestDefaults(t *testing.T) {
	c, _, _ := newTestController()

	assert.Equal(t, model.ModeOff, c.Mode())
	assert.Equal(t, model.FanModeAuto, c.FanMode())
	assert.Equal(t, model.GoalOff, c.GoalMode())
	assert.Equal(t, model.DefaultHeatSetpoint, c.HeatSetpoint())
	assert.Equal(t, model.DefaultCoolSetpoint, c.CoolSetpoint())
	assert.Equal(t, model.NoTemperature, c.Temperature())
	for _, item := range model.Items() {
		assert.True(t, c.Available(item))
		assert.True(t, c.Enabled(item))
		assert.False(t, c.IsOn(item))
	}
}

func TestSetpointDeadband(t *testing.T) {
	c, _, _ := newTestController()

	// cool=73, heat=70
	assert.False(t, c.SetHeatSetpoint(72), "heat 72 vs cool 73 collapses the deadband")
	assert.Equal(t, 70, c.HeatSetpoint())

	assert.True(t, c.SetCoolSetpoint(74))
	assert.Equal(t, 74, c.CoolSetpoint())

	assert.True(t, c.SetHeatSetpoint(72), "heat 72 vs cool 74 is exactly the deadband")
	assert.False(t, c.SetCoolSetpoint(73))
	assert.Equal(t, 74, c.CoolSetpoint())

	assert.GreaterOrEqual(t, c.CoolSetpoint()-c.HeatSetpoint(), model.SetpointDeadband)
}

func TestDeriveGoal(t *testing.T) {
	tests := []struct {
		name string
		mode model.SystemMode
		temp int
		want model.GoalMode
	}{
		{"cool well above setpoint", model.ModeCool, 75, model.GoalHighCool},
		{"cool just above setpoint", model.ModeCool, 74, model.GoalLowCool},
		{"cool at setpoint", model.ModeCool, 73, model.GoalOff},
		{"cool below setpoint", model.ModeCool, 60, model.GoalOff},
		{"heat at setpoint", model.ModeHeat, 70, model.GoalOff},
		{"heat one below", model.ModeHeat, 69, model.GoalLowHeat},
		{"heat two below", model.ModeHeat, 68, model.GoalHighHeat},
		{"heat four below", model.ModeHeat, 66, model.GoalHighHeat},
		{"heat five below", model.ModeHeat, 65, model.GoalMaxHeat},
		{"heat far above", model.ModeHeat, 80, model.GoalOff},
		{"auto hot", model.ModeAuto, 76, model.GoalHighCool},
		{"auto slightly warm", model.ModeAuto, 74, model.GoalLowCool},
		{"auto comfortable", model.ModeAuto, 71, model.GoalOff},
		{"auto cold", model.ModeAuto, 64, model.GoalMaxHeat},
		{"off ignores temperature", model.ModeOff, 90, model.GoalOff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newTestController()
			c.systemMode = tt.mode
			c.currentTemp = tt.temp
			assert.Equal(t, tt.want, c.deriveGoal())
		})
	}
}

func TestDecideThrottle(t *testing.T) {
	c, clk, _ := newTestController()
	c.SetSystemMode(model.ModeCool)
	c.SetTemperature(80)

	// Nothing before the first decide deadline.
	tickSeconds(c, clk, 29)
	assert.Equal(t, model.GoalOff, c.GoalMode())

	tickSeconds(c, clk, 1)
	assert.Equal(t, model.GoalHighCool, c.GoalMode())

	// A cooler sample does not take effect until the next period.
	c.SetTemperature(70)
	tickSeconds(c, clk, 29)
	assert.Equal(t, model.GoalHighCool, c.GoalMode())
	tickSeconds(c, clk, 1)
	assert.Equal(t, model.GoalOff, c.GoalMode())
}

func TestDecideSkipsWithoutSample(t *testing.T) {
	c, clk, _ := newTestController()
	c.SetSystemMode(model.ModeHeat)

	tickSeconds(c, clk, 120)
	assert.Equal(t, model.GoalOff, c.GoalMode(), "no sample means no goal change")

	c.SetTemperature(60)
	tickSeconds(c, clk, 30)
	assert.Equal(t, model.GoalMaxHeat, c.GoalMode())
}

func TestFanModeLatchesOnTick(t *testing.T) {
	c, clk, _ := newTestController()
	c.SetFanMode(model.FanModeHigh)
	assert.Equal(t, model.FanModeAuto, c.fanMode, "takes effect on next tick")
	tickSeconds(c, clk, 1)
	assert.Equal(t, model.FanModeHigh, c.fanMode)
}

func TestUserFanRunsWhileGoalOff(t *testing.T) {
	c, clk, _ := newTestController()
	c.SetFanMode(model.FanModeLow)
	tickSeconds(c, clk, 2)
	assert.True(t, c.IsOn(model.FanLow))
	assert.False(t, c.IsOn(model.FanHigh))

	c.SetFanMode(model.FanModeHigh)
	tickSeconds(c, clk, 2)
	assert.False(t, c.IsOn(model.FanLow))
	assert.True(t, c.IsOn(model.FanHigh))

	c.SetFanMode(model.FanModeAuto)
	tickSeconds(c, clk, 2)
	assert.False(t, c.IsOn(model.FanLow))
	assert.False(t, c.IsOn(model.FanHigh))
}

func TestCirculateBehavesAsLow(t *testing.T) {
	c, clk, _ := newTestController()
	c.SetFanMode(model.FanModeCirculate)
	tickSeconds(c, clk, 2)
	assert.True(t, c.IsOn(model.FanLow))
	assert.False(t, c.IsOn(model.FanHigh))
}

func TestFanFallbackWhenStageUnusable(t *testing.T) {
	c, clk, _ := newTestController()
	c.SetAvailable(model.FanLow, false)
	c.SetFanMode(model.FanModeLow)
	tickSeconds(c, clk, 2)
	assert.False(t, c.IsOn(model.FanLow))
	assert.True(t, c.IsOn(model.FanHigh), "low preference falls through to the high stage")

	c.SetAvailable(model.FanHigh, false)
	tickSeconds(c, clk, 2)
	assert.False(t, c.IsOn(model.FanLow))
	assert.False(t, c.IsOn(model.FanHigh))
}

func TestFanStagesNeverBothOn(t *testing.T) {
	c, clk, _ := newTestController()
	c.SetFanMode(model.FanModeLow)
	tickSeconds(c, clk, 2)
	c.SetFanMode(model.FanModeHigh)
	for i := 0; i < 10; i++ {
		tickSeconds(c, clk, 1)
		assert.False(t, c.IsOn(model.FanLow) && c.IsOn(model.FanHigh))
	}
}

func TestHardwareItemRoundTrips(t *testing.T) {
	for _, item := range model.Items() {
		parsed, ok := model.ParseHardwareItem(item.String())
		assert.True(t, ok)
		assert.Equal(t, item, parsed)
	}
	_, ok := model.ParseHardwareItem("flux_capacitor")
	assert.False(t, ok)
}

func TestRunTimeAccounting(t *testing.T) {
	c, clk, _ := newTestController()
	c.SetFanMode(model.FanModeLow)
	tickSeconds(c, clk, 1)
	tickSeconds(c, clk, 90)
	assert.Equal(t, int64(90), c.RunTimeSeconds(model.FanLow))
	assert.Equal(t, int64(0), c.RunTimeSeconds(model.Comp1))
}
