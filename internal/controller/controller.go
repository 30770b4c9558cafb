package controller

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jahartley/HvacStateMachine/internal/actuator"
	"github.com/jahartley/HvacStateMachine/internal/clock"
	"github.com/jahartley/HvacStateMachine/internal/model"
)

// Config carries the construction-time dependencies: the clock and
// output ports, the actuator pin bindings, and the protection timing.
type Config struct {
	Clock  clock.Clock
	Output actuator.Output
	Pins   map[model.HardwareItem]model.GPIOPin
	Timing model.Timing
	// Logger is optional; the controller stays quiet without one.
	Logger *zerolog.Logger
}

// Controller is the supervisor. It owns the actuator drivers, tracks
// setpoints and the measured temperature, and on each Tick services the
// drivers, enacts the current goal mode and (throttled) re-derives it.
//
// The controller is the sole writer of the drivers and of the output
// port; setters may be called from other goroutines and synchronize on
// the internal mutex.
type Controller struct {
	mu  sync.Mutex
	clk clock.Clock
	log zerolog.Logger

	timing model.Timing

	drivers   [model.NumHardwareItems]actuator.Driver
	comp1     *actuator.Compressor
	comp2     *actuator.Compressor
	valve     *actuator.ReversingValve
	gasHeat   *actuator.Relay
	fanLow    *actuator.Relay
	fanHigh   *actuator.Relay
	coachLow  *actuator.Relay
	coachHigh *actuator.Relay

	available [model.NumHardwareItems]bool
	enabled   [model.NumHardwareItems]bool

	systemMode   model.SystemMode
	userFanMode  model.FanMode
	fanMode      model.FanMode
	heatSetpoint int
	coolSetpoint int
	currentTemp  int
	goalMode     model.GoalMode
	nextDecideAt int64
}

func New(cfg Config) *Controller {
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	timing := cfg.Timing
	if timing == (model.Timing{}) {
		timing = model.DefaultTiming()
	}

	c := &Controller{
		clk:          cfg.Clock,
		log:          log,
		timing:       timing,
		systemMode:   model.ModeOff,
		userFanMode:  model.FanModeAuto,
		fanMode:      model.FanModeAuto,
		heatSetpoint: model.DefaultHeatSetpoint,
		coolSetpoint: model.DefaultCoolSetpoint,
		currentTemp:  model.NoTemperature,
		goalMode:     model.GoalOff,
		nextDecideAt: cfg.Clock.NowMillis() + timing.DecidePeriod.Milliseconds(),
	}

	pin := func(item model.HardwareItem) model.GPIOPin {
		return cfg.Pins[item]
	}

	c.comp1 = actuator.NewCompressor(model.Comp1.String(), pin(model.Comp1), cfg.Output, cfg.Clock, log, timing.CompRestartDelay)
	c.comp2 = actuator.NewCompressor(model.Comp2.String(), pin(model.Comp2), cfg.Output, cfg.Clock, log, timing.CompRestartDelay)
	c.valve = actuator.NewReversingValve(model.ReversingValve.String(), pin(model.ReversingValve), cfg.Output, cfg.Clock, log, timing.ValveSettle)
	c.gasHeat = actuator.NewRelay(model.GasHeat.String(), pin(model.GasHeat), cfg.Output, cfg.Clock, log)
	c.fanLow = actuator.NewRelay(model.FanLow.String(), pin(model.FanLow), cfg.Output, cfg.Clock, log)
	c.fanHigh = actuator.NewRelay(model.FanHigh.String(), pin(model.FanHigh), cfg.Output, cfg.Clock, log)
	c.coachLow = actuator.NewRelay(model.CoachHeatLow.String(), pin(model.CoachHeatLow), cfg.Output, cfg.Clock, log)
	c.coachHigh = actuator.NewRelay(model.CoachHeatHigh.String(), pin(model.CoachHeatHigh), cfg.Output, cfg.Clock, log)

	c.drivers = [model.NumHardwareItems]actuator.Driver{
		model.Comp1:          c.comp1,
		model.Comp2:          c.comp2,
		model.GasHeat:        c.gasHeat,
		model.ReversingValve: c.valve,
		model.FanLow:         c.fanLow,
		model.FanHigh:        c.fanHigh,
		model.CoachHeatLow:   c.coachLow,
		model.CoachHeatHigh:  c.coachHigh,
	}

	for i := range c.available {
		c.available[i] = true
		c.enabled[i] = true
	}

	return c
}

// Tick runs one supervisor pass: service every driver, latch the fan
// mode, enact the current goal, then (throttled) re-derive the goal.
// Goal changes made here are enacted starting from the next tick.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, d := range c.drivers {
		d.Tick()
	}
	c.fanMode = c.userFanMode
	c.enactGoal()
	c.decide()
}

func (c *Controller) usable(item model.HardwareItem) bool {
	return c.available[item] && c.enabled[item]
}

func (c *Controller) SetSystemMode(mode model.SystemMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if mode != c.systemMode {
		c.log.Info().Str("from", string(c.systemMode)).Str("to", string(mode)).Msg("System mode changed")
	}
	c.systemMode = mode
}

// SetFanMode overwrites the user fan mode; it is latched into effect on
// the next tick.
func (c *Controller) SetFanMode(mode model.FanMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userFanMode = mode
}

// SetCoolSetpoint rejects values that would collapse the deadband; the
// prior value is retained on failure.
func (c *Controller) SetCoolSetpoint(t int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t < c.heatSetpoint+model.SetpointDeadband {
		c.log.Warn().Int("requested", t).Int("heat_setpoint", c.heatSetpoint).Msg("Rejecting cool setpoint inside deadband")
		return false
	}
	c.coolSetpoint = t
	return true
}

func (c *Controller) SetHeatSetpoint(t int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t+model.SetpointDeadband > c.coolSetpoint {
		c.log.Warn().Int("requested", t).Int("cool_setpoint", c.coolSetpoint).Msg("Rejecting heat setpoint inside deadband")
		return false
	}
	c.heatSetpoint = t
	return true
}

func (c *Controller) SetTemperature(t int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTemp = t
}

// SetAvailable overwrites the system-determined availability flag. A
// true-to-false transition commands the device to stop immediately;
// compressor and valve take their delay paths rather than being yanked.
func (c *Controller) SetAvailable(item model.HardwareItem, available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	was := c.available[item]
	c.available[item] = available
	if was && !available {
		c.log.Info().Str("device", item.String()).Msg("Device no longer available, commanding stop")
		c.drivers[item].Stop()
	}
}

// SetEnabled overwrites the user-permitted flag, with the same stop
// behavior as SetAvailable.
func (c *Controller) SetEnabled(item model.HardwareItem, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	was := c.enabled[item]
	c.enabled[item] = enabled
	if was && !enabled {
		c.log.Info().Str("device", item.String()).Msg("Device disabled, commanding stop")
		c.drivers[item].Stop()
	}
}

func (c *Controller) Mode() model.SystemMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.systemMode
}

func (c *Controller) FanMode() model.FanMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userFanMode
}

func (c *Controller) GoalMode() model.GoalMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.goalMode
}

func (c *Controller) CoolSetpoint() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coolSetpoint
}

func (c *Controller) HeatSetpoint() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.heatSetpoint
}

func (c *Controller) Temperature() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTemp
}

func (c *Controller) IsOn(item model.HardwareItem) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drivers[item].IsOn()
}

func (c *Controller) RunTime(item model.HardwareItem) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drivers[item].RunTime()
}

func (c *Controller) RunTimeSeconds(item model.HardwareItem) int64 {
	return int64(c.RunTime(item).Seconds())
}

func (c *Controller) Available(item model.HardwareItem) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.available[item]
}

func (c *Controller) Enabled(item model.HardwareItem) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled[item]
}
