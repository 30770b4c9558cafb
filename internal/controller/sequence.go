package controller

import "github.com/jahartley/HvacStateMachine/internal/model"

// fanPreference is the requested fan behavior for one sequencing pass.
type fanPreference int

const (
	fanNone fanPreference = iota
	fanPreferLow
	fanPreferHigh
)

func (c *Controller) enactGoal() {
	switch c.goalMode {
	case model.GoalOff:
		c.enactOff(c.userFanPreference())
	case model.GoalLowFan:
		c.enactOff(fanPreferLow)
	case model.GoalHighFan:
		c.enactOff(fanPreferHigh)
	case model.GoalLowCool:
		c.enactCool(fanPreferLow, false)
	case model.GoalHighCool:
		c.enactCool(fanPreferHigh, true)
	case model.GoalLowHeat:
		c.enactLowHeat()
	case model.GoalHighHeat:
		c.enactHighHeat()
	case model.GoalMaxHeat:
		c.enactMaxHeat()
	}
}

func (c *Controller) userFanPreference() fanPreference {
	switch c.fanMode {
	case model.FanModeLow, model.FanModeCirculate:
		return fanPreferLow
	case model.FanModeHigh:
		return fanPreferHigh
	}
	return fanNone
}

// applyFanSelection picks a fan stage for the requested behavior,
// falling through to the other stage when the preferred one is not
// usable. The outgoing stage always stops before the incoming starts.
func (c *Controller) applyFanSelection(pref fanPreference) {
	switch pref {
	case fanPreferLow:
		if c.usable(model.FanLow) {
			c.fanHigh.Stop()
			c.fanLow.Start()
		} else if c.usable(model.FanHigh) {
			c.fanLow.Stop()
			c.fanHigh.Start()
		} else {
			c.fanLow.Stop()
			c.fanHigh.Stop()
		}
	case fanPreferHigh:
		if c.usable(model.FanHigh) {
			c.fanLow.Stop()
			c.fanHigh.Start()
		} else if c.usable(model.FanLow) {
			c.fanHigh.Stop()
			c.fanLow.Start()
		} else {
			c.fanLow.Stop()
			c.fanHigh.Stop()
		}
	default:
		c.fanLow.Stop()
		c.fanHigh.Stop()
	}
}

// fansReady reports whether a fan stage has moved air continuously for
// long enough to admit a compressor start.
func (c *Controller) fansReady() bool {
	now := c.clk.NowMillis()
	delay := c.timing.FanToCompDelay.Milliseconds()
	if c.fanLow.IsOn() && now-c.fanLow.StartTime() >= delay {
		return true
	}
	if c.fanHigh.IsOn() && now-c.fanHigh.StartTime() >= delay {
		return true
	}
	return false
}

func (c *Controller) staggerMet() bool {
	return c.comp1.IsOn() &&
		c.clk.NowMillis()-c.comp1.StartTime() >= c.timing.CompStagger.Milliseconds()
}

func (c *Controller) enactOff(pref fanPreference) {
	c.gasHeat.Stop()
	c.coachHigh.Stop()
	c.coachLow.Stop()
	c.comp2.Stop()
	c.comp1.Stop()
	if c.valve.IsOn() || c.valve.Requested() {
		// Valve settling does not need the compressors; let it close on
		// subsequent ticks before resuming fan handling.
		if !c.comp1.IsOn() && !c.comp2.IsOn() {
			c.valve.Stop()
		}
		return
	}
	c.applyFanSelection(pref)
}

func (c *Controller) enactCool(pref fanPreference, twoStage bool) {
	c.gasHeat.Stop()
	c.coachHigh.Stop()
	c.coachLow.Stop()
	if !twoStage {
		c.comp2.Stop()
	}
	if c.valve.IsOn() || c.valve.Requested() {
		// Still in or headed for the heat position: compressors must
		// not run until the valve has swung back and settled.
		c.comp1.Stop()
		c.comp2.Stop()
		if !c.comp1.IsOn() && !c.comp2.IsOn() {
			c.valve.Stop()
		}
		return
	}
	c.applyFanSelection(pref)
	if !c.usable(model.FanLow) && !c.usable(model.FanHigh) {
		// No airflow possible: compressors may not run.
		c.comp2.Stop()
		c.comp1.Stop()
		return
	}
	if !c.fansReady() {
		return
	}
	if !c.comp1.IsOn() {
		if c.usable(model.Comp1) {
			c.comp1.Start()
		}
		return
	}
	if twoStage && c.usable(model.Comp2) && c.staggerMet() {
		c.comp2.Start()
	}
}

// enactHeatPump runs the reversing-valve heating path: valve into the
// heat position, settled, fans moving, then staged compressors.
func (c *Controller) enactHeatPump(pref fanPreference, twoStage bool) {
	c.gasHeat.Stop()
	c.coachHigh.Stop()
	c.coachLow.Stop()
	if !twoStage {
		c.comp2.Stop()
	}
	if !c.valve.SettledOn() {
		c.comp1.Stop()
		c.comp2.Stop()
		if !c.comp1.IsOn() && !c.comp2.IsOn() {
			c.valve.Start()
		}
	}
	c.applyFanSelection(pref)
	if !c.usable(model.FanLow) && !c.usable(model.FanHigh) {
		c.comp2.Stop()
		c.comp1.Stop()
		return
	}
	if !c.fansReady() || !c.valve.SettledOn() {
		return
	}
	if !c.comp1.IsOn() {
		if c.usable(model.Comp1) {
			c.comp1.Start()
		}
		return
	}
	if twoStage && c.usable(model.Comp2) && c.staggerMet() {
		c.comp2.Start()
	}
}

// enactLowHeat walks the low-heat priority ladder: coolant coach heat
// first, then the heat pump, then off-with-fans.
func (c *Controller) enactLowHeat() {
	if c.usable(model.CoachHeatLow) {
		c.comp2.Stop()
		c.comp1.Stop()
		c.valve.Stop()
		c.gasHeat.Stop()
		c.coachHigh.Stop()
		c.coachLow.Start()
		c.applyFanSelection(c.userFanPreference())
		return
	}
	if c.usable(model.ReversingValve) {
		c.enactHeatPump(fanPreferLow, false)
		return
	}
	c.enactOff(c.userFanPreference())
}

// enactHighHeat priority ladder: coach heat high, heat pump with both
// compressors, gas furnace, off-with-fans.
func (c *Controller) enactHighHeat() {
	if c.usable(model.CoachHeatHigh) {
		c.comp2.Stop()
		c.comp1.Stop()
		c.valve.Stop()
		c.gasHeat.Stop()
		c.coachLow.Stop()
		c.coachHigh.Start()
		c.applyFanSelection(c.userFanPreference())
		return
	}
	if c.usable(model.ReversingValve) {
		c.enactHeatPump(fanPreferHigh, true)
		return
	}
	if c.usable(model.GasHeat) {
		c.comp2.Stop()
		c.comp1.Stop()
		c.valve.Stop()
		c.coachHigh.Stop()
		c.coachLow.Stop()
		c.gasHeat.Start()
		c.applyFanSelection(c.userFanPreference())
		return
	}
	c.enactOff(c.userFanPreference())
}

// enactMaxHeat runs every usable heat source in parallel. Compressors
// only join once the valve is in the heat position and fans are moving.
func (c *Controller) enactMaxHeat() {
	if !c.valve.SettledOn() {
		c.comp2.Stop()
		c.comp1.Stop()
	}
	if c.usable(model.CoachHeatHigh) {
		c.coachLow.Stop()
		c.coachHigh.Start()
	} else if c.usable(model.CoachHeatLow) && !c.coachHigh.IsOn() {
		c.coachLow.Start()
	}
	if c.usable(model.GasHeat) {
		c.gasHeat.Start()
	}
	if c.usable(model.ReversingValve) && !c.valve.SettledOn() && !c.valve.Requested() {
		c.comp2.Stop()
		c.comp1.Stop()
		if !c.comp1.IsOn() && !c.comp2.IsOn() {
			c.valve.Start()
		}
		return
	}
	fansUsable := c.usable(model.FanLow) || c.usable(model.FanHigh)
	if !fansUsable || !c.valve.SettledOn() {
		c.comp2.Stop()
		c.comp1.Stop()
		c.fanLow.Stop()
		c.fanHigh.Stop()
		return
	}
	c.applyFanSelection(fanPreferHigh)
	if !c.fansReady() {
		return
	}
	if !c.comp1.IsOn() {
		if c.usable(model.Comp1) {
			c.comp1.Start()
		}
		return
	}
	if c.usable(model.Comp2) && c.staggerMet() {
		c.comp2.Start()
	}
}
