package controller

import "github.com/jahartley/HvacStateMachine/internal/model"

// decide re-derives the goal hardware mode from the system mode,
// setpoints and measured temperature. Throttled to the decide period so
// staging sequences are not disturbed mid-flight.
func (c *Controller) decide() {
	now := c.clk.NowMillis()
	if now < c.nextDecideAt {
		return
	}
	c.nextDecideAt += c.timing.DecidePeriod.Milliseconds()

	if c.currentTemp == model.NoTemperature {
		c.log.Warn().Msg("No temperature sample yet, skipping goal evaluation")
		return
	}

	goal := c.deriveGoal()
	if goal != c.goalMode {
		c.log.Info().
			Str("from", string(c.goalMode)).
			Str("to", string(goal)).
			Int("temp", c.currentTemp).
			Int("heat_setpoint", c.heatSetpoint).
			Int("cool_setpoint", c.coolSetpoint).
			Msg("Goal mode changed")
		c.goalMode = goal
	}
}

func (c *Controller) deriveGoal() model.GoalMode {
	switch c.systemMode {
	case model.ModeCool:
		return c.coolGoal()
	case model.ModeHeat:
		return c.heatGoal()
	case model.ModeAuto:
		if goal := c.coolGoal(); goal != model.GoalOff {
			return goal
		}
		if goal := c.heatGoal(); goal != model.GoalOff {
			return goal
		}
		return model.GoalOff
	}
	return model.GoalOff
}

func (c *Controller) coolGoal() model.GoalMode {
	switch {
	case c.currentTemp > c.coolSetpoint+1:
		return model.GoalHighCool
	case c.currentTemp > c.coolSetpoint:
		return model.GoalLowCool
	}
	return model.GoalOff
}

func (c *Controller) heatGoal() model.GoalMode {
	switch {
	case c.currentTemp >= c.heatSetpoint:
		return model.GoalOff
	case c.currentTemp >= c.heatSetpoint-1:
		return model.GoalLowHeat
	case c.currentTemp >= c.heatSetpoint-4:
		return model.GoalHighHeat
	}
	return model.GoalMaxHeat
}
