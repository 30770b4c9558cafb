package model

import "time"

type SystemMode string

const (
	ModeOff  SystemMode = "off"
	ModeCool SystemMode = "cool"
	ModeHeat SystemMode = "heat"
	ModeAuto SystemMode = "auto"
)

func ParseSystemMode(s string) (SystemMode, bool) {
	switch SystemMode(s) {
	case ModeOff, ModeCool, ModeHeat, ModeAuto:
		return SystemMode(s), true
	}
	return ModeOff, false
}

type FanMode string

const (
	FanModeAuto FanMode = "auto"
	FanModeLow  FanMode = "low"
	FanModeHigh FanMode = "high"
	// FanModeCirculate currently behaves as low. Continuous airflow while
	// the goal is off is deferred until the duct damper rework lands.
	FanModeCirculate FanMode = "circulate"
)

func ParseFanMode(s string) (FanMode, bool) {
	switch FanMode(s) {
	case FanModeAuto, FanModeLow, FanModeHigh, FanModeCirculate:
		return FanMode(s), true
	}
	return FanModeAuto, false
}

// GoalMode is the hardware operating target chosen by the supervisor.
// Distinct from SystemMode, which is what the user asked for.
type GoalMode string

const (
	GoalOff      GoalMode = "off"
	GoalLowCool  GoalMode = "low_cool"
	GoalHighCool GoalMode = "high_cool"
	GoalLowHeat  GoalMode = "low_heat"
	GoalHighHeat GoalMode = "high_heat"
	GoalMaxHeat  GoalMode = "max_heat"
	GoalLowFan   GoalMode = "low_fan"
	GoalHighFan  GoalMode = "high_fan"
)

// HardwareItem identifies one physical actuator. The set is closed;
// availability and enabled flags are keyed by it.
type HardwareItem int

const (
	Comp1 HardwareItem = iota
	Comp2
	GasHeat
	ReversingValve
	FanLow
	FanHigh
	CoachHeatLow
	CoachHeatHigh

	NumHardwareItems
)

var itemNames = [NumHardwareItems]string{
	Comp1:          "compressor_1",
	Comp2:          "compressor_2",
	GasHeat:        "gas_heat",
	ReversingValve: "reversing_valve",
	FanLow:         "fan_low",
	FanHigh:        "fan_high",
	CoachHeatLow:   "coach_heat_low",
	CoachHeatHigh:  "coach_heat_high",
}

func (h HardwareItem) String() string {
	if h < 0 || h >= NumHardwareItems {
		return "unknown"
	}
	return itemNames[h]
}

// Items returns every hardware item in declaration order.
func Items() []HardwareItem {
	items := make([]HardwareItem, NumHardwareItems)
	for i := range items {
		items[i] = HardwareItem(i)
	}
	return items
}

// ParseHardwareItem resolves a device name as used by the API and the db.
func ParseHardwareItem(s string) (HardwareItem, bool) {
	for i, name := range itemNames {
		if name == s {
			return HardwareItem(i), true
		}
	}
	return 0, false
}

type GPIOPin struct {
	Number     int  `json:"pin"`
	ActiveHigh bool `json:"active_high"`
}

// NoTemperature is the sentinel meaning no sample has arrived yet.
const NoTemperature = -128

// Timing holds the electromechanical protection intervals.
type Timing struct {
	DecidePeriod     time.Duration
	FanToCompDelay   time.Duration
	CompStagger      time.Duration
	CompRestartDelay time.Duration
	ValveSettle      time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		DecidePeriod:     30 * time.Second,
		FanToCompDelay:   15 * time.Second,
		CompStagger:      15 * time.Second,
		CompRestartDelay: 120 * time.Second,
		ValveSettle:      60 * time.Second,
	}
}

const (
	DefaultHeatSetpoint = 70
	DefaultCoolSetpoint = 73

	// SetpointDeadband is the minimum gap between the cooling and heating
	// setpoints so auto mode cannot fight itself.
	SetpointDeadband = 2
)
