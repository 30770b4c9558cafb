package gpio

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jahartley/HvacStateMachine/internal/model"
	"github.com/jahartley/HvacStateMachine/internal/pinctrl"
)

var safeMode bool

// SetSafeMode disables all output writes system-wide; reads still work.
func SetSafeMode(enabled bool) {
	safeMode = enabled
}

// Seams for tests.
var (
	readPinLevel = pinctrl.ReadLevel
	setPin       = pinctrl.SetPin
)

var Activate = func(pin model.GPIOPin) {
	if safeMode {
		return
	}
	drive := "dh"
	if !pin.ActiveHigh {
		drive = "dl"
	}
	if err := setPin(pin.Number, "op", "pn", drive); err != nil {
		log.Error().Err(err).Int("pin", pin.Number).Msg("Failed to activate pin")
	}
}

var Deactivate = func(pin model.GPIOPin) {
	if safeMode {
		return
	}
	drive := "dl"
	if !pin.ActiveHigh {
		drive = "dh"
	}
	if err := setPin(pin.Number, "op", "pn", drive); err != nil {
		log.Error().Err(err).Int("pin", pin.Number).Msg("Failed to deactivate pin")
	}
}

// Read returns the logic level of a pin.
func Read(pin model.GPIOPin) (bool, error) {
	return readPinLevel(pin.Number)
}

// CurrentlyActive reports whether the pin is at its energized level.
var CurrentlyActive = func(pin model.GPIOPin) bool {
	level, err := readPinLevel(pin.Number)
	if err != nil {
		log.Error().Err(err).Int("pin", pin.Number).Msg("Failed to read pin level")
		return false
	}
	return pin.ActiveHigh == level
}

// Sink is the controller's output port over the relay board.
type Sink struct{}

func (Sink) Set(pin model.GPIOPin, energized bool) {
	if energized {
		Activate(pin)
		return
	}
	Deactivate(pin)
}

// ValidateInitialPinStates refuses startup if any actuator pin is
// already energized; the relay board must come up with everything off.
func ValidateInitialPinStates(pins map[model.HardwareItem]model.GPIOPin) error {
	for item, pin := range pins {
		level, err := readPinLevel(pin.Number)
		if err != nil {
			return fmt.Errorf("failed to read pin level for %s (GPIO %d): %w", item, pin.Number, err)
		}
		if pin.ActiveHigh == level {
			return fmt.Errorf("pin %d (%s) is energized at startup", pin.Number, item)
		}
	}
	return nil
}

// DeactivateAll drives every actuator pin to its inactive level. Used
// by the shutdown path.
func DeactivateAll(pins map[model.HardwareItem]model.GPIOPin) {
	for item, pin := range pins {
		log.Debug().Str("device", item.String()).Int("pin", pin.Number).Msg("Driving pin inactive")
		Deactivate(pin)
	}
}
