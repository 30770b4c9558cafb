package gpio

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jahartley/HvacStateMachine/internal/model"
)

func stubSetPin(calls *[]string) func(int, ...string) error {
	return func(pin int, opts ...string) error {
		call := fmt.Sprint(pin)
		for _, o := range opts {
			call += " " + o
		}
		*calls = append(*calls, call)
		return nil
	}
}

func TestActivatePolarity(t *testing.T) {
	origSet := setPin
	defer func() { setPin = origSet; SetSafeMode(false) }()

	var calls []string
	setPin = stubSetPin(&calls)

	Activate(model.GPIOPin{Number: 5, ActiveHigh: true})
	Activate(model.GPIOPin{Number: 6, ActiveHigh: false})
	Deactivate(model.GPIOPin{Number: 5, ActiveHigh: true})
	Deactivate(model.GPIOPin{Number: 6, ActiveHigh: false})

	assert.Equal(t, []string{
		"5 op pn dh",
		"6 op pn dl",
		"5 op pn dl",
		"6 op pn dh",
	}, calls)
}

func TestSafeModeSuppressesWrites(t *testing.T) {
	origSet := setPin
	defer func() { setPin = origSet; SetSafeMode(false) }()

	var calls []string
	setPin = stubSetPin(&calls)

	SetSafeMode(true)
	Activate(model.GPIOPin{Number: 5, ActiveHigh: true})
	Deactivate(model.GPIOPin{Number: 5, ActiveHigh: true})
	Sink{}.Set(model.GPIOPin{Number: 5, ActiveHigh: true}, true)

	assert.Empty(t, calls)
}

func TestCurrentlyActive(t *testing.T) {
	origRead := readPinLevel
	defer func() { readPinLevel = origRead }()

	readPinLevel = func(pin int) (bool, error) { return true, nil }
	assert.True(t, CurrentlyActive(model.GPIOPin{Number: 1, ActiveHigh: true}))
	assert.False(t, CurrentlyActive(model.GPIOPin{Number: 1, ActiveHigh: false}))

	readPinLevel = func(pin int) (bool, error) { return false, nil }
	assert.False(t, CurrentlyActive(model.GPIOPin{Number: 1, ActiveHigh: true}))
	assert.True(t, CurrentlyActive(model.GPIOPin{Number: 1, ActiveHigh: false}))
}

func TestValidateInitialPinStates(t *testing.T) {
	origRead := readPinLevel
	defer func() { readPinLevel = origRead }()

	pins := map[model.HardwareItem]model.GPIOPin{
		model.Comp1:  {Number: 5, ActiveHigh: true},
		model.FanLow: {Number: 9, ActiveHigh: true},
	}

	// All low, active-high board: safe.
	readPinLevel = func(pin int) (bool, error) { return false, nil }
	assert.NoError(t, ValidateInitialPinStates(pins))

	// Pin 9 stuck high: the fan relay would be energized at boot.
	readPinLevel = func(pin int) (bool, error) { return pin == 9, nil }
	err := ValidateInitialPinStates(pins)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pin 9")
}

func TestSinkDrivesLevels(t *testing.T) {
	origSet := setPin
	defer func() { setPin = origSet }()

	var calls []string
	setPin = stubSetPin(&calls)

	sink := Sink{}
	sink.Set(model.GPIOPin{Number: 7, ActiveHigh: true}, true)
	sink.Set(model.GPIOPin{Number: 7, ActiveHigh: true}, false)

	assert.Equal(t, []string{"7 op pn dh", "7 op pn dl"}, calls)
}
