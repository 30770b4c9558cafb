package actuator

import (
	"time"

	"github.com/jahartley/HvacStateMachine/internal/model"
)

// Output is the output port. Set energizes or de-energizes one actuator
// line; polarity mapping happens behind this interface.
type Output interface {
	Set(pin model.GPIOPin, energized bool)
}

// OutputFunc adapts a plain function to the Output port.
type OutputFunc func(pin model.GPIOPin, energized bool)

func (f OutputFunc) Set(pin model.GPIOPin, energized bool) {
	f(pin, energized)
}

// Driver is the closed capability set shared by all three actuator
// variants. Start and Stop are requests; drivers with armed deadlines
// complete transitions in Tick.
type Driver interface {
	Name() string
	Start()
	Stop()
	Tick()
	IsOn() bool
	Requested() bool
	// Polling reports whether a deadline is armed and the driver needs
	// ticking to make progress.
	Polling() bool
	// StartTime is the tick timestamp of the last energizing transition.
	StartTime() int64
	RunTime() time.Duration
}
