package shutdown

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/jahartley/HvacStateMachine/internal/gpio"
	"github.com/jahartley/HvacStateMachine/internal/model"
)

// Shutdown drives every actuator pin inactive and exits. Called from
// the signal path; relays must never be left energized by a dying
// process.
func Shutdown(pins map[model.HardwareItem]model.GPIOPin) {
	gpio.DeactivateAll(pins)
	log.Info().Msg("All actuator outputs deactivated")
	os.Exit(0)
}

func ShutdownWithError(pins map[model.HardwareItem]model.GPIOPin, err error, msg string) {
	log.Error().Err(err).Msg(msg)
	gpio.DeactivateAll(pins)
	os.Exit(1)
}
