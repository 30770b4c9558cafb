package startup

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jahartley/HvacStateMachine/internal/config"
	"github.com/jahartley/HvacStateMachine/internal/model"
)

// WriteStartupScript generates the boot-time pin configuration script
// so the relay board comes up with every actuator inactive before this
// service starts, and the sense lines are inputs.
func WriteStartupScript(cfg *config.Config, path string) error {
	var lines []string
	lines = append(lines, "#!/bin/bash", "", "# HVAC GPIO pin configuration at boot", "")

	write := func(label string, pin model.GPIOPin) {
		drive := "dl"
		if !pin.ActiveHigh {
			drive = "dh"
		}
		lines = append(lines, fmt.Sprintf("# %s", label))
		lines = append(lines, fmt.Sprintf("pinctrl set %d op pn %s", pin.Number, drive))
		lines = append(lines, "")
	}

	pins := cfg.Pins()
	for _, item := range model.Items() {
		write(item.String(), pins[item])
	}

	lines = append(lines, "# sense inputs")
	lines = append(lines, fmt.Sprintf("pinctrl set %d ip pu", *cfg.Sense.ShorePower))
	lines = append(lines, fmt.Sprintf("pinctrl set %d ip pu", *cfg.Sense.CoolantHot))
	lines = append(lines, "")

	script := strings.Join(lines, "\n")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		return fmt.Errorf("failed to write startup script: %w", err)
	}

	log.Info().Str("path", path).Msg("Startup pin script written")
	return nil
}
