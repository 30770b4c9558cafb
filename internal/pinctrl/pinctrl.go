package pinctrl

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Thin wrapper over the Raspberry Pi `pinctrl` utility. Levels here are
// raw logic levels; polarity mapping lives in the gpio package.

// ReadLevel samples one pin's logic level via `pinctrl lev <pin>`.
func ReadLevel(pin int) (bool, error) {
	out, err := exec.Command("pinctrl", "lev", strconv.Itoa(pin)).Output()
	if err != nil {
		return false, fmt.Errorf("pinctrl lev %d: %w", pin, err)
	}
	switch strings.TrimSpace(string(out)) {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return false, fmt.Errorf("pinctrl lev %d: unparseable output %q", pin, strings.TrimSpace(string(out)))
}

// SetPin applies pinctrl set options to the pin.
// Example: SetPin(10, "op", "pn", "dh") makes pin 10 an output driven
// high with no pull.
func SetPin(pin int, opts ...string) error {
	args := append([]string{"set", strconv.Itoa(pin)}, opts...)
	if out, err := exec.Command("pinctrl", args...).CombinedOutput(); err != nil {
		return fmt.Errorf("pinctrl set %d %s: %w (%s)", pin, strings.Join(opts, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// SetInput configures a pin as a pulled-up input for sense lines.
func SetInput(pin int) error {
	return SetPin(pin, "ip", "pu")
}
