package availability

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jahartley/HvacStateMachine/internal/model"
	"github.com/jahartley/HvacStateMachine/internal/notifications"
	"github.com/jahartley/HvacStateMachine/internal/pinctrl"
)

// Setter is the slice of the controller the monitor drives.
type Setter interface {
	SetAvailable(item model.HardwareItem, available bool)
}

// shorePowerItems need mains AC from shore hookup or generator.
var shorePowerItems = []model.HardwareItem{
	model.Comp1,
	model.Comp2,
	model.ReversingValve,
}

// coolantItems need hot engine coolant circulating.
var coolantItems = []model.HardwareItem{
	model.CoachHeatLow,
	model.CoachHeatHigh,
}

// Monitor polls the host sense inputs and feeds availability into the
// controller. Fans and the gas furnace run off the coach battery and
// stay available; operators take them out via the enabled flags.
type Monitor struct {
	ctrl       Setter
	shorePin   int
	coolantPin int
	poll       time.Duration

	shorePower bool
	coolantHot bool
	primed     bool
}

// Seam for tests.
var readLevel = pinctrl.ReadLevel

func New(ctrl Setter, shorePin, coolantPin int, pollSeconds int) *Monitor {
	return &Monitor{
		ctrl:       ctrl,
		shorePin:   shorePin,
		coolantPin: coolantPin,
		poll:       time.Duration(pollSeconds) * time.Second,
	}
}

func (m *Monitor) Run(ctx context.Context) {
	log.Info().Int("shore_pin", m.shorePin).Int("coolant_pin", m.coolantPin).Msg("Starting availability monitor")

	if err := pinctrl.SetInput(m.shorePin); err != nil {
		log.Error().Err(err).Msg("Failed to configure shore power sense pin")
	}
	if err := pinctrl.SetInput(m.coolantPin); err != nil {
		log.Error().Err(err).Msg("Failed to configure coolant sense pin")
	}

	m.Poll()

	ticker := time.NewTicker(m.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Shutting down availability monitor")
			return
		case <-ticker.C:
			m.Poll()
		}
	}
}

// Poll reads both sense inputs once and applies any transitions.
func (m *Monitor) Poll() {
	shore, err := readLevel(m.shorePin)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read shore power sense")
	} else {
		m.applyShore(shore)
	}

	coolant, err := readLevel(m.coolantPin)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read coolant sense")
	} else {
		m.applyCoolant(coolant)
	}
	m.primed = true
}

func (m *Monitor) applyShore(present bool) {
	if m.primed && present == m.shorePower {
		return
	}
	m.shorePower = present
	log.Info().Bool("present", present).Msg("Shore power state")
	for _, item := range shorePowerItems {
		m.ctrl.SetAvailable(item, present)
	}
	if m.primed && !present {
		notifications.Send("HVAC on battery", "Shore power lost; compressors and heat pump held off")
	}
}

func (m *Monitor) applyCoolant(hot bool) {
	if m.primed && hot == m.coolantHot {
		return
	}
	m.coolantHot = hot
	log.Info().Bool("hot", hot).Msg("Engine coolant state")
	for _, item := range coolantItems {
		m.ctrl.SetAvailable(item, hot)
	}
}
