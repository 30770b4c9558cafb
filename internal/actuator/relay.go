package actuator

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/jahartley/HvacStateMachine/internal/clock"
	"github.com/jahartley/HvacStateMachine/internal/model"
)

// Relay drives a plain on/off actuator: fan stages, the gas heater and
// the coach heat stages. Transitions take effect immediately.
type Relay struct {
	name string
	pin  model.GPIOPin
	out  Output
	clk  clock.Clock
	log  zerolog.Logger

	on        bool
	requested bool
	startedAt int64
	stoppedAt int64
	runMillis int64
}

func NewRelay(name string, pin model.GPIOPin, out Output, clk clock.Clock, log zerolog.Logger) *Relay {
	return &Relay{
		name: name,
		pin:  pin,
		out:  out,
		clk:  clk,
		log:  log,
	}
}

func (r *Relay) Name() string { return r.name }

func (r *Relay) Start() {
	r.requested = true
	if r.on {
		return
	}
	r.out.Set(r.pin, true)
	r.on = true
	r.startedAt = r.clk.NowMillis()
	r.log.Info().Str("device", r.name).Msg("Turned ON")
}

func (r *Relay) Stop() {
	r.requested = false
	if !r.on {
		return
	}
	now := r.clk.NowMillis()
	r.out.Set(r.pin, false)
	r.runMillis += now - r.startedAt
	r.stoppedAt = now
	r.on = false
	r.log.Info().Str("device", r.name).Msg("Turned OFF")
}

func (r *Relay) Tick() {}

func (r *Relay) IsOn() bool { return r.on }

func (r *Relay) Requested() bool { return r.requested }

func (r *Relay) Polling() bool { return false }

func (r *Relay) StartTime() int64 { return r.startedAt }

func (r *Relay) StopTime() int64 { return r.stoppedAt }

func (r *Relay) RunTime() time.Duration {
	total := r.runMillis
	if r.on {
		total += r.clk.NowMillis() - r.startedAt
	}
	return time.Duration(total) * time.Millisecond
}
