package actuator

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/jahartley/HvacStateMachine/internal/clock"
	"github.com/jahartley/HvacStateMachine/internal/model"
)

type valveState int

const (
	valveOff valveState = iota
	valveSettlingOn
	valveOn
	valveSettlingOff
)

// ReversingValve switches the refrigerant circuit between cooling and
// heat-pump operation. Both directions hold a settling window so the
// circuit can equalize before compressors run against it.
type ReversingValve struct {
	name   string
	pin    model.GPIOPin
	out    Output
	clk    clock.Clock
	log    zerolog.Logger
	settle int64

	state       valveState
	requested   bool
	settleStart int64
	on          bool
	startedAt   int64
	runMillis   int64
}

func NewReversingValve(name string, pin model.GPIOPin, out Output, clk clock.Clock, log zerolog.Logger, settle time.Duration) *ReversingValve {
	return &ReversingValve{
		name:   name,
		pin:    pin,
		out:    out,
		clk:    clk,
		log:    log,
		settle: settle.Milliseconds(),
		state:  valveOff,
	}
}

func (v *ReversingValve) Name() string { return v.name }

func (v *ReversingValve) Start() {
	if v.state != valveOff && v.state != valveSettlingOff {
		return
	}
	v.state = valveSettlingOn
	v.settleStart = v.clk.NowMillis()
	v.requested = true
	v.log.Info().Str("device", v.name).Msg("Settling toward heat position")
}

func (v *ReversingValve) Stop() {
	if v.state != valveSettlingOn && v.state != valveOn {
		return
	}
	v.state = valveSettlingOff
	v.settleStart = v.clk.NowMillis()
	v.requested = false
	v.log.Info().Str("device", v.name).Msg("Settling toward cool position")
}

func (v *ReversingValve) Tick() {
	now := v.clk.NowMillis()
	// One guard gates both directions: only elapsed time matters, not
	// which way the valve is headed.
	if now < v.settleStart+v.settle {
		return
	}
	switch v.state {
	case valveSettlingOn:
		v.out.Set(v.pin, true)
		if !v.on {
			v.on = true
			v.startedAt = now
		}
		v.state = valveOn
		v.log.Info().Str("device", v.name).Msg("Turned ON")
	case valveSettlingOff:
		v.out.Set(v.pin, false)
		if v.on {
			v.runMillis += now - v.startedAt
			v.on = false
		}
		v.state = valveOff
		v.log.Info().Str("device", v.name).Msg("Turned OFF")
	}
}

// IsOn reports whether the output line is energized. The line stays
// energized through the off-settle window; it drops when that window
// has elapsed and the valve is back in the off state.
func (v *ReversingValve) IsOn() bool { return v.on }

// SettledOn reports whether the valve is in the heat position with its
// settling delay elapsed. Compressor operation is gated on this, not on
// the raw output level.
func (v *ReversingValve) SettledOn() bool { return v.state == valveOn }

func (v *ReversingValve) Requested() bool { return v.requested }

func (v *ReversingValve) Polling() bool {
	return v.state == valveSettlingOn || v.state == valveSettlingOff
}

func (v *ReversingValve) StartTime() int64 { return v.startedAt }

func (v *ReversingValve) RunTime() time.Duration {
	total := v.runMillis
	if v.on {
		total += v.clk.NowMillis() - v.startedAt
	}
	return time.Duration(total) * time.Millisecond
}
