package actuator

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/jahartley/HvacStateMachine/internal/clock"
	"github.com/jahartley/HvacStateMachine/internal/model"
)

type compressorState int

const (
	compStopped compressorState = iota
	compWaiting
	compRunning
)

// Compressor enforces a minimum off-time between energizations. A start
// request arms the restart deadline; the output only energizes once the
// guard is satisfied during Tick.
type Compressor struct {
	name         string
	pin          model.GPIOPin
	out          Output
	clk          clock.Clock
	log          zerolog.Logger
	restartDelay int64

	state       compressorState
	delayActive bool
	startedAt   int64
	stoppedAt   int64
	runMillis   int64
}

func NewCompressor(name string, pin model.GPIOPin, out Output, clk clock.Clock, log zerolog.Logger, restartDelay time.Duration) *Compressor {
	return &Compressor{
		name:         name,
		pin:          pin,
		out:          out,
		clk:          clk,
		log:          log,
		restartDelay: restartDelay.Milliseconds(),
		state:        compStopped,
		// The restart guard applies to the very first start too; treat
		// boot as the last stop.
		stoppedAt: clk.NowMillis(),
	}
}

func (c *Compressor) Name() string { return c.name }

func (c *Compressor) Start() {
	if c.state != compStopped {
		return
	}
	c.state = compWaiting
	c.delayActive = true
	c.log.Debug().Str("device", c.name).Msg("Start requested, restart guard armed")
}

func (c *Compressor) Stop() {
	switch c.state {
	case compWaiting:
		c.state = compStopped
		c.delayActive = false
	case compRunning:
		now := c.clk.NowMillis()
		c.out.Set(c.pin, false)
		c.runMillis += now - c.startedAt
		c.stoppedAt = now
		c.state = compStopped
		c.log.Info().Str("device", c.name).Msg("Turned OFF")
	}
}

func (c *Compressor) Tick() {
	if c.state != compWaiting {
		return
	}
	now := c.clk.NowMillis()
	if now < c.stoppedAt+c.restartDelay {
		c.delayActive = true
		return
	}
	c.out.Set(c.pin, true)
	c.startedAt = now
	c.state = compRunning
	c.delayActive = false
	c.log.Info().Str("device", c.name).Msg("Turned ON")
}

func (c *Compressor) IsOn() bool { return c.state == compRunning }

func (c *Compressor) Requested() bool { return c.state != compStopped }

func (c *Compressor) Polling() bool { return c.delayActive }

func (c *Compressor) StartTime() int64 { return c.startedAt }

func (c *Compressor) StopTime() int64 { return c.stoppedAt }

func (c *Compressor) RunTime() time.Duration {
	total := c.runMillis
	if c.state == compRunning {
		total += c.clk.NowMillis() - c.startedAt
	}
	return time.Duration(total) * time.Millisecond
}
