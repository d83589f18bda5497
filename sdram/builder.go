package sdram

import (
	"log"
	"os"

	"github.com/sarchlab/sdramsim/sdram/internal/clkdiv"
	"github.com/sarchlab/sdramsim/sdram/internal/fsm"
	"github.com/sarchlab/sdramsim/sdram/internal/refresh"
	"github.com/sarchlab/sdramsim/sim"
)

// Builder can build SDRAM controllers.
type Builder struct {
	engine   sim.Engine
	config   Config
	device   Device
	maxEdges uint64
	hooks    []sim.Hook
}

// MakeBuilder creates a builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		config: DefaultConfig(),
	}
}

// WithEngine sets the engine that the controller uses.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithConfig replaces the whole configuration.
func (b Builder) WithConfig(c Config) Builder {
	b.config = c
	return b
}

// WithSystemFreq sets the SDRAM clock frequency.
func (b Builder) WithSystemFreq(f sim.Freq) Builder {
	b.config.SystemFreq = f
	return b
}

// WithRefreshFreq sets the rate of refresh requests.
func (b Builder) WithRefreshFreq(f sim.Freq) Builder {
	b.config.RefreshFreq = f
	return b
}

// WithRefreshCyclesPerRequest sets how many refresh cycles are issued for
// each refresh request.
func (b Builder) WithRefreshCyclesPerRequest(n int) Builder {
	b.config.RefreshCyclesPerRequest = n
	return b
}

// WithPowerUpRefreshCount sets the number of refresh cycles issued before
// the controller accepts requests.
func (b Builder) WithPowerUpRefreshCount(n int) Builder {
	b.config.PowerUpRefreshCount = n
	return b
}

// WithDivider selects the ratio between the input clock and the SDRAM
// clock. The ratio must be 2, 4, or 8.
func (b Builder) WithDivider(ratio int) Builder {
	b.config.DivideBy2 = ratio == 2
	b.config.DivideBy4 = ratio == 4
	b.config.DivideBy8 = ratio == 8

	return b
}

// WithDevice sets the memory device driven by the controller.
func (b Builder) WithDevice(d Device) Builder {
	b.device = d
	return b
}

// WithMaxEdges makes the controller stop after n active edges. Zero means
// the controller never stops by itself.
func (b Builder) WithMaxEdges(n uint64) Builder {
	b.maxEdges = n
	return b
}

// WithAdditionalHooks adds hooks to the controller.
func (b Builder) WithAdditionalHooks(hooks ...sim.Hook) Builder {
	b.hooks = append(b.hooks, hooks...)
	return b
}

// Build creates a controller. It panics if the configuration is invalid.
func (b Builder) Build(name string) *Comp {
	if b.engine == nil {
		log.Panic("engine is not set")
	}

	if err := b.config.Validate(); err != nil {
		log.Panicf("cannot build %s: %v", name, err)
	}

	c := &Comp{
		config:   b.config,
		device:   b.device,
		maxEdges: b.maxEdges,
	}
	c.TickingComponent = sim.NewTickingComponent(
		name, b.engine, b.config.InputFreq(), c)

	var err error
	c.divider, err = clkdiv.New(b.config.DividerRatio())
	if err != nil {
		log.Panic(err)
	}

	c.timer, err = refresh.NewTimer(
		b.config.RefreshInterval(), b.config.RefreshCounterWidth)
	if err != nil {
		log.Panic(err)
	}

	c.seq, err = fsm.New(b.config.sequencerParams())
	if err != nil {
		log.Panic(err)
	}

	c.pins = c.seq.Pins()

	if b.config.ShowDebug {
		c.AcceptHook(NewEdgeLogger(log.New(os.Stderr, name+" ", 0)))
	}

	for _, h := range b.hooks {
		c.AcceptHook(h)
	}

	c.TickLater()

	return c
}
