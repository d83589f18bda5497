package chip

import (
	"github.com/sarchlab/sdramsim/sdram/signal"
)

// Builder can build chips.
type Builder struct {
	geometry signal.Geometry
	timing   Timing
	strict   bool
}

// MakeBuilder creates a builder with the default geometry and timing.
func MakeBuilder() Builder {
	return Builder{
		geometry: signal.Geometry{BankBits: 2, RowBits: 12, ColBits: 8},
		timing:   DefaultTiming(),
	}
}

// WithGeometry sets the number of banks, rows and columns.
func (b Builder) WithGeometry(g signal.Geometry) Builder {
	b.geometry = g
	return b
}

// WithTiming sets the timing constraints.
func (b Builder) WithTiming(t Timing) Builder {
	b.timing = t
	return b
}

// WithStrict makes the chip panic on the first protocol violation.
func (b Builder) WithStrict() Builder {
	b.strict = true
	return b
}

// Build creates a chip.
func (b Builder) Build() *Chip {
	return &Chip{
		geometry: b.geometry,
		timing:   b.timing,
		strict:   b.strict,
		banks:    make([]bank, 1<<uint(b.geometry.BankBits)),
		storage:  make(map[uint32]uint16),
		commands: make(map[signal.Command]uint64),
	}
}
