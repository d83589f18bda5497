// Package clkdiv derives the active edge of the SDRAM clock from the faster
// input clock.
package clkdiv

import "fmt"

// A Divider produces an active edge once every Ratio input ticks.
type Divider struct {
	ratio int
	count int
}

// ValidRatio tells if the ratio is one the divider supports.
func ValidRatio(ratio int) bool {
	return ratio == 2 || ratio == 4 || ratio == 8
}

// New creates a divider. Only divide-by-2, 4 and 8 are supported.
func New(ratio int) (*Divider, error) {
	if !ValidRatio(ratio) {
		return nil, fmt.Errorf("unsupported clock divider ratio %d", ratio)
	}

	return &Divider{ratio: ratio}, nil
}

// Ratio returns the divide ratio.
func (d *Divider) Ratio() int {
	return d.ratio
}

// Tick advances the divider by one input tick and reports if the tick is an
// active edge. The first active edge is the ratio-th input tick.
func (d *Divider) Tick() bool {
	d.count++
	if d.count == d.ratio {
		d.count = 0
		return true
	}

	return false
}

// TicksToEdge returns how many input ticks remain before the next active
// edge, counting the edge itself.
func (d *Divider) TicksToEdge() int {
	return d.ratio - d.count
}

// Reset makes the next active edge happen Ratio ticks from now.
func (d *Divider) Reset() {
	d.count = 0
}
