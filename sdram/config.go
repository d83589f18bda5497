package sdram

import (
	"errors"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/sarchlab/sdramsim/sdram/internal/clkdiv"
	"github.com/sarchlab/sdramsim/sdram/internal/fsm"
	"github.com/sarchlab/sdramsim/sdram/signal"
	"github.com/sarchlab/sdramsim/sim"
)

// Configuration errors.
var (
	ErrZeroRefreshInterval = errors.New("refresh interval is zero")
	ErrDividerSelection    = errors.New("exactly one clock divider must be selected")
	ErrIntervalOverflow    = errors.New("refresh interval does not fit the counter")
	ErrIntervalTooShort    = errors.New("refresh interval is shorter than an operation")
	ErrInvalidField        = errors.New("invalid configuration field")
)

// Config holds the build-time constants of a controller.
type Config struct {
	// SystemFreq is the SDRAM clock, the rate of the active edge.
	SystemFreq sim.Freq `json:"system_freq"`

	// RefreshFreq is the rate at which the refresh timer raises requests.
	RefreshFreq sim.Freq `json:"refresh_freq"`

	// RefreshCyclesPerRequest is 1 for regular refresh and large for burst
	// refresh.
	RefreshCyclesPerRequest int `json:"refresh_cycles_per_request"`

	PowerUpRefreshCount int `json:"power_up_refresh_count"`
	PowerUpDelay        int `json:"power_up_delay"`

	DivideBy2 bool `json:"divide_by_2"`
	DivideBy4 bool `json:"divide_by_4"`
	DivideBy8 bool `json:"divide_by_8"`

	RefreshCounterWidth   int `json:"refresh_counter_width"`
	AutoRefreshDelay      int `json:"auto_refresh_delay"`
	AutoRefreshDelayWidth int `json:"auto_refresh_delay_width"`

	Geometry signal.Geometry `json:"geometry"`

	// ShowDebug prints every active edge.
	ShowDebug bool `json:"show_debug"`
}

// DefaultConfig returns a controller with regular refresh on a 6.25 MHz
// SDRAM clock.
func DefaultConfig() Config {
	return Config{
		SystemFreq:              6250 * sim.KHz,
		RefreshFreq:             85 * sim.KHz,
		RefreshCyclesPerRequest: 1,
		PowerUpRefreshCount:     16,
		PowerUpDelay:            8,
		DivideBy4:               true,
		RefreshCounterWidth:     8,
		AutoRefreshDelay:        1,
		AutoRefreshDelayWidth:   3,
		Geometry: signal.Geometry{
			BankBits: 2,
			RowBits:  12,
			ColBits:  8,
		},
	}
}

// BurstRefreshConfig returns the default controller switched to burst
// refresh. The whole array is refreshed 33 times a second.
func BurstRefreshConfig() Config {
	c := DefaultConfig()
	c.RefreshFreq = 33 * sim.Hz
	c.RefreshCyclesPerRequest = 2048
	c.RefreshCounterWidth = 20

	return c
}

// RefreshInterval returns the number of active edges between two refresh
// requests.
func (c Config) RefreshInterval() uint64 {
	if c.RefreshFreq <= 0 {
		return 0
	}

	return uint64(c.SystemFreq / c.RefreshFreq)
}

// DividerRatio returns the selected clock divider ratio, or 0 if the
// selection is not exactly one ratio.
func (c Config) DividerRatio() int {
	ratio := 0
	selected := 0

	for _, d := range []struct {
		on    bool
		ratio int
	}{
		{c.DivideBy2, 2},
		{c.DivideBy4, 4},
		{c.DivideBy8, 8},
	} {
		if d.on {
			ratio = d.ratio
			selected++
		}
	}

	if selected != 1 {
		return 0
	}

	return ratio
}

// InputFreq returns the frequency of the clock fed into the divider.
func (c Config) InputFreq() sim.Freq {
	return c.SystemFreq.Multiply(c.DividerRatio())
}

// MinOperationEdges returns the number of edges the refresh interval must
// exceed. An access takes 8 edges from arbitration to idle. In regular
// refresh the timer keeps counting through a refresh batch, so the batch is
// added.
func (c Config) MinOperationEdges() uint64 {
	n := uint64(8)
	if c.RefreshCyclesPerRequest == 1 {
		n += uint64(c.RefreshCyclesPerRequest * (1 + c.AutoRefreshDelay))
	}

	return n
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.SystemFreq <= 0 {
		return fmt.Errorf("%w: system_freq %v", ErrInvalidField, c.SystemFreq)
	}

	if c.RefreshFreq <= 0 {
		return fmt.Errorf("%w: refresh_freq %v", ErrInvalidField, c.RefreshFreq)
	}

	if c.DividerRatio() == 0 || !clkdiv.ValidRatio(c.DividerRatio()) {
		return fmt.Errorf("%w: divide_by_2=%t divide_by_4=%t divide_by_8=%t",
			ErrDividerSelection, c.DivideBy2, c.DivideBy4, c.DivideBy8)
	}

	if c.RefreshCounterWidth < 1 || c.RefreshCounterWidth > 63 {
		return fmt.Errorf("%w: refresh_counter_width %d",
			ErrInvalidField, c.RefreshCounterWidth)
	}

	if err := c.validateGeometry(); err != nil {
		return err
	}

	if err := c.sequencerParams().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidField, err)
	}

	return c.validateInterval()
}

func (c Config) validateGeometry() error {
	g := c.Geometry

	switch {
	case g.BankBits < 0 || g.BankBits > 8:
		return fmt.Errorf("%w: geometry bank_bits %d", ErrInvalidField, g.BankBits)
	case g.RowBits < 1 || g.RowBits > 16:
		return fmt.Errorf("%w: geometry row_bits %d", ErrInvalidField, g.RowBits)
	case g.ColBits < 1 || g.ColBits > 10:
		return fmt.Errorf("%w: geometry col_bits %d", ErrInvalidField, g.ColBits)
	case g.BankBits+g.RowBits+g.ColBits > 32:
		return fmt.Errorf("%w: geometry wider than 32 bits", ErrInvalidField)
	}

	return nil
}

func (c Config) validateInterval() error {
	interval := c.RefreshInterval()

	if interval == 0 {
		return fmt.Errorf("%w: system_freq %v, refresh_freq %v",
			ErrZeroRefreshInterval, c.SystemFreq, c.RefreshFreq)
	}

	if interval >= 1<<uint(c.RefreshCounterWidth) {
		return fmt.Errorf("%w: interval %d, width %d",
			ErrIntervalOverflow, interval, c.RefreshCounterWidth)
	}

	if interval <= c.MinOperationEdges() {
		return fmt.Errorf("%w: interval %d, minimum %d",
			ErrIntervalTooShort, interval, c.MinOperationEdges())
	}

	return nil
}

func (c Config) sequencerParams() fsm.Params {
	return fsm.Params{
		Geometry:                c.Geometry,
		PowerUpDelay:            c.PowerUpDelay,
		PowerUpRefreshCount:     c.PowerUpRefreshCount,
		RefreshCyclesPerRequest: c.RefreshCyclesPerRequest,
		AutoRefreshDelay:        c.AutoRefreshDelay,
		AutoRefreshDelayWidth:   c.AutoRefreshDelayWidth,
	}
}

var dividerKeys = []string{"divide_by_2", "divide_by_4", "divide_by_8"}

// LoadConfig reads a YAML configuration file. Fields missing from the file
// keep their default values. If the file selects any divider, the default
// divider selection is dropped.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	return ParseConfig(data)
}

// ParseConfig parses a YAML configuration document on top of the default
// configuration.
func ParseConfig(data []byte) (Config, error) {
	keys := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return Config{}, err
	}

	c := DefaultConfig()
	for _, k := range dividerKeys {
		if _, ok := keys[k]; ok {
			c.DivideBy2, c.DivideBy4, c.DivideBy8 = false, false, false
			break
		}
	}

	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return Config{}, err
	}

	return c, nil
}

// Save writes the configuration as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
