package busagent

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/sarchlab/sdramsim/sdram/signal"
)

// ErrUnknownProgram is returned when a program name is not recognized.
var ErrUnknownProgram = errors.New("unknown test program")

// A Step is one bus transfer. For reads, Data is the expected word and is
// compared only if Check is set. Delay is the number of bus cycles to wait
// before the transfer starts.
type Step struct {
	Op      signal.Op
	Address uint32
	Data    uint16
	Check   bool
	Delay   uint64
}

// A Program generates the transfers that the agent performs.
type Program interface {
	Name() string

	// Len returns the number of steps in the program.
	Len() uint64

	// Next returns the next step. It returns false when the program ends.
	Next() (Step, bool)
}

// ProgramOptions configures the built-in programs.
type ProgramOptions struct {
	MaxAddress  uint32
	Iterations  int
	BurstLength int
	Delay       uint64
	Seed        int64
}

// Names of the built-in programs.
const (
	ProgramReadWrite   = "read-write"
	ProgramBurst       = "burst"
	ProgramSingleBurst = "single-burst"
	ProgramFull        = "full"
)

// ProgramNames lists the built-in programs.
var ProgramNames = []string{
	ProgramReadWrite,
	ProgramBurst,
	ProgramSingleBurst,
	ProgramFull,
}

// NewProgram creates a built-in program by name.
func NewProgram(name string, opts ProgramOptions) (Program, error) {
	rng := rand.New(rand.NewSource(opts.Seed))

	switch name {
	case ProgramReadWrite:
		return NewReadWriteProgram(opts.MaxAddress, opts.Iterations, rng), nil
	case ProgramBurst:
		return NewBurstProgram(opts.MaxAddress, opts.BurstLength,
			opts.Iterations, opts.Delay, rng), nil
	case ProgramSingleBurst:
		return NewSingleBurstProgram(opts.MaxAddress, opts.BurstLength,
			opts.Iterations, opts.Delay, rng), nil
	case ProgramFull:
		return NewFullProgram(opts.MaxAddress, opts.Seed), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownProgram, name)
}

// ScriptProgram replays a fixed list of steps.
type ScriptProgram struct {
	name  string
	steps []Step
	next  int
}

// NewScriptProgram creates a program that performs the given steps in order.
func NewScriptProgram(name string, steps ...Step) *ScriptProgram {
	return &ScriptProgram{name: name, steps: steps}
}

// Name returns the name of the program.
func (p *ScriptProgram) Name() string {
	return p.name
}

// Len returns the number of steps.
func (p *ScriptProgram) Len() uint64 {
	return uint64(len(p.steps))
}

// Next returns the next step.
func (p *ScriptProgram) Next() (Step, bool) {
	if p.next >= len(p.steps) {
		return Step{}, false
	}

	s := p.steps[p.next]
	p.next++

	return s, true
}

// readWriteProgram writes a random word to a random address and immediately
// reads it back.
type readWriteProgram struct {
	maxAddress uint32
	iterations int
	rng        *rand.Rand

	iteration int
	last      Step
	wrote     bool
}

// NewReadWriteProgram creates a program that repeats a write followed by a
// read of the same address.
func NewReadWriteProgram(
	maxAddress uint32,
	iterations int,
	rng *rand.Rand,
) Program {
	return &readWriteProgram{
		maxAddress: maxAddress,
		iterations: iterations,
		rng:        rng,
	}
}

func (p *readWriteProgram) Name() string {
	return ProgramReadWrite
}

func (p *readWriteProgram) Len() uint64 {
	return 2 * uint64(p.iterations)
}

func (p *readWriteProgram) Next() (Step, bool) {
	if p.wrote {
		p.wrote = false
		p.iteration++

		return Step{
			Op:      signal.OpRead,
			Address: p.last.Address,
			Data:    p.last.Data,
			Check:   true,
		}, true
	}

	if p.iteration >= p.iterations {
		return Step{}, false
	}

	p.last = Step{
		Op:      signal.OpWrite,
		Address: randomAddress(p.rng, p.maxAddress),
		Data:    randomWord(p.rng),
	}
	p.wrote = true

	return p.last, true
}

// burstProgram writes a block of consecutive addresses, waits and reads the
// block back. Without rewrite, the block is written only once and the reads
// repeat.
type burstProgram struct {
	name       string
	maxAddress uint32
	iterations int
	delay      uint64
	rewrite    bool
	rng        *rand.Rand

	iteration int
	writing   bool
	pos       int
	base      uint32
	data      []uint16
}

// NewBurstProgram creates a program that repeats a burst write, a delay and
// a burst read of the same block.
func NewBurstProgram(
	maxAddress uint32,
	burstLength, iterations int,
	delay uint64,
	rng *rand.Rand,
) Program {
	return newBurstProgram(ProgramBurst, maxAddress, burstLength,
		iterations, delay, true, rng)
}

// NewSingleBurstProgram creates a program that performs one burst write and
// then repeats a delay and a burst read of the same block.
func NewSingleBurstProgram(
	maxAddress uint32,
	burstLength, iterations int,
	delay uint64,
	rng *rand.Rand,
) Program {
	return newBurstProgram(ProgramSingleBurst, maxAddress, burstLength,
		iterations, delay, false, rng)
}

func newBurstProgram(
	name string,
	maxAddress uint32,
	burstLength, iterations int,
	delay uint64,
	rewrite bool,
	rng *rand.Rand,
) *burstProgram {
	if burstLength <= 0 {
		burstLength = 1
	}

	if uint64(burstLength) > uint64(maxAddress)+1 {
		burstLength = int(maxAddress) + 1
	}

	p := &burstProgram{
		name:       name,
		maxAddress: maxAddress,
		iterations: iterations,
		delay:      delay,
		rewrite:    rewrite,
		rng:        rng,
		writing:    true,
		data:       make([]uint16, burstLength),
	}
	p.base = randomAddress(rng, maxAddress)

	return p
}

func (p *burstProgram) Name() string {
	return p.name
}

func (p *burstProgram) Len() uint64 {
	n := uint64(len(p.data))
	iterations := uint64(p.iterations)

	if p.rewrite {
		return 2 * n * iterations
	}

	if iterations == 0 {
		return 0
	}

	return n + n*iterations
}

func (p *burstProgram) address(i int) uint32 {
	return uint32((uint64(p.base) + uint64(i)) % (uint64(p.maxAddress) + 1))
}

func (p *burstProgram) Next() (Step, bool) {
	for p.iteration < p.iterations {
		if p.writing {
			if p.pos < len(p.data) {
				p.data[p.pos] = randomWord(p.rng)
				s := Step{
					Op:      signal.OpWrite,
					Address: p.address(p.pos),
					Data:    p.data[p.pos],
				}
				p.pos++

				return s, true
			}

			p.writing = false
			p.pos = 0
		}

		if p.pos < len(p.data) {
			s := Step{
				Op:      signal.OpRead,
				Address: p.address(p.pos),
				Data:    p.data[p.pos],
				Check:   true,
			}
			if p.pos == 0 {
				s.Delay = p.delay
			}
			p.pos++

			return s, true
		}

		p.iteration++
		p.pos = 0

		if p.rewrite {
			p.writing = true
			p.base = randomAddress(p.rng, p.maxAddress)
		}
	}

	return Step{}, false
}

// fullProgram writes a pseudo-random pattern to every address and then reads
// everything back, regenerating the pattern from the same seed.
type fullProgram struct {
	maxAddress uint32
	seed       int64
	rng        *rand.Rand

	reading bool
	next    uint64
}

// NewFullProgram creates a program that covers addresses 0 to maxAddress.
func NewFullProgram(maxAddress uint32, seed int64) Program {
	return &fullProgram{
		maxAddress: maxAddress,
		seed:       seed,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

func (p *fullProgram) Name() string {
	return ProgramFull
}

func (p *fullProgram) Len() uint64 {
	return 2 * (uint64(p.maxAddress) + 1)
}

func (p *fullProgram) Next() (Step, bool) {
	if p.next > uint64(p.maxAddress) {
		if p.reading {
			return Step{}, false
		}

		p.reading = true
		p.next = 0
		p.rng = rand.New(rand.NewSource(p.seed))
	}

	s := Step{
		Op:      signal.OpWrite,
		Address: uint32(p.next),
		Data:    randomWord(p.rng),
	}

	if p.reading {
		s.Op = signal.OpRead
		s.Check = true
	}

	p.next++

	return s, true
}

func randomAddress(rng *rand.Rand, maxAddress uint32) uint32 {
	return uint32(rng.Int63n(int64(maxAddress) + 1))
}

func randomWord(rng *rand.Rand) uint16 {
	return uint16(rng.Intn(1 << 16))
}
