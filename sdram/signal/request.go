package signal

import "fmt"

// Op is the operation of a request.
type Op int

// The operations a requester can ask for. OpNone is the no-op request value
// and is never accepted.
const (
	OpNone Op = iota
	OpRead
	OpWrite
)

func (o Op) String() string {
	switch o {
	case OpNone:
		return "none"
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	}

	return fmt.Sprintf("Op(%d)", int(o))
}

// A Request asks the controller to read or write one word.
type Request struct {
	ID      string
	Op      Op
	Address uint32
	Data    uint16
}

// A Completion reports a finished request. Data holds the word read from the
// device for reads and the written word for writes.
type Completion struct {
	Request       Request
	Data          uint16
	SubmittedEdge uint64
	CompletedEdge uint64
}

// Latency returns the number of active edges the request took.
func (c Completion) Latency() uint64 {
	return c.CompletedEdge - c.SubmittedEdge
}

// Geometry describes how a word address is split into bank, row and column.
type Geometry struct {
	BankBits int `json:"bank_bits"`
	RowBits  int `json:"row_bits"`
	ColBits  int `json:"col_bits"`
}

// NumWords returns the number of addressable words.
func (g Geometry) NumWords() uint64 {
	return 1 << uint(g.BankBits+g.RowBits+g.ColBits)
}

// Contains tells if the address is inside the device.
func (g Geometry) Contains(addr uint32) bool {
	return uint64(addr) < g.NumWords()
}

// Split breaks a word address into its bank, row and column.
func (g Geometry) Split(addr uint32) (bank uint8, row, col uint16) {
	col = uint16(addr & (1<<uint(g.ColBits) - 1))
	row = uint16((addr >> uint(g.ColBits)) & (1<<uint(g.RowBits) - 1))
	bank = uint8(addr >> uint(g.ColBits+g.RowBits))

	return bank, row, col
}

// Join is the reverse of Split.
func (g Geometry) Join(bank uint8, row, col uint16) uint32 {
	return uint32(bank)<<uint(g.ColBits+g.RowBits) |
		uint32(row)<<uint(g.ColBits) |
		uint32(col)
}

// Mode register fields.
const (
	ModeBurstLength1   uint16 = 0b000
	ModeSequential     uint16 = 0 << 3
	ModeCASLatencyPos         = 4
	ModeSingleWriteBit uint16 = 1 << 9
)

// CASLatency is the only CAS latency the controller programs.
const CASLatency = 2

// ModeRegisterValue returns the value written during mode-set: burst length
// 1, sequential burst and CAS latency 2.
func ModeRegisterValue() uint16 {
	return ModeBurstLength1 | ModeSequential | CASLatency<<ModeCASLatencyPos
}
