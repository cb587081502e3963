// Package encoder maps a parsed FV-1 instruction statement to its 32-bit
// word encoding (spec.md §4.6), bit-for-bit compatible with the quirks the
// SpinASM community has documented.
package encoder

// Opcode is the 5-bit low-order field that selects an instruction class.
type Opcode uint32

const (
	OpRDA  Opcode = 0b00000
	OpRMPA Opcode = 0b00001
	OpWRA  Opcode = 0b00010
	OpWRAP Opcode = 0b00011
	OpRDAX Opcode = 0b00100
	OpRDFX Opcode = 0b00101
	OpWRLX Opcode = 0b01000 // note: encoded value is above OpWRHX's although listed before it
	OpWRHX Opcode = 0b00111
	OpMAXX Opcode = 0b01001
	OpMULX Opcode = 0b01010
	OpLOG  Opcode = 0b01011
	OpEXP  Opcode = 0b01100
	OpSOF  Opcode = 0b01101
	OpAND  Opcode = 0b01110
	OpOR   Opcode = 0b01111
	OpXOR  Opcode = 0b10000
	OpSKP  Opcode = 0b10001 // also NOP (N=0, flags=0) and JMP (flags=0)
	OpWLD  Opcode = 0b10010 // WLDS/WLDR, disambiguated by bit 30
	OpJAM  Opcode = 0b10011
	OpCHO  Opcode = 0b10100
	OpWRAX Opcode = 0b00110
)

// NOPWord is the literal padding/NOP encoding (spec.md §3, §8).
const NOPWord uint32 = 0x00000011

// Skip condition flag bits within a SKP instruction (spec.md §3).
const (
	FlagRUN uint32 = 0x80000000
	FlagZRC uint32 = 0x40000000
	FlagZRO uint32 = 0x20000000
	FlagGEZ uint32 = 0x10000000
	FlagNEG uint32 = 0x08000000
)

// wldrAmplitudeCodes maps WLDR's A operand {512,1024,2048,4096} to its 2-bit
// field encoding {3,2,1,0} (spec.md §4.6).
var wldrAmplitudeCodes = map[int]uint32{512: 3, 1024: 2, 2048: 1, 4096: 0}

// RDAL's non-contiguous valid LFO selector set (spec.md §4.6, §9).
var rdalSelectors = map[int]bool{0: true, 1: true, 2: true, 3: true, 8: true, 9: true}
