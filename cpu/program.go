package cpu

import (
	"maps"
)

// Thunk executes one compiled instruction against the current state.
// A thunk either completes or returns an error before mutating anything.
type Thunk func() error

// Instruction is a compiled source line.
type Instruction struct {
	LineNo   int    // Line number within its block.
	Line     string // Source text.
	Mnemonic string // Upper case mnemonic.
	Exec     Thunk  // Compiled operation.
}

// Program is the committed, append-only instruction list and symbol tables.
type Program struct {
	Instructions []Instruction
	Label        map[string]uint64 // Code labels hold program indexes, data labels hold addresses.
	Equate       map[string]string // Equates, as evaluated integer text.
	Title        string            // Title set by TTL.
	Cursor       uint64            // Data layout cursor.
	End          int               // Index at which END halts execution, or -1.
}

// NewProgram creates an empty program.
func NewProgram() (prog *Program) {
	prog = &Program{}
	prog.Reset()
	return
}

// Reset discards all instructions and symbols.
func (prog *Program) Reset() {
	prog.Instructions = nil
	prog.Label = map[string]uint64{}
	prog.Equate = map[string]string{}
	prog.Title = ""
	prog.Cursor = 0
	prog.End = -1
}

// Len returns the number of committed instructions.
func (prog *Program) Len() int {
	return len(prog.Instructions)
}

// Lookup resolves a committed label.
func (prog *Program) Lookup(name string) (value uint64, err error) {
	value, ok := prog.Label[name]
	if !ok {
		err = ErrLabelMissing(name)
	}
	return
}

// commit merges a fully assembled block.
func (prog *Program) commit(blk *Block) {
	prog.Instructions = append(prog.Instructions, blk.Instructions...)
	maps.Copy(prog.Label, blk.Label)
	maps.Copy(prog.Equate, blk.Equate)
	prog.Cursor = blk.Cursor
	if blk.titled {
		prog.Title = blk.Title
	}

	switch {
	case blk.End >= 0:
		prog.End = blk.End
	case len(blk.Instructions) > 0:
		prog.End = -1
	}
}
