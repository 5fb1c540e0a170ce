package cpu

import (
	"maps"
	"strconv"
	"strings"
	"unicode"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Block is one source block staged for commit. Nothing in it is visible to
// the Program or Memory until Assembler.Commit.
type Block struct {
	cpu  *Cpu
	prog *Program

	Instructions []Instruction     // Compiled instructions.
	Label        map[string]uint64 // Labels bound by this block.
	Equate       map[string]string // Equates defined by this block.
	Write        map[uint64]uint8  // Memory bytes written by data directives.
	Cursor       uint64            // Data layout cursor.
	Title        string            // Title, if titled.
	End          int               // Program index of an END directive, or -1.
	Warnings     []error           // Non-fatal reports.

	titled  bool
	pending map[string]bool
}

func newBlock(cpu *Cpu, prog *Program) *Block {
	return &Block{
		cpu:     cpu,
		prog:    prog,
		Label:   map[string]uint64{},
		Equate:  map[string]string{},
		Write:   map[uint64]uint8{},
		Cursor:  prog.Cursor,
		End:     -1,
		pending: map[string]bool{},
	}
}

// Index is the program index of the next compiled instruction.
func (blk *Block) Index() uint64 {
	return uint64(blk.prog.Len() + len(blk.Instructions))
}

// label resolves a label bound in this block or already committed. A label
// this block redefines is unresolved until the block binds it.
func (blk *Block) label(name string) (value uint64, ok bool) {
	value, ok = blk.Label[name]
	if !ok && !blk.pending[name] {
		value, ok = blk.prog.Label[name]
	}
	return
}

// unresolved returns the first identifier in expr that is a pending label.
func (blk *Block) unresolved(expr string) (name string, ok bool) {
	words := strings.FieldsFunc(expr, func(c rune) bool {
		return c != '_' && !unicode.IsLetter(c) && !unicode.IsDigit(c)
	})
	for _, word := range words {
		if _, bound := blk.Label[word]; blk.pending[word] && !bound {
			return word, true
		}
	}
	return
}

// isLabel reports whether name is, or will be once this block commits, a label.
func (blk *Block) isLabel(name string) bool {
	_, ok := blk.label(name)
	return ok || blk.pending[name]
}

func (blk *Block) equate(name string) (value string, ok bool) {
	value, ok = blk.Equate[name]
	if !ok {
		value, ok = blk.prog.Equate[name]
	}
	return
}

// Value evaluates a literal, equate, resolved label or expression.
func (blk *Block) Value(text string) (value int64, err error) {
	text = strings.TrimSpace(text)

	if v, perr := strconv.ParseInt(text, 0, 64); perr == nil {
		value = v
		return
	}
	if v, perr := strconv.ParseUint(text, 0, 64); perr == nil {
		value = int64(v)
		return
	}

	if IsLabel(text) {
		if eq, ok := blk.equate(text); ok {
			return blk.Value(eq)
		}
		if v, ok := blk.label(text); ok {
			value = int64(v)
			return
		}
	}

	if name, ok := blk.unresolved(text); ok {
		err = parsingError(name, "%v", ErrLabelUnresolved)
		return
	}

	value, err = blk.eval(text)
	return
}

// eval evaluates an integer starlark expression over the known equates and labels.
func (blk *Block) eval(expr string) (value int64, err error) {
	if expr == "" {
		err = parsingError(expr, "missing value")
		return
	}

	thread := starlark.Thread{Name: "expr"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range maps.All(blk.prog.Equate) {
		if v, perr := strconv.ParseInt(str, 0, 64); perr == nil {
			pred[key] = starlark.MakeInt64(v)
		}
	}
	for key, str := range maps.All(blk.Equate) {
		if v, perr := strconv.ParseInt(str, 0, 64); perr == nil {
			pred[key] = starlark.MakeInt64(v)
		}
	}
	for key, v := range maps.All(blk.prog.Label) {
		if !blk.pending[key] {
			pred[key] = starlark.MakeUint64(v)
		}
	}
	for key, v := range maps.All(blk.Label) {
		pred[key] = starlark.MakeUint64(v)
	}

	prog := "rc=" + expr + "\n"
	dict, serr := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if serr != nil {
		err = parsingError(expr, "is not a number, equate or expression")
		return
	}

	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = parsingError(expr, "is not an integer expression")
		return
	}

	value, ok = st_int.Int64()
	if !ok {
		err = parsingError(expr, "is out of range")
		return
	}

	return
}

// bind records a label for this block.
func (blk *Block) bind(name string, value uint64) {
	blk.Label[name] = value
}

// store stages a little-endian write of size bytes at address.
func (blk *Block) store(address uint64, size int, value uint64) (err error) {
	if address >= blk.cpu.Memory.Size() || uint64(size) > blk.cpu.Memory.Size()-address {
		err = ruleError(strconv.FormatUint(address, 10), "is beyond the memory size of %d", blk.cpu.Memory.Size())
		return
	}

	for n := range size {
		blk.Write[address+uint64(n)] = uint8(value >> (8 * n))
	}

	return
}
