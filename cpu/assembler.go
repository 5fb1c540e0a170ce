// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// compileFunc compiles operand text into a thunk.
type compileFunc func(blk *Block, text string) (Thunk, error)

// Assembler is an incremental, block-at-a-time assembler.
type Assembler struct {
	Verbose bool         // If set, logs each assembled line.
	Logger  *slog.Logger // Destination for verbose and warning records. May be nil.
	Cpu     *Cpu         // Processor the compiled thunks operate on.
	Program *Program     // Committed program.
}

// NewAssembler creates an assembler for cpu and prog.
func NewAssembler(cpu *Cpu, prog *Program) *Assembler {
	return &Assembler{
		Cpu:     cpu,
		Program: prog,
	}
}

// IsKeyword reports whether word is a known mnemonic or directive.
func IsKeyword(word string) bool {
	upper := strings.ToUpper(word)
	_, isOp := lookupInstruction(upper)
	_, isDirective := directiveTable[upper]
	return isOp || isDirective
}

// Mnemonics returns the known instruction mnemonics.
func Mnemonics() []string {
	return append(slices.Sorted(maps.Keys(instructionTable)), slices.Sorted(maps.Keys(branchTable))...)
}

func lookupInstruction(upper string) (compile compileFunc, ok bool) {
	compile, ok = instructionTable[upper]
	if !ok {
		compile, ok = branchTable[upper]
	}
	return
}

type sourceLine struct {
	lineNo   int
	line     string
	label    string
	mnemonic string
	operands string
}

// Assemble stages source as one block. On error the block is discarded and
// the Program is untouched.
func (asm *Assembler) Assemble(source string) (blk *Block, err error) {
	blk = newBlock(asm.Cpu, asm.Program)

	var lines []sourceLine
	for n, line := range strings.Split(source, "\n") {
		label, mnemonic, operands := ParseLine(line, IsKeyword)
		lines = append(lines, sourceLine{
			lineNo:   n + 1,
			line:     strings.TrimRight(line, "\r"),
			label:    label,
			mnemonic: strings.ToUpper(mnemonic),
			operands: operands,
		})
	}

	defer func() {
		if err != nil {
			blk = nil
		}
	}()

	// Pre-scan for labels, so forward references within the block resolve.
	for _, sl := range lines {
		if sl.label == "" || sl.mnemonic == "EQU" {
			continue
		}
		if !IsLabel(sl.label) {
			err = ErrSyntax{LineNo: sl.lineNo, Line: sl.line, Err: parsingError(sl.label, "is not a valid label")}
			return
		}
		if blk.pending[sl.label] {
			err = ErrSyntax{LineNo: sl.lineNo, Line: sl.line, Err: &ErrRule{Token: sl.label, Reason: ErrLabelDuplicate.Error()}}
			return
		}
		blk.pending[sl.label] = true
	}

	for _, sl := range lines {
		if sl.label == "" && sl.mnemonic == "" {
			continue
		}

		lerr := asm.assembleLine(blk, sl)
		if errors.Is(lerr, ErrEndOfProgram) {
			blk.End = int(blk.Index())
			break
		}

		var notImplemented ErrNotImplemented
		if errors.As(lerr, &notImplemented) {
			blk.Warnings = append(blk.Warnings, ErrSyntax{LineNo: sl.lineNo, Line: sl.line, Err: lerr})
			asm.warn(lerr, sl)
			continue
		}

		if lerr != nil {
			err = ErrSyntax{LineNo: sl.lineNo, Line: sl.line, Err: lerr}
			return
		}
	}

	return
}

func (asm *Assembler) assembleLine(blk *Block, sl sourceLine) (err error) {
	if directive, ok := directiveTable[sl.mnemonic]; ok {
		if asm.Verbose && asm.Logger != nil {
			asm.Logger.Debug("directive", "line", sl.lineNo, "name", sl.mnemonic, "operands", sl.operands)
		}
		return directive(blk, sl.label, sl.operands)
	}

	if sl.label != "" {
		blk.bind(sl.label, blk.Index())
	}

	if sl.mnemonic == "" {
		return
	}

	compile, ok := lookupInstruction(sl.mnemonic)
	if !ok {
		err = ErrValidation(sl.mnemonic)
		return
	}

	thunk, err := compile(blk, sl.operands)
	if err != nil {
		return
	}

	if asm.Verbose && asm.Logger != nil {
		asm.Logger.Debug("assemble", "index", blk.Index(), "line", sl.lineNo, "text", strings.TrimSpace(sl.line))
	}

	blk.Instructions = append(blk.Instructions, Instruction{
		LineNo:   sl.lineNo,
		Line:     strings.TrimSpace(sl.line),
		Mnemonic: sl.mnemonic,
		Exec:     thunk,
	})

	return
}

func (asm *Assembler) warn(err error, sl sourceLine) {
	if asm.Logger != nil {
		asm.Logger.Warn(err.Error(), "line", sl.lineNo)
	}
}

// Commit applies a staged block to the Program and Memory.
func (asm *Assembler) Commit(blk *Block) {
	for address, value := range blk.Write {
		asm.Cpu.Memory.cell[address] = value
	}
	asm.Program.commit(blk)
}
