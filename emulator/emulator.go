// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"iter"
	"log/slog"
	"maps"
	"strconv"

	"github.com/ezrec/iarm/cpu"
	"github.com/ezrec/iarm/internal"
)

// Emulator state. CPU + Program + the incremental assembler feeding it.
type Emulator struct {
	Verbose  bool         // If set, enables per-instruction trace records.
	Logger   *slog.Logger // Destination for trace and warning records.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the committed program.
	Warnings []error      // Non-fatal assembly reports, oldest first.
	Steps    int          // Instructions executed since the last reset.

	asm *cpu.Assembler
}

// NewEmulator creates a new emulator.
func NewEmulator(cfg cpu.Config) (emu *Emulator, err error) {
	c, err := cpu.NewCpu(cfg)
	if err != nil {
		return
	}

	emu = &Emulator{
		Logger:  slog.New(slog.DiscardHandler),
		Cpu:     c,
		Program: cpu.NewProgram(),
	}
	emu.asm = cpu.NewAssembler(emu.Cpu, emu.Program)

	return
}

// Reset clears the program, symbol tables, registers and memory.
func (emu *Emulator) Reset() {
	emu.Cpu.Reset()
	emu.Program.Reset()
	emu.Warnings = nil
	emu.Steps = 0
}

// Evaluate assembles source as one block and commits it. On error nothing is
// committed. With AutoRun set, execution then continues from the current PC.
// Auto-run pauses, leaving PC on the instruction, when it needs a label that
// no block has defined yet; a later Evaluate or Run resumes from there.
func (emu *Emulator) Evaluate(source string) (err error) {
	emu.asm.Verbose = emu.Verbose
	emu.asm.Logger = emu.Logger

	blk, err := emu.asm.Assemble(source)
	if err != nil {
		return
	}

	emu.asm.Commit(blk)
	emu.Warnings = append(emu.Warnings, blk.Warnings...)

	if !emu.Config.AutoRun {
		return
	}

	_, err = emu.Run(emu.Config.MaxSteps)
	var missing cpu.ErrLabelMissing
	switch {
	case errors.Is(err, cpu.ErrEndOfProgram):
		err = nil
	case errors.As(err, &missing):
		emu.Logger.Debug("paused", "label", string(missing), "pc", emu.PC())
		err = nil
	}

	return
}

// Step executes the instruction at PC. done is set when PC is past the end
// of the program. Reaching an END index, a taken branch to itself or BKPT
// returns cpu.ErrEndOfProgram.
func (emu *Emulator) Step() (done bool, err error) {
	prog := emu.Program
	pc := emu.PC()

	if prog.End >= 0 && pc == uint64(prog.End) {
		err = cpu.ErrEndOfProgram
		return
	}
	if pc >= uint64(prog.Len()) {
		done = true
		return
	}

	ins := prog.Instructions[pc]
	if emu.Verbose {
		emu.Logger.Debug("step", "pc", pc, "line", ins.LineNo, "text", ins.Line)
	}

	emu.Register.PCWritten()
	err = ins.Exec()
	if errors.Is(err, cpu.ErrEndOfProgram) {
		return
	}
	if err != nil {
		err = &ErrRuntime{Index: pc, LineNo: ins.LineNo, Line: ins.Line, Err: err}
		return
	}

	emu.Steps++
	if !emu.Register.PCWritten() {
		emu.SetR(emu.Register.PC(), pc+1)
	}

	return
}

// Run steps until the program halts, an instruction fails or maxSteps
// instructions have run. A maxSteps of zero or less is unbounded.
func (emu *Emulator) Run(maxSteps int) (steps int, err error) {
	for maxSteps <= 0 || steps < maxSteps {
		var done bool
		done, err = emu.Step()
		if done || err != nil {
			return
		}
		steps++
	}

	emu.Logger.Debug("step limit", "steps", steps, "pc", emu.PC())
	return
}

// Get returns a register by name, including the PSR views.
func (emu *Emulator) Get(name string) (uint64, error) {
	return emu.Register.Get(name)
}

// Set writes a register by name.
func (emu *Emulator) Set(name string, value uint64) error {
	return emu.Register.Set(name, value)
}

// Peek reads size bytes of memory at address.
func (emu *Emulator) Peek(address uint64, size int) (uint64, error) {
	return emu.Memory.Load(address, size)
}

// Poke writes size bytes of memory at address.
func (emu *Emulator) Poke(address uint64, size int, value uint64) error {
	return emu.Memory.Store(address, size, value)
}

// Title returns the most recent TTL title.
func (emu *Emulator) Title() string {
	return emu.Program.Title
}

// Labels returns a copy of the label table.
func (emu *Emulator) Labels() map[string]uint64 {
	return maps.Clone(emu.Program.Label)
}

// Equates returns a copy of the equate table.
func (emu *Emulator) Equates() map[string]string {
	return maps.Clone(emu.Program.Equate)
}

// Symbols iterates over the labels and then the equates, each in name order.
func (emu *Emulator) Symbols() iter.Seq2[string, string] {
	var labels iter.Seq2[string, string] = func(yield func(string, string) bool) {
		for name, value := range internal.SortedSeq2(emu.Program.Label) {
			if !yield(name, strconv.FormatUint(value, 10)) {
				return
			}
		}
	}

	return internal.IterSeq2Concat(labels, internal.SortedSeq2(emu.Program.Equate))
}

// Registers iterates over the register names and values, general purpose first.
func (emu *Emulator) Registers() iter.Seq2[string, uint64] {
	return func(yield func(string, uint64) bool) {
		for index := range emu.Register.General() + cpu.SPECIAL_COUNT {
			if !yield(emu.Register.Name(index), emu.R(index)) {
				return
			}
		}
	}
}
