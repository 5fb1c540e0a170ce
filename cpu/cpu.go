// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"strings"
)

// Cpu state. Registers, flags and memory.
type Cpu struct {
	Config   Config        // Construction parameters.
	Register *RegisterBank // Register bank, including APSR.
	Memory   *Memory       // Data memory.
}

// NewCpu creates a processor. The configuration must be valid.
func NewCpu(cfg Config) (cpu *Cpu, err error) {
	err = cfg.Validate()
	if err != nil {
		return
	}

	cpu = &Cpu{
		Config:   cfg,
		Register: NewRegisterBank(cfg),
		Memory:   NewMemory(cfg.MemorySize),
	}

	cpu.Reset()

	return
}

// Reset clears registers and memory. SP points past the end of memory, for a
// full descending stack.
func (cpu *Cpu) Reset() {
	cpu.Register.Reset()
	cpu.Memory.Reset()
	cpu.Register.Write(cpu.Register.SP(), cpu.Memory.Size())
	cpu.Register.PCWritten()
}

// R returns the register at index.
func (cpu *Cpu) R(index int) uint64 {
	return cpu.Register.Read(index)
}

// SetR writes the register at index.
func (cpu *Cpu) SetR(index int, value uint64) {
	cpu.Register.Write(index, value)
}

// PC returns the program counter, which is the index of the current instruction.
func (cpu *Cpu) PC() uint64 {
	return cpu.Register.Read(cpu.Register.PC())
}

// Mask returns the register width mask.
func (cpu *Cpu) Mask() uint64 {
	return cpu.Register.Mask()
}

// String dumps the registers and flags.
func (cpu *Cpu) String() string {
	var buff strings.Builder

	rb := cpu.Register
	digits := (rb.Width() + 3) / 4
	for n := range rb.General() {
		name := rb.Name(n)
		switch n {
		case rb.SP():
			name = "SP"
		case rb.LR():
			name = "LR"
		case rb.PC():
			name = "PC"
		}
		fmt.Fprintf(&buff, "%-4s %0*x", name, digits, rb.Read(n))
		if n%4 == 3 || n == rb.General()-1 {
			buff.WriteString("\n")
		} else {
			buff.WriteString("  ")
		}
	}

	fmt.Fprintf(&buff, "APSR %s\n", cpu.FlagString())

	return buff.String()
}
