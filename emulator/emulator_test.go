package emulator

import (
	"bytes"
	"log/slog"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ezrec/iarm/cpu"
)

func newTestEmulator(t *testing.T) *Emulator {
	emu, err := NewEmulator(cpu.DefaultConfig())
	require.NoError(t, err)
	return emu
}

func evaluate(t *testing.T, emu *Emulator, lines ...string) {
	require.NoError(t, emu.Evaluate(strings.Join(lines, "\n")))
}

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	assert.False(emu.Verbose)
	assert.NotNil(emu.Cpu)
	assert.Equal(0, emu.Program.Len())
	assert.Equal(uint64(1024), emu.R(emu.Register.SP()))

	_, err := NewEmulator(cpu.Config{Width: 4, Registers: 16, MemorySize: 16})
	assert.ErrorIs(err, cpu.ErrConfigWidth)
	_, err = NewEmulator(cpu.Config{Width: 32, Registers: 100, MemorySize: 16})
	assert.ErrorIs(err, cpu.ErrConfigRegisters)
	_, err = NewEmulator(cpu.Config{Width: 32, Registers: 10, MemorySize: 16})
	assert.ErrorIs(err, cpu.ErrConfigRegisters)
	_, err = NewEmulator(cpu.Config{Width: 32, Registers: 16})
	assert.ErrorIs(err, cpu.ErrConfigMemory)
	_, err = NewEmulator(cpu.Config{Width: 8, Registers: 16, MemorySize: 1024})
	assert.ErrorIs(err, cpu.ErrConfigMemoryWidth)
	_, err = NewEmulator(cpu.Config{Width: 8, Registers: 11, MemorySize: 255})
	assert.NoError(err)
}

func TestEmulatorAutoRun(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	evaluate(t, emu, "  MOVS R0, #1", "  MOVS R1, #3")
	assert.Equal(uint64(1), emu.R(0))
	assert.Equal(uint64(3), emu.R(1))

	evaluate(t, emu, "  ADD R0, R0, R1")
	assert.Equal(uint64(4), emu.R(0))
	assert.Equal(uint64(3), emu.PC())
	assert.Equal(3, emu.Steps)
}

func TestEmulatorManualRun(t *testing.T) {
	assert := assert.New(t)

	cfg := cpu.DefaultConfig()
	cfg.AutoRun = false
	emu, err := NewEmulator(cfg)
	require.NoError(t, err)

	evaluate(t, emu, "  MOVS R0, #7", "  MOVS R1, #8")
	assert.Equal(uint64(0), emu.PC())

	done, err := emu.Step()
	assert.NoError(err)
	assert.False(done)
	assert.Equal(uint64(7), emu.R(0))
	assert.Equal(uint64(1), emu.PC())

	steps, err := emu.Run(0)
	assert.NoError(err)
	assert.Equal(1, steps)
	assert.Equal(uint64(8), emu.R(1))

	done, err = emu.Step()
	assert.NoError(err)
	assert.True(done)
}

func TestEmulatorForwardBranch(t *testing.T) {
	assert := assert.New(t)

	cfg := cpu.DefaultConfig()
	cfg.AutoRun = false
	emu, err := NewEmulator(cfg)
	require.NoError(t, err)

	evaluate(t, emu, "  B later")
	evaluate(t, emu, "  MOVS R0, #1", "later MOVS R1, #2")

	_, err = emu.Run(0)
	assert.NoError(err)
	assert.Equal(uint64(0), emu.R(0))
	assert.Equal(uint64(2), emu.R(1))
}

func TestEmulatorForwardBranchAutoRun(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	err := emu.Evaluate("  B DONE")
	assert.NoError(err)
	assert.Equal(1, emu.Program.Len())
	assert.Equal(uint64(0), emu.PC())

	err = emu.Evaluate("DONE: MOV R0, R0")
	assert.NoError(err)
	assert.Equal(2, emu.Program.Len())
	assert.Equal(uint64(2), emu.PC())
	assert.Equal(2, emu.Steps)
}

func TestEmulatorMissingLabel(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	// Auto-run pauses on the branch; the block is committed.
	evaluate(t, emu, "  MOVS R0, #1", "  B nowhere")
	assert.Equal(2, emu.Program.Len())
	assert.Equal(uint64(1), emu.R(0))
	assert.Equal(uint64(1), emu.PC())
	assert.Equal(1, emu.Steps)

	// An explicit run reports the missing label.
	_, err := emu.Run(0)
	var runtime *ErrRuntime
	if assert.ErrorAs(err, &runtime) {
		assert.Equal(uint64(1), runtime.Index)
		assert.Equal(2, runtime.LineNo)
		assert.Equal("B nowhere", runtime.Line)
	}
	var missing cpu.ErrLabelMissing
	assert.ErrorAs(err, &missing)
	assert.Equal(uint64(1), emu.PC())

	// Defining the label resumes from the branch.
	evaluate(t, emu, "  MOVS R1, #5", "nowhere MOVS R2, #6")
	assert.Equal(uint64(0), emu.R(1))
	assert.Equal(uint64(6), emu.R(2))
	assert.Equal(uint64(4), emu.PC())
}

func TestEmulatorAtomic(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)
	evaluate(t, emu, "start MOVS R0, #1")

	err := emu.Evaluate("  MOVS R1, #2\nbad ADD R0, R1, R2")
	var rule *cpu.ErrRule
	assert.ErrorAs(err, &rule)
	var syntax cpu.ErrSyntax
	if assert.ErrorAs(err, &syntax) {
		assert.Equal(2, syntax.LineNo)
	}

	assert.Equal(1, emu.Program.Len())
	assert.Equal(map[string]uint64{"start": 0}, emu.Labels())
	assert.Equal(uint64(0), emu.R(1))
}

func TestEmulatorLoop(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)
	evaluate(t, emu,
		"  TTL Sum",
		"COUNT EQU 10",
		"  MOVS R0, #0",
		"  MOVS R1, #COUNT",
		"loop ADDS R0, R0, R1",
		"  SUBS R1, R1, #1",
		"  BNE loop",
		"  B .",
	)

	assert.Equal(uint64(55), emu.R(0))
	assert.Equal(uint64(5), emu.PC())
	assert.Equal("Sum", emu.Title())
	assert.Equal(map[string]string{"COUNT": "10"}, emu.Equates())
	assert.Equal(map[string]uint64{"loop": 2}, emu.Labels())

	// A halted self branch halts again.
	_, err := emu.Run(0)
	assert.ErrorIs(err, cpu.ErrEndOfProgram)
}

func TestEmulatorMaxSteps(t *testing.T) {
	assert := assert.New(t)

	cfg := cpu.DefaultConfig()
	cfg.MaxSteps = 25
	emu, err := NewEmulator(cfg)
	require.NoError(t, err)

	evaluate(t, emu,
		"spin ADDS R0, R0, #1",
		"  B spin",
	)
	assert.Equal(25, emu.Steps)
	assert.Equal(uint64(13), emu.R(0))

	steps, err := emu.Run(4)
	assert.NoError(err)
	assert.Equal(4, steps)
	assert.Equal(29, emu.Steps)
}

func TestEmulatorSelfBranch(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)
	evaluate(t, emu, "  MOVS R0, #7", "here B here")
	assert.Equal(uint64(7), emu.R(0))
	assert.Equal(uint64(1), emu.PC())
	assert.Equal(1, emu.Steps)

	steps, err := emu.Run(0)
	assert.ErrorIs(err, cpu.ErrEndOfProgram)
	assert.Equal(0, steps)
}

func TestEmulatorEnd(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)
	evaluate(t, emu,
		"  MOVS R0, #1",
		"  END",
		"  MOVS R0, #2",
	)
	assert.Equal(uint64(1), emu.R(0))
	assert.Equal(1, emu.Program.Len())

	done, err := emu.Step()
	assert.False(done)
	assert.ErrorIs(err, cpu.ErrEndOfProgram)

	evaluate(t, emu, "  MOVS R1, #5")
	assert.Equal(uint64(5), emu.R(1))
	assert.Equal(uint64(1), emu.R(0))
}

func TestEmulatorSubroutine(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)
	evaluate(t, emu,
		"  MOVS R0, #5",
		"  BL square",
		"  B .",
		"square PUSH {R1, LR}",
		"  MOVS R1, R0",
		"  MULS R0, R1, R0",
		"  POP {R1, PC}",
	)
	assert.Equal(uint64(25), emu.R(0))
	assert.Equal(uint64(1024), emu.R(emu.Register.SP()))
}

func TestEmulatorHardFault(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)
	err := emu.Evaluate(strings.Join([]string{
		"  MOVS R0, #0xaa",
		"  MOVS R1, #2",
		"  STR R0, [R1]",
		"  MOVS R0, #0",
	}, "\n"))

	var fault *cpu.ErrHardFault
	assert.ErrorAs(err, &fault)
	assert.ErrorIs(err, cpu.ErrAddressUnaligned)
	assert.Equal(uint64(0xaa), emu.R(0))
	assert.Equal(uint64(2), emu.PC())
	assert.Len(maps.Collect(emu.Memory.Cells()), 0)
}

func TestEmulatorAccess(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)

	assert.NoError(emu.Set("r3", 0x1234))
	value, err := emu.Get("R3")
	assert.NoError(err)
	assert.Equal(uint64(0x1234), value)

	_, err = emu.Get("R99")
	var unknown cpu.ErrRegisterUnknown
	assert.ErrorAs(err, &unknown)

	assert.NoError(emu.Poke(8, 4, 0xdeadbeef))
	value, err = emu.Peek(8, 2)
	assert.NoError(err)
	assert.Equal(uint64(0xbeef), value)

	_, err = emu.Peek(9, 2)
	assert.ErrorIs(err, cpu.ErrAddressUnaligned)

	evaluate(t, emu, "  MOVS R3, #8", "  LDR R0, [R3]")
	assert.Equal(uint64(0xdeadbeef), emu.R(0))

	var names []string
	for name := range emu.Registers() {
		names = append(names, name)
	}
	assert.Len(names, 16+cpu.SPECIAL_COUNT)
	assert.Equal("APSR", names[16])
}

func TestEmulatorWarnings(t *testing.T) {
	assert := assert.New(t)

	var buff bytes.Buffer
	emu := newTestEmulator(t)
	emu.Logger = slog.New(slog.NewTextHandler(&buff, nil))

	evaluate(t, emu,
		"  AREA demo, CODE, READONLY",
		"  PRESERVE8",
		"  MOVS R0, #1",
	)

	assert.Len(emu.Warnings, 2)
	var notImplemented cpu.ErrNotImplemented
	assert.ErrorAs(emu.Warnings[1], &notImplemented)
	assert.Equal(cpu.ErrNotImplemented("PRESERVE8"), notImplemented)
	assert.Contains(buff.String(), "level=WARN")
	assert.Contains(buff.String(), "AREA")
}

func TestEmulatorVerbose(t *testing.T) {
	assert := assert.New(t)

	var buff bytes.Buffer
	emu := newTestEmulator(t)
	emu.Verbose = true
	emu.Logger = slog.New(slog.NewTextHandler(&buff, &slog.HandlerOptions{Level: slog.LevelDebug}))

	evaluate(t, emu, "  MOVS R0, #1")
	assert.Contains(buff.String(), "msg=assemble")
	assert.Contains(buff.String(), "msg=step")
}

func TestEmulatorReset(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)
	evaluate(t, emu,
		"  TTL Scratch",
		"data DCD 42",
		"top MOVS R0, #1",
		"  AREA x",
	)
	assert.Len(emu.Warnings, 1)

	emu.Reset()
	assert.Equal(0, emu.Program.Len())
	assert.Len(emu.Labels(), 0)
	assert.Equal("", emu.Title())
	assert.Len(emu.Warnings, 0)
	assert.Equal(0, emu.Steps)
	assert.Equal(uint64(0), emu.R(0))
	assert.Equal(uint64(0), emu.PC())
	assert.Len(maps.Collect(emu.Memory.Cells()), 0)

	evaluate(t, emu, "again DCD 7")
	assert.Equal(map[string]uint64{"again": 0}, emu.Labels())
}

func TestEmulatorSymbols(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)
	evaluate(t, emu,
		"BASE EQU 0x20",
		"zeta MOVS R0, #BASE",
		"alpha MOVS R1, #1",
	)

	var names, values []string
	for name, value := range emu.Symbols() {
		names = append(names, name)
		values = append(values, value)
	}
	assert.Equal([]string{"alpha", "zeta", "BASE"}, names)
	assert.Equal([]string{"1", "0", "32"}, values)
}

func TestSnapshot(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t)
	evaluate(t, emu,
		"  TTL Snap",
		"word DCD 0x01020304",
		"  MOVS R0, #9",
		"  MOVS R1, #0",
	)

	snap := emu.Snapshot()
	assert.Equal("Snap", snap.Title)
	assert.Equal(uint64(9), snap.Registers["R0"])
	assert.Equal("nZcv", snap.Flags)
	assert.Equal(uint8(0x04), snap.Memory[0])
	assert.Equal([]string{"0: MOVS R0, #9", "1: MOVS R1, #0"}, snap.Program)
	assert.Equal(2, snap.Steps)

	text, err := snap.YAML()
	require.NoError(t, err)
	assert.Contains(string(text), "title: Snap")

	var back Snapshot
	require.NoError(t, yaml.Unmarshal(text, &back))
	assert.Equal(snap.Registers, back.Registers)
	assert.Equal(snap.Config, back.Config)
	assert.Equal(snap.Labels, back.Labels)
}
