package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ezrec/iarm/cpu"
	"github.com/ezrec/iarm/emulator"
)

func newTestSession(t *testing.T, cfg cpu.Config) (sess *Session, out *bytes.Buffer) {
	t.Helper()

	color.NoColor = true

	emu, err := emulator.NewEmulator(cfg)
	require.NoError(t, err)

	out = &bytes.Buffer{}
	sess = NewSession(emu, out)
	return
}

func TestSessionBatch(t *testing.T) {
	assert := assert.New(t)

	sess, out := newTestSession(t, cpu.DefaultConfig())

	source := `
  MOVS R0, #5
  MOVS R1, #7
  ADDS R2, R0, R1
%reg R0, R2 lr
`
	err := sess.Feed(strings.NewReader(source))
	assert.NoError(err)

	assert.Equal("R0     : 0x00000005\nR2     : 0x0000000c\nLR     : 0x00000000\n", out.String())
}

func TestSessionBlankLines(t *testing.T) {
	assert := assert.New(t)

	// In batch mode blank lines do not split the block, so the forward
	// reference resolves.
	sess, _ := newTestSession(t, cpu.DefaultConfig())
	err := sess.Feed(strings.NewReader("  B skip\n\n  MOVS R0, #1\nskip\n  MOVS R1, #2\n"))
	assert.NoError(err)
	assert.Equal(uint64(0), sess.Emulator.R(0))
	assert.Equal(uint64(2), sess.Emulator.R(1))

	// Interactive sessions evaluate at each blank line.
	sess, out := newTestSession(t, cpu.DefaultConfig())
	sess.Interactive = true
	err = sess.Feed(strings.NewReader("  MOVS R0, #1\n\n  MOVS R0, #300\n\n  MOVS R1, #3\n"))
	assert.NoError(err)
	assert.Equal(uint64(1), sess.Emulator.R(0))
	assert.Equal(uint64(3), sess.Emulator.R(1))
	assert.Contains(out.String(), "error: ")
	assert.Equal(1, strings.Count(out.String(), "error: "))
}

func TestSessionBatchError(t *testing.T) {
	assert := assert.New(t)

	sess, out := newTestSession(t, cpu.DefaultConfig())

	err := sess.Feed(strings.NewReader("  MOVS R0, #1\n  FROB R0\n%reg R0\n  MOVS R1, #1\n"))
	var syntax cpu.ErrSyntax
	if assert.ErrorAs(err, &syntax) {
		assert.Equal(2, syntax.LineNo)
	}
	assert.Empty(out.String())
	assert.Equal(uint64(0), sess.Emulator.R(1))
}

func TestSessionRun(t *testing.T) {
	assert := assert.New(t)

	cfg := cpu.DefaultConfig()
	cfg.AutoRun = false
	sess, out := newTestSession(t, cfg)

	source := `
  MOVS R0, #0
loop
  ADDS R0, R0, #1
  B loop
%run 7
%reg R0
%run 2
%reg R0
`
	err := sess.Feed(strings.NewReader(source))
	assert.NoError(err)
	assert.Equal("ran 7 steps\nR0     : 0x00000003\nran 2 steps\nR0     : 0x00000004\n", out.String())

	out.Reset()
	err = sess.Feed(strings.NewReader("%reset\n  MOVS R0, #1\n  B .\n%run\n"))
	assert.NoError(err)
	assert.Equal("reset\nhalted after 1 steps\n", out.String())
}

func TestSessionMemory(t *testing.T) {
	assert := assert.New(t)

	sess, out := newTestSession(t, cpu.DefaultConfig())

	source := `
  LDR R0, =0x11223344
  MOVS R1, #16
  STR R0, [R1]
table DCB 0xAB
%mem 16 0x11
%memory table
`
	err := sess.Feed(strings.NewReader(source))
	assert.NoError(err)

	table := sess.Emulator.Labels()["table"]
	expect := "0x0010: 0x44\n0x0011: 0x33\n" + formatByte(table, 0xab) + "\n"
	assert.Equal(expect, out.String())

	err = sess.Magic("%mem nowhere")
	assert.ErrorIs(err, ErrAddress("nowhere"))

	err = sess.Magic("%mem 0x10000")
	assert.Error(err)
}

func TestSessionMagic(t *testing.T) {
	assert := assert.New(t)

	sess, out := newTestSession(t, cpu.DefaultConfig())

	err := sess.Feed(strings.NewReader("SIZE EQU 4\nstart\n  MOVS R0, #0\n  CMP R0, #0\n%flags\n%labels\n"))
	assert.NoError(err)
	assert.Equal("APSR   : nZCv\nstart = 0\nSIZE = 4\n", out.String())

	assert.ErrorIs(sess.Magic("%"), ErrMagicMissing)
	assert.ErrorIs(sess.Magic("%bogus"), ErrMagicUnknown("bogus"))
	assert.Error(sess.Magic("%run lots"))

	out.Reset()
	assert.NoError(sess.Magic("%reset"))
	assert.Equal("reset\n", out.String())
	assert.Empty(sess.Emulator.Labels())
	assert.Equal(0, sess.Emulator.Program.Len())
}

func TestSessionDump(t *testing.T) {
	assert := assert.New(t)

	sess, out := newTestSession(t, cpu.DefaultConfig())

	err := sess.Feed(strings.NewReader("  TTL demo\n  MOVS R3, #9\n%dump\n"))
	assert.NoError(err)

	var snap emulator.Snapshot
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &snap))
	assert.Equal("demo", snap.Title)
	assert.Equal(uint64(9), snap.Registers["R3"])
	assert.Equal(1, snap.Steps)
}

func TestFormat(t *testing.T) {
	assert := assert.New(t)

	color.NoColor = true

	assert.Equal(4, hexDigits(16))
	assert.Equal(3, hexDigits(12))
	assert.Equal("PC     : 0x01f", formatRegister("PC", 31, 12))
	assert.Equal("0x0100: 0x07", formatByte(256, 7))
	assert.Equal("NzCv", formatFlags(true, false, true, false))
}

func TestSessionHelp(t *testing.T) {
	assert := assert.New(t)

	sess, out := newTestSession(t, cpu.DefaultConfig())

	assert.NoError(sess.Magic("%help"))

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if assert.Len(lines, 3) {
		assert.True(strings.HasPrefix(lines[0], "magics: %run [N]"))
		assert.Contains(lines[1], " MOVS ")
		assert.Contains(lines[1], " BNE")
		assert.Contains(lines[2], " DCD ")
		assert.Contains(lines[2], " EQU ")
	}
}
