package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleCheck(t *testing.T) {
	assert := assert.New(t)

	blk := newBlock(newTestCpu(t, DefaultConfig()), NewProgram())

	table := []struct {
		rule  Rule
		token string
		value int64
		ok    bool
	}{
		{RULE_LOW_REGISTERS, "R0", 0, true},
		{RULE_LOW_REGISTERS, "r7", 7, true},
		{RULE_LOW_REGISTERS, "R8", 0, false},
		{RULE_LOW_REGISTERS, "SP", 0, false},
		{RULE_LOW_REGISTERS, "X1", 0, false},
		{RULE_LOW_REGISTERS, "R16", 0, false},
		{RULE_LOW_REGISTERS, "#1", 0, false},
		{RULE_HIGH_REGISTERS, "R12", 12, true},
		{RULE_HIGH_REGISTERS, "PC", 15, true},
		{RULE_R0_THRU_R14, "LR", 14, true},
		{RULE_R0_THRU_R14, "PC", 0, false},
		{RULE_LR_OR_GENERAL, "R12", 12, true},
		{RULE_LR_OR_GENERAL, "LR", 14, true},
		{RULE_LR_OR_GENERAL, "SP", 0, false},
		{RULE_LR_OR_GENERAL, "PC", 0, false},
		{RULE_SPECIAL_REGISTERS, "PRIMASK", 19, true},
		{RULE_SPECIAL_REGISTERS, "apsr", 16, true},
		{RULE_SPECIAL_REGISTERS, "XPSR", -1, true},
		{RULE_SPECIAL_REGISTERS, "R0", 0, false},
		{RULE_IMM3, "#0", 0, true},
		{RULE_IMM3, "#7", 7, true},
		{RULE_IMM3, "#8", 0, false},
		{RULE_IMM3, "#-1", 0, false},
		{RULE_IMM3, "7", 0, false},
		{RULE_IMM5, "#31", 31, true},
		{RULE_IMM5, "#32", 0, false},
		{RULE_IMM5_COUNTING, "#0", 0, false},
		{RULE_IMM5_COUNTING, "#1", 1, true},
		{RULE_IMM5_COUNTING, "#31", 31, true},
		{RULE_IMM5_COUNTING, "#32", 0, false},
		{RULE_IMM6_2, "#62", 62, true},
		{RULE_IMM6_2, "#63", 0, false},
		{RULE_IMM6_2, "#64", 0, false},
		{RULE_IMM7_4, "#124", 124, true},
		{RULE_IMM7_4, "#126", 0, false},
		{RULE_IMM7_4, "#128", 0, false},
		{RULE_IMM8, "#255", 255, true},
		{RULE_IMM8, "#0xff", 255, true},
		{RULE_IMM8, "#0b101", 5, true},
		{RULE_IMM8, "#256", 0, false},
		{RULE_IMM9_4, "#508", 508, true},
		{RULE_IMM9_4, "#512", 0, false},
		{RULE_IMM10_4, "#1020", 1020, true},
		{RULE_IMM10_4, "#1024", 0, false},
		{RULE_IMMS8_2, "#-256", -256, true},
		{RULE_IMMS8_2, "#254", 254, true},
		{RULE_IMMS8_2, "#255", 0, false},
		{RULE_IMMS8_2, "#-258", 0, false},
	}

	for _, entry := range table {
		value, err := blk.Check(entry.rule, entry.token)
		if entry.ok {
			assert.NoError(err, "%v %v", entry.rule, entry.token)
			assert.Equal(entry.value, value, "%v %v", entry.rule, entry.token)
			continue
		}

		var rule *ErrRule
		assert.ErrorAs(err, &rule, "%v %v", entry.rule, entry.token)
	}

	_, err := blk.Check(Rule(99), "R0")
	assert.ErrorIs(err, ErrBrainFart)

	assert.Equal("imm8", RULE_IMM8.String())
	assert.Equal("low_registers", RULE_LOW_REGISTERS.String())
	assert.Equal("unknown", Rule(-1).String())
}

func TestRuleMessage(t *testing.T) {
	assert := assert.New(t)

	blk := newBlock(newTestCpu(t, DefaultConfig()), NewProgram())

	table := []struct {
		rule   Rule
		token  string
		reason string
	}{
		{RULE_LOW_REGISTERS, "R8", "is not a low register (R0-R7)"},
		{RULE_LOW_REGISTERS, "R16", "is greater than the highest defined register R15"},
		{RULE_LOW_REGISTERS, "bogus", "is not a register"},
		{RULE_LOW_REGISTERS, "R01", "is not a register"},
		{RULE_HIGH_REGISTERS, "R007", "is not a register"},
		{RULE_IMM8, "#256", "is not an unsigned 8 bit value"},
		{RULE_IMM7_4, "#6", "is not a multiple of 4"},
		{RULE_IMMS8_2, "#-300", "is not within the range of [-256, 255]"},
	}

	for _, entry := range table {
		_, err := blk.Check(entry.rule, entry.token)
		var rule *ErrRule
		if assert.ErrorAs(err, &rule, entry.token) {
			assert.Equal(entry.token, rule.Token)
			assert.Equal(entry.reason, rule.Reason)
		}
	}
}

func TestBlockValue(t *testing.T) {
	assert := assert.New(t)

	prog := NewProgram()
	prog.Equate["SIZE"] = "16"
	prog.Label["table"] = 32

	blk := newBlock(newTestCpu(t, DefaultConfig()), prog)
	blk.Equate["HALF"] = "8"
	blk.pending["later"] = true

	table := []struct {
		text   string
		expect int64
		ok     bool
	}{
		{"12", 12, true},
		{"-3", -3, true},
		{"0x10", 16, true},
		{"0b11", 3, true},
		{"0xffffffffffffffff", -1, true},
		{"SIZE", 16, true},
		{"HALF", 8, true},
		{"table", 32, true},
		{"SIZE*2+1", 33, true},
		{"table + HALF", 40, true},
		{"(SIZE - HALF) // 2", 4, true},
		{"later", 0, false},
		{"nosuch", 0, false},
		{"SIZE +", 0, false},
		{"'text'", 0, false},
	}

	for _, entry := range table {
		value, err := blk.Value(entry.text)
		if entry.ok {
			assert.NoError(err, entry.text)
			assert.Equal(entry.expect, value, entry.text)
		} else {
			var parsing *ErrParsing
			assert.ErrorAs(err, &parsing, entry.text)
		}
	}

	_, err := blk.Value("later")
	assert.ErrorContains(err, ErrLabelUnresolved.Error())
}
