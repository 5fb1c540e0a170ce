package cpu

import (
	"strings"
)

// Rule is a named operand constraint.
type Rule int

const (
	RULE_LOW_REGISTERS     = Rule(iota) // R0-R7
	RULE_HIGH_REGISTERS                 // any general purpose register
	RULE_R0_THRU_R14                    // any general purpose register but PC
	RULE_LR_OR_GENERAL                  // R0-R12 or LR
	RULE_SPECIAL_REGISTERS              // APSR, IPSR, EPSR, PRIMASK, CONTROL and PSR views
	RULE_IMM3
	RULE_IMM5
	RULE_IMM5_COUNTING
	RULE_IMM6_2
	RULE_IMM7_4
	RULE_IMM8
	RULE_IMM9_4
	RULE_IMM10_4
	RULE_IMMS8_2
)

type ruleKind int

const (
	ruleRegister = ruleKind(iota)
	ruleSpecial
	ruleImmediate
)

type ruleDef struct {
	name     string
	kind     ruleKind
	class    func(rb *RegisterBank, index int) bool
	classMsg string
	min, max int64
	multiple int64
	bits     int
}

func unsignedRule(name string, bits int, multiple int64) ruleDef {
	return ruleDef{name: name, kind: ruleImmediate, bits: bits, max: 1<<bits - 1, multiple: multiple}
}

func rangeRule(name string, low, high int64, multiple int64) ruleDef {
	return ruleDef{name: name, kind: ruleImmediate, min: low, max: high, multiple: multiple}
}

var ruleTable = map[Rule]ruleDef{
	RULE_LOW_REGISTERS: {
		name:     "low_registers",
		kind:     ruleRegister,
		class:    func(rb *RegisterBank, index int) bool { return index <= 7 },
		classMsg: "is not a low register (R0-R7)",
	},
	RULE_HIGH_REGISTERS: {
		name:  "high_registers",
		kind:  ruleRegister,
		class: func(rb *RegisterBank, index int) bool { return true },
	},
	RULE_R0_THRU_R14: {
		name:     "R0_thru_R14",
		kind:     ruleRegister,
		class:    func(rb *RegisterBank, index int) bool { return index != rb.PC() },
		classMsg: "cannot be PC",
	},
	RULE_LR_OR_GENERAL: {
		name:     "LR_or_general_purpose_registers",
		kind:     ruleRegister,
		class:    func(rb *RegisterBank, index int) bool { return index < rb.SP() || index == rb.LR() },
		classMsg: "must be a general purpose register or LR",
	},
	RULE_SPECIAL_REGISTERS: {
		name: "special_registers",
		kind: ruleSpecial,
	},
	RULE_IMM3:          unsignedRule("imm3", 3, 1),
	RULE_IMM5:          unsignedRule("imm5", 5, 1),
	RULE_IMM5_COUNTING: rangeRule("imm5_counting", 1, 31, 1),
	RULE_IMM6_2:        unsignedRule("imm6_2", 6, 2),
	RULE_IMM7_4:        unsignedRule("imm7_4", 7, 4),
	RULE_IMM8:          unsignedRule("imm8", 8, 1),
	RULE_IMM9_4:        unsignedRule("imm9_4", 9, 4),
	RULE_IMM10_4:       unsignedRule("imm10_4", 10, 4),
	RULE_IMMS8_2:       rangeRule("immS8_2", -256, 255, 2),
}

func (rule Rule) String() string {
	def, ok := ruleTable[rule]
	if !ok {
		return "unknown"
	}
	return def.name
}

// IsRegister reports whether token has register syntax: R<digits> or an alias.
func IsRegister(token string) bool {
	upper := strings.ToUpper(token)
	switch upper {
	case "PC", "LR", "SP":
		return true
	}
	if len(upper) < 2 || upper[0] != 'R' {
		return false
	}
	for _, c := range upper[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// IsImmediate reports whether token has immediate syntax.
func IsImmediate(token string) bool {
	return len(token) > 1 && token[0] == '#'
}

// Check applies rule to token, returning the register index or immediate value.
func (blk *Block) Check(rule Rule, token string) (value int64, err error) {
	def, ok := ruleTable[rule]
	if !ok {
		err = ErrBrainFart
		return
	}

	switch def.kind {
	case ruleRegister:
		value, err = blk.checkRegister(def, token)
	case ruleSpecial:
		value, err = blk.checkSpecial(token)
	case ruleImmediate:
		value, err = blk.checkImmediate(def, token)
	default:
		err = ErrBrainFart
	}

	return
}

func (blk *Block) checkRegister(def ruleDef, token string) (value int64, err error) {
	if !IsRegister(token) {
		err = ruleError(token, "is not a register")
		return
	}

	rb := blk.cpu.Register
	index, err := registerIndex(rb, token)
	if err != nil {
		return
	}

	if !def.class(rb, index) {
		err = ruleError(token, "%v", def.classMsg)
		return
	}

	value = int64(index)
	return
}

// registerIndex resolves a token with register syntax, telling a malformed
// number apart from one past the end of the bank.
func registerIndex(rb *RegisterBank, token string) (index int, err error) {
	index, ierr := rb.Index(token)
	if ierr == nil {
		return
	}

	if digits := token[1:]; len(digits) > 1 && digits[0] == '0' {
		err = ruleError(token, "is not a register")
		return
	}

	err = ruleError(token, "is greater than the highest defined register R%d", rb.General()-1)
	return
}

func (blk *Block) checkSpecial(token string) (value int64, err error) {
	upper := strings.ToUpper(token)
	if _, ok := psrViews[upper]; ok {
		value = -1
		return
	}

	rb := blk.cpu.Register
	index, ierr := rb.Index(upper)
	if ierr != nil || index < rb.General() {
		err = ruleError(token, "is not a special register")
		return
	}

	value = int64(index)
	return
}

func (blk *Block) checkImmediate(def ruleDef, token string) (value int64, err error) {
	if !IsImmediate(token) {
		err = ruleError(token, "is not an immediate")
		return
	}

	value, err = blk.Value(token[1:])
	if err != nil {
		return
	}

	if value < def.min || value > def.max {
		if def.bits > 0 {
			err = ruleError(token, "is not an unsigned %d bit value", def.bits)
		} else {
			err = ruleError(token, "is not within the range of [%d, %d]", def.min, def.max)
		}
		return
	}

	if def.multiple > 1 && value%def.multiple != 0 {
		err = ruleError(token, "is not a multiple of %d", def.multiple)
		return
	}

	return
}

// register checks a register rule and returns the register index.
func (blk *Block) register(rule Rule, token string) (index int, err error) {
	value, err := blk.Check(rule, token)
	index = int(value)
	return
}

// immediate checks an immediate rule and returns its value.
func (blk *Block) immediate(rule Rule, token string) (value uint64, err error) {
	v, err := blk.Check(rule, token)
	value = uint64(v)
	return
}
