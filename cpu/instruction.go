package cpu

import (
	"slices"
	"strings"
)

var instructionTable = map[string]compileFunc{
	// Arithmetic
	"ADCS": compileADCS,
	"ADD":  compileADD,
	"ADDS": compileADDS,
	"CMN":  compileCMN,
	"CMP":  compileCMP,
	"MULS": compileMULS,
	"NOP":  compileNop,
	"RSBS": compileRSBS,
	"SBCS": compileSBCS,
	"SUB":  compileSUB,
	"SUBS": compileSUBS,

	// Data movement
	"MOV":   compileMOV,
	"MOVS":  compileMOVS,
	"MRS":   compileMRS,
	"MSR":   compileMSR,
	"MVNS":  compileUnary(opMVN, true),
	"REV":   compileUnary(opREV, false),
	"REV16": compileUnary(opREV16, false),
	"REVSH": compileUnary(opREVSH, false),
	"SXTB":  compileUnary(opSXTB, false),
	"SXTH":  compileUnary(opSXTH, false),
	"UXTB":  compileUnary(opUXTB, false),
	"UXTH":  compileUnary(opUXTH, false),

	// Logic
	"ANDS": compileLogic(func(a, b uint64) uint64 { return a & b }),
	"BICS": compileLogic(func(a, b uint64) uint64 { return a &^ b }),
	"EORS": compileLogic(func(a, b uint64) uint64 { return a ^ b }),
	"ORRS": compileLogic(func(a, b uint64) uint64 { return a | b }),
	"TST":  compileTST,

	// Shift
	"ASRS": compileShift(shiftASR, RULE_IMM5_COUNTING),
	"LSLS": compileShift(shiftLSL, RULE_IMM5),
	"LSRS": compileShift(shiftLSR, RULE_IMM5_COUNTING),
	"RORS": compileShift(shiftROR, -1),

	// Memory
	"ADR":   compileADR,
	"LDR":   compileLoadStore(4, true, false, RULE_IMM7_4),
	"LDRB":  compileLoadStore(1, true, false, RULE_IMM5),
	"LDRH":  compileLoadStore(2, true, false, RULE_IMM6_2),
	"LDRSB": compileLoadStore(1, true, true, -1),
	"LDRSH": compileLoadStore(2, true, true, -1),
	"STR":   compileLoadStore(4, false, false, RULE_IMM7_4),
	"STRB":  compileLoadStore(1, false, false, RULE_IMM5),
	"STRH":  compileLoadStore(2, false, false, RULE_IMM6_2),
	"PUSH":  compilePUSH,
	"POP":   compilePOP,
	"LDM":   compileLDM,
	"STM":   compileSTM,

	// Misc
	"BKPT":  compileBKPT,
	"CPSID": compileCPS(1),
	"CPSIE": compileCPS(0),
	"DMB":   compileNop,
	"DSB":   compileNop,
	"ISB":   compileNop,
	"SEV":   compileNop,
	"WFE":   compileNop,
	"WFI":   compileNop,
	"YIELD": compileNop,
}

// registers checks every token against rule.
func (blk *Block) registers(rule Rule, tokens ...string) (index []int, err error) {
	index = make([]int, len(tokens))
	for n, token := range tokens {
		index[n], err = blk.register(rule, token)
		if err != nil {
			return
		}
	}
	return
}

// same requires two operands to name the same register.
func (blk *Block) same(first, second string) (err error) {
	a, aerr := blk.cpu.Register.Index(first)
	b, berr := blk.cpu.Register.Index(second)
	if aerr != nil || berr != nil || a != b {
		err = ruleError(second, "must be the same register as %v", first)
	}
	return
}

// lowSame parses "Rdn, Rdn, Rm" over low registers.
func (blk *Block) lowSame(text string) (rdn, rm int, err error) {
	ops, err := operands(text, 3)
	if err != nil {
		return
	}

	regs, err := blk.registers(RULE_LOW_REGISTERS, ops...)
	if err != nil {
		return
	}

	err = blk.same(ops[0], ops[1])
	if err != nil {
		return
	}

	rdn, rm = regs[0], regs[2]
	return
}

// lowPair parses "Rd, Rm" over low registers.
func (blk *Block) lowPair(text string) (rd, rm int, err error) {
	ops, err := operands(text, 2)
	if err != nil {
		return
	}

	regs, err := blk.registers(RULE_LOW_REGISTERS, ops...)
	if err != nil {
		return
	}

	rd, rm = regs[0], regs[1]
	return
}

// isSP reports whether token names the stack pointer.
func (blk *Block) isSP(token string) bool {
	index, err := blk.cpu.Register.Index(token)
	return err == nil && index == blk.cpu.Register.SP()
}

// registerSet expands a register list. Each element must be a low register
// or the extra register.
func (blk *Block) registerSet(op string, extra int) (list []int, err error) {
	elems, err := registerList(op)
	if err != nil {
		return
	}

	rb := blk.cpu.Register
	for _, elem := range elems {
		if first, last, ok := strings.Cut(elem, "-"); ok {
			var span []int
			span, err = blk.registers(RULE_LOW_REGISTERS, strings.TrimSpace(first), strings.TrimSpace(last))
			if err != nil {
				return
			}
			if span[0] > span[1] {
				err = ruleError(elem, "is not an ascending register range")
				return
			}
			for n := span[0]; n <= span[1]; n++ {
				list = append(list, n)
			}
			continue
		}

		if !IsRegister(elem) {
			err = ruleError(elem, "is not a register")
			return
		}
		var index int
		index, err = registerIndex(rb, elem)
		if err != nil {
			return
		}
		if index > 7 && index != extra {
			err = ruleError(elem, "is not allowed in this register list")
			return
		}
		list = append(list, index)
	}

	slices.Sort(list)
	if len(slices.Compact(slices.Clone(list))) != len(list) {
		err = ruleError(op, "lists a register twice")
		return
	}

	return
}

func compileNop(blk *Block, text string) (thunk Thunk, err error) {
	_, err = operands(text, 0)
	if err != nil {
		return
	}

	thunk = func() error { return nil }
	return
}
