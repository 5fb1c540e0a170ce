package cpu

import (
	"strings"

	"github.com/ezrec/iarm/internal"
)

func compileMOV(blk *Block, text string) (thunk Thunk, err error) {
	ops, err := operands(text, 2)
	if err != nil {
		return
	}

	regs, err := blk.registers(RULE_HIGH_REGISTERS, ops...)
	if err != nil {
		return
	}

	cpu := blk.cpu
	rd, rm := regs[0], regs[1]
	thunk = func() error {
		cpu.SetR(rd, cpu.R(rm))
		return nil
	}
	return
}

// compileMOVS accepts MOVS Rd, #imm8 and MOVS Rd, Rm over low registers.
func compileMOVS(blk *Block, text string) (thunk Thunk, err error) {
	ops, err := operands(text, 2)
	if err != nil {
		return
	}

	cpu := blk.cpu

	switch {
	case IsImmediate(ops[1]):
		var rd int
		rd, err = blk.register(RULE_LOW_REGISTERS, ops[0])
		if err != nil {
			return
		}
		var imm uint64
		imm, err = blk.immediate(RULE_IMM8, ops[1])
		if err != nil {
			return
		}
		thunk = func() error {
			cpu.SetR(rd, imm)
			cpu.setNZ(imm)
			return nil
		}
	case IsRegister(ops[1]):
		var rd, rm int
		rd, rm, err = blk.lowPair(text)
		if err != nil {
			return
		}
		thunk = func() error {
			value := cpu.R(rm)
			cpu.SetR(rd, value)
			cpu.setNZ(value)
			return nil
		}
	default:
		err = parsingError(ops[1], "unknown operand")
	}

	return
}

// compileMRS reads a special register, or a program status view, into Rd.
func compileMRS(blk *Block, text string) (thunk Thunk, err error) {
	ops, err := operands(text, 2)
	if err != nil {
		return
	}

	rd, err := blk.register(RULE_LR_OR_GENERAL, ops[0])
	if err != nil {
		return
	}
	_, err = blk.Check(RULE_SPECIAL_REGISTERS, ops[1])
	if err != nil {
		return
	}

	cpu := blk.cpu
	name := strings.ToUpper(ops[1])
	thunk = func() error {
		value, err := cpu.Register.Get(name)
		if err != nil {
			return err
		}
		cpu.SetR(rd, value)
		return nil
	}
	return
}

// compileMSR writes Rn into a special register. Only the flag bits of APSR are
// writable; IPSR and EPSR ignore writes.
func compileMSR(blk *Block, text string) (thunk Thunk, err error) {
	ops, err := operands(text, 2)
	if err != nil {
		return
	}

	_, err = blk.Check(RULE_SPECIAL_REGISTERS, ops[0])
	if err != nil {
		return
	}
	rn, err := blk.register(RULE_LR_OR_GENERAL, ops[1])
	if err != nil {
		return
	}

	cpu := blk.cpu
	rb := cpu.Register

	var index int
	var mask uint64
	switch strings.ToUpper(ops[0]) {
	case "APSR", "PSR", "XPSR", "IAPSR", "EAPSR":
		index, mask = rb.Special(SPECIAL_APSR), cpu.FlagMask()
	case "PRIMASK":
		index, mask = rb.Special(SPECIAL_PRIMASK), 1
	case "CONTROL":
		index, mask = rb.Special(SPECIAL_CONTROL), 3
	default:
		thunk = func() error { return nil }
		return
	}

	thunk = func() error {
		rb.Write(index, (rb.Read(index) &^ mask)|(cpu.R(rn)&mask))
		return nil
	}
	return
}

// unaryOp transforms one register value of the given width.
type unaryOp func(x uint64, width int) uint64

func opMVN(x uint64, width int) uint64 {
	return ^x
}

func reverseBytes(x uint64, width int) (result uint64) {
	for n := range (width + 7) / 8 {
		result = (result << 8) | ((x >> (8 * n)) & 0xff)
	}
	return
}

func opREV(x uint64, width int) uint64 {
	return reverseBytes(x, width)
}

func opREV16(x uint64, width int) uint64 {
	const lanes = 0x00ff00ff00ff00ff
	return ((x & lanes) << 8) | ((x >> 8) & lanes)
}

func opREVSH(x uint64, width int) uint64 {
	return internal.SignExtend(reverseBytes(x&0xffff, 16), 16)
}

func opSXTB(x uint64, width int) uint64 { return internal.SignExtend(x, 8) }
func opSXTH(x uint64, width int) uint64 { return internal.SignExtend(x, 16) }
func opUXTB(x uint64, width int) uint64 { return x & 0xff }
func opUXTH(x uint64, width int) uint64 { return x & 0xffff }

// compileUnary compiles "Rd, Rm" over low registers. Only MVNS sets flags.
func compileUnary(op unaryOp, setsFlags bool) compileFunc {
	return func(blk *Block, text string) (thunk Thunk, err error) {
		rd, rm, err := blk.lowPair(text)
		if err != nil {
			return
		}

		cpu := blk.cpu
		thunk = func() error {
			result := op(cpu.R(rm), cpu.Register.Width()) & cpu.Mask()
			cpu.SetR(rd, result)
			if setsFlags {
				cpu.setNZ(result)
			}
			return nil
		}
		return
	}
}
