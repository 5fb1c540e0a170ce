package cpu

// compileShift compiles "Rdn, Rdn, Rm", shifting by the bottom byte of Rm, and,
// when immRule is a valid rule, "Rd, Rm, #imm".
func compileShift(op shiftOp, immRule Rule) compileFunc {
	return func(blk *Block, text string) (thunk Thunk, err error) {
		ops, err := operands(text, 3)
		if err != nil {
			return
		}

		cpu := blk.cpu
		apply := func(rd int, value uint64, amount uint64) {
			result, carry := cpu.shift(op, value, amount)
			cpu.SetR(rd, result)
			cpu.setNZ(result)
			cpu.setFlag(cpu.flagC(), carry)
		}

		if _, ok := ruleTable[immRule]; ok && IsImmediate(ops[2]) {
			var regs []int
			regs, err = blk.registers(RULE_LOW_REGISTERS, ops[0], ops[1])
			if err != nil {
				return
			}
			var imm uint64
			imm, err = blk.immediate(immRule, ops[2])
			if err != nil {
				return
			}
			rd, rm := regs[0], regs[1]
			thunk = func() error {
				apply(rd, cpu.R(rm), imm)
				return nil
			}
			return
		}

		rdn, rm, err := blk.lowSame(text)
		if err != nil {
			return
		}

		thunk = func() error {
			apply(rdn, cpu.R(rdn), cpu.R(rm)&0xff)
			return nil
		}
		return
	}
}
