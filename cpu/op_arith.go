package cpu

func compileADCS(blk *Block, text string) (thunk Thunk, err error) {
	rdn, rm, err := blk.lowSame(text)
	if err != nil {
		return
	}

	cpu := blk.cpu
	thunk = func() error {
		result, c, v := AddWithCarry(cpu.Register.Width(), cpu.R(rdn), cpu.R(rm), cpu.Carry())
		cpu.SetR(rdn, result)
		cpu.setNZCV(result, c, v)
		return nil
	}
	return
}

// compileADD accepts ADD Rdn, Rdn, Rm; ADD SP, SP, #imm9_4 and
// ADD Rd, SP|PC, #imm10_4. None of them set flags.
func compileADD(blk *Block, text string) (thunk Thunk, err error) {
	ops, err := operands(text, 3)
	if err != nil {
		return
	}

	cpu := blk.cpu
	rb := cpu.Register

	if !IsImmediate(ops[2]) {
		var regs []int
		regs, err = blk.registers(RULE_HIGH_REGISTERS, ops...)
		if err != nil {
			return
		}
		err = blk.same(ops[0], ops[1])
		if err != nil {
			return
		}
		rdn, rm := regs[0], regs[2]
		thunk = func() error {
			cpu.SetR(rdn, cpu.R(rdn)+cpu.R(rm))
			return nil
		}
		return
	}

	if blk.isSP(ops[0]) {
		if !blk.isSP(ops[1]) {
			err = ruleError(ops[1], "must be SP")
			return
		}
		var imm uint64
		imm, err = blk.immediate(RULE_IMM9_4, ops[2])
		if err != nil {
			return
		}
		sp := rb.SP()
		thunk = func() error {
			cpu.SetR(sp, cpu.R(sp)+imm)
			return nil
		}
		return
	}

	rd, err := blk.register(RULE_LOW_REGISTERS, ops[0])
	if err != nil {
		return
	}
	rn, err := blk.register(RULE_HIGH_REGISTERS, ops[1])
	if err != nil {
		return
	}
	if rn != rb.SP() && rn != rb.PC() {
		err = ruleError(ops[1], "must be SP or PC")
		return
	}
	imm, err := blk.immediate(RULE_IMM10_4, ops[2])
	if err != nil {
		return
	}

	thunk = func() error {
		cpu.SetR(rd, cpu.R(rn)+imm)
		return nil
	}
	return
}

// addSub compiles the ADDS and SUBS forms Rd, Rn, Rm; Rdn, Rdn, #imm8 and
// Rd, Rn, #imm3.
func addSub(blk *Block, text string, subtract bool) (thunk Thunk, err error) {
	ops, err := operands(text, 3)
	if err != nil {
		return
	}

	cpu := blk.cpu
	apply := func(rd int, lhs, rhs uint64) {
		var result uint64
		var c, v bool
		if subtract {
			result, c, v = AddWithCarry(cpu.Register.Width(), lhs, ^rhs, true)
		} else {
			result, c, v = AddWithCarry(cpu.Register.Width(), lhs, rhs, false)
		}
		cpu.SetR(rd, result)
		cpu.setNZCV(result, c, v)
	}

	if IsImmediate(ops[2]) {
		var regs []int
		regs, err = blk.registers(RULE_LOW_REGISTERS, ops[0], ops[1])
		if err != nil {
			return
		}
		rule := RULE_IMM3
		if regs[0] == regs[1] {
			rule = RULE_IMM8
		}
		var imm uint64
		imm, err = blk.immediate(rule, ops[2])
		if err != nil {
			return
		}
		rd, rn := regs[0], regs[1]
		thunk = func() error {
			apply(rd, cpu.R(rn), imm)
			return nil
		}
		return
	}

	regs, err := blk.registers(RULE_LOW_REGISTERS, ops...)
	if err != nil {
		return
	}
	rd, rn, rm := regs[0], regs[1], regs[2]
	thunk = func() error {
		apply(rd, cpu.R(rn), cpu.R(rm))
		return nil
	}
	return
}

func compileADDS(blk *Block, text string) (Thunk, error) {
	return addSub(blk, text, false)
}

func compileSUBS(blk *Block, text string) (Thunk, error) {
	return addSub(blk, text, true)
}

func compileCMN(blk *Block, text string) (thunk Thunk, err error) {
	rn, rm, err := blk.lowPair(text)
	if err != nil {
		return
	}

	cpu := blk.cpu
	thunk = func() error {
		lhs, rhs := cpu.R(rn), cpu.R(rm)
		cpu.SetFlags(lhs, rhs, lhs+rhs, FLAG_OP_ADD)
		return nil
	}
	return
}

// compileCMP accepts CMP Rn, #imm8 over a low register and CMP Rn, Rm over R0-R14.
func compileCMP(blk *Block, text string) (thunk Thunk, err error) {
	ops, err := operands(text, 2)
	if err != nil {
		return
	}

	cpu := blk.cpu
	compare := func(lhs, rhs uint64) {
		cpu.SetFlags(lhs, rhs, lhs-rhs, FLAG_OP_SUB)
	}

	if IsImmediate(ops[1]) {
		var rn int
		rn, err = blk.register(RULE_LOW_REGISTERS, ops[0])
		if err != nil {
			return
		}
		var imm uint64
		imm, err = blk.immediate(RULE_IMM8, ops[1])
		if err != nil {
			return
		}
		thunk = func() error {
			compare(cpu.R(rn), imm)
			return nil
		}
		return
	}

	regs, err := blk.registers(RULE_R0_THRU_R14, ops...)
	if err != nil {
		return
	}
	rn, rm := regs[0], regs[1]
	thunk = func() error {
		compare(cpu.R(rn), cpu.R(rm))
		return nil
	}
	return
}

// compileMULS accepts MULS Rdm, Rn, Rdm. C and V are unchanged.
func compileMULS(blk *Block, text string) (thunk Thunk, err error) {
	ops, err := operands(text, 3)
	if err != nil {
		return
	}

	regs, err := blk.registers(RULE_LOW_REGISTERS, ops...)
	if err != nil {
		return
	}
	err = blk.same(ops[0], ops[2])
	if err != nil {
		return
	}

	cpu := blk.cpu
	rdm, rn := regs[0], regs[1]
	thunk = func() error {
		result := (cpu.R(rn) * cpu.R(rdm)) & cpu.Mask()
		cpu.SetR(rdm, result)
		cpu.setNZ(result)
		return nil
	}
	return
}

// compileRSBS accepts RSBS Rd, Rn, #0.
func compileRSBS(blk *Block, text string) (thunk Thunk, err error) {
	ops, err := operands(text, 3)
	if err != nil {
		return
	}

	regs, err := blk.registers(RULE_LOW_REGISTERS, ops[0], ops[1])
	if err != nil {
		return
	}
	imm, err := blk.immediate(RULE_IMM8, ops[2])
	if err != nil {
		return
	}
	if imm != 0 {
		err = ruleError(ops[2], "must be #0")
		return
	}

	cpu := blk.cpu
	rd, rn := regs[0], regs[1]
	thunk = func() error {
		result, c, v := AddWithCarry(cpu.Register.Width(), 0, ^cpu.R(rn), true)
		cpu.SetR(rd, result)
		cpu.setNZCV(result, c, v)
		return nil
	}
	return
}

func compileSBCS(blk *Block, text string) (thunk Thunk, err error) {
	rdn, rm, err := blk.lowSame(text)
	if err != nil {
		return
	}

	cpu := blk.cpu
	thunk = func() error {
		result, c, v := AddWithCarry(cpu.Register.Width(), cpu.R(rdn), ^cpu.R(rm), cpu.Carry())
		cpu.SetR(rdn, result)
		cpu.setNZCV(result, c, v)
		return nil
	}
	return
}

// compileSUB accepts SUB SP, SP, #imm9_4.
func compileSUB(blk *Block, text string) (thunk Thunk, err error) {
	ops, err := operands(text, 3)
	if err != nil {
		return
	}

	for _, op := range ops[:2] {
		if !blk.isSP(op) {
			err = ruleError(op, "must be SP")
			return
		}
	}
	imm, err := blk.immediate(RULE_IMM9_4, ops[2])
	if err != nil {
		return
	}

	cpu := blk.cpu
	sp := cpu.Register.SP()
	thunk = func() error {
		cpu.SetR(sp, cpu.R(sp)-imm)
		return nil
	}
	return
}
