package cpu

import (
	"strconv"
)

var branchTable = buildBranchTable()

func buildBranchTable() (table map[string]compileFunc) {
	table = map[string]compileFunc{
		"B":   compileBranch(COND_AL),
		"BL":  compileBL,
		"BX":  compileBX,
		"BLX": compileBLX,
	}

	for suffix, cond := range conditionSuffix {
		table["B"+suffix] = compileBranch(cond)
	}

	return
}

// target parses a single label operand. "." is the branch itself.
func target(text string) (name string, err error) {
	ops, err := operands(text, 1)
	if err != nil {
		return
	}

	name = ops[0]
	if name != "." && !IsLabel(name) {
		err = parsingError(name, "is not a label")
	}
	return
}

// compileBranch compiles B<cond> label. The label is resolved when the
// branch is taken. A taken branch to itself ends the program.
func compileBranch(cond Condition) compileFunc {
	return func(blk *Block, text string) (thunk Thunk, err error) {
		name, err := target(text)
		if err != nil {
			return
		}

		if cond != COND_AL {
			err = blk.checkBranchRange(name)
			if err != nil {
				return
			}
		}

		cpu := blk.cpu
		prog := blk.prog
		thunk = func() error {
			if !cpu.Passed(cond) {
				return nil
			}
			if name == "." {
				return ErrEndOfProgram
			}
			index, err := prog.Lookup(name)
			if err != nil {
				return err
			}
			if index == cpu.PC() {
				return ErrEndOfProgram
			}
			cpu.SetR(cpu.Register.PC(), index)
			return nil
		}
		return
	}
}

// checkBranchRange applies the immS8_2 conditional branch offset rule to a
// target that is already resolved. Offsets count 2 bytes per instruction,
// relative to PC+4.
func (blk *Block) checkBranchRange(name string) (err error) {
	index, ok := blk.label(name)
	if name == "." {
		index, ok = blk.Index(), true
	}
	if !ok {
		return
	}

	offset := 2*(int64(index)-int64(blk.Index())) - 4
	_, rerr := blk.Check(RULE_IMMS8_2, "#"+strconv.FormatInt(offset, 10))
	if rerr != nil {
		err = ruleError(name, "is beyond the conditional branch range of [-256, 254] bytes")
	}
	return
}

// compileBL links LR to the next instruction and branches to a label.
func compileBL(blk *Block, text string) (thunk Thunk, err error) {
	name, err := target(text)
	if err != nil {
		return
	}
	if name == "." {
		err = parsingError(name, "is not a label")
		return
	}

	cpu := blk.cpu
	prog := blk.prog
	rb := cpu.Register
	thunk = func() error {
		index, err := prog.Lookup(name)
		if err != nil {
			return err
		}
		cpu.SetR(rb.LR(), cpu.PC()+1)
		cpu.SetR(rb.PC(), index)
		return nil
	}
	return
}

func compileBX(blk *Block, text string) (thunk Thunk, err error) {
	ops, err := operands(text, 1)
	if err != nil {
		return
	}

	rm, err := blk.register(RULE_HIGH_REGISTERS, ops[0])
	if err != nil {
		return
	}

	cpu := blk.cpu
	thunk = func() error {
		cpu.SetR(cpu.Register.PC(), cpu.R(rm))
		return nil
	}
	return
}

func compileBLX(blk *Block, text string) (thunk Thunk, err error) {
	ops, err := operands(text, 1)
	if err != nil {
		return
	}

	rm, err := blk.register(RULE_R0_THRU_R14, ops[0])
	if err != nil {
		return
	}

	cpu := blk.cpu
	rb := cpu.Register
	thunk = func() error {
		next, to := cpu.PC()+1, cpu.R(rm)
		cpu.SetR(rb.LR(), next)
		cpu.SetR(rb.PC(), to)
		return nil
	}
	return
}
