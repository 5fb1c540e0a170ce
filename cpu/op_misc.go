package cpu

import (
	"strings"
)

// compileBKPT halts execution.
func compileBKPT(blk *Block, text string) (thunk Thunk, err error) {
	ops, err := operands(text, 1)
	if err != nil {
		return
	}

	_, err = blk.immediate(RULE_IMM8, ops[0])
	if err != nil {
		return
	}

	thunk = func() error { return ErrEndOfProgram }
	return
}

// compileCPS sets PRIMASK to mask.
func compileCPS(mask uint64) compileFunc {
	return func(blk *Block, text string) (thunk Thunk, err error) {
		ops, err := operands(text, 1)
		if err != nil {
			return
		}
		if !strings.EqualFold(ops[0], "i") {
			err = parsingError(ops[0], "unknown operand")
			return
		}

		rb := blk.cpu.Register
		primask := rb.Special(SPECIAL_PRIMASK)
		thunk = func() error {
			rb.Write(primask, mask)
			return nil
		}
		return
	}
}
