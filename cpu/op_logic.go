package cpu

// compileLogic compiles "Rdn, Rdn, Rm" bitwise operations that set N and Z.
func compileLogic(op func(a, b uint64) uint64) compileFunc {
	return func(blk *Block, text string) (thunk Thunk, err error) {
		rdn, rm, err := blk.lowSame(text)
		if err != nil {
			return
		}

		cpu := blk.cpu
		thunk = func() error {
			result := op(cpu.R(rdn), cpu.R(rm)) & cpu.Mask()
			cpu.SetR(rdn, result)
			cpu.setNZ(result)
			return nil
		}
		return
	}
}

func compileTST(blk *Block, text string) (thunk Thunk, err error) {
	rn, rm, err := blk.lowPair(text)
	if err != nil {
		return
	}

	cpu := blk.cpu
	thunk = func() error {
		cpu.setNZ(cpu.R(rn) & cpu.R(rm))
		return nil
	}
	return
}
