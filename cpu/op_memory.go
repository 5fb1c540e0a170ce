package cpu

import (
	"strings"

	"github.com/ezrec/iarm/internal"
)

// compileLoadStore compiles a single register transfer of size bytes.
// Accepted addressing forms are [Rn, #imm] under immRule (or [SP, #imm10_4]
// for word transfers), [Rn] and [Rn, Rm]. Word loads also accept =value and a
// bare label. A negative immRule allows only the register offset form.
func compileLoadStore(size int, load bool, signed bool, immRule Rule) compileFunc {
	return func(blk *Block, text string) (thunk Thunk, err error) {
		ops, err := operands(text, 2)
		if err != nil {
			return
		}

		rt, err := blk.register(RULE_LOW_REGISTERS, ops[0])
		if err != nil {
			return
		}

		cpu := blk.cpu
		address := ops[1]

		switch {
		case strings.HasPrefix(address, "["):
		case size == 4 && load && strings.HasPrefix(address, "="):
			return compileLiteral(blk, rt, strings.TrimSpace(address[1:]))
		case size == 4 && load && IsLabel(address) && !IsRegister(address):
			thunk = func() error {
				at, err := blk.prog.Lookup(address)
				if err != nil {
					return err
				}
				value, err := cpu.Memory.Load(at, 4)
				if err != nil {
					return err
				}
				cpu.SetR(rt, value)
				return nil
			}
			return
		default:
			err = parsingError(address, "expected [base, offset]")
			return
		}

		base, offset, err := memoryOperand(address)
		if err != nil {
			return
		}

		var rn int
		var effective func() uint64

		switch {
		case offset == "" || IsImmediate(offset):
			if offset == "" {
				offset = "#0"
			}
			rule := immRule
			if size == 4 && blk.isSP(base) {
				rule = RULE_IMM10_4
				rn = cpu.Register.SP()
			} else {
				rn, err = blk.register(RULE_LOW_REGISTERS, base)
				if err != nil {
					return
				}
			}
			if _, ok := ruleTable[rule]; !ok {
				err = ruleError(offset, "only a register offset is allowed")
				return
			}
			var imm uint64
			imm, err = blk.immediate(rule, offset)
			if err != nil {
				return
			}
			effective = func() uint64 { return (cpu.R(rn) + imm) & cpu.Mask() }
		default:
			var regs []int
			regs, err = blk.registers(RULE_LOW_REGISTERS, base, offset)
			if err != nil {
				return
			}
			rn, rm := regs[0], regs[1]
			effective = func() uint64 { return (cpu.R(rn) + cpu.R(rm)) & cpu.Mask() }
		}

		if !load {
			thunk = func() error {
				return cpu.Memory.Store(effective(), size, cpu.R(rt))
			}
			return
		}

		thunk = func() error {
			value, err := cpu.Memory.Load(effective(), size)
			if err != nil {
				return err
			}
			if signed {
				value = internal.SignExtend(value, 8*size) & cpu.Mask()
			}
			cpu.SetR(rt, value)
			return nil
		}
		return
	}
}

// compileLiteral compiles LDR Rt, =value. A name that is not an equate is a
// label, resolved when the thunk runs.
func compileLiteral(blk *Block, rt int, literal string) (thunk Thunk, err error) {
	cpu := blk.cpu

	if _, isEquate := blk.equate(literal); IsLabel(literal) && !isEquate {
		thunk = func() error {
			value, err := blk.prog.Lookup(literal)
			if err != nil {
				return err
			}
			cpu.SetR(rt, value)
			return nil
		}
		return
	}

	value, err := blk.Value(literal)
	if err != nil {
		return
	}

	thunk = func() error {
		cpu.SetR(rt, uint64(value))
		return nil
	}
	return
}

// compileADR loads the address of a label.
func compileADR(blk *Block, text string) (thunk Thunk, err error) {
	ops, err := operands(text, 2)
	if err != nil {
		return
	}

	rd, err := blk.register(RULE_LOW_REGISTERS, ops[0])
	if err != nil {
		return
	}
	if !IsLabel(ops[1]) {
		err = parsingError(ops[1], "is not a label")
		return
	}

	cpu := blk.cpu
	name := ops[1]
	thunk = func() error {
		value, err := blk.prog.Lookup(name)
		if err != nil {
			return err
		}
		cpu.SetR(rd, value)
		return nil
	}
	return
}

// checkWords verifies count word accesses starting at address.
func (cpu *Cpu) checkWords(address uint64, count int) (err error) {
	for n := range count {
		err = cpu.Memory.Check((address+uint64(4*n))&cpu.Mask(), 4)
		if err != nil {
			return
		}
	}
	return
}

// loadWords reads one word per register in list, ascending from address.
func (cpu *Cpu) loadWords(address uint64, list []int) (err error) {
	err = cpu.checkWords(address, len(list))
	if err != nil {
		return
	}

	values := make([]uint64, len(list))
	for n := range list {
		values[n], _ = cpu.Memory.Load((address+uint64(4*n))&cpu.Mask(), 4)
	}
	for n, index := range list {
		cpu.SetR(index, values[n])
	}

	return
}

// storeWords writes one word per register in list, ascending from address.
func (cpu *Cpu) storeWords(address uint64, list []int) (err error) {
	err = cpu.checkWords(address, len(list))
	if err != nil {
		return
	}

	for n, index := range list {
		_ = cpu.Memory.Store((address+uint64(4*n))&cpu.Mask(), 4, cpu.R(index))
	}

	return
}

func compilePUSH(blk *Block, text string) (thunk Thunk, err error) {
	ops, err := operands(text, 1)
	if err != nil {
		return
	}

	cpu := blk.cpu
	list, err := blk.registerSet(ops[0], cpu.Register.LR())
	if err != nil {
		return
	}

	sp := cpu.Register.SP()
	thunk = func() error {
		address := (cpu.R(sp) - uint64(4*len(list))) & cpu.Mask()
		err := cpu.storeWords(address, list)
		if err != nil {
			return err
		}
		cpu.SetR(sp, address)
		return nil
	}
	return
}

func compilePOP(blk *Block, text string) (thunk Thunk, err error) {
	ops, err := operands(text, 1)
	if err != nil {
		return
	}

	cpu := blk.cpu
	list, err := blk.registerSet(ops[0], cpu.Register.PC())
	if err != nil {
		return
	}

	sp := cpu.Register.SP()
	thunk = func() error {
		address := cpu.R(sp)
		err := cpu.loadWords(address, list)
		if err != nil {
			return err
		}
		cpu.SetR(sp, address+uint64(4*len(list)))
		return nil
	}
	return
}

// multiple parses "Rn{!}, {list}" over low registers.
func (blk *Block) multiple(text string) (rn int, writeback bool, list []int, err error) {
	ops, err := operands(text, 2)
	if err != nil {
		return
	}

	base := ops[0]
	if strings.HasSuffix(base, "!") {
		writeback = true
		base = strings.TrimSpace(strings.TrimSuffix(base, "!"))
	}

	rn, err = blk.register(RULE_LOW_REGISTERS, base)
	if err != nil {
		return
	}

	list, err = blk.registerSet(ops[1], -1)
	return
}

// compileLDM accepts LDM Rn!, {list} without Rn in the list, or LDM Rn, {list} with it.
func compileLDM(blk *Block, text string) (thunk Thunk, err error) {
	rn, writeback, list, err := blk.multiple(text)
	if err != nil {
		return
	}

	inList := false
	for _, index := range list {
		inList = inList || index == rn
	}
	switch {
	case inList && writeback:
		err = ruleError(text, "cannot write back a base register that is also loaded")
		return
	case !inList && !writeback:
		err = ruleError(text, "requires writeback (!) on the base register")
		return
	}

	cpu := blk.cpu
	thunk = func() error {
		address := cpu.R(rn)
		err := cpu.loadWords(address, list)
		if err != nil {
			return err
		}
		if writeback {
			cpu.SetR(rn, address+uint64(4*len(list)))
		}
		return nil
	}
	return
}

// compileSTM accepts STM Rn!, {list}.
func compileSTM(blk *Block, text string) (thunk Thunk, err error) {
	rn, writeback, list, err := blk.multiple(text)
	if err != nil {
		return
	}
	if !writeback {
		err = ruleError(text, "requires writeback (!) on the base register")
		return
	}

	cpu := blk.cpu
	thunk = func() error {
		address := cpu.R(rn)
		err := cpu.storeWords(address, list)
		if err != nil {
			return err
		}
		cpu.SetR(rn, address+uint64(4*len(list)))
		return nil
	}
	return
}
