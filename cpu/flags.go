package cpu

import (
	"math/bits"
	"strings"

	"github.com/ezrec/iarm/internal"
)

// FlagOp selects how SetFlags derives carry and overflow.
type FlagOp int

const (
	FLAG_OP_ADD = FlagOp(iota)
	FLAG_OP_SUB
)

// AddWithCarry returns x + y + carry modulo 2^width, with the unsigned carry
// out and the signed overflow of the addition.
func AddWithCarry(width int, x, y uint64, carry bool) (result uint64, c bool, v bool) {
	mask := internal.Mask[uint64](width)
	x &= mask
	y &= mask

	var carryIn uint64
	if carry {
		carryIn = 1
	}

	sum, carryOut := bits.Add64(x, y, carryIn)
	if width == 64 {
		result = sum
		c = carryOut == 1
	} else {
		result = sum & mask
		c = (sum>>width)&1 == 1
	}

	sign := uint64(1) << (width - 1)
	v = (x^result)&(y^result)&sign != 0

	return
}

// Flag bit positions within APSR.
func (cpu *Cpu) flagN() uint64 { return 1 << (cpu.Register.Width() - 1) }
func (cpu *Cpu) flagZ() uint64 { return 1 << (cpu.Register.Width() - 2) }
func (cpu *Cpu) flagC() uint64 { return 1 << (cpu.Register.Width() - 3) }
func (cpu *Cpu) flagV() uint64 { return 1 << (cpu.Register.Width() - 4) }

// FlagMask covers the NZCV bits of APSR.
func (cpu *Cpu) FlagMask() uint64 {
	return cpu.flagN() | cpu.flagZ() | cpu.flagC() | cpu.flagV()
}

func (cpu *Cpu) apsr() uint64 {
	return cpu.Register.Read(cpu.Register.Special(SPECIAL_APSR))
}

// Flags returns the NZCV condition flags.
func (cpu *Cpu) Flags() (n, z, c, v bool) {
	apsr := cpu.apsr()
	n = apsr&cpu.flagN() != 0
	z = apsr&cpu.flagZ() != 0
	c = apsr&cpu.flagC() != 0
	v = apsr&cpu.flagV() != 0
	return
}

// FlagString renders NZCV, upper case for set flags.
func (cpu *Cpu) FlagString() string {
	n, z, c, v := cpu.Flags()
	flag := func(set bool, name string) string {
		if set {
			return name
		}
		return strings.ToLower(name)
	}
	return flag(n, "N") + flag(z, "Z") + flag(c, "C") + flag(v, "V")
}

// Carry returns the C flag.
func (cpu *Cpu) Carry() bool {
	return cpu.apsr()&cpu.flagC() != 0
}

// Passed evaluates cond against the current flags.
func (cpu *Cpu) Passed(cond Condition) bool {
	return cond.Passed(cpu.Flags())
}

func (cpu *Cpu) setFlag(bit uint64, on bool) {
	apsr := cpu.apsr() &^ bit
	if on {
		apsr |= bit
	}
	cpu.Register.Write(cpu.Register.Special(SPECIAL_APSR), apsr)
}

func (cpu *Cpu) setNZ(result uint64) {
	result &= cpu.Register.Mask()
	cpu.setFlag(cpu.flagN(), result&cpu.flagN() != 0)
	cpu.setFlag(cpu.flagZ(), result == 0)
}

func (cpu *Cpu) setNZCV(result uint64, c, v bool) {
	cpu.setNZ(result)
	cpu.setFlag(cpu.flagC(), c)
	cpu.setFlag(cpu.flagV(), v)
}

// SetFlags computes NZCV for result = lhs op rhs.
// For subtraction C is set when no borrow occurs.
func (cpu *Cpu) SetFlags(lhs, rhs, result uint64, op FlagOp) {
	width := cpu.Register.Width()

	var c, v bool
	switch op {
	case FLAG_OP_ADD:
		_, c, v = AddWithCarry(width, lhs, rhs, false)
	case FLAG_OP_SUB:
		_, c, v = AddWithCarry(width, lhs, ^rhs, true)
	}

	cpu.setNZCV(result, c, v)
}

// Shift kinds.
type shiftOp int

const (
	shiftLSL = shiftOp(iota)
	shiftLSR
	shiftASR
	shiftROR
)

// shift applies op to x by amount, returning the result and the carry out.
// A zero amount leaves x and the current carry unchanged.
func (cpu *Cpu) shift(op shiftOp, x uint64, amount uint64) (result uint64, carry bool) {
	width := uint64(cpu.Register.Width())
	mask := cpu.Register.Mask()
	x &= mask

	if amount == 0 {
		result = x
		carry = cpu.Carry()
		return
	}

	bit := func(n uint64) bool { return (x>>n)&1 == 1 }

	switch op {
	case shiftLSL:
		switch {
		case amount < width:
			result = (x << amount) & mask
			carry = bit(width - amount)
		case amount == width:
			carry = bit(0)
		}
	case shiftLSR:
		switch {
		case amount < width:
			result = x >> amount
			carry = bit(amount - 1)
		case amount == width:
			carry = bit(width - 1)
		}
	case shiftASR:
		if amount < width {
			result = uint64(internal.Signed(x, int(width))>>amount) & mask
			carry = bit(amount - 1)
		} else {
			carry = bit(width - 1)
			if carry {
				result = mask
			}
		}
	case shiftROR:
		rot := amount % width
		result = x
		if rot != 0 {
			result = ((x >> rot) | (x << (width - rot))) & mask
		}
		carry = (result>>(width-1))&1 == 1
	}

	return
}
