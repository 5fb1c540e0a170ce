package internal

import (
	"golang.org/x/exp/constraints"
)

// Mask returns a value with the low width bits set.
func Mask[T constraints.Unsigned](width int) T {
	if width <= 0 {
		return 0
	}
	top := T(1) << (width - 1)
	return top | (top - 1)
}

// SignExtend treats the low width bits of value as a two's complement
// number and extends its sign through the rest of T.
func SignExtend[T constraints.Unsigned](value T, width int) T {
	if width <= 0 {
		return 0
	}
	sign := T(1) << (width - 1)
	value &= Mask[T](width)
	return (value ^ sign) - sign
}

// Signed reinterprets the low width bits of value as a signed integer.
func Signed[T constraints.Unsigned](value T, width int) int64 {
	return int64(SignExtend(uint64(value), width))
}
