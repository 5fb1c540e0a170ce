package cpu

import (
	"iter"

	"github.com/ezrec/iarm/internal"
)

// Memory is sparse, byte addressed, little-endian storage.
type Memory struct {
	size uint64
	cell map[uint64]uint8
}

// NewMemory creates a memory of size bytes.
func NewMemory(size int) *Memory {
	return &Memory{
		size: uint64(size),
		cell: map[uint64]uint8{},
	}
}

// Size returns the memory size in bytes.
func (mem *Memory) Size() uint64 {
	return mem.size
}

// Reset forgets all written bytes.
func (mem *Memory) Reset() {
	clear(mem.cell)
}

// Check verifies that an access of size bytes at address is in range and
// naturally aligned.
func (mem *Memory) Check(address uint64, size int) (err error) {
	switch {
	case address >= mem.size || uint64(size) > mem.size-address:
		err = &ErrHardFault{Address: address, Err: ErrAddressRange}
	case address%uint64(size) != 0:
		err = &ErrHardFault{Address: address, Err: ErrAddressUnaligned}
	}

	return
}

// Get returns the byte at address. Unwritten bytes read as zero.
func (mem *Memory) Get(address uint64) (value uint8, err error) {
	err = mem.Check(address, 1)
	if err != nil {
		return
	}

	value = mem.cell[address]
	return
}

// Set writes the byte at address.
func (mem *Memory) Set(address uint64, value uint8) (err error) {
	err = mem.Check(address, 1)
	if err != nil {
		return
	}

	mem.cell[address] = value
	return
}

// Load reads size bytes, least significant byte first.
func (mem *Memory) Load(address uint64, size int) (value uint64, err error) {
	err = mem.Check(address, size)
	if err != nil {
		return
	}

	for n := size - 1; n >= 0; n-- {
		value = (value << 8) | uint64(mem.cell[address+uint64(n)])
	}

	return
}

// Store writes the low size bytes of value, least significant byte first.
func (mem *Memory) Store(address uint64, size int, value uint64) (err error) {
	err = mem.Check(address, size)
	if err != nil {
		return
	}

	for n := range size {
		mem.cell[address+uint64(n)] = uint8(value >> (8 * n))
	}

	return
}

// Cells iterates over the written bytes in address order.
func (mem *Memory) Cells() iter.Seq2[uint64, uint8] {
	return internal.SortedSeq2(mem.cell)
}
