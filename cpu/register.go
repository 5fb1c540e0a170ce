package cpu

import (
	"fmt"
	"iter"
	"math/rand"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ezrec/iarm/internal"
)

// Special register offsets, counted from the first register after the
// general purpose bank.
const (
	SPECIAL_APSR    = 0
	SPECIAL_IPSR    = 1
	SPECIAL_EPSR    = 2
	SPECIAL_PRIMASK = 3
	SPECIAL_CONTROL = 4
	SPECIAL_COUNT   = 5
)

var specialNames = []string{"APSR", "IPSR", "EPSR", "PRIMASK", "CONTROL"}

// Composite program status views, as bit sets of special register offsets.
var psrViews = map[string][]int{
	"PSR":   {SPECIAL_APSR, SPECIAL_IPSR, SPECIAL_EPSR},
	"XPSR":  {SPECIAL_APSR, SPECIAL_IPSR, SPECIAL_EPSR},
	"IAPSR": {SPECIAL_APSR, SPECIAL_IPSR},
	"EAPSR": {SPECIAL_APSR, SPECIAL_EPSR},
	"IEPSR": {SPECIAL_IPSR, SPECIAL_EPSR},
}

// RegisterBank is width-bounded register storage. SP, LR and PC share
// storage with the three highest general purpose registers.
type RegisterBank struct {
	width   int
	mask    uint64
	general int
	value   []uint64
	written []bool
	random  *rand.Rand

	pcWritten bool
}

// NewRegisterBank creates the register bank described by cfg.
func NewRegisterBank(cfg Config) (rb *RegisterBank) {
	rb = &RegisterBank{
		width:   cfg.Width,
		mask:    internal.Mask[uint64](cfg.Width),
		general: cfg.Registers,
		value:   make([]uint64, cfg.Registers+SPECIAL_COUNT),
		written: make([]bool, cfg.Registers+SPECIAL_COUNT),
	}

	if cfg.Random {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rb.random = rand.New(rand.NewSource(seed))
	}

	rb.Reset()

	return
}

// Reset forgets every register value. PC is zero.
func (rb *RegisterBank) Reset() {
	clear(rb.value)
	clear(rb.written)
	for n := rb.general; n < len(rb.written); n++ {
		rb.written[n] = true
	}
	rb.written[rb.PC()] = true
	rb.pcWritten = false
}

func (rb *RegisterBank) Width() int   { return rb.width }
func (rb *RegisterBank) Mask() uint64 { return rb.mask }

// General returns the number of general purpose registers.
func (rb *RegisterBank) General() int { return rb.general }

func (rb *RegisterBank) PC() int { return rb.general - 1 }
func (rb *RegisterBank) LR() int { return rb.general - 2 }
func (rb *RegisterBank) SP() int { return rb.general - 3 }

// Special returns the storage index of a special register offset.
func (rb *RegisterBank) Special(offset int) int { return rb.general + offset }

// Read returns the value of the register at index.
func (rb *RegisterBank) Read(index int) uint64 {
	if !rb.written[index] {
		if rb.random != nil {
			rb.value[index] = rb.random.Uint64() & rb.mask
		}
		rb.written[index] = true
	}

	return rb.value[index]
}

// Write stores value, modulo the register width, at index.
func (rb *RegisterBank) Write(index int, value uint64) {
	rb.value[index] = value & rb.mask
	rb.written[index] = true
	if index == rb.PC() {
		rb.pcWritten = true
	}
}

// PCWritten reports whether PC was written since the last call, and clears the mark.
func (rb *RegisterBank) PCWritten() (written bool) {
	written = rb.pcWritten
	rb.pcWritten = false
	return
}

// Index resolves a register name or alias to its storage index.
func (rb *RegisterBank) Index(name string) (index int, err error) {
	upper := strings.ToUpper(name)
	switch upper {
	case "PC":
		return rb.PC(), nil
	case "LR":
		return rb.LR(), nil
	case "SP", "MSP":
		return rb.SP(), nil
	}

	if n := slices.Index(specialNames, upper); n >= 0 {
		return rb.Special(n), nil
	}

	if len(upper) > 1 && upper[0] == 'R' {
		n, perr := strconv.Atoi(upper[1:])
		if perr == nil && n >= 0 && n < rb.general && strconv.Itoa(n) == upper[1:] {
			return n, nil
		}
	}

	err = ErrRegisterUnknown(name)
	return
}

// Get returns the value of the named register.
func (rb *RegisterBank) Get(name string) (value uint64, err error) {
	if view, ok := psrViews[strings.ToUpper(name)]; ok {
		for _, offset := range view {
			value |= rb.Read(rb.Special(offset))
		}
		return
	}

	index, err := rb.Index(name)
	if err != nil {
		return
	}

	value = rb.Read(index)
	return
}

// Set writes the named register.
func (rb *RegisterBank) Set(name string, value uint64) (err error) {
	if _, ok := psrViews[strings.ToUpper(name)]; ok {
		err = fmt.Errorf("%v: %w", name, ErrRegisterReadOnly)
		return
	}

	index, err := rb.Index(name)
	if err != nil {
		return
	}

	rb.Write(index, value)
	return
}

// Name returns the canonical name of the register at index.
func (rb *RegisterBank) Name(index int) string {
	if index >= rb.general {
		return specialNames[index-rb.general]
	}
	return fmt.Sprintf("R%d", index)
}

// Names iterates over the canonical register names, general purpose first.
func (rb *RegisterBank) Names() iter.Seq[string] {
	var general iter.Seq[string] = func(yield func(string) bool) {
		for n := range rb.general {
			if !yield(rb.Name(n)) {
				return
			}
		}
	}
	return internal.IterSeqConcat(general, slices.Values(specialNames))
}
