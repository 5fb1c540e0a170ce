package cpu

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// directiveFunc runs a directive at assembly time.
type directiveFunc func(blk *Block, label string, text string) error

var directiveTable = map[string]directiveFunc{
	"TTL":       directiveTTL,
	"EQU":       directiveEQU,
	"SPACE":     directiveSPACE,
	"DCD":       dataDirective(4),
	"DCW":       dataDirective(2),
	"DCH":       dataDirective(2),
	"DCB":       dataDirective(1),
	"END":       directiveEND,
	"AREA":      directiveNop("AREA"),
	"EXPORT":    directiveNop("EXPORT"),
	"ALIGN":     directiveNop("ALIGN"),
	"ENTRY":     directiveNop("ENTRY"),
	"THUMB":     directiveNop("THUMB"),
	"PRESERVE8": directiveNop("PRESERVE8"),
}

// Directives returns the known directive names, sorted.
func Directives() []string {
	return slices.Sorted(maps.Keys(directiveTable))
}

// bindCode binds a label on a non-data directive line to the next instruction.
func (blk *Block) bindCode(label string) {
	if label != "" {
		blk.bind(label, blk.Index())
	}
}

func directiveTTL(blk *Block, label string, text string) (err error) {
	blk.bindCode(label)
	blk.Title = text
	blk.titled = true
	return
}

func directiveEQU(blk *Block, label string, text string) (err error) {
	if label == "" {
		err = &ErrParsing{Reason: ErrEquateName.Error()}
		return
	}
	if !IsLabel(label) {
		err = parsingError(label, "is not a valid equate name")
		return
	}

	value, err := blk.Value(text)
	if err != nil {
		return
	}

	blk.Equate[label] = strconv.FormatInt(value, 10)
	return
}

func directiveSPACE(blk *Block, label string, text string) (err error) {
	size, err := blk.Value(text)
	if err != nil {
		return
	}
	if size < 0 {
		err = ruleError(text, "is negative")
		return
	}

	end := blk.Cursor + uint64(size)
	if end > blk.cpu.Memory.Size() {
		err = ruleError(text, "is beyond the memory size of %d", blk.cpu.Memory.Size())
		return
	}

	if label != "" {
		blk.bind(label, blk.Cursor)
	}
	blk.Cursor = end

	return
}

// dataDirective writes size byte little-endian values at the aligned cursor.
func dataDirective(size int) directiveFunc {
	low := -(int64(1) << (8*size - 1))
	high := int64(1)<<(8*size) - 1

	return func(blk *Block, label string, text string) (err error) {
		values := splitOperands(text)
		if len(values) == 0 {
			err = parsingError("", "missing value")
			return
		}

		address := blk.Cursor
		if rem := address % uint64(size); rem != 0 {
			address += uint64(size) - rem
		}
		if label != "" {
			blk.bind(label, address)
		}

		for _, text := range values {
			if size == 1 && strings.HasPrefix(text, `"`) {
				str, qerr := strconv.Unquote(text)
				if qerr != nil {
					err = parsingError(text, "is not a valid string")
					return
				}
				for _, c := range []byte(str) {
					err = blk.store(address, 1, uint64(c))
					if err != nil {
						return
					}
					address++
				}
				continue
			}

			var value int64
			value, err = blk.Value(text)
			if err != nil {
				return
			}
			if value < low || value > high {
				err = ruleError(text, "is not within the range of [%d, %d]", low, high)
				return
			}

			err = blk.store(address, size, uint64(value))
			if err != nil {
				return
			}
			address += uint64(size)
		}

		blk.Cursor = address
		return
	}
}

func directiveEND(blk *Block, label string, text string) (err error) {
	if text != "" {
		err = parsingError(text, "extra operands")
		return
	}

	blk.bindCode(label)
	err = ErrEndOfProgram
	return
}

func directiveNop(name string) directiveFunc {
	return func(blk *Block, label string, text string) error {
		blk.bindCode(label)
		return ErrNotImplemented(name)
	}
}
