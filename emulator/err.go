package emulator

import (
	"github.com/ezrec/iarm/translate"
)

var f = translate.From

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Index  uint64 // Program index of the failing instruction.
	LineNo int    // Line number within its source block.
	Line   string // Source text.
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("index %d line %d '%v' %v", err.Index, err.LineNo, err.Line, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
