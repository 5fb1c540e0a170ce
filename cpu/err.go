package cpu

import (
	"errors"

	"github.com/ezrec/iarm/translate"
)

var f = translate.From

var (
	// Execution signals
	ErrEndOfProgram = errors.New(f("end of program"))

	// Internal faults
	ErrBrainFart = errors.New(f("internal fault"))

	// Configuration errors
	ErrConfigWidth     = errors.New(f("register width must be within [8, 64]"))
	ErrConfigRegisters = errors.New(f("register count must be within [11, 64]"))
	ErrConfigMemory    = errors.New(f("memory size must be positive"))

	ErrConfigMemoryWidth = errors.New(f("memory size must be addressable by the register width"))

	// Runtime faults
	ErrAddressRange     = errors.New(f("address out of range"))
	ErrAddressUnaligned = errors.New(f("address unaligned"))

	// Assembler errors
	ErrLabelDuplicate    = errors.New(f("label duplicated"))
	ErrLabelUnresolved   = errors.New(f("label not yet resolved"))
	ErrEquateName        = errors.New(f("EQU requires a name"))
	ErrRegisterReadOnly  = errors.New(f("register is read only"))
	ErrOperandsMissing   = errors.New(f("missing operands, did you miss a comma?"))
	ErrRegisterListEmpty = errors.New(f("register list is empty"))
)

// ErrParsing reports operand text that does not fit an instruction's grammar.
type ErrParsing struct {
	Token  string
	Reason string
}

func (err *ErrParsing) Error() string {
	if err.Token == "" {
		return err.Reason
	}
	return f("%v: %v", err.Reason, err.Token)
}

// ErrRule reports an operand that has the right shape but violates a constraint.
type ErrRule struct {
	Token  string
	Reason string
}

func (err *ErrRule) Error() string {
	return f("%v %v", err.Token, err.Reason)
}

// ErrValidation reports an unknown mnemonic.
type ErrValidation string

func (err ErrValidation) Error() string {
	return f("instruction %v does not exist", string(err))
}

// ErrNotImplemented is the non-fatal report of an accepted directive that has no effect.
type ErrNotImplemented string

func (err ErrNotImplemented) Error() string {
	return f("directive %v is not implemented", string(err))
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrRegisterUnknown string

func (err ErrRegisterUnknown) Error() string {
	return f("register %v unknown", string(err))
}

// ErrHardFault is raised by a data access the processor cannot perform.
type ErrHardFault struct {
	Address uint64
	Err     error
}

func (err *ErrHardFault) Error() string {
	return f("hard fault at %#x: %v", err.Address, err.Err)
}

func (err *ErrHardFault) Unwrap() error {
	return err.Err
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

func parsingError(token string, format string, args ...any) error {
	return &ErrParsing{Token: token, Reason: f(format, args...)}
}

func ruleError(token string, format string, args ...any) error {
	return &ErrRule{Token: token, Reason: f(format, args...)}
}
