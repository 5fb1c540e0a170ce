package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ezrec/iarm/cpu"
	"github.com/ezrec/iarm/emulator"
	"github.com/ezrec/iarm/translate"
)

var f = translate.From

var (
	ErrMagicMissing = errors.New(f("missing magic command"))
)

// ErrMagicUnknown is returned for an unrecognized % command.
type ErrMagicUnknown string

func (err ErrMagicUnknown) Error() string {
	return f("unknown magic %%%v", string(err))
}

// ErrAddress is returned when a %mem argument is neither a number nor a label.
type ErrAddress string

func (err ErrAddress) Error() string {
	return f("'%v' is not an address or label", string(err))
}

// Session feeds notebook style input to an emulator. Code lines accumulate
// into a block, and a line starting with % evaluates the pending block
// before running the magic command.
type Session struct {
	Emulator    *emulator.Emulator
	Out         io.Writer
	Interactive bool   // Blank lines evaluate, errors are reported instead of returned.
	Prompt      string // Written before each line is read, when not empty.

	pending []string
}

// NewSession creates a batch session writing to out.
func NewSession(emu *emulator.Emulator, out io.Writer) *Session {
	return &Session{
		Emulator: emu,
		Out:      out,
	}
}

// Feed reads lines until EOF, then evaluates whatever is still pending.
func (sess *Session) Feed(r io.Reader) (err error) {
	scanner := bufio.NewScanner(r)
	for {
		if sess.Prompt != "" {
			fmt.Fprint(sess.Out, sess.Prompt)
		}
		if !scanner.Scan() {
			break
		}
		err = sess.report(sess.Line(scanner.Text()))
		if err != nil {
			return
		}
	}
	if sess.Prompt != "" {
		fmt.Fprintln(sess.Out)
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	return sess.report(sess.Flush())
}

// report prints err in interactive mode, and passes it through otherwise.
func (sess *Session) report(err error) error {
	if err == nil || !sess.Interactive {
		return err
	}

	fmt.Fprintln(sess.Out, formatError(err))
	return nil
}

// Line handles one line of input.
func (sess *Session) Line(line string) (err error) {
	text := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(text, "%"):
		err = sess.Flush()
		if err != nil {
			return
		}
		err = sess.Magic(text)
	case text == "" && sess.Interactive:
		err = sess.Flush()
	default:
		sess.pending = append(sess.pending, line)
	}

	return
}

// Flush evaluates the pending block, if any.
func (sess *Session) Flush() (err error) {
	if len(sess.pending) == 0 {
		return
	}

	source := strings.Join(sess.pending, "\n")
	sess.pending = nil

	return sess.Emulator.Evaluate(source)
}

// Magic runs a % command.
func (sess *Session) Magic(line string) (err error) {
	fields := strings.Fields(strings.ReplaceAll(strings.TrimPrefix(line, "%"), ",", " "))
	if len(fields) == 0 {
		return ErrMagicMissing
	}

	name, args := strings.ToLower(fields[0]), fields[1:]
	switch name {
	case "run":
		err = sess.run(args)
	case "reg", "register":
		err = sess.registers(args)
	case "mem", "memory":
		err = sess.memory(args)
	case "flags":
		n, z, c, v := sess.Emulator.Flags()
		fmt.Fprintf(sess.Out, "%v: %v\n", colorReg.Sprintf("%-7s", "APSR"), formatFlags(n, z, c, v))
	case "labels":
		for symbol, value := range sess.Emulator.Symbols() {
			fmt.Fprintf(sess.Out, "%v = %v\n", colorReg.Sprint(symbol), value)
		}
	case "dump":
		var data []byte
		data, err = sess.Emulator.Snapshot().YAML()
		if err == nil {
			_, err = sess.Out.Write(data)
		}
	case "help":
		sess.help()
	case "reset":
		sess.Emulator.Reset()
		fmt.Fprintln(sess.Out, colorInfo.Sprint(f("reset")))
	default:
		err = ErrMagicUnknown(name)
	}

	return
}

var magics = []string{
	"%run [N]",
	"%reg [NAME...]",
	"%mem ADDRESS...",
	"%flags",
	"%labels",
	"%dump",
	"%reset",
	"%help",
}

func (sess *Session) help() {
	fmt.Fprintf(sess.Out, "%v %v\n", colorInfo.Sprint(f("magics:")), strings.Join(magics, ", "))
	fmt.Fprintf(sess.Out, "%v %v\n", colorInfo.Sprint(f("instructions:")), strings.Join(cpu.Mnemonics(), " "))
	fmt.Fprintf(sess.Out, "%v %v\n", colorInfo.Sprint(f("directives:")), strings.Join(cpu.Directives(), " "))
}

func (sess *Session) run(args []string) (err error) {
	emu := sess.Emulator

	limit := emu.Config.MaxSteps
	if len(args) > 0 {
		limit, err = strconv.Atoi(args[0])
		if err != nil {
			return
		}
	}

	steps, err := emu.Run(limit)
	if errors.Is(err, cpu.ErrEndOfProgram) {
		fmt.Fprintln(sess.Out, colorInfo.Sprint(f("halted after %d steps", steps)))
		return nil
	}
	if err != nil {
		return
	}

	fmt.Fprintln(sess.Out, colorInfo.Sprint(f("ran %d steps", steps)))
	return
}

func (sess *Session) registers(names []string) (err error) {
	emu := sess.Emulator
	width := emu.Register.Width()

	if len(names) == 0 {
		for index := range emu.Register.General() {
			fmt.Fprintln(sess.Out, formatRegister(emu.Register.Name(index), emu.R(index), width))
		}
		return
	}

	for _, name := range names {
		var value uint64
		value, err = emu.Get(name)
		if err != nil {
			return
		}
		fmt.Fprintln(sess.Out, formatRegister(strings.ToUpper(name), value, width))
	}

	return
}

func (sess *Session) memory(args []string) (err error) {
	for _, arg := range args {
		var address uint64
		address, err = sess.address(arg)
		if err != nil {
			return
		}

		var value uint8
		value, err = sess.Emulator.Memory.Get(address)
		if err != nil {
			return
		}
		fmt.Fprintln(sess.Out, formatByte(address, value))
	}

	return
}

// address parses a number in any Go integer base, or looks up a label.
func (sess *Session) address(arg string) (address uint64, err error) {
	address, err = strconv.ParseUint(arg, 0, 64)
	if err == nil {
		return
	}

	address, ok := sess.Emulator.Program.Label[arg]
	if !ok {
		err = ErrAddress(arg)
		return
	}

	return address, nil
}
