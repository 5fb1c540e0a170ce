package cpu

import (
	"regexp"
	"strings"
)

var labelRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsLabel reports whether word is a valid label or equate name.
func IsLabel(word string) bool {
	return labelRegexp.MatchString(word)
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r'
}

// nextWord splits off the first whitespace delimited word of text.
func nextWord(text string) (word string, rest string) {
	text = strings.TrimLeft(text, " \t\r")
	end := strings.IndexAny(text, " \t\r")
	if end < 0 {
		return text, ""
	}
	return text[:end], text[end:]
}

// ParseLine splits a source line into its label, mnemonic and operand text.
//
// A word in the first column is a label, unless keyword reports it as a
// mnemonic or directive and it has no trailing ':'. Text after ';' is a
// comment. Blank lines return three empty strings.
func ParseLine(line string, keyword func(string) bool) (label, mnemonic, operands string) {
	if n := strings.IndexByte(line, ';'); n >= 0 {
		line = line[:n]
	}
	if strings.TrimSpace(line) == "" {
		return
	}

	rest := line
	if !isBlank(line[0]) {
		word, tail := nextWord(line)
		if n := strings.IndexByte(word, ':'); n >= 0 {
			label = word[:n]
			rest = word[n+1:] + tail
		} else if keyword == nil || !keyword(word) {
			label = word
			rest = tail
		}
	}

	mnemonic, rest = nextWord(rest)
	operands = strings.TrimSpace(rest)

	return
}

// splitOperands splits text on the commas that are outside of [] and {}.
func splitOperands(text string) (ops []string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	depth := 0
	start := 0
	for n := range len(text) {
		switch text[n] {
		case '[', '{':
			depth++
		case ']', '}':
			depth--
		case ',':
			if depth == 0 {
				ops = append(ops, strings.TrimSpace(text[start:n]))
				start = n + 1
			}
		}
	}
	ops = append(ops, strings.TrimSpace(text[start:]))

	return
}

var ordinal = []string{"first", "second", "third", "fourth"}

// operands splits text into exactly count positional operands.
func operands(text string, count int) (ops []string, err error) {
	ops = splitOperands(text)

	for _, op := range ops {
		fields := strings.Fields(op)
		if len(fields) < 2 || strings.IndexByte("#=[{", op[0]) >= 0 {
			continue
		}
		if len(ops) < count {
			err = parsingError(op, "did you miss a comma?")
		} else {
			err = parsingError(strings.Join(fields[1:], " "), "extra operands")
		}
		return
	}

	if count == 0 {
		if len(ops) > 0 {
			err = parsingError(text, "extra operands")
		}
		return
	}

	if len(ops) == 0 {
		err = parsingError("", "missing operands, expected %d", count)
		return
	}

	for n, op := range ops[:min(len(ops), count)] {
		if op == "" {
			err = parsingError(text, "missing %v operand", ordinal[n])
			return
		}
	}

	switch {
	case len(ops) == 1 && count > 1:
		err = parsingError(text, "%v", ErrOperandsMissing)
	case len(ops) < count:
		err = parsingError(text, "missing %v operand", ordinal[len(ops)])
	case len(ops) > count:
		err = parsingError(strings.Join(ops[count:], ", "), "extra operands")
	}

	return
}

// memoryOperand splits a "[base]" or "[base, offset]" operand.
func memoryOperand(op string) (base string, offset string, err error) {
	if len(op) < 2 || op[0] != '[' || op[len(op)-1] != ']' {
		err = parsingError(op, "expected [base, offset]")
		return
	}

	inner, err := operandsUpTo(op[1:len(op)-1], 2)
	if err != nil {
		return
	}

	base = inner[0]
	if len(inner) > 1 {
		offset = inner[1]
	}

	return
}

// operandsUpTo splits text into one to limit operands.
func operandsUpTo(text string, limit int) (ops []string, err error) {
	count := len(splitOperands(text))
	if count < 1 {
		count = 1
	}
	if count > limit {
		count = limit
	}
	return operands(text, count)
}

// registerList splits a "{R0, R1-R3, LR}" operand into its elements.
func registerList(op string) (elems []string, err error) {
	if len(op) < 2 || op[0] != '{' || op[len(op)-1] != '}' {
		err = parsingError(op, "expected {register list}")
		return
	}

	elems = splitOperands(op[1 : len(op)-1])
	if len(elems) == 0 {
		err = ErrRegisterListEmpty
		return
	}

	for n, elem := range elems {
		if elem == "" {
			err = parsingError(op, "missing %v register", ordinal[min(n, len(ordinal)-1)])
			return
		}
	}

	return
}
