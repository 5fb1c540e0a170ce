package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	colorPrompt    = color.New(color.FgBlue, color.Bold)
	colorReg       = color.New(color.FgCyan)
	colorHex       = color.New(color.FgWhite, color.Bold)
	colorAddr      = color.New(color.FgYellow)
	colorFlagSet   = color.New(color.FgGreen, color.Bold)
	colorFlagClear = color.New(color.FgHiBlack)
	colorError     = color.New(color.FgRed, color.Bold)
	colorInfo      = color.New(color.FgHiBlack)
)

// hexDigits is the number of hex digits needed for a width in bits.
func hexDigits(width int) int {
	return (width + 3) / 4
}

func formatRegister(name string, value uint64, width int) string {
	return fmt.Sprintf("%v: %v",
		colorReg.Sprintf("%-7s", name),
		colorHex.Sprintf("0x%0*x", hexDigits(width), value))
}

func formatByte(address uint64, value uint8) string {
	return fmt.Sprintf("%v: %v",
		colorAddr.Sprintf("0x%04x", address),
		colorHex.Sprintf("0x%02x", value))
}

// formatFlags shows set flags in upper case, cleared ones in lower case.
func formatFlags(n, z, c, v bool) string {
	var sb strings.Builder
	for i, set := range []bool{n, z, c, v} {
		name := string("NZCV"[i])
		if set {
			sb.WriteString(colorFlagSet.Sprint(name))
		} else {
			sb.WriteString(colorFlagClear.Sprint(strings.ToLower(name)))
		}
	}
	return sb.String()
}

func formatError(err error) string {
	return colorError.Sprint("error: ") + err.Error()
}
