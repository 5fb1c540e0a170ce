package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive session on standard input",
	Long: `Reads assembly from standard input. A blank line or a % magic evaluates
the pending block. Errors are reported and the session continues.`,
	Args: cobra.NoArgs,
	RunE: runRepl,
}

func runRepl(cmd *cobra.Command, args []string) (err error) {
	emu, closer, err := newEmulator()
	if err != nil {
		return
	}
	defer closer()

	sess := NewSession(emu, cmd.OutOrStdout())
	sess.Interactive = true

	if term.IsTerminal(int(os.Stdin.Fd())) {
		sess.Prompt = colorPrompt.Sprint("iarm> ")
		fmt.Fprintf(cmd.OutOrStdout(), "iarm %v, %d-bit, %d registers, %d bytes of memory\n",
			Version, emu.Config.Width, emu.Config.Registers, emu.Config.MemorySize)
	}

	return sess.Feed(cmd.InOrStdin())
}
