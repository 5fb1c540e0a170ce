package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	runSteps int
	runDump  bool
)

var runCmd = &cobra.Command{
	Use:   "run FILE...",
	Short: "Evaluate assembly files",
	Long: `Evaluates each file in order against a single simulator.

Each file is a session: code lines accumulate into one block, and % magic
lines evaluate the pending block before they run.

Example:
  iarm run blink.s
  iarm run --steps 1000 --dump lib.s main.s`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVarP(&runSteps, "steps", "n", 0, "step budget, overriding --max-steps")
	runCmd.Flags().BoolVar(&runDump, "dump", false, "print a YAML snapshot when done")
}

func runRun(cmd *cobra.Command, args []string) (err error) {
	emu, closer, err := newEmulator()
	if err != nil {
		return
	}
	defer closer()

	if cmd.Flags().Changed("steps") {
		emu.Config.MaxSteps = runSteps
	}

	sess := NewSession(emu, cmd.OutOrStdout())

	for _, path := range args {
		var file *os.File
		file, err = os.Open(path)
		if err != nil {
			return
		}
		err = sess.Feed(file)
		file.Close()
		if err != nil {
			err = fmt.Errorf("%v: %w", path, err)
			return
		}
	}

	if runDump {
		err = sess.Magic("%dump")
	}

	return
}
