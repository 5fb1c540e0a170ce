package main

import (
	"fmt"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ezrec/iarm/cpu"
	"github.com/ezrec/iarm/emulator"
	"github.com/ezrec/iarm/translate"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "iarm",
	Short: "An incremental ARM Cortex-M0+ assembler and simulator",
	Long: `iarm assembles Thumb assembly one block at a time and runs it on a
simulated Cortex-M0+ register file and memory.

Input is notebook style: code lines accumulate into a block, and a line
starting with % is a magic command (%run, %reg, %mem, %flags, %labels,
%dump, %reset, %help) that first evaluates the pending block.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	def := cpu.DefaultConfig()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.iarm.yaml)")
	flags.Int("width", def.Width, "register width in bits")
	flags.Int("registers", def.Registers, "number of general purpose registers, PC included")
	flags.Int("memory", def.MemorySize, "memory size in bytes")
	flags.Bool("random", def.Random, "unwritten registers read as a stable random value")
	flags.Int64("seed", def.Seed, "random seed (0 seeds from the clock)")
	flags.Bool("autorun", def.AutoRun, "run each block after it is assembled")
	flags.Int("max-steps", def.MaxSteps, "step budget for each run (0 = unlimited)")
	flags.BoolP("verbose", "v", false, "trace assembly and execution")
	flags.String("log-file", "", "also write JSON log records to this file")
	flags.String("locale", "", "message locale (default is the system locale)")

	for key, flag := range map[string]string{
		"width":     "width",
		"registers": "registers",
		"memory":    "memory",
		"random":    "random",
		"seed":      "seed",
		"autorun":   "autorun",
		"max_steps": "max-steps",
		"verbose":   "verbose",
		"log_file":  "log-file",
		"locale":    "locale",
	} {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(flag)))
	}

	rootCmd.AddCommand(runCmd, replCmd, versionCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".iarm" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".iarm")
	}

	viper.SetEnvPrefix("iarm")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	if locale := viper.GetString("locale"); locale != "" {
		translate.SetLocale(locale)
	}
}

// loadConfig builds the processor configuration from flags, environment and config file.
func loadConfig() (cfg cpu.Config, err error) {
	cfg = cpu.DefaultConfig()
	err = viper.Unmarshal(&cfg)
	if err != nil {
		return
	}

	err = cfg.Validate()
	return
}

// newLogger fans records out to stderr and, optionally, a JSON log file.
func newLogger() (logger *slog.Logger, closer func() error, err error) {
	level := slog.LevelWarn
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	}
	closer = func() error { return nil }

	if path := viper.GetString("log_file"); path != "" {
		var file *os.File
		file, err = os.Create(path)
		if err != nil {
			return
		}
		handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
		closer = file.Close
	}

	logger = slog.New(slogmulti.Fanout(handlers...))
	return
}

// newEmulator creates an emulator from the current configuration.
func newEmulator() (emu *emulator.Emulator, closer func() error, err error) {
	cfg, err := loadConfig()
	if err != nil {
		return
	}

	logger, closer, err := newLogger()
	if err != nil {
		return
	}

	emu, err = emulator.NewEmulator(cfg)
	if err != nil {
		closer()
		return
	}

	emu.Logger = logger
	emu.Verbose = viper.GetBool("verbose")

	return
}
