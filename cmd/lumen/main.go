// Command lumen runs lumen scripts: as a one-shot file interpreter, an
// interactive REPL, or a bytecode disassembler. It is the ambient CLI
// surface around the internal/heap, internal/compiler, and internal/vm
// library packages, per SPEC_FULL.md §2.4.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{}))
}

func main() {
	var trace, gcLog, stress bool

	root := &cobra.Command{
		Use:           "lumen [script]",
		Short:         "lumen compiles and runs lumen scripts",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			if len(args) == 0 {
				cfg, err := loadConfig("", trace, gcLog, stress)
				if err != nil {
					return err
				}
				return runREPL(cfg, logger)
			}
			cfg, err := loadConfig(args[0], trace, gcLog, stress)
			if err != nil {
				return err
			}
			return runFile(args[0], cfg, logger)
		},
	}
	root.PersistentFlags().BoolVar(&trace, "trace", false, "log instruction-level trace diagnostics")
	root.PersistentFlags().BoolVar(&gcLog, "gc-log", false, "log a summary of every GC cycle")
	root.PersistentFlags().BoolVar(&stress, "stress-gc", false, "collect before every allocation")

	runCmd := &cobra.Command{
		Use:   "run <script>",
		Short: "compile and run a script file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			cfg, err := loadConfig(args[0], trace, gcLog, stress)
			if err != nil {
				return err
			}
			return runFile(args[0], cfg, logger)
		},
	}

	disasmCmd := &cobra.Command{
		Use:   "disasm <script>",
		Short: "dump a script's compiled bytecode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDisasm(args[0])
		},
	}

	root.AddCommand(runCmd, disasmCmd)

	if err := root.Execute(); err != nil {
		if ee, ok := err.(*exitError); ok {
			fmt.Fprintln(os.Stderr, ee.err)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
