package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/lumenscript/lumen/internal/compiler"
	"github.com/lumenscript/lumen/internal/natives"
	"github.com/lumenscript/lumen/internal/vm"
	"github.com/lumenscript/lumen/internal/vmconfig"
)

// runREPL runs one persistent VM/heap across every line read from
// stdin, per SPEC_FULL.md §4: a compile or runtime error on one line
// is reported and the session continues, matching spec.md §8 scenario
// 6 (an arity-mismatch error must be recoverable between REPL lines).
//
// Line reading and the readln() native share one *bufio.Reader over
// os.Stdin rather than each wrapping stdin independently: two separate
// buffered readers over the same fd would each read ahead and steal
// bytes meant for the other once input isn't strictly line-at-a-time
// (e.g. the piped/non-interactive mode this function supports).
func runREPL(cfg vmconfig.Config, logger *slog.Logger) error {
	h := newHeap(cfg, logger)
	m := vm.New(h, vm.Config{MaxFrames: cfg.MaxFrames, MaxStack: cfg.MaxStack}, os.Stdout)
	reader := bufio.NewReader(os.Stdin)
	natives.Register(m, reader)
	if cfg.Trace {
		m.TraceHook = func(line string) { logger.Info("trace", "instr", line) }
	}

	interactive := isatty.IsTerminal(os.Stdin.Fd())

	for {
		if interactive {
			fmt.Print("> ")
		}
		raw, err := reader.ReadString('\n')
		line := strings.TrimRight(raw, "\r\n")
		if line != "" {
			fn, errs := compiler.Compile(line, h)
			if errs != nil {
				for _, e := range errs {
					printCompileError(e)
				}
			} else if ierr := m.Interpret(fn); ierr != nil {
				printRuntimeError(ierr)
			}
		}
		if err != nil {
			if interactive {
				fmt.Println()
			}
			return nil
		}
	}
}
