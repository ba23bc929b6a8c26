package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/lumenscript/lumen/internal/compiler"
	"github.com/lumenscript/lumen/internal/heap"
	"github.com/lumenscript/lumen/internal/natives"
	"github.com/lumenscript/lumen/internal/vm"
	"github.com/lumenscript/lumen/internal/vmconfig"
)

var (
	errorColor = color.New(color.FgRed, color.Bold)
	warnColor  = color.New(color.FgYellow, color.Bold)
)

// loadConfig overlays lumen.toml (next to scriptPath, if any) onto
// spec.md §4.5's defaults, then applies the CLI's --trace/--gc-log flags.
func loadConfig(scriptPath string, trace, gcLog, stress bool) (vmconfig.Config, error) {
	dir := "."
	if scriptPath != "" {
		dir = filepath.Dir(scriptPath)
	}
	cfg, err := vmconfig.Load(filepath.Join(dir, "lumen.toml"))
	if err != nil {
		return cfg, fail(74, err)
	}
	if trace {
		cfg.Trace = true
	}
	if gcLog {
		cfg.GCLog = true
	}
	if stress {
		cfg.StressGC = true
	}
	return cfg, nil
}

// newHeap builds a heap from cfg, wiring its GC log callback to slog
// when requested. The library itself never logs; this is the CLI's
// ambient diagnostic surface, per SPEC_FULL.md §2.2.
func newHeap(cfg vmconfig.Config, logger *slog.Logger) *heap.Heap {
	h := heap.NewHeap(cfg.InitialNextGC, cfg.HeapGrowFactor, cfg.StressGC)
	if cfg.GCLog {
		h.GCLog = func(before, after, next int) {
			logger.Info("gc cycle", "before", before, "after", after, "next_gc", next)
		}
	}
	return h
}

func runFile(path string, cfg vmconfig.Config, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fail(74, err)
	}
	h := newHeap(cfg, logger)
	fn, errs := compiler.Compile(string(data), h)
	if errs != nil {
		for _, e := range errs {
			printCompileError(e)
		}
		return fail(65, fmt.Errorf("%d compile error(s)", len(errs)))
	}

	m := vm.New(h, vm.Config{MaxFrames: cfg.MaxFrames, MaxStack: cfg.MaxStack}, os.Stdout)
	natives.Register(m, bufio.NewReader(os.Stdin))
	if cfg.Trace {
		m.TraceHook = func(line string) { logger.Info("trace", "instr", line) }
	}

	if err := m.Interpret(fn); err != nil {
		printRuntimeError(err)
		return fail(70, err)
	}
	return nil
}

func printCompileError(e *compiler.Error) {
	warnColor.Fprintln(os.Stderr, e.Error())
}

func printRuntimeError(err error) {
	errorColor.Fprintln(os.Stderr, err.Error())
}
