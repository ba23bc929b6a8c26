package main

import (
	"fmt"
	"os"

	"github.com/lumenscript/lumen/internal/bytecode"
	"github.com/lumenscript/lumen/internal/compiler"
	"github.com/lumenscript/lumen/internal/heap"
	"github.com/lumenscript/lumen/internal/vmconfig"
)

// runDisasm compiles path and dumps every function's bytecode, an
// ambient debug tool scoped out of the core interpreter by spec.md §1
// but shipped regardless, per SPEC_FULL.md §4.
func runDisasm(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fail(74, err)
	}
	cfg := vmconfig.Default()
	h := heap.NewHeap(cfg.InitialNextGC, cfg.HeapGrowFactor, cfg.StressGC)

	fn, errs := compiler.Compile(string(data), h)
	if errs != nil {
		for _, e := range errs {
			printCompileError(e)
		}
		return fail(65, fmt.Errorf("%d compile error(s)", len(errs)))
	}

	dumpFunction(fn, "script")
	return nil
}

func dumpFunction(fn *heap.Function, name string) {
	fmt.Print(bytecode.Disassemble(&fn.Chunk, name))
	for _, c := range fn.Chunk.Constants {
		if nested, ok := c.AsObject().(*heap.Function); ok {
			nestedName := "fn"
			if nested.Name != nil {
				nestedName = nested.Name.Chars
			}
			dumpFunction(nested, nestedName)
		}
	}
}
