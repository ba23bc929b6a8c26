// Package natives registers lumen's host-provided functions: clock,
// readln, and str, per spec.md §4.6 (externalized, out-of-core-scope
// collaborators) plus the str supplement described in SPEC_FULL.md §2.5.
package natives

import (
	"bufio"
	"time"

	"github.com/lumenscript/lumen/internal/heap"
	"github.com/lumenscript/lumen/internal/vm"
)

// Register installs every native function into vm's globals table.
// stdin is a *bufio.Reader rather than a bare io.Reader so callers that
// also read from the same underlying file descriptor (cmd/lumen's REPL
// reads its own lines from stdin) can share one buffer instead of each
// wrapping it independently, which would let the two buffered readers
// steal each other's read-ahead bytes.
func Register(m *vm.VM, stdin *bufio.Reader) {
	h := m.Heap()
	g := m.Globals()

	define := func(name string, arity int, fn heap.NativeFn) {
		n := h.NewNative(name, arity, fn)
		g.Set(h.NewString(name), heap.FromObject(n))
	}

	start := time.Now()
	define("clock", 0, func(args []heap.Value) (heap.Value, error) {
		return heap.Number(time.Since(start).Seconds()), nil
	})

	define("readln", 0, func(args []heap.Value) (heap.Value, error) {
		line, err := stdin.ReadString('\n')
		if err != nil && line == "" {
			return heap.Nil(), nil
		}
		line = trimNewline(line)
		return heap.FromObject(h.NewString(line)), nil
	})

	define("str", 1, func(args []heap.Value) (heap.Value, error) {
		return heap.FromObject(h.NewString(vm.FormatValue(args[0]))), nil
	})
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
