package vm

import (
	"fmt"
	"strings"

	"github.com/lumenscript/lumen/internal/heap"
)

// FrameTrace describes one call frame at the moment a runtime error was
// raised, innermost frame first.
type FrameTrace struct {
	FunctionName string // empty for the top-level frame; Error prints it as "script"
	Line         int
}

// RuntimeError is raised by the VM for any spec.md §7 runtime-error
// condition (type errors, undefined variables, arity mismatches,
// missing properties). It carries the full call stack at the point of
// failure, printed innermost-to-outermost INCLUDING frame 0 — the
// reference implementation's trace printer skips frame 0, which
// spec.md §9 flags as a likely bug; this one does not skip it.
type RuntimeError struct {
	Message string
	Stack   []FrameTrace
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, f := range e.Stack {
		b.WriteString("\n[line ")
		b.WriteString(fmt.Sprint(f.Line))
		b.WriteString("] in ")
		if f.FunctionName == "" {
			b.WriteString("script")
		} else {
			b.WriteString(f.FunctionName + "()")
		}
	}
	return b.String()
}

// runtimeError builds a RuntimeError from the current frame stack,
// capturing every frame, then returns it for the caller to propagate.
func (vm *VM) runtimeError(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	stack := make([]FrameTrace, 0, len(vm.frames))
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := vm.frames[i]
		fn := f.closure.Function
		line := fn.Chunk.GetLine(f.ip - 1)
		name := ""
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		stack = append(stack, FrameTrace{FunctionName: name, Line: line})
	}
	return &RuntimeError{Message: msg, Stack: stack}
}

// TypeName exposes heap.TypeName for callers formatting diagnostics
// outside the package.
func TypeName(v heap.Value) string { return heap.TypeName(v) }
