package compiler

import (
	"testing"

	"github.com/lumenscript/lumen/internal/bytecode"
	"github.com/lumenscript/lumen/internal/heap"
)

func compileOK(t *testing.T, source string) *heap.Function {
	t.Helper()
	h := heap.NewHeap(1<<20, 2, false)
	fn, errs := Compile(source, h)
	if errs != nil {
		t.Fatalf("unexpected compile errors for %q: %v", source, errs)
	}
	return fn
}

func TestCompileSimpleExpressionStatement(t *testing.T) {
	fn := compileOK(t, `print 1 + 2;`)
	if len(fn.Chunk.Code) == 0 {
		t.Fatalf("expected non-empty bytecode")
	}
	last := bytecode.Op(fn.Chunk.Code[len(fn.Chunk.Code)-1])
	if last != bytecode.OpReturn {
		t.Fatalf("expected chunk to end with OP_RETURN, got %v", last)
	}
}

func TestCompileLocalSelfInitializerIsRejected(t *testing.T) {
	h := heap.NewHeap(1<<20, 2, false)
	_, errs := Compile(`{ var a = a; }`, h)
	if errs == nil {
		t.Fatalf("expected a compile error for self-referential local initializer")
	}
}

func TestCompileReturnOutsideFunctionIsRejected(t *testing.T) {
	h := heap.NewHeap(1<<20, 2, false)
	_, errs := Compile(`return 1;`, h)
	if errs == nil {
		t.Fatalf("expected a compile error for a top-level return")
	}
}

func TestCompileInitializerCannotReturnAValue(t *testing.T) {
	h := heap.NewHeap(1<<20, 2, false)
	_, errs := Compile(`
class C {
  init() { return 1; }
}
`, h)
	if errs == nil {
		t.Fatalf("expected a compile error for a value-returning initializer")
	}
}

func TestCompileThisOutsideClassIsRejected(t *testing.T) {
	h := heap.NewHeap(1<<20, 2, false)
	_, errs := Compile(`print this;`, h)
	if errs == nil {
		t.Fatalf("expected a compile error for 'this' outside a class")
	}
}

func TestCompileSuperWithoutSuperclassIsRejected(t *testing.T) {
	h := heap.NewHeap(1<<20, 2, false)
	_, errs := Compile(`
class A {
  method() { super.method(); }
}
`, h)
	if errs == nil {
		t.Fatalf("expected a compile error for 'super' in a class with no superclass")
	}
}

func TestCompileClassInheritsFromItselfIsRejected(t *testing.T) {
	h := heap.NewHeap(1<<20, 2, false)
	_, errs := Compile(`class A < A {}`, h)
	if errs == nil {
		t.Fatalf("expected a compile error for a class inheriting from itself")
	}
}

func TestCompileFunctionEmitsClosureOpcode(t *testing.T) {
	fn := compileOK(t, `
fun outer() {
  var x = 1;
  fun inner() { return x; }
  return inner;
}
`)
	found := false
	for offset := 0; offset < len(fn.Chunk.Code); {
		if bytecode.Op(fn.Chunk.Code[offset]) == bytecode.OpClosure {
			found = true
			break
		}
		_, next := bytecode.DisassembleInstruction(&fn.Chunk, offset)
		offset = next
	}
	if !found {
		t.Fatalf("expected OP_CLOSURE to be emitted for a top-level function declaration")
	}
}

func TestCompileLongFormConstantForLargeConstantPool(t *testing.T) {
	source := "var sum = 0;\n"
	// push the constant pool well past 256 entries using distinct
	// number literals so OP_CONSTANT_LONG must appear.
	for i := 0; i < 300; i++ {
		source += "sum = sum + " + itoa(i) + ";\n"
	}
	fn := compileOK(t, source)
	foundLong := false
	for offset := 0; offset < len(fn.Chunk.Code); {
		if bytecode.Op(fn.Chunk.Code[offset]) == bytecode.OpConstantLong {
			foundLong = true
			break
		}
		_, next := bytecode.DisassembleInstruction(&fn.Chunk, offset)
		offset = next
	}
	if !foundLong {
		t.Fatalf("expected OP_CONSTANT_LONG once the constant pool exceeds 256 entries")
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}
