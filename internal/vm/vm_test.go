package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lumenscript/lumen/internal/compiler"
	"github.com/lumenscript/lumen/internal/heap"
)

func run(t *testing.T, source string) string {
	t.Helper()
	h := heap.NewHeap(1<<20, 2, false)
	fn, errs := compiler.Compile(source, h)
	if errs != nil {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	var out bytes.Buffer
	m := New(h, Config{}, &out)
	if err := m.Interpret(fn); err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	return out.String()
}

func TestZeroIsFalsey(t *testing.T) {
	out := run(t, `if (0) print "yes"; else print "no";`)
	if strings.TrimSpace(out) != "no" {
		t.Fatalf("expected the nonstandard zero-is-falsey rule, got %q", out)
	}
}

func TestClosureCapturesVariableByReference(t *testing.T) {
	out := run(t, `
fun makeCounter() {
  var count = 0;
  fun increment() {
    count = count + 1;
    print count;
  }
  return increment;
}
var counter = makeCounter();
counter();
counter();
counter();
`)
	want := "1\n2\n3\n"
	if out != want {
		t.Fatalf("expected shared-upvalue counter output %q, got %q", want, out)
	}
}

func TestClassInheritanceAndSuper(t *testing.T) {
	out := run(t, `
class Animal {
  speak() { print "..."; }
  describe() { this.speak(); }
}
class Dog < Animal {
  speak() {
    super.speak();
    print "woof";
  }
}
Dog().describe();
`)
	want := "...\nwoof\n"
	if out != want {
		t.Fatalf("expected super call then override output %q, got %q", want, out)
	}
}

func TestInitializerBindsFieldsAndReturnsInstance(t *testing.T) {
	out := run(t, `
class Point {
  init(x, y) {
    this.x = x;
    this.y = y;
  }
  sum() { return this.x + this.y; }
}
var p = Point(3, 4);
print p.sum();
`)
	if strings.TrimSpace(out) != "7" {
		t.Fatalf("expected initializer-bound fields to sum to 7, got %q", out)
	}
}

func TestStringInterningDeterminesEquality(t *testing.T) {
	out := run(t, `
var a = "hi" + "!";
var b = "hi!";
print a == b;
`)
	if strings.TrimSpace(out) != "true" {
		t.Fatalf("expected equal-content strings to compare equal via interning, got %q", out)
	}
}

func TestArityMismatchIsRecoverableAcrossCalls(t *testing.T) {
	h := heap.NewHeap(1<<20, 2, false)
	var out bytes.Buffer
	m := New(h, Config{}, &out)

	fn1, errs := compiler.Compile(`fun f(a, b) { return a + b; }`, h)
	if errs != nil {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	if err := m.Interpret(fn1); err != nil {
		t.Fatalf("unexpected runtime error defining f: %v", err)
	}

	fn2, errs := compiler.Compile(`f(1);`, h)
	if errs != nil {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	if err := m.Interpret(fn2); err == nil {
		t.Fatalf("expected an arity-mismatch runtime error")
	}

	fn3, errs := compiler.Compile(`print f(1, 2);`, h)
	if errs != nil {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	if err := m.Interpret(fn3); err != nil {
		t.Fatalf("expected the VM to recover and run a subsequent call, got error: %v", err)
	}
	if strings.TrimSpace(out.String()) != "3" {
		t.Fatalf("expected recovered call to print 3, got %q", out.String())
	}
}

func TestRuntimeErrorStackTraceIncludesInnermostFrame(t *testing.T) {
	h := heap.NewHeap(1<<20, 2, false)
	var out bytes.Buffer
	m := New(h, Config{}, &out)

	fn, errs := compiler.Compile(`
fun inner() { return 1 + "x"; }
fun outer() { inner(); }
outer();
`, h)
	if errs != nil {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	err := m.Interpret(fn)
	if err == nil {
		t.Fatalf("expected a runtime type error")
	}
	rerr, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("expected a *RuntimeError, got %T", err)
	}
	if len(rerr.Stack) == 0 || rerr.Stack[0].FunctionName != "inner" {
		t.Fatalf("expected frame 0 to be 'inner', got %+v", rerr.Stack)
	}
	foundScript := false
	for _, f := range rerr.Stack {
		if f.FunctionName == "" {
			foundScript = true
		}
	}
	if !foundScript {
		t.Fatalf("expected the trace to include the top-level script frame (frame 0 must not be skipped)")
	}
}
