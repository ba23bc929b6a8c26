// Package vm implements lumen's stack-based bytecode interpreter:
// fetch-decode-execute over a call-frame stack, closures/upvalues,
// class/method dispatch, and inheritance, per spec.md §4.4.
package vm

import (
	"fmt"
	"io"

	"github.com/lumenscript/lumen/internal/bytecode"
	"github.com/lumenscript/lumen/internal/heap"
)

// frame is one active call's execution state: the closure being run,
// its instruction pointer, and the base index into vm.stack where its
// locals (and, at slot 0, the callee itself or the receiver) begin.
type frame struct {
	closure   *heap.Closure
	ip        int
	slotsBase int
}

// openUpvalue links a live open upvalue to the stack slot it was
// captured from, so two closures capturing the same local share one
// Upvalue object and closing a scope can find every upvalue pointing
// into it.
type openUpvalue struct {
	index int
	uv    *heap.Upvalue
	next  *openUpvalue
}

// Config bounds the VM's call-frame and stack depth. Populated from
// internal/vmconfig; zero values fall back to the package defaults.
type Config struct {
	MaxFrames int
	MaxStack  int
}

const (
	defaultMaxFrames = 64
	defaultMaxStack  = 16384
)

// VM executes compiled lumen bytecode against a single heap. It is
// itself a heap.RootProvider: its value stack, call frames, open
// upvalues, and globals table are the GC's root set.
type VM struct {
	heap    *heap.Heap
	globals *heap.Table

	stack  []heap.Value
	frames []frame

	openUpvalues *openUpvalue
	initString   *heap.String

	Stdout io.Writer

	// TraceHook, when non-nil, is called once per fetched instruction
	// with a disassembled rendering of it, before the instruction runs.
	// cmd/lumen wires this to slog when --trace is passed; the VM itself
	// never logs.
	TraceHook func(line string)
}

// New constructs a VM over h, registering it as a GC root provider.
func New(h *heap.Heap, cfg Config, stdout io.Writer) *VM {
	maxFrames := cfg.MaxFrames
	if maxFrames <= 0 {
		maxFrames = defaultMaxFrames
	}
	maxStack := cfg.MaxStack
	if maxStack <= 0 {
		maxStack = defaultMaxStack
	}
	vm := &VM{
		heap:       h,
		globals:    h.Globals(),
		stack:      make([]heap.Value, 0, maxStack),
		frames:     make([]frame, 0, maxFrames),
		initString: h.NewString("init"),
		Stdout:     stdout,
	}
	h.RegisterRoot(vm)
	return vm
}

// Globals exposes the VM's global table for native-function registration.
func (vm *VM) Globals() *heap.Table { return vm.globals }

// Heap exposes the underlying heap for native functions that allocate
// (e.g. readln interning the line it reads).
func (vm *VM) Heap() *heap.Heap { return vm.heap }

// MarkRoots marks the value stack, every frame's closure, every open
// upvalue, the globals table, and the cached "init" string.
func (vm *VM) MarkRoots(h *heap.Heap) {
	for _, v := range vm.stack {
		h.MarkValue(v)
	}
	for _, f := range vm.frames {
		h.MarkObject(f.closure)
	}
	for n := vm.openUpvalues; n != nil; n = n.next {
		h.MarkObject(n.uv)
	}
	vm.globals.ForEach(func(k *heap.String, v heap.Value) {
		h.MarkObject(k)
		h.MarkValue(v)
	})
	h.MarkObject(vm.initString)
}

func (vm *VM) push(v heap.Value) error {
	if len(vm.stack) >= cap(vm.stack) {
		return vm.runtimeError("Stack overflow.")
	}
	vm.stack = append(vm.stack, v)
	return nil
}

func (vm *VM) pop() heap.Value {
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	return v
}

func (vm *VM) peek(distance int) heap.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VM) currentFrame() *frame {
	return &vm.frames[len(vm.frames)-1]
}

func (vm *VM) readByte() byte {
	f := vm.currentFrame()
	b := f.closure.Function.Chunk.Code[f.ip]
	f.ip++
	return b
}

func (vm *VM) readShort() int {
	hi := vm.readByte()
	lo := vm.readByte()
	return int(hi)<<8 | int(lo)
}

func (vm *VM) read24() int {
	b0 := vm.readByte()
	b1 := vm.readByte()
	b2 := vm.readByte()
	return int(b0)<<16 | int(b1)<<8 | int(b2)
}

func (vm *VM) readConstant(idx int) heap.Value {
	return vm.currentFrame().closure.Function.Chunk.Constants[idx]
}

// readStringConstant reads a constant known by the compiler to be a
// String (identifier/name constants emitted for globals, properties,
// methods, super lookups).
func (vm *VM) readStringConstant(idx int) *heap.String {
	s, _ := vm.readConstant(idx).AsString()
	return s
}

// Interpret runs fn as a top-level script against the VM's existing
// globals and heap. On a runtime error the stack and call-frame depth
// are rolled back to where they stood before this call, so a REPL (or
// any other driver reusing one VM across several top-level programs)
// can recover and keep evaluating subsequent input — spec.md §8's
// arity-mismatch-is-recoverable scenario depends on this.
func (vm *VM) Interpret(fn *heap.Function) error {
	baseStack := len(vm.stack)
	baseFrames := len(vm.frames)

	closure := vm.heap.NewClosure(fn, nil)
	err := vm.push(heap.FromObject(closure))
	if err == nil {
		err = vm.callValue(heap.FromObject(closure), 0)
	}
	if err == nil {
		err = vm.run()
	}
	if err != nil {
		// Close, not discard, any upvalue captured from a slot this
		// rollback is about to reuse: a closure stashed in a global
		// before the error must keep seeing the value it captured.
		vm.closeUpvalues(baseStack)
		vm.stack = vm.stack[:baseStack]
		vm.frames = vm.frames[:baseFrames]
	}
	return err
}

func (vm *VM) run() error {
	for {
		if vm.TraceHook != nil {
			f := vm.currentFrame()
			line, _ := bytecode.DisassembleInstruction(&f.closure.Function.Chunk, f.ip)
			vm.TraceHook(line)
		}
		op := bytecode.Op(vm.readByte())
		switch op {
		case bytecode.OpConstant:
			if err := vm.push(vm.readConstant(int(vm.readByte()))); err != nil {
				return err
			}
		case bytecode.OpConstantLong:
			if err := vm.push(vm.readConstant(vm.read24())); err != nil {
				return err
			}
		case bytecode.OpNil:
			if err := vm.push(heap.Nil()); err != nil {
				return err
			}
		case bytecode.OpTrue:
			if err := vm.push(heap.Bool(true)); err != nil {
				return err
			}
		case bytecode.OpFalse:
			if err := vm.push(heap.Bool(false)); err != nil {
				return err
			}
		case bytecode.OpPop:
			vm.pop()
		case bytecode.OpEqual:
			b, a := vm.pop(), vm.pop()
			if err := vm.push(heap.Bool(heap.Equal(a, b))); err != nil {
				return err
			}
		case bytecode.OpNotEqual:
			b, a := vm.pop(), vm.pop()
			if err := vm.push(heap.Bool(!heap.Equal(a, b))); err != nil {
				return err
			}
		case bytecode.OpGreater, bytecode.OpGreaterEqual, bytecode.OpLess, bytecode.OpLessEqual:
			if err := vm.numericCompare(op); err != nil {
				return err
			}
		case bytecode.OpNot:
			if err := vm.push(heap.Bool(vm.pop().IsFalsey())); err != nil {
				return err
			}
		case bytecode.OpNegate:
			v := vm.peek(0)
			if v.Kind != heap.KindNumber {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.pop()
			if err := vm.push(heap.Number(-v.AsNumber())); err != nil {
				return err
			}
		case bytecode.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case bytecode.OpSubtract:
			if err := vm.arith(op); err != nil {
				return err
			}
		case bytecode.OpMultiply:
			if err := vm.arith(op); err != nil {
				return err
			}
		case bytecode.OpDivide:
			if err := vm.arith(op); err != nil {
				return err
			}
		case bytecode.OpPrint:
			fmt.Fprintln(vm.Stdout, formatValue(vm.pop()))
		case bytecode.OpDefineGlobal:
			vm.defineGlobal(int(vm.readByte()))
		case bytecode.OpDefineGlobalLong:
			vm.defineGlobal(vm.read24())
		case bytecode.OpGetGlobal:
			if err := vm.getGlobal(int(vm.readByte())); err != nil {
				return err
			}
		case bytecode.OpGetGlobalLong:
			if err := vm.getGlobal(vm.read24()); err != nil {
				return err
			}
		case bytecode.OpSetGlobal:
			if err := vm.setGlobal(int(vm.readByte())); err != nil {
				return err
			}
		case bytecode.OpSetGlobalLong:
			if err := vm.setGlobal(vm.read24()); err != nil {
				return err
			}
		case bytecode.OpGetLocal:
			slot := int(vm.readByte())
			if err := vm.push(vm.stack[vm.currentFrame().slotsBase+slot]); err != nil {
				return err
			}
		case bytecode.OpSetLocal:
			slot := int(vm.readByte())
			vm.stack[vm.currentFrame().slotsBase+slot] = vm.peek(0)
		case bytecode.OpGetUpvalue:
			slot := int(vm.readByte())
			if err := vm.push(vm.currentFrame().closure.Upvalues[slot].Get()); err != nil {
				return err
			}
		case bytecode.OpSetUpvalue:
			slot := int(vm.readByte())
			vm.currentFrame().closure.Upvalues[slot].Set(vm.peek(0))
		case bytecode.OpJump:
			offset := vm.readShort()
			vm.currentFrame().ip += offset
		case bytecode.OpJumpIfFalse:
			offset := vm.readShort()
			if vm.peek(0).IsFalsey() {
				vm.currentFrame().ip += offset
			}
		case bytecode.OpLoop:
			offset := vm.readShort()
			vm.currentFrame().ip -= offset
		case bytecode.OpCall:
			argCount := int(vm.readByte())
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err
			}
		case bytecode.OpClosure:
			if err := vm.closure(); err != nil {
				return err
			}
		case bytecode.OpCloseUpvalue:
			idx := len(vm.stack) - 1
			vm.closeUpvalues(idx)
			vm.stack = vm.stack[:idx]
		case bytecode.OpClass:
			if err := vm.class(int(vm.readByte())); err != nil {
				return err
			}
		case bytecode.OpClassLong:
			if err := vm.class(vm.read24()); err != nil {
				return err
			}
		case bytecode.OpInherit:
			if err := vm.inherit(); err != nil {
				return err
			}
		case bytecode.OpMethod:
			vm.defineMethod(int(vm.readByte()))
		case bytecode.OpMethodLong:
			vm.defineMethod(vm.read24())
		case bytecode.OpGetProperty:
			if err := vm.getProperty(int(vm.readByte())); err != nil {
				return err
			}
		case bytecode.OpGetPropertyLong:
			if err := vm.getProperty(vm.read24()); err != nil {
				return err
			}
		case bytecode.OpSetProperty:
			if err := vm.setProperty(int(vm.readByte())); err != nil {
				return err
			}
		case bytecode.OpSetPropertyLong:
			if err := vm.setProperty(vm.read24()); err != nil {
				return err
			}
		case bytecode.OpGetSuper:
			if err := vm.getSuper(int(vm.readByte())); err != nil {
				return err
			}
		case bytecode.OpGetSuperLong:
			if err := vm.getSuper(vm.read24()); err != nil {
				return err
			}
		case bytecode.OpInvoke:
			name := vm.readStringConstant(int(vm.readByte()))
			argCount := int(vm.readByte())
			if err := vm.invoke(name, argCount); err != nil {
				return err
			}
		case bytecode.OpInvokeLong:
			name := vm.readStringConstant(vm.read24())
			argCount := int(vm.readByte())
			if err := vm.invoke(name, argCount); err != nil {
				return err
			}
		case bytecode.OpSuperInvoke:
			name := vm.readStringConstant(int(vm.readByte()))
			argCount := int(vm.readByte())
			if err := vm.superInvoke(name, argCount); err != nil {
				return err
			}
		case bytecode.OpSuperInvokeLong:
			name := vm.readStringConstant(vm.read24())
			argCount := int(vm.readByte())
			if err := vm.superInvoke(name, argCount); err != nil {
				return err
			}
		case bytecode.OpReturn:
			result := vm.pop()
			f := vm.currentFrame()
			vm.closeUpvalues(f.slotsBase)
			base := f.slotsBase
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				vm.stack = vm.stack[:0]
				return nil
			}
			vm.stack = vm.stack[:base]
			if err := vm.push(result); err != nil {
				return err
			}
		default:
			return vm.runtimeError("Unknown opcode %d.", byte(op))
		}
	}
}

func (vm *VM) defineGlobal(idx int) {
	name := vm.readStringConstant(idx)
	vm.globals.Set(name, vm.peek(0))
	vm.pop()
}

func (vm *VM) getGlobal(idx int) error {
	name := vm.readStringConstant(idx)
	v, ok := vm.globals.Get(name)
	if !ok {
		return vm.runtimeError("Undefined variable '%s'.", name.Chars)
	}
	return vm.push(v)
}

func (vm *VM) setGlobal(idx int) error {
	name := vm.readStringConstant(idx)
	if isNew := vm.globals.Set(name, vm.peek(0)); isNew {
		vm.globals.Delete(name)
		return vm.runtimeError("Undefined variable '%s'.", name.Chars)
	}
	return nil
}

func (vm *VM) numericCompare(op bytecode.Op) error {
	b, a := vm.pop(), vm.pop()
	if a.Kind != heap.KindNumber || b.Kind != heap.KindNumber {
		return vm.runtimeError("Operands must be numbers.")
	}
	var result bool
	switch op {
	case bytecode.OpGreater:
		result = a.AsNumber() > b.AsNumber()
	case bytecode.OpGreaterEqual:
		result = a.AsNumber() >= b.AsNumber()
	case bytecode.OpLess:
		result = a.AsNumber() < b.AsNumber()
	case bytecode.OpLessEqual:
		result = a.AsNumber() <= b.AsNumber()
	}
	return vm.push(heap.Bool(result))
}

func (vm *VM) add() error {
	b, a := vm.peek(0), vm.peek(1)
	if a.Kind == heap.KindNumber && b.Kind == heap.KindNumber {
		vm.pop()
		vm.pop()
		return vm.push(heap.Number(a.AsNumber() + b.AsNumber()))
	}
	as, aok := a.AsString()
	bs, bok := b.AsString()
	if aok && bok {
		vm.pop()
		vm.pop()
		return vm.push(heap.FromObject(vm.heap.NewString(as.Chars + bs.Chars)))
	}
	return vm.runtimeError("Operands must be two numbers or two strings.")
}

func (vm *VM) arith(op bytecode.Op) error {
	b, a := vm.pop(), vm.pop()
	if a.Kind != heap.KindNumber || b.Kind != heap.KindNumber {
		return vm.runtimeError("Operands must be numbers.")
	}
	var result float64
	switch op {
	case bytecode.OpSubtract:
		result = a.AsNumber() - b.AsNumber()
	case bytecode.OpMultiply:
		result = a.AsNumber() * b.AsNumber()
	case bytecode.OpDivide:
		result = a.AsNumber() / b.AsNumber()
	}
	return vm.push(heap.Number(result))
}

func (vm *VM) closure() error {
	idx := int(vm.readByte())
	fnVal := vm.readConstant(idx)
	fn := fnVal.AsObject().(*heap.Function)
	upvalues := make([]*heap.Upvalue, fn.UpvalueCount)
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := vm.readByte()
		index := int(vm.readByte())
		if isLocal == 1 {
			upvalues[i] = vm.captureUpvalue(vm.currentFrame().slotsBase + index)
		} else {
			upvalues[i] = vm.currentFrame().closure.Upvalues[index]
		}
	}
	c := vm.heap.NewClosure(fn, upvalues)
	return vm.push(heap.FromObject(c))
}

func (vm *VM) captureUpvalue(index int) *heap.Upvalue {
	for n := vm.openUpvalues; n != nil; n = n.next {
		if n.index == index {
			return n.uv
		}
	}
	uv := vm.heap.NewUpvalue(&vm.stack[index])
	vm.openUpvalues = &openUpvalue{index: index, uv: uv, next: vm.openUpvalues}
	return uv
}

func (vm *VM) closeUpvalues(fromIndex int) {
	var prev *openUpvalue
	n := vm.openUpvalues
	for n != nil {
		if n.index >= fromIndex {
			n.uv.Close()
			if prev == nil {
				vm.openUpvalues = n.next
			} else {
				prev.next = n.next
			}
			n = n.next
			continue
		}
		prev = n
		n = n.next
	}
}

func (vm *VM) class(idx int) error {
	name := vm.readStringConstant(idx)
	c := vm.heap.NewClass(name)
	return vm.push(heap.FromObject(c))
}

func (vm *VM) inherit() error {
	superVal := vm.peek(1)
	superclass, ok := superVal.AsObject().(*heap.Class)
	if !ok {
		return vm.runtimeError("Superclass must be a class.")
	}
	subclass := vm.peek(0).AsObject().(*heap.Class)
	superclass.Methods.ForEach(func(name *heap.String, method heap.Value) {
		subclass.Methods.Set(name, method)
	})
	vm.pop() // subclass
	return nil
}

func (vm *VM) defineMethod(idx int) {
	name := vm.readStringConstant(idx)
	method := vm.pop()
	class := vm.peek(0).AsObject().(*heap.Class)
	class.Methods.Set(name, method)
}

func (vm *VM) getProperty(idx int) error {
	receiver := vm.peek(0)
	inst, ok := receiver.AsObject().(*heap.Instance)
	if !ok {
		return vm.runtimeError("Only instances have properties.")
	}
	name := vm.readStringConstant(idx)
	if v, ok := inst.Fields.Get(name); ok {
		vm.pop()
		return vm.push(v)
	}
	return vm.bindMethod(inst.Class, name)
}

func (vm *VM) setProperty(idx int) error {
	receiver := vm.peek(1)
	inst, ok := receiver.AsObject().(*heap.Instance)
	if !ok {
		return vm.runtimeError("Only instances have fields.")
	}
	name := vm.readStringConstant(idx)
	inst.Fields.Set(name, vm.peek(0))
	value := vm.pop()
	vm.pop()
	return vm.push(value)
}

func (vm *VM) getSuper(idx int) error {
	name := vm.readStringConstant(idx)
	superclass := vm.pop().AsObject().(*heap.Class)
	return vm.bindMethod(superclass, name)
}

// bindMethod looks up name on class, pops the receiver currently at
// peek(0), and pushes a BoundMethod pairing them.
func (vm *VM) bindMethod(class *heap.Class, name *heap.String) error {
	methodVal, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	receiver := vm.pop()
	closure := methodVal.AsObject().(*heap.Closure)
	bound := vm.heap.NewBoundMethod(receiver, closure)
	return vm.push(heap.FromObject(bound))
}

func (vm *VM) invoke(name *heap.String, argCount int) error {
	receiver := vm.peek(argCount)
	inst, ok := receiver.AsObject().(*heap.Instance)
	if !ok {
		return vm.runtimeError("Only instances have methods.")
	}
	if v, ok := inst.Fields.Get(name); ok {
		vm.stack[len(vm.stack)-argCount-1] = v
		return vm.callValue(v, argCount)
	}
	return vm.invokeFromClass(inst.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class *heap.Class, name *heap.String, argCount int) error {
	methodVal, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	closure := methodVal.AsObject().(*heap.Closure)
	return vm.call(closure, argCount)
}

func (vm *VM) superInvoke(name *heap.String, argCount int) error {
	superclass := vm.pop().AsObject().(*heap.Class)
	return vm.invokeFromClass(superclass, name, argCount)
}

// callValue dispatches OP_CALL's target by dynamic type, per spec.md
// §4.4's calling convention: closures execute, natives run immediately,
// classes construct (and chain into `init` if present), and bound
// methods rebind their receiver into slot 0 before calling through.
func (vm *VM) callValue(callee heap.Value, argCount int) error {
	switch o := callee.AsObject().(type) {
	case *heap.Closure:
		return vm.call(o, argCount)
	case *heap.Native:
		if argCount != o.Arity {
			return vm.runtimeError("Expected %d arguments, but got %d.", o.Arity, argCount)
		}
		args := vm.stack[len(vm.stack)-argCount:]
		result, err := o.Fn(args)
		if err != nil {
			return vm.runtimeError("%s", err.Error())
		}
		vm.stack = vm.stack[:len(vm.stack)-argCount-1]
		return vm.push(result)
	case *heap.Class:
		instance := vm.heap.NewInstance(o)
		vm.stack[len(vm.stack)-argCount-1] = heap.FromObject(instance)
		if initializer, ok := o.Methods.Get(vm.initString); ok {
			closure := initializer.AsObject().(*heap.Closure)
			return vm.call(closure, argCount)
		}
		if argCount != 0 {
			return vm.runtimeError("Expected 0 arguments, but got %d.", argCount)
		}
		return nil
	case *heap.BoundMethod:
		vm.stack[len(vm.stack)-argCount-1] = o.Receiver
		return vm.call(o.Method, argCount)
	default:
		return vm.runtimeError("Can only call functions and classes.")
	}
}

func (vm *VM) call(closure *heap.Closure, argCount int) error {
	if argCount != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments, but got %d.", closure.Function.Arity, argCount)
	}
	if len(vm.frames) >= cap(vm.frames) {
		return vm.runtimeError("Stack overflow.")
	}
	vm.frames = append(vm.frames, frame{
		closure:   closure,
		ip:        0,
		slotsBase: len(vm.stack) - argCount - 1,
	})
	return nil
}
