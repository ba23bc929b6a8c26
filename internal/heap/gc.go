package heap

// FNV-1a 32-bit hash constants, pinned exactly by spec.md §4.5.
const (
	fnvOffsetBasis uint32 = 2166136261
	fnvPrime       uint32 = 16777619
)

// hashString computes the FNV-1a hash of s.
func hashString(s string) uint32 {
	h := fnvOffsetBasis
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}

// RootProvider is implemented by anything that owns live references
// into the heap outside the heap itself — the VM (value stack, call
// frames, open upvalues, globals) and the active Compiler chain
// (in-progress Function objects not yet reachable from any root).
// MarkRoots must call h.MarkValue/h.MarkObject for every reference it
// owns.
type RootProvider interface {
	MarkRoots(h *Heap)
}

// Heap owns every live Object, the string-intern table, and the
// mark-sweep collector. It has no knowledge of the VM or compiler; it
// only knows its registered RootProviders.
type Heap struct {
	objects   Object // head of the intrusive all-objects list
	strings   *Table
	globals   *Table
	roots     []RootProvider
	gray      []Object // mark-phase worklist

	bytesAllocated int
	nextGC         int
	growFactor     int
	stressGC       bool

	// GCLog, when non-nil, is called once per completed collection cycle
	// with the before/after byte counts and the new next_gc threshold.
	// cmd/lumen wires this to slog.
	GCLog func(before, after, next int)
}

// NewHeap returns an empty heap. initialNextGC and growFactor come from
// vmconfig per spec.md §4.5 defaults (1 MiB, factor 2).
func NewHeap(initialNextGC, growFactor int, stressGC bool) *Heap {
	return &Heap{
		strings:    NewTable(),
		nextGC:     initialNextGC,
		growFactor: growFactor,
		stressGC:   stressGC,
	}
}

// RegisterRoot adds a root provider consulted at the start of every
// collection cycle. The VM and each active Compiler register themselves.
func (h *Heap) RegisterRoot(r RootProvider) {
	h.roots = append(h.roots, r)
}

// UnregisterRoot removes a previously registered root provider, used
// when a Compiler finishes and its in-progress Function becomes
// reachable through the enclosing compiler or the finished chunk instead.
func (h *Heap) UnregisterRoot(r RootProvider) {
	for i, existing := range h.roots {
		if existing == r {
			h.roots = append(h.roots[:i], h.roots[i+1:]...)
			return
		}
	}
}

// sizeOf approximates an object's heap footprint for accounting
// purposes. Exact byte counts aren't observable in Go the way they are
// in a hand-rolled C allocator, so this is a coarse per-kind estimate
// used only to drive the next_gc threshold, not for correctness.
func sizeOf(o Object) int {
	switch v := o.(type) {
	case *String:
		return 32 + len(v.Chars)
	case *Function:
		return 64 + len(v.Chunk.Code) + len(v.Chunk.Constants)*16
	case *Native:
		return 48
	case *Closure:
		return 32 + len(v.Upvalues)*8
	case *Upvalue:
		return 32
	case *Class:
		return 40
	case *Instance:
		return 40
	case *BoundMethod:
		return 40
	default:
		return 16
	}
}

// link prepends o to the all-objects list and accounts for its size.
// Every NewXxx constructor below calls this exactly once, after first
// triggering a collection if due — never before — so a newly
// constructed object can never be swept by a GC cycle triggered by its
// own construction (spec.md §5's allocation-safety hazard).
func (h *Heap) link(o Object) {
	o.Hdr().Next = h.objects
	h.objects = o
	h.bytesAllocated += sizeOf(o)
}

// collectIfDue runs a collection cycle before allocating when the
// configured threshold is reached, or always under stressGC. Called at
// the top of every NewXxx constructor, before the new object exists,
// which is what makes the allocate-after-collect ordering safe: there
// is no window where the new object exists but isn't yet linked or
// rooted.
func (h *Heap) collectIfDue() {
	if h.stressGC || h.bytesAllocated >= h.nextGC {
		h.Collect()
	}
}

// NewString interns s, returning the existing String object if an
// equal one is already live rather than allocating a duplicate
// (spec.md §3: at most one live String per distinct byte sequence).
func (h *Heap) NewString(s string) *String {
	hash := hashString(s)
	if existing := h.strings.FindString(s, hash); existing != nil {
		return existing
	}
	h.collectIfDue()
	str := &String{Chars: s, Hash: hash}
	str.Kind = ObjString
	h.link(str)
	h.strings.Set(str, Nil())
	return str
}

// NewFunction allocates an empty Function shell; the compiler fills in
// Arity/UpvalueCount/Chunk/Name as compilation proceeds.
func (h *Heap) NewFunction() *Function {
	h.collectIfDue()
	f := &Function{}
	f.Kind = ObjFunction
	h.link(f)
	return f
}

// NewNative wraps a host function for exposure to lumen code.
func (h *Heap) NewNative(name string, arity int, fn NativeFn) *Native {
	h.collectIfDue()
	n := &Native{Name: name, Arity: arity, Fn: fn}
	n.Kind = ObjNative
	h.link(n)
	return n
}

// NewClosure wraps fn with its captured upvalues.
func (h *Heap) NewClosure(fn *Function, upvalues []*Upvalue) *Closure {
	h.collectIfDue()
	c := &Closure{Function: fn, Upvalues: upvalues}
	c.Kind = ObjClosure
	h.link(c)
	return c
}

// NewUpvalue allocates an open upvalue pointing at a live stack slot.
func (h *Heap) NewUpvalue(slot *Value) *Upvalue {
	h.collectIfDue()
	u := &Upvalue{Location: slot}
	u.Kind = ObjUpvalue
	h.link(u)
	return u
}

// NewClass allocates an empty class with the given name.
func (h *Heap) NewClass(name *String) *Class {
	h.collectIfDue()
	c := &Class{Name: name, Methods: NewTable()}
	c.Kind = ObjClass
	h.link(c)
	return c
}

// NewInstance allocates a field-less instance of class.
func (h *Heap) NewInstance(class *Class) *Instance {
	h.collectIfDue()
	i := &Instance{Class: class, Fields: NewTable()}
	i.Kind = ObjInstance
	h.link(i)
	return i
}

// NewBoundMethod pairs receiver with method.
func (h *Heap) NewBoundMethod(receiver Value, method *Closure) *BoundMethod {
	h.collectIfDue()
	b := &BoundMethod{Receiver: receiver, Method: method}
	b.Kind = ObjBoundMethod
	h.link(b)
	return b
}

// Globals returns the table used for global-variable storage. It is a
// plain Table like the intern table, but its entries are always marked
// as GC roots rather than swept as weak references.
func (h *Heap) Globals() *Table {
	if h.globals == nil {
		h.globals = NewTable()
	}
	return h.globals
}

// MarkValue marks v's underlying object, if it holds one.
func (h *Heap) MarkValue(v Value) {
	if v.Kind == KindObj && v.obj != nil {
		h.MarkObject(v.obj)
	}
}

// MarkObject marks o black-pending (gray) if it was previously white,
// queuing it for blacken. Safe to call with a nil interface value,
// which Go heap objects can carry as typed-nil (e.g. Function.Name on
// the top-level script function) — callers should still prefer an
// explicit nil check at the call site, since a typed-nil *String
// wrapped in the Object interface is NOT == nil here; guard at the
// field, not inside this function, because Hdr() on a genuinely nil
// pointer still panics.
func (h *Heap) MarkObject(o Object) {
	if o == nil {
		return
	}
	hdr := o.Hdr()
	if hdr.Marked {
		return
	}
	hdr.Marked = true
	h.gray = append(h.gray, o)
}

// Collect runs one full mark-sweep cycle: mark every root, trace the
// gray worklist to black, sweep the intern table of dead keys, then
// free every unmarked object and grow the next_gc threshold.
func (h *Heap) Collect() {
	before := h.bytesAllocated

	for _, r := range h.roots {
		r.MarkRoots(h)
	}
	for len(h.gray) > 0 {
		n := len(h.gray) - 1
		obj := h.gray[n]
		h.gray = h.gray[:n]
		h.blacken(obj)
	}

	h.strings.removeWhite()
	h.sweep()

	h.nextGC = h.bytesAllocated * h.growFactor
	if h.nextGC == 0 {
		h.nextGC = 1
	}

	if h.GCLog != nil {
		h.GCLog(before, h.bytesAllocated, h.nextGC)
	}
}

// blacken marks every object a gray object references, per spec.md
// §4.5's per-kind traversal table. Each optional/nilable reference is
// checked explicitly rather than relying on a generic interface-nil
// test inside MarkObject, because a typed-nil concrete pointer boxed
// into the Object interface is a non-nil interface value.
func (h *Heap) blacken(o Object) {
	switch v := o.(type) {
	case *String:
		// no outgoing references
	case *Function:
		if v.Name != nil {
			h.MarkObject(v.Name)
		}
		for _, c := range v.Chunk.Constants {
			h.MarkValue(c)
		}
	case *Native:
		// no outgoing references
	case *Closure:
		h.MarkObject(v.Function)
		for _, uv := range v.Upvalues {
			if uv != nil {
				h.MarkObject(uv)
			}
		}
	case *Upvalue:
		h.MarkValue(v.Get())
	case *Class:
		if v.Name != nil {
			h.MarkObject(v.Name)
		}
		v.Methods.markTableRoots(h)
	case *Instance:
		h.MarkObject(v.Class)
		v.Fields.markTableRoots(h)
	case *BoundMethod:
		h.MarkValue(v.Receiver)
		h.MarkObject(v.Method)
	}
}

// sweep walks the all-objects list, freeing (unlinking) every object
// left unmarked by the trace, and clearing the mark bit on survivors
// for the next cycle.
func (h *Heap) sweep() {
	var prev Object
	cur := h.objects
	for cur != nil {
		hdr := cur.Hdr()
		next := hdr.Next
		if hdr.Marked {
			hdr.Marked = false
			prev = cur
		} else {
			h.bytesAllocated -= sizeOf(cur)
			if prev == nil {
				h.objects = next
			} else {
				prev.Hdr().Next = next
			}
		}
		cur = next
	}
}
