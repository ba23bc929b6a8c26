package heap

// ObjKind tags the concrete type of a heap object, stored in every
// object's shared Header and set by each constructor. Dispatch on object
// type elsewhere (GC tracing, type names, formatting) uses type switches.
type ObjKind uint8

const (
	ObjString ObjKind = iota
	ObjFunction
	ObjNative
	ObjClosure
	ObjUpvalue
	ObjClass
	ObjInstance
	ObjBoundMethod
)

// Header is the common prefix every heap object embeds: a kind tag, a
// GC mark bit, and the intrusive next-pointer threading every live
// object onto the allocator's single object list.
type Header struct {
	Kind   ObjKind
	Marked bool
	Next   Object
}

// Hdr lets the header satisfy Object via promotion from every embedder.
func (h *Header) Hdr() *Header { return h }

// Object is satisfied by every heap-allocated type through promotion of
// *Header.Hdr. The GC walks the live set purely in terms of Object.
type Object interface {
	Hdr() *Header
}

// String is an immutable, interned byte sequence with a cached hash.
// Equal byte sequences are always represented by exactly one live
// String object; see Heap.NewString.
type String struct {
	Header
	Chars string
	Hash  uint32
}

// Function is a compiled routine: its bytecode Chunk, declared arity,
// upvalue count, and optional name. Built only while a compiler for it
// is active; immutable once the compiler finishes.
type Function struct {
	Header
	Name         *String // nil for the top-level script function
	Arity        int
	UpvalueCount int
	Chunk        Chunk
}

// NativeFn is a host-provided callable body.
type NativeFn func(args []Value) (Value, error)

// Native is a host function exposed to lumen code with a declared arity.
type Native struct {
	Header
	Name  string
	Arity int
	Fn    NativeFn
}

// Closure pairs a compiled Function with the upvalues it captured at
// creation time. Every user-visible call target except Native and
// Class is a Closure.
type Closure struct {
	Header
	Function *Function
	Upvalues []*Upvalue
}

// Upvalue is a captured variable slot: a pointer into the value stack
// while open, or an inline closed value once its owning scope ends.
// The VM tracks which upvalues are open in its own side table, keyed by
// stack slot, rather than through a field here.
type Upvalue struct {
	Header
	Location *Value // non-nil while open
	Closed   Value  // valid once Location == nil
}

// Get reads the current value, whether open or closed.
func (u *Upvalue) Get() Value {
	if u.Location != nil {
		return *u.Location
	}
	return u.Closed
}

// Set writes the current value, whether open or closed.
func (u *Upvalue) Set(v Value) {
	if u.Location != nil {
		*u.Location = v
		return
	}
	u.Closed = v
}

// Close copies the pointed-to stack slot into the inline field and
// severs the pointer, per spec: the upvalue transitions from open to
// closed exactly once, when its stack slot leaves scope.
func (u *Upvalue) Close() {
	if u.Location != nil {
		u.Closed = *u.Location
		u.Location = nil
	}
}

// Class has a name and a method table mapping method name to Closure.
type Class struct {
	Header
	Name    *String
	Methods *Table
}

// Instance references its class and holds fields created on first
// assignment.
type Instance struct {
	Header
	Class  *Class
	Fields *Table
}

// BoundMethod pairs a receiver value with the method Closure it was
// accessed through, produced whenever a method is read as a first-class
// value (property access that resolves to a method, not a field).
type BoundMethod struct {
	Header
	Receiver Value
	Method   *Closure
}
