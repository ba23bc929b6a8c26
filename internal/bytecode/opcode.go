// Package bytecode defines the closed set of VM opcodes and a
// disassembler for debugging. It depends only on internal/heap (for the
// Chunk and constant values the disassembler reads), so the compiler and
// VM can both import it without import cycles.
package bytecode

// Op identifies a single VM instruction.
type Op byte

const (
	OpConstant Op = iota
	OpConstantLong
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpEqual
	OpNotEqual
	OpGreater
	OpGreaterEqual
	OpLess
	OpLessEqual
	OpNot
	OpNegate
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpPrint
	OpDefineGlobal
	OpDefineGlobalLong
	OpGetGlobal
	OpGetGlobalLong
	OpSetGlobal
	OpSetGlobalLong
	OpGetLocal
	OpSetLocal
	OpGetUpvalue
	OpSetUpvalue
	OpJump
	OpJumpIfFalse
	OpLoop
	OpCall
	OpClosure
	OpCloseUpvalue
	OpClass
	OpClassLong
	OpInherit
	OpMethod
	OpMethodLong
	OpGetProperty
	OpGetPropertyLong
	OpSetProperty
	OpSetPropertyLong
	OpGetSuper
	OpGetSuperLong
	OpInvoke
	OpInvokeLong
	OpSuperInvoke
	OpSuperInvokeLong
	OpReturn
)

var names = [...]string{
	OpConstant:         "OP_CONSTANT",
	OpConstantLong:     "OP_CONSTANT_LONG",
	OpNil:              "OP_NIL",
	OpTrue:             "OP_TRUE",
	OpFalse:            "OP_FALSE",
	OpPop:              "OP_POP",
	OpEqual:            "OP_EQUAL",
	OpNotEqual:         "OP_NOT_EQUAL",
	OpGreater:          "OP_GREATER",
	OpGreaterEqual:     "OP_GREATER_EQUAL",
	OpLess:             "OP_LESS",
	OpLessEqual:        "OP_LESS_EQUAL",
	OpNot:              "OP_NOT",
	OpNegate:           "OP_NEGATE",
	OpAdd:              "OP_ADD",
	OpSubtract:         "OP_SUBTRACT",
	OpMultiply:         "OP_MULTIPLY",
	OpDivide:           "OP_DIVIDE",
	OpPrint:            "OP_PRINT",
	OpDefineGlobal:     "OP_DEFINE_GLOBAL",
	OpDefineGlobalLong: "OP_DEFINE_GLOBAL_LONG",
	OpGetGlobal:        "OP_GET_GLOBAL",
	OpGetGlobalLong:    "OP_GET_GLOBAL_LONG",
	OpSetGlobal:        "OP_SET_GLOBAL",
	OpSetGlobalLong:    "OP_SET_GLOBAL_LONG",
	OpGetLocal:         "OP_GET_LOCAL",
	OpSetLocal:         "OP_SET_LOCAL",
	OpGetUpvalue:       "OP_GET_UPVALUE",
	OpSetUpvalue:       "OP_SET_UPVALUE",
	OpJump:             "OP_JUMP",
	OpJumpIfFalse:      "OP_JUMP_IF_FALSE",
	OpLoop:             "OP_LOOP",
	OpCall:             "OP_CALL",
	OpClosure:          "OP_CLOSURE",
	OpCloseUpvalue:     "OP_CLOSE_UPVALUE",
	OpClass:            "OP_CLASS",
	OpClassLong:        "OP_CLASS_LONG",
	OpInherit:          "OP_INHERIT",
	OpMethod:           "OP_METHOD",
	OpMethodLong:       "OP_METHOD_LONG",
	OpGetProperty:      "OP_GET_PROPERTY",
	OpGetPropertyLong:  "OP_GET_PROPERTY_LONG",
	OpSetProperty:      "OP_SET_PROPERTY",
	OpSetPropertyLong:  "OP_SET_PROPERTY_LONG",
	OpGetSuper:         "OP_GET_SUPER",
	OpGetSuperLong:     "OP_GET_SUPER_LONG",
	OpInvoke:           "OP_INVOKE",
	OpInvokeLong:       "OP_INVOKE_LONG",
	OpSuperInvoke:      "OP_SUPER_INVOKE",
	OpSuperInvokeLong:  "OP_SUPER_INVOKE_LONG",
	OpReturn:           "OP_RETURN",
}

func (op Op) String() string {
	if int(op) < len(names) && names[op] != "" {
		return names[op]
	}
	return "OP_UNKNOWN"
}
