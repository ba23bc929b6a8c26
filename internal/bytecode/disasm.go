package bytecode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lumenscript/lumen/internal/heap"
)

// Disassemble renders every instruction in chunk under name, one line
// per instruction, for the `lumen disasm` command and --trace output.
// Grounded on the teacher's internal/bytecode/disasm.go line-by-line
// walk, adapted to this package's byte-packed Chunk and short/long
// operand-width opcode pairs.
func Disassemble(chunk *heap.Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	offset := 0
	for offset < len(chunk.Code) {
		line, next := DisassembleInstruction(chunk, offset)
		b.WriteString(line)
		b.WriteByte('\n')
		offset = next
	}
	return b.String()
}

// DisassembleInstruction formats the instruction at offset and returns
// the offset of the next one.
func DisassembleInstruction(chunk *heap.Chunk, offset int) (string, int) {
	op := Op(chunk.Code[offset])
	line := chunk.GetLine(offset)
	prefix := fmt.Sprintf("%04d line %d  %s", offset, line, op)

	switch op {
	case OpClosure:
		idx := int(chunk.Code[offset+1])
		next := offset + 2
		if idx >= 0 && idx < len(chunk.Constants) {
			if fn, ok := chunk.Constants[idx].AsObject().(*heap.Function); ok {
				next += fn.UpvalueCount * 2
			}
		}
		return prefix + " " + constantRepr(chunk, idx), next

	case OpConstant, OpDefineGlobal, OpGetGlobal, OpSetGlobal,
		OpClass, OpMethod, OpGetProperty, OpSetProperty, OpGetSuper:
		idx := int(chunk.Code[offset+1])
		return prefix + " " + constantRepr(chunk, idx), offset + 2

	case OpConstantLong, OpDefineGlobalLong, OpGetGlobalLong, OpSetGlobalLong,
		OpClassLong, OpMethodLong, OpGetPropertyLong, OpSetPropertyLong, OpGetSuperLong:
		idx := read24At(chunk, offset+1)
		return prefix + " " + constantRepr(chunk, idx), offset + 4

	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue, OpCall:
		return prefix + " " + strconv.Itoa(int(chunk.Code[offset+1])), offset + 2

	case OpJump, OpJumpIfFalse, OpLoop:
		hi, lo := chunk.Code[offset+1], chunk.Code[offset+2]
		jumpOffset := int(hi)<<8 | int(lo)
		return prefix + " " + strconv.Itoa(jumpOffset), offset + 3

	case OpInvoke, OpSuperInvoke:
		idx := int(chunk.Code[offset+1])
		argCount := chunk.Code[offset+2]
		return fmt.Sprintf("%s %s (%d args)", prefix, constantRepr(chunk, idx), argCount), offset + 3

	case OpInvokeLong, OpSuperInvokeLong:
		idx := read24At(chunk, offset+1)
		argCount := chunk.Code[offset+4]
		return fmt.Sprintf("%s %s (%d args)", prefix, constantRepr(chunk, idx), argCount), offset + 5

	default:
		return prefix, offset + 1
	}
}

func read24At(chunk *heap.Chunk, offset int) int {
	return int(chunk.Code[offset])<<16 | int(chunk.Code[offset+1])<<8 | int(chunk.Code[offset+2])
}

func constantRepr(chunk *heap.Chunk, idx int) string {
	if idx < 0 || idx >= len(chunk.Constants) {
		return "<?>"
	}
	return fmt.Sprintf("%d '%s'", idx, briefValue(chunk.Constants[idx]))
}

// briefValue gives a short, package-local rendering of a constant for
// disassembly; it deliberately doesn't reuse internal/vm's print
// formatting to avoid a dependency in the opposite direction.
func briefValue(v heap.Value) string {
	switch v.Kind {
	case heap.KindNil:
		return "nil"
	case heap.KindBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case heap.KindNumber:
		return strconv.FormatFloat(v.AsNumber(), 'g', -1, 64)
	case heap.KindObj:
		if s, ok := v.AsString(); ok {
			return s.Chars
		}
		return "<obj>"
	default:
		return "?"
	}
}
