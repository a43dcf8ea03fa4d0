package jstar

import (
	"fmt"
	"strings"

	"github.com/jstar-go/jstar/ascii"
)

// Disassemble formats chunk as human-readable assembly, one instruction
// per line, in the same pure-debug-formatter spirit as the teacher's
// Program.PrettyPrint / HighlightPrettyString (vm_program.go): it has
// no bearing on interpreter correctness (spec.md §1 calls the
// disassembler an out-of-scope collaborator), it is reused here as
// still-valuable debug tooling, themed with the same ascii package.
func Disassemble(name string, chunk *Chunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", ascii.Color(ascii.DefaultTheme.Label, "== %s ==", name))
	for offset := 0; offset < len(chunk.Code); {
		offset = disassembleInstruction(&b, chunk, offset)
	}
	return b.String()
}

func disassembleInstruction(b *strings.Builder, chunk *Chunk, offset int) int {
	fmt.Fprintf(b, "%04d %s ", offset, lineMarker(chunk, offset))

	op := Op(chunk.Code[offset])
	name, ok := opNames[op]
	if !ok {
		fmt.Fprintf(b, "unknown opcode %d\n", op)
		return offset + 1
	}
	colored := ascii.Color(ascii.DefaultTheme.Operator, "%-18s", name)

	switch op {
	case OpConstant, OpGetGlobal, OpSetGlobal, OpDefineGlobal, OpGetAttr, OpSetAttr, OpNewClass, OpDefMethod, OpSuperGetAttr:
		idx := chunk.readU16(offset + 1)
		fmt.Fprintf(b, "%s%s\n", colored, constantOperand(chunk, idx))
		return offset + opSize(op)

	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue:
		slot := chunk.Code[offset+1]
		fmt.Fprintf(b, "%s%s\n", colored, ascii.Color(ascii.DefaultTheme.Operand, "%d", slot))
		return offset + opSize(op)

	case OpCall:
		argc := chunk.Code[offset+1]
		fmt.Fprintf(b, "%s%s\n", colored, ascii.Color(ascii.DefaultTheme.Operand, "argc=%d", argc))
		return offset + opSize(op)

	case OpJump, OpJumpIfFalse, OpJumpIfFalseNoPop, OpJumpIfTrueNoPop, OpLoop:
		target := chunk.readU16(offset + 1)
		fmt.Fprintf(b, "%s%s\n", colored, ascii.Color(ascii.DefaultTheme.Span, "-> %04d", target))
		return offset + opSize(op)

	case OpInvoke, OpSuperInvoke:
		idx := chunk.readU16(offset + 1)
		argc := chunk.Code[offset+3]
		fmt.Fprintf(b, "%s%s argc=%d\n", colored, constantOperand(chunk, idx), argc)
		return offset + opSize(op)

	case OpMakeClosure:
		idx := chunk.readU16(offset + 1)
		next := offset + 3
		fmt.Fprintf(b, "%s%s\n", colored, constantOperand(chunk, idx))
		if idx < uint16(len(chunk.Constants)) && chunk.Constants[idx].IsFunction() {
			fn := chunk.Constants[idx].AsFunction()
			for i := 0; i < fn.NumUpvalues; i++ {
				isLocal := chunk.Code[next]
				index := chunk.Code[next+1]
				kind := "upvalue"
				if isLocal != 0 {
					kind = "local"
				}
				fmt.Fprintf(b, "%04d      |                     %s %d\n", next, kind, index)
				next += 2
			}
		}
		return next

	case OpNewList, OpNewTuple:
		count := chunk.readU16(offset + 1)
		fmt.Fprintf(b, "%s%s\n", colored, ascii.Color(ascii.DefaultTheme.Operand, "count=%d", count))
		return offset + opSize(op)

	case OpSetupTry:
		exceptTarget := chunk.readU16(offset + 1)
		ensureTarget := chunk.readU16(offset + 3)
		fmt.Fprintf(b, "%sexcept=%04d ensure=%04d\n", colored, exceptTarget, ensureTarget)
		return offset + opSize(op)

	default:
		fmt.Fprintf(b, "%s\n", colored)
		return offset + opSize(op)
	}
}

func constantOperand(chunk *Chunk, idx uint16) string {
	if int(idx) >= len(chunk.Constants) {
		return ascii.Color(ascii.DefaultTheme.Error, "<invalid const %d>", idx)
	}
	return ascii.Color(ascii.DefaultTheme.Literal, "%s", chunk.Constants[idx].String())
}

func lineMarker(chunk *Chunk, offset int) string {
	line := chunk.LineFor(offset)
	if offset > 0 && chunk.LineFor(offset-1) == line {
		return "   |"
	}
	return fmt.Sprintf("%4d", line)
}
