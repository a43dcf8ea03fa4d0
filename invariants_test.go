package jstar

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStringInterningIsPointerEquality covers spec.md §3's "strings at
// or under internThreshold are canonicalized ... so string equality for
// them is pointer equality."
func TestStringInterningIsPointerEquality(t *testing.T) {
	vm := NewVM(nil)
	a := vm.internString("hello")
	b := vm.internString("hello")
	assert.Same(t, a, b)
}

// TestStackPointerReturnsToEntry covers spec.md §9's "the stack pointer
// after a top-level evaluation returns to where it stood on entry" --
// Evaluate pops its own result, leaving sp untouched relative to a fresh
// VM.
func TestStackPointerReturnsToEntry(t *testing.T) {
	vm := NewVM(nil)
	captureStdout(vm)
	entrySP := vm.sp

	program := NewProgram(1, []Stmt{
		NewExprStmt(1, NewBinOp(1, OpAdd, NewNumberLit(1, 1), NewNumberLit(1, 2))),
	})
	result := vm.Evaluate(program)

	require.Equal(t, EvalSuccess, result)
	assert.Equal(t, entrySP, vm.sp)
}

// TestStackTraceLengthMatchesUnwoundFrames covers spec.md §8's
// "_stacktrace length equals the number of frames unwound" when an
// uncaught exception propagates through two nested calls.
func TestStackTraceLengthMatchesUnwoundFrames(t *testing.T) {
	vm := NewVM(nil)
	captureStdout(vm)
	var traceback strings.Builder
	vm.stderr = func(format string, args ...any) {
		traceback.WriteString(fmt.Sprintf(format, args...))
	}

	inner := NewFuncDecl(1, "inner", NewFuncLit(1, nil, false, []Stmt{
		NewRaiseStmt(1, NewCall(1, NewIdent(1, "TypeException"), []Expr{NewStringLit(1, "boom")})),
	}))
	outer := NewFuncDecl(2, "outer", NewFuncLit(2, nil, false, []Stmt{
		NewExprStmt(2, NewCall(2, NewIdent(2, "inner"), nil)),
	}))
	program := NewProgram(1, []Stmt{
		inner,
		outer,
		NewExprStmt(3, NewCall(3, NewIdent(3, "outer"), nil)),
	})

	result := vm.Evaluate(program)
	require.Equal(t, RuntimeErr, result)
	// inner, outer and the top-level <main> frame each add one entry.
	assert.Equal(t, 3, strings.Count(traceback.String(), " at line "))
}

// TestDisassembleIsDeterministic covers spec.md §4.3's disassembler
// being a pure function of the Chunk: compiling the same Program twice
// produces byte-identical disassembly text.
func TestDisassembleIsDeterministic(t *testing.T) {
	vm := NewVM(nil)
	program := NewProgram(1, []Stmt{
		NewExprStmt(1, NewBinOp(1, OpAdd, NewNumberLit(1, 1), NewNumberLit(1, 2))),
	})

	mod1, _ := vm.ImportModule(vm.internString("disasm1"))
	fn1, errs1 := Compile(vm, mod1, program)
	require.False(t, errs1.HasErrors())

	mod2, _ := vm.ImportModule(vm.internString("disasm2"))
	fn2, errs2 := Compile(vm, mod2, program)
	require.False(t, errs2.HasErrors())

	assert.Equal(t, Disassemble("<main>", fn1.Chunk), Disassemble("<main>", fn2.Chunk))
}
