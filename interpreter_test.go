package jstar

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureStdout swaps vm.stdout for a collecting buffer for the
// duration of the test, matching the teacher's own "redirect the
// pack's output hook and assert on it" style from api_test.go.
func captureStdout(vm *VM) *strings.Builder {
	var buf strings.Builder
	vm.stdout = func(format string, args ...any) {
		buf.WriteString(fmt.Sprintf(format, args...))
	}
	return &buf
}

func TestForLoopSum(t *testing.T) {
	vm := NewVM(nil)
	out := captureStdout(vm)

	total := NewIdent(1, "total")
	i := NewIdent(2, "i")
	body := NewBlock(2, []Stmt{
		NewExprStmt(2, NewAssignName(2, "total", NewBinOp(2, OpAdd, total, i))),
	})
	program := NewProgram(1, []Stmt{
		NewVarDecl(1, "total", NewNumberLit(1, 0)),
		NewForStmt(2, "i", NewRangeLit(2, NewNumberLit(2, 0), NewNumberLit(2, 5), nil), body),
		NewPrintStmt(3, total),
	})

	result := vm.Evaluate(program)
	require.Equal(t, EvalSuccess, result)
	assert.Equal(t, "10\n", out.String())
}

func TestClassInheritance(t *testing.T) {
	vm := NewVM(nil)
	out := captureStdout(vm)

	greetBase := NewFuncDecl(1, "greet", NewFuncLit(1, nil, false, []Stmt{
		NewPrintStmt(1, NewStringLit(1, "animal")),
	}))
	greetDog := NewFuncDecl(2, "greet", NewFuncLit(2, nil, false, []Stmt{
		NewPrintStmt(2, NewStringLit(2, "dog")),
	}))

	program := NewProgram(1, []Stmt{
		NewClassDecl(1, "Animal", "", []*FuncDecl{greetBase}),
		NewClassDecl(2, "Dog", "Animal", []*FuncDecl{greetDog}),
		NewVarDecl(3, "d", NewCall(3, NewIdent(3, "Dog"), nil)),
		NewExprStmt(4, NewMethodCall(4, NewIdent(4, "d"), "greet", nil)),
	})

	result := vm.Evaluate(program)
	require.Equal(t, EvalSuccess, result)
	assert.Equal(t, "dog\n", out.String())
}

func TestTryRaiseExcept(t *testing.T) {
	vm := NewVM(nil)
	out := captureStdout(vm)

	raiseStmt := NewRaiseStmt(2, NewCall(2, NewIdent(2, "TypeException"), []Expr{NewStringLit(2, "boom")}))
	tryStmt := NewTryStmt(1,
		NewBlock(1, []Stmt{raiseStmt}),
		"e",
		NewBlock(3, []Stmt{NewPrintStmt(3, NewStringLit(3, "caught"))}),
		nil,
	)
	program := NewProgram(1, []Stmt{tryStmt})

	result := vm.Evaluate(program)
	require.Equal(t, EvalSuccess, result)
	assert.Equal(t, "caught\n", out.String())
}

// TestTryEnsureRunsOnNormalExit covers §4.4's "an ensure block is
// executed on any exit path -- normal, exception, return, break,
// continue": a try with no exception in flight must still run its
// ensure block and must not treat the body's completion as a raise.
func TestTryEnsureRunsOnNormalExit(t *testing.T) {
	vm := NewVM(nil)
	out := captureStdout(vm)

	tryStmt := NewTryStmt(1,
		NewBlock(1, []Stmt{NewPrintStmt(1, NewStringLit(1, "body"))}),
		"",
		nil,
		NewBlock(2, []Stmt{NewPrintStmt(2, NewStringLit(2, "ensure"))}),
	)
	program := NewProgram(1, []Stmt{tryStmt})

	result := vm.Evaluate(program)
	require.Equal(t, EvalSuccess, result)
	assert.Equal(t, "body\nensure\n", out.String())
}

// TestTryEnsureRunsAfterExceptHandled covers the same invariant for a
// try with both an except and an ensure clause: ensure must run once
// the except body completes, not instead of it.
func TestTryEnsureRunsAfterExceptHandled(t *testing.T) {
	vm := NewVM(nil)
	out := captureStdout(vm)

	raiseStmt := NewRaiseStmt(1, NewCall(1, NewIdent(1, "TypeException"), []Expr{NewStringLit(1, "boom")}))
	tryStmt := NewTryStmt(1,
		NewBlock(1, []Stmt{raiseStmt}),
		"e",
		NewBlock(2, []Stmt{NewPrintStmt(2, NewStringLit(2, "caught"))}),
		NewBlock(3, []Stmt{NewPrintStmt(3, NewStringLit(3, "ensure"))}),
	)
	program := NewProgram(1, []Stmt{tryStmt})

	result := vm.Evaluate(program)
	require.Equal(t, EvalSuccess, result)
	assert.Equal(t, "caught\nensure\n", out.String())
}

// TestTryEnsureRunsOnUncaughtException covers ensure firing even when
// no except clause catches the exception: the ensure block must still
// run before the exception keeps propagating.
func TestTryEnsureRunsOnUncaughtException(t *testing.T) {
	vm := NewVM(nil)
	out := captureStdout(vm)

	raiseStmt := NewRaiseStmt(1, NewCall(1, NewIdent(1, "TypeException"), []Expr{NewStringLit(1, "boom")}))
	tryStmt := NewTryStmt(1,
		NewBlock(1, []Stmt{raiseStmt}),
		"",
		nil,
		NewBlock(2, []Stmt{NewPrintStmt(2, NewStringLit(2, "ensure"))}),
	)
	program := NewProgram(1, []Stmt{tryStmt})

	result := vm.Evaluate(program)
	require.Equal(t, RuntimeErr, result)
	assert.Equal(t, "ensure\n", out.String())
}

// TestTryEnsureRunsOnReturn covers ensure firing on a `return` that
// exits through the protected body: the function's return value must
// survive the detour through the ensure block.
func TestTryEnsureRunsOnReturn(t *testing.T) {
	vm := NewVM(nil)
	out := captureStdout(vm)

	tryStmt := NewTryStmt(1,
		NewBlock(1, []Stmt{NewReturnStmt(1, NewNumberLit(1, 42))}),
		"",
		nil,
		NewBlock(2, []Stmt{NewPrintStmt(2, NewStringLit(2, "ensure"))}),
	)
	fn := NewFuncDecl(1, "f", NewFuncLit(1, nil, false, []Stmt{tryStmt}))
	program := NewProgram(1, []Stmt{
		fn,
		NewPrintStmt(2, NewCall(2, NewIdent(2, "f"), nil)),
	})

	result := vm.Evaluate(program)
	require.Equal(t, EvalSuccess, result)
	assert.Equal(t, "ensure\n42\n", out.String())
}

// TestForLoopOverUserIterator covers §4.5's threaded __iter__(prev)/
// __next__(prev) protocol on a script-defined class, not just the
// three builtin collection kinds.
func TestForLoopOverUserIterator(t *testing.T) {
	vm := NewVM(nil)
	out := captureStdout(vm)

	prev := NewIdent(1, "prev")
	iterMethod := NewFuncDecl(1, "__iter__", NewFuncLit(1, []string{"prev"}, false, []Stmt{
		NewIfStmt(1, NewBinOp(1, OpEq, prev, NewNullLit(1)),
			NewBlock(1, []Stmt{NewReturnStmt(1, NewNumberLit(1, 0))}),
			NewIfStmt(1, NewBinOp(1, OpGe, prev, NewNumberLit(1, 2)),
				NewBlock(1, []Stmt{NewReturnStmt(1, NewNullLit(1))}),
				NewBlock(1, []Stmt{NewReturnStmt(1, NewBinOp(1, OpAdd, prev, NewNumberLit(1, 1)))}),
			),
		),
	}))
	nextMethod := NewFuncDecl(1, "__next__", NewFuncLit(1, []string{"prev"}, false, []Stmt{
		NewReturnStmt(1, prev),
	}))
	class := NewClassDecl(1, "Counter", "", []*FuncDecl{iterMethod, nextMethod})

	x := NewIdent(2, "x")
	program := NewProgram(1, []Stmt{
		class,
		NewForStmt(2, "x", NewCall(2, NewIdent(2, "Counter"), nil), NewBlock(2, []Stmt{
			NewPrintStmt(2, x),
		})),
	})

	result := vm.Evaluate(program)
	require.Equal(t, EvalSuccess, result)
	assert.Equal(t, "0\n1\n2\n", out.String())
}

func TestClosuresShareUpvalue(t *testing.T) {
	vm := NewVM(nil)
	out := captureStdout(vm)

	// function makeCounter() {
	//   var n = 0
	//   function inc() { n = n + 1; print n }
	//   return inc
	// }
	inc := NewFuncDecl(1, "inc", NewFuncLit(1, nil, false, []Stmt{
		NewExprStmt(1, NewAssignName(1, "n", NewBinOp(1, OpAdd, NewIdent(1, "n"), NewNumberLit(1, 1)))),
		NewPrintStmt(1, NewIdent(1, "n")),
	}))
	makeCounter := NewFuncDecl(1, "makeCounter", NewFuncLit(1, nil, false, []Stmt{
		NewVarDecl(1, "n", NewNumberLit(1, 0)),
		inc,
		NewReturnStmt(1, NewIdent(1, "inc")),
	}))

	program := NewProgram(1, []Stmt{
		makeCounter,
		NewVarDecl(1, "c1", NewCall(1, NewIdent(1, "makeCounter"), nil)),
		NewExprStmt(1, NewCall(1, NewIdent(1, "c1"), nil)),
		NewExprStmt(1, NewCall(1, NewIdent(1, "c1"), nil)),
	})

	result := vm.Evaluate(program)
	require.Equal(t, EvalSuccess, result)
	assert.Equal(t, "1\n2\n", out.String())
}

func TestDeepRecursionRaisesStackOverflow(t *testing.T) {
	vm := NewVM(nil)
	captureStdout(vm)

	// function loop() { loop() }
	loopFn := NewFuncDecl(1, "loop", NewFuncLit(1, nil, false, []Stmt{
		NewExprStmt(1, NewCall(1, NewIdent(1, "loop"), nil)),
	}))
	program := NewProgram(1, []Stmt{
		loopFn,
		NewExprStmt(1, NewCall(1, NewIdent(1, "loop"), nil)),
	})

	result := vm.Evaluate(program)
	assert.Equal(t, RuntimeErr, result)
}

func TestImportModuleIdempotent(t *testing.T) {
	vm := NewVM(nil)
	name := vm.internString("mymod")

	mod1, fresh1 := vm.ImportModule(name)
	require.True(t, fresh1)

	mod2, fresh2 := vm.ImportModule(name)
	assert.False(t, fresh2)
	assert.Same(t, mod1, mod2)
}
