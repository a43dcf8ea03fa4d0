package jstar

import "fmt"

// EvalResult is the host-facing result code of Evaluate/EvaluateModule
// (Call reports a plain bool), matching VM_EVAL_SUCCESS/VM_SYNTAX_ERR/VM_COMPILE_ERR/
// VM_RUNTIME_ERR from original_source/src/include/jstar.h verbatim
// (spec.md §6).
type EvalResult int

const (
	EvalSuccess EvalResult = iota
	SyntaxErr
	CompileErr
	RuntimeErr
)

func (r EvalResult) String() string {
	switch r {
	case EvalSuccess:
		return "EVAL_SUCCESS"
	case SyntaxErr:
		return "SYNTAX_ERR"
	case CompileErr:
		return "COMPILE_ERR"
	case RuntimeErr:
		return "RUNTIME_ERR"
	default:
		return "UNKNOWN"
	}
}

// CompileError is one diagnostic produced by the compiler: unresolved
// local collisions, too many locals, upvalue overflow, invalid
// break/continue, invalid super, etc. (spec.md §4.4 "Diagnostics", §7
// category 2).  Compilation continues after one is recorded so later
// errors can still be reported, the way the teacher's ParsingError
// formats "message @ position" without aborting the whole pipeline.
type CompileError struct {
	Message string
	Line    int
	File    string
}

func (e CompileError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// CompileErrors aggregates every CompileError collected during one
// compilation pass; spec.md §4.4 says compilation "continues scanning
// to report subsequent [errors], and ultimately return[s] a null
// Function."
type CompileErrors struct {
	Errors []CompileError
}

func (e *CompileErrors) Error() string {
	if len(e.Errors) == 0 {
		return "compile error"
	}
	return e.Errors[0].Error()
}

func (e *CompileErrors) add(line int, format string, args ...any) {
	e.Errors = append(e.Errors, CompileError{Message: fmt.Sprintf(format, args...), Line: line})
}

func (e *CompileErrors) HasErrors() bool { return len(e.Errors) > 0 }

// errTooManyConstants is returned by Chunk.addConstant when a
// function's constant pool would exceed maxConstants.
var errTooManyConstants = fmt.Errorf("too many constants in one function")

// RuntimeException wraps an unhandled J* exception Instance that
// reached the top of the stack (spec.md §7 category 3): the message is
// read from the instance's `_err` field.
type RuntimeException struct {
	Instance *ObjInstance
	Message  string
	Stack    []StackTraceEntry
}

// StackTraceEntry is one frame appended to an exception's _stacktrace
// list while it unwinds (spec.md §4.5, §8 "Exception traceback").
type StackTraceEntry struct {
	Function string
	Line     int
}

func (e *RuntimeException) Error() string {
	return e.Message
}

// builtin exception class names (spec.md §7 category 3).
const (
	excTypeException          = "TypeException"
	excNameException          = "NameException"
	excImportException        = "ImportException"
	excIndexOutOfBoundException = "IndexOutOfBoundException"
	excStackOverflowError      = "StackOverflowError"
	excArithmeticException     = "ArithmeticException"
	excException               = "Exception"
)
