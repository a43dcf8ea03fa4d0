package jstar

// Op is a single bytecode instruction's operator.  The enum, the name
// table and the per-opcode size lookup below follow the idiom of the
// teacher's vm_instructions.go: an iota-numbered const block, a name
// table (here `opNames map[Op]string`) and the operand sizes (here one
// `opSize` function rather than one constant per instruction shape).
//
// NOTE: changing the order of these variants breaks the bytecode ABI,
// same caveat the teacher calls out for its own opcode table.
type Op byte

const (
	OpHalt Op = iota
	OpConstant     // u16 const index
	OpNull
	OpTrue
	OpFalse
	OpPop
	OpDup
	OpGetLocal     // u8 slot
	OpSetLocal     // u8 slot
	OpGetUpvalue   // u8 index
	OpSetUpvalue   // u8 index
	OpCloseUpvalue
	OpGetGlobal    // u16 name const index
	OpSetGlobal    // u16 name const index
	OpDefineGlobal // u16 name const index
	OpGetAttr      // u16 name const index
	OpSetAttr      // u16 name const index
	OpGetIndex
	OpSetIndex
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg
	OpNot
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpJump         // u16 absolute target
	OpJumpIfFalse  // u16 absolute target, pops
	OpJumpIfFalseNoPop // u16 absolute target, used by and/or short-circuit
	OpJumpIfTrueNoPop
	OpLoop         // u16 absolute target (backward)
	OpCall         // u8 argc
	OpInvoke       // u16 name const index, u8 argc
	OpReturn
	OpNewClass     // u16 name const index
	OpInherit
	OpDefMethod    // u16 name const index
	OpMakeClosure  // u16 function const index, then NumUpvalues*(u8 isLocal, u8 index)
	OpNewList      // u16 element count
	OpNewTuple     // u16 element count
	OpNewRange
	OpSetupTry     // u16 except target, u16 ensure target (0 = absent)
	OpEndTry
	OpRaise
	OpEndEnsure    // pops a value; re-raises it if an Instance, else falls through
	OpPrint
	OpSuperGetAttr // u16 name const index; expects class,instance on stack
	OpSuperInvoke  // u16 name const index, u8 argc; expects receiver and args with the class on top
)

var opNames = map[Op]string{
	OpHalt:             "halt",
	OpConstant:         "constant",
	OpNull:             "null",
	OpTrue:             "true",
	OpFalse:            "false",
	OpPop:              "pop",
	OpDup:              "dup",
	OpGetLocal:         "get_local",
	OpSetLocal:         "set_local",
	OpGetUpvalue:       "get_upvalue",
	OpSetUpvalue:       "set_upvalue",
	OpCloseUpvalue:     "close_upvalue",
	OpGetGlobal:        "get_global",
	OpSetGlobal:        "set_global",
	OpDefineGlobal:     "define_global",
	OpGetAttr:          "get_attr",
	OpSetAttr:          "set_attr",
	OpGetIndex:         "get_index",
	OpSetIndex:         "set_index",
	OpAdd:              "add",
	OpSub:              "sub",
	OpMul:              "mul",
	OpDiv:              "div",
	OpMod:              "mod",
	OpNeg:              "neg",
	OpNot:              "not",
	OpEq:               "eq",
	OpNeq:              "neq",
	OpLt:               "lt",
	OpLe:               "le",
	OpGt:               "gt",
	OpGe:               "ge",
	OpJump:             "jump",
	OpJumpIfFalse:      "jump_if_false",
	OpJumpIfFalseNoPop: "jump_if_false_no_pop",
	OpJumpIfTrueNoPop:  "jump_if_true_no_pop",
	OpLoop:             "loop",
	OpCall:             "call",
	OpInvoke:           "invoke",
	OpReturn:           "return",
	OpNewClass:         "new_class",
	OpInherit:          "inherit",
	OpDefMethod:        "def_method",
	OpMakeClosure:      "make_closure",
	OpNewList:          "new_list",
	OpNewTuple:         "new_tuple",
	OpNewRange:         "new_range",
	OpSetupTry:         "setup_try",
	OpEndTry:           "end_try",
	OpRaise:            "raise",
	OpEndEnsure:        "end_ensure",
	OpPrint:            "print",
	OpSuperGetAttr:     "super_get_attr",
	OpSuperInvoke:      "super_invoke",
}

// opSize is the number of bytes the instruction occupies, operator
// byte included.  Only MAKE_CLOSURE has a variable-length encoding
// (its upvalue pairs), so for it this returns the *fixed* prefix size
// the compiler/decoder must special-case around.
func opSize(op Op) int {
	switch op {
	case OpHalt, OpNull, OpTrue, OpFalse, OpPop, OpDup, OpCloseUpvalue,
		OpNeg, OpNot, OpAdd, OpSub, OpMul, OpDiv, OpMod,
		OpEq, OpNeq, OpLt, OpLe, OpGt, OpGe,
		OpInherit, OpReturn, OpEndTry, OpRaise, OpEndEnsure, OpPrint,
		OpGetIndex, OpSetIndex, OpNewRange:
		return 1
	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue, OpCall:
		return 2
	case OpConstant, OpGetGlobal, OpSetGlobal, OpDefineGlobal,
		OpGetAttr, OpSetAttr, OpJump, OpJumpIfFalse,
		OpJumpIfFalseNoPop, OpJumpIfTrueNoPop, OpLoop,
		OpNewClass, OpDefMethod, OpMakeClosure, OpNewList, OpNewTuple,
		OpSuperGetAttr:
		return 3
	case OpInvoke, OpSuperInvoke:
		return 4
	case OpSetupTry:
		return 5
	default:
		return 1
	}
}
