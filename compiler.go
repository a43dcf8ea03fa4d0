package jstar

// Compile is the single-pass AST->bytecode compiler's entry point
// (spec.md §4.4): it wraps program's top-level statements in a
// synthetic zero-arity Function bound to module, compiling straight
// through without a separate analysis pass.  On error it keeps
// scanning so every diagnostic is collected, then returns a nil
// Function alongside the accumulated CompileErrors (§4.4
// "Diagnostics").
func Compile(vm *VM, module *ObjModule, program *Program) (*ObjFunction, *CompileErrors) {
	c := newCompiler(vm, module, nil, "<main>", 0, false)
	for _, s := range program.Stmts {
		c.compileStmt(s)
	}
	c.emitOp(program.Line(), OpNull)
	c.emitOp(program.Line(), OpReturn)
	if c.errs.HasErrors() {
		return nil, c.errs
	}
	return c.fn, c.errs
}

func (c *compiler) compileStmt(s Stmt) {
	switch n := s.(type) {
	case *ExprStmt:
		c.compileExpr(n.X)
		c.emitOp(n.Line(), OpPop)

	case *VarDecl:
		c.compileVarDecl(n)

	case *FuncDecl:
		c.compileFuncDecl(n)

	case *ClassDecl:
		c.compileClassDecl(n)

	case *Block:
		c.beginScope()
		for _, st := range n.Stmts {
			c.compileStmt(st)
		}
		c.endScope(n.Line())

	case *IfStmt:
		c.compileIf(n)

	case *WhileStmt:
		c.compileWhile(n)

	case *ForStmt:
		c.compileFor(n)

	case *ReturnStmt:
		if n.Value != nil {
			c.compileExpr(n.Value)
		} else {
			c.emitOp(n.Line(), OpNull)
		}
		if len(c.activeTries) > 0 {
			// detour through every enclosing try's ensure block before
			// actually returning (§4.4): stash the return value in a
			// synthetic local first since emitTryExits' inlined ensure
			// bodies run with their own stack traffic above it, then
			// fetch it back. OP_RETURN resets sp to the frame base on
			// its own, so the synthetic slot needs no explicit pop.
			retSlot := c.pushSyntheticLocal(" ret")
			c.emitTryExits(n.Line(), 0)
			c.emitOp(n.Line(), OpGetLocal)
			c.emit(n.Line(), byte(retSlot))
			c.locals = c.locals[:len(c.locals)-1]
		}
		c.emitOp(n.Line(), OpReturn)

	case *BreakStmt:
		c.compileBreak(n)

	case *ContinueStmt:
		c.compileContinue(n)

	case *TryStmt:
		c.compileTry(n)

	case *RaiseStmt:
		c.compileExpr(n.Value)
		c.emitOp(n.Line(), OpRaise)

	case *PrintStmt:
		c.compileExpr(n.Value)
		c.emitOp(n.Line(), OpPrint)

	default:
		c.errorf(s.Line(), "unsupported statement node %T", s)
	}
}

func (c *compiler) compileVarDecl(n *VarDecl) {
	if n.Value != nil {
		c.compileExpr(n.Value)
	} else {
		c.emitOp(n.Line(), OpNull)
	}
	if c.scopeDepth == 0 {
		name := c.vm.internString(n.Name)
		idx, err := c.chunk.addConstant(FromObj(name))
		if err != nil {
			c.errorf(n.Line(), "%s", err.Error())
			return
		}
		c.emitOp(n.Line(), OpDefineGlobal)
		c.emitU16(n.Line(), idx)
		return
	}
	c.declareLocal(n.Line(), n.Name)
	// the value is already on the stack in the new local's slot; no
	// further instruction needed (clox-style "locals live on the stack").
}

func (c *compiler) compileFuncDecl(n *FuncDecl) {
	c.compileFuncLit(n.Fn, n.Name)
	if c.scopeDepth == 0 {
		name := c.vm.internString(n.Name)
		idx, err := c.chunk.addConstant(FromObj(name))
		if err != nil {
			c.errorf(n.Line(), "%s", err.Error())
			return
		}
		c.emitOp(n.Line(), OpDefineGlobal)
		c.emitU16(n.Line(), idx)
		return
	}
	c.declareLocal(n.Line(), n.Name)
}

// compileFuncLit compiles a function literal into a nested compiler,
// finishes it into an ObjFunction constant and emits MAKE_CLOSURE with
// the upvalue-capture operand pairs the nested compiler recorded
// (§4.4 "Closures").
func (c *compiler) compileFuncLit(n *FuncLit, name string) {
	nested := newCompiler(c.vm, c.module, c, name, len(n.Params), n.Vararg)
	nested.className = c.className
	nested.hasSuper = c.hasSuper
	nested.beginScope()
	for _, p := range n.Params {
		nested.declareLocal(n.Line(), p)
	}
	for _, st := range n.Body {
		nested.compileStmt(st)
	}
	nested.emitOp(n.Line(), OpNull)
	nested.emitOp(n.Line(), OpReturn)

	idx, err := c.chunk.addConstant(FromObj(nested.fn))
	if err != nil {
		c.errorf(n.Line(), "%s", err.Error())
		return
	}
	c.emitOp(n.Line(), OpMakeClosure)
	c.emitU16(n.Line(), idx)
	for _, uv := range nested.upvalues {
		if uv.IsLocal {
			c.emit(n.Line(), 1)
		} else {
			c.emit(n.Line(), 0)
		}
		c.emit(n.Line(), byte(uv.Index))
	}
}

func (c *compiler) compileExpr(e Expr) {
	switch n := e.(type) {
	case *NullLit:
		c.emitOp(n.Line(), OpNull)
	case *BoolLit:
		if n.Value {
			c.emitOp(n.Line(), OpTrue)
		} else {
			c.emitOp(n.Line(), OpFalse)
		}
	case *NumberLit:
		c.emitConstant(n.Line(), Number(n.Value))
	case *StringLit:
		c.emitConstant(n.Line(), FromObj(c.vm.newString(n.Value)))

	case *Ident:
		c.compileIdentGet(n)

	case *BinOp:
		c.compileExpr(n.Left)
		c.compileExpr(n.Right)
		c.emitOp(n.Line(), n.Op)

	case *LogicalOp:
		c.compileLogical(n)

	case *UnaryOp:
		c.compileExpr(n.Operand)
		c.emitOp(n.Line(), n.Op)

	case *Assign:
		c.compileAssign(n)

	case *AttrGet:
		c.compileExpr(n.Target)
		idx := c.emitConstantName(n.Line(), n.Name)
		c.emitOp(n.Line(), OpGetAttr)
		c.emitU16(n.Line(), idx)

	case *IndexGet:
		c.compileExpr(n.Target)
		c.compileExpr(n.Index)
		c.emitOp(n.Line(), OpGetIndex)

	case *Call:
		c.compileCall(n)

	case *SuperCall:
		c.compileSuperCall(n)

	case *SuperGet:
		c.compileSuperGet(n)

	case *ListLit:
		for _, el := range n.Elements {
			c.compileExpr(el)
		}
		c.emitOp(n.Line(), OpNewList)
		c.emitU16(n.Line(), uint16(len(n.Elements)))

	case *TupleLit:
		for _, el := range n.Elements {
			c.compileExpr(el)
		}
		c.emitOp(n.Line(), OpNewTuple)
		c.emitU16(n.Line(), uint16(len(n.Elements)))

	case *RangeLit:
		c.compileExpr(n.Start)
		c.compileExpr(n.Stop)
		if n.Step != nil {
			c.compileExpr(n.Step)
		} else {
			c.emitConstant(n.Line(), Number(1))
		}
		c.emitOp(n.Line(), OpNewRange)

	case *FuncLit:
		c.compileFuncLit(n, "")

	default:
		c.errorf(e.Line(), "unsupported expression node %T", e)
	}
}

// emitConstantName interns name and adds it to the constant pool
// without emitting any instruction, returning its index so the caller
// can use it as the inline u16 operand of whatever opcode follows
// (OpGetAttr, OpSetAttr, OpGetGlobal, OpInvoke, ...).
func (c *compiler) emitConstantName(line int, name string) uint16 {
	idx, err := c.chunk.addConstant(FromObj(c.vm.newString(name)))
	if err != nil {
		c.errorf(line, "%s", err.Error())
		return 0
	}
	return idx
}

func (c *compiler) compileIdentGet(n *Ident) {
	if slot, ok := c.resolveLocal(n.Name); ok {
		c.emitOp(n.Line(), OpGetLocal)
		c.emit(n.Line(), byte(slot))
		return
	}
	if idx, ok := c.resolveUpvalue(n.Name); ok {
		c.emitOp(n.Line(), OpGetUpvalue)
		c.emit(n.Line(), byte(idx))
		return
	}
	idx := c.emitConstantName(n.Line(), n.Name)
	c.emitOp(n.Line(), OpGetGlobal)
	c.emitU16(n.Line(), idx)
}

func (c *compiler) compileLogical(n *LogicalOp) {
	c.compileExpr(n.Left)
	var jump int
	if n.IsAnd {
		jump = c.emitJump(n.Line(), OpJumpIfFalseNoPop)
	} else {
		jump = c.emitJump(n.Line(), OpJumpIfTrueNoPop)
	}
	c.emitOp(n.Line(), OpPop)
	c.compileExpr(n.Right)
	c.patchJump(jump)
}

func (c *compiler) compileAssign(n *Assign) {
	switch {
	case n.Target == nil:
		c.compileExpr(n.Value)
		c.compileIdentSet(n.Line(), n.Name)

	case n.Index != nil:
		c.compileExpr(n.Target)
		c.compileExpr(n.Index)
		c.compileExpr(n.Value)
		c.emitOp(n.Line(), OpSetIndex)

	default:
		c.compileExpr(n.Target)
		c.compileExpr(n.Value)
		idx := c.emitConstantName(n.Line(), n.Attr)
		c.emitOp(n.Line(), OpSetAttr)
		c.emitU16(n.Line(), idx)
	}
}

func (c *compiler) compileIdentSet(line int, name string) {
	if slot, ok := c.resolveLocal(name); ok {
		c.emitOp(line, OpSetLocal)
		c.emit(line, byte(slot))
		return
	}
	if idx, ok := c.resolveUpvalue(name); ok {
		c.emitOp(line, OpSetUpvalue)
		c.emit(line, byte(idx))
		return
	}
	idx := c.emitConstantName(line, name)
	c.emitOp(line, OpSetGlobal)
	c.emitU16(line, idx)
}

func (c *compiler) compileCall(n *Call) {
	if n.Receiver != nil {
		c.compileExpr(n.Receiver)
		for _, a := range n.Args {
			c.compileExpr(a)
		}
		idx := c.emitConstantName(n.Line(), n.Method)
		c.emitOp(n.Line(), OpInvoke)
		c.emitU16(n.Line(), idx)
		c.emit(n.Line(), byte(len(n.Args)))
		return
	}
	c.compileExpr(n.Callee)
	for _, a := range n.Args {
		c.compileExpr(a)
	}
	c.emitOp(n.Line(), OpCall)
	c.emit(n.Line(), byte(len(n.Args)))
}

func (c *compiler) compileSuperGet(n *SuperGet) {
	if !c.hasSuper {
		c.errorf(n.Line(), "'super' used outside a subclass method")
		return
	}
	c.compileIdentGet(NewIdent(n.Line(), "this"))
	c.compileIdentGet(NewIdent(n.Line(), superLocalName))
	idx := c.emitConstantName(n.Line(), n.Name)
	c.emitOp(n.Line(), OpSuperGetAttr)
	c.emitU16(n.Line(), idx)
}

func (c *compiler) compileSuperCall(n *SuperCall) {
	if !c.hasSuper {
		c.errorf(n.Line(), "'super' used outside a subclass method")
		return
	}
	c.compileIdentGet(NewIdent(n.Line(), "this"))
	for _, a := range n.Args {
		c.compileExpr(a)
	}
	c.compileIdentGet(NewIdent(n.Line(), superLocalName))
	idx := c.emitConstantName(n.Line(), n.Method)
	c.emitOp(n.Line(), OpSuperInvoke)
	c.emitU16(n.Line(), idx)
	c.emit(n.Line(), byte(len(n.Args)))
}

// superLocalName is the hidden local every subclass method body
// captures the superclass Class value through, populated by
// compileClassDecl (§4.4 "super").
const superLocalName = " super"
