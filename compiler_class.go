package jstar

// compileClassDecl compiles a class declaration to NEW_CLASS, an
// optional superclass lookup + INHERIT, and one DEF_METHOD per method
// body (§4.4).  Method compilation binds slot 0 to `this` (mirroring
// the receiver-in-slot-0 calling convention, §4.5) and, when the class
// has a superclass, a hidden local so `super` expressions can resolve
// it as an upvalue from nested method bodies.
func (c *compiler) compileClassDecl(n *ClassDecl) {
	name := c.vm.internString(n.Name)
	idx, err := c.chunk.addConstant(FromObj(name))
	if err != nil {
		c.errorf(n.Line(), "%s", err.Error())
		return
	}
	c.emitOp(n.Line(), OpNewClass)
	c.emitU16(n.Line(), idx)

	if c.scopeDepth == 0 {
		c.emitOp(n.Line(), OpDefineGlobal)
		c.emitU16(n.Line(), idx)
	} else {
		c.declareLocal(n.Line(), n.Name)
	}

	hasSuper := n.Super != ""
	if hasSuper {
		c.compileIdentGet(NewIdent(n.Line(), n.Name))
		c.compileIdentGet(NewIdent(n.Line(), n.Super))
		c.emitOp(n.Line(), OpInherit)
		c.emitOp(n.Line(), OpPop) // drop the class INHERIT leaves behind
		c.compileIdentGet(NewIdent(n.Line(), n.Super))
		c.pushSyntheticLocal(superLocalName)
	}

	// Each DEF_METHOD needs the class right beneath the method closure;
	// it is fetched afresh by name so the " super" slot stays put.
	for _, m := range n.Methods {
		c.compileIdentGet(NewIdent(m.Line(), n.Name))
		c.compileMethod(n.Name, hasSuper, m)
		mIdx := c.emitConstantName(m.Line(), m.Name)
		c.emitOp(m.Line(), OpDefMethod)
		c.emitU16(m.Line(), mIdx)
		c.emitOp(m.Line(), OpPop) // drop the class DEF_METHOD leaves behind
	}

	if hasSuper {
		c.popSyntheticLocal(n.Line())
	}
}

// compileMethod compiles one method body in its own compiler frame,
// reserving slot 0 for `this` (renaming the synthetic receiver local
// newCompiler already pushed) and pushing MAKE_CLOSURE for it.
func (c *compiler) compileMethod(className string, hasSuper bool, m *FuncDecl) {
	nested := newCompiler(c.vm, c.module, c, m.Name, len(m.Fn.Params), m.Fn.Vararg)
	nested.className = className
	nested.hasSuper = hasSuper
	nested.locals[0].name = "this"

	nested.beginScope()
	for _, p := range m.Fn.Params {
		nested.declareLocal(m.Line(), p)
	}
	for _, st := range m.Fn.Body {
		nested.compileStmt(st)
	}
	// new's implicit trailing return yields the receiver (slot 0)
	// rather than null, so a bare `SomeClass(...)` call expression
	// keeps the constructed instance as its value instead of losing it
	// to the no-explicit-return fallback (mirrors clox's init-method
	// special case).
	if m.Name == "new" {
		nested.emitOp(m.Line(), OpGetLocal)
		nested.emit(m.Line(), 0)
	} else {
		nested.emitOp(m.Line(), OpNull)
	}
	nested.emitOp(m.Line(), OpReturn)

	idx, err := c.chunk.addConstant(FromObj(nested.fn))
	if err != nil {
		c.errorf(m.Line(), "%s", err.Error())
		return
	}
	c.emitOp(m.Line(), OpMakeClosure)
	c.emitU16(m.Line(), idx)
	for _, uv := range nested.upvalues {
		if uv.IsLocal {
			c.emit(m.Line(), 1)
		} else {
			c.emit(m.Line(), 0)
		}
		c.emit(m.Line(), byte(uv.Index))
	}
}
