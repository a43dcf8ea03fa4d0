package jstar

// compileIf compiles `if cond { then } else { els }` with the classic
// two-jump pattern: skip Then on false, unconditionally skip Else
// after Then runs (§4.4).
func (c *compiler) compileIf(n *IfStmt) {
	c.compileExpr(n.Cond)
	thenJump := c.emitJump(n.Line(), OpJumpIfFalse)
	c.compileStmt(n.Then)

	if n.Else == nil {
		c.patchJump(thenJump)
		return
	}
	elseJump := c.emitJump(n.Line(), OpJump)
	c.patchJump(thenJump)
	c.compileStmt(n.Else)
	c.patchJump(elseJump)
}

// compileWhile compiles a condition-checked loop, pushing a loopCtx so
// nested break/continue statements can find their patch targets (§4.4).
func (c *compiler) compileWhile(n *WhileStmt) {
	loopStart := len(c.chunk.Code)
	c.compileExpr(n.Cond)
	exitJump := c.emitJump(n.Line(), OpJumpIfFalse)

	c.loops = append(c.loops, loopCtx{continueTarget: loopStart, scopeDepth: c.scopeDepth, tryBase: len(c.activeTries)})
	c.compileStmt(n.Body)
	loop := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]

	c.emitLoop(n.Line(), loopStart)
	c.patchJump(exitJump)
	for _, j := range loop.breakJumps {
		c.patchJump(j)
	}
}

// compileFor lowers `for x in iterable { body }` to the threaded
// __iter__(prev)/__next__(prev) protocol (§4.5, vm_iterator.go): a
// hidden local holds the previous iteration's cursor value (initially
// null), __iter__ advances it and a falsy result ends the loop,
// __next__ turns the cursor into the value bound to the loop variable.
func (c *compiler) compileFor(n *ForStmt) {
	c.beginScope()
	c.compileExpr(n.Iterable)
	iterSlot := c.pushSyntheticLocal(" iter")
	c.emitOp(n.Line(), OpNull)
	cursorSlot := c.pushSyntheticLocal(" cursor")

	loopStart := len(c.chunk.Code)
	// ` iter.__iter__( cursor)`
	c.emitOp(n.Line(), OpGetLocal)
	c.emit(n.Line(), byte(iterSlot))
	c.emitOp(n.Line(), OpGetLocal)
	c.emit(n.Line(), byte(cursorSlot))
	idx := c.emitConstantName(n.Line(), "__iter__")
	c.emitOp(n.Line(), OpInvoke)
	c.emitU16(n.Line(), idx)
	c.emit(n.Line(), 1)
	c.emitOp(n.Line(), OpSetLocal)
	c.emit(n.Line(), byte(cursorSlot))
	exitJump := c.emitJump(n.Line(), OpJumpIfFalse)

	// ` iter.__next__( cursor)`
	c.emitOp(n.Line(), OpGetLocal)
	c.emit(n.Line(), byte(iterSlot))
	c.emitOp(n.Line(), OpGetLocal)
	c.emit(n.Line(), byte(cursorSlot))
	idx = c.emitConstantName(n.Line(), "__next__")
	c.emitOp(n.Line(), OpInvoke)
	c.emitU16(n.Line(), idx)
	c.emit(n.Line(), 1)

	c.beginScope()
	c.declareLocal(n.Line(), n.Var)

	c.loops = append(c.loops, loopCtx{continueTarget: loopStart, scopeDepth: c.scopeDepth, tryBase: len(c.activeTries)})
	c.compileStmt(n.Body)
	loop := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]

	c.endScope(n.Line())
	c.emitLoop(n.Line(), loopStart)
	c.patchJump(exitJump)
	for _, j := range loop.breakJumps {
		c.patchJump(j)
	}
	c.popSyntheticLocal(n.Line()) // cursorSlot
	c.popSyntheticLocal(n.Line()) // iterSlot
	c.endScope(n.Line())
}

func (c *compiler) compileBreak(n *BreakStmt) {
	if len(c.loops) == 0 {
		c.errorf(n.Line(), "'break' outside a loop")
		return
	}
	top := len(c.loops) - 1
	c.emitTryExits(n.Line(), c.loops[top].tryBase)
	jump := c.emitJump(n.Line(), OpJump)
	c.loops[top].breakJumps = append(c.loops[top].breakJumps, jump)
}

func (c *compiler) compileContinue(n *ContinueStmt) {
	if len(c.loops) == 0 {
		c.errorf(n.Line(), "'continue' outside a loop")
		return
	}
	top := len(c.loops) - 1
	c.emitTryExits(n.Line(), c.loops[top].tryBase)
	target := c.loops[top].continueTarget
	c.emitLoop(n.Line(), target)
}

// compileTry compiles SETUP_TRY <exceptTarget> <ensureTarget>, the
// protected body, END_TRY, then the except/ensure blocks laid out after
// the body so a raise inside it jumps forward into them (§4.4, §4.5).
// When an ensure block is present it is emitted once, as a shared
// cleanup region: the normal fall-through and the except block's own
// normal completion both reach it by pushing a null sentinel and
// jumping in, while an exception that finds no except (or one raised
// while an except body is itself running) reaches it via SETUP_TRY's
// ensure target with the live Instance already in that slot. A
// trailing END_ENSURE inspects the sentinel and either lets it fall
// through (null) or re-raises it (an Instance) -- so a successful
// try/ensure never runs into an unconditional raise. break/continue/
// return nested inside the protected body or except block don't flow
// through any of this (they jump past it), so they detour through
// emitTryExits instead, which inlines the same ensure body before the
// actual control transfer. max_try_depth bounds nesting the same way
// max_locals bounds the local stack.
func (c *compiler) compileTry(n *TryStmt) {
	if c.tryDepth >= c.maxTryDepth() {
		c.errorf(n.Line(), "too many nested try blocks (max %d)", c.maxTryDepth())
		return
	}
	c.tryDepth++
	defer func() { c.tryDepth-- }()

	c.emitOp(n.Line(), OpSetupTry)
	exceptOperand := c.emitU16(n.Line(), 0)
	ensureOperand := c.emitU16(n.Line(), 0)

	c.activeTries = append(c.activeTries, n)

	c.compileStmt(n.Body)
	c.emitOp(n.Line(), OpEndTry)
	if n.EnsureBody != nil {
		c.emitOp(n.Line(), OpNull) // no exception pending
	}
	bodyDoneJump := c.emitJump(n.Line(), OpJump)

	if n.ExceptBody != nil {
		c.chunk.patchU16(exceptOperand, uint16(len(c.chunk.Code)))
		if n.EnsureBody == nil {
			// Without an ensure no handler is re-pushed for the except
			// body, so an early exit from it has no END_TRY to emit.
			c.activeTries = c.activeTries[:len(c.activeTries)-1]
		}
		c.beginScope()
		if n.ExceptVar != "" {
			c.declareLocal(n.Line(), n.ExceptVar)
		} else {
			c.emitOp(n.Line(), OpPop)
		}
		c.compileStmt(n.ExceptBody)
		c.endScope(n.Line())
		if n.EnsureBody != nil {
			// propagateException re-pushed an ensure-only handler before
			// jumping here (vm_exception.go), so a raise from inside this
			// except body still reaches ensure; pop it now that except
			// finished without one.
			c.emitOp(n.Line(), OpEndTry)
			c.emitOp(n.Line(), OpNull) // except completed normally too
		}
		exceptDoneJump := c.emitJump(n.Line(), OpJump)
		c.patchJump(bodyDoneJump)
		bodyDoneJump = exceptDoneJump
	}

	if n.ExceptBody == nil || n.EnsureBody != nil {
		c.activeTries = c.activeTries[:len(c.activeTries)-1]
	}

	if n.EnsureBody == nil {
		c.patchJump(bodyDoneJump)
		return
	}

	c.chunk.patchU16(ensureOperand, uint16(len(c.chunk.Code)))
	c.patchJump(bodyDoneJump)
	c.compileStmt(n.EnsureBody)
	c.emitOp(n.Line(), OpEndEnsure)
}
