package jstar

// localVar is one entry in a compiler's local-variable stack: name,
// the scope depth it was declared at, and whether some nested
// function literal captures it as an upvalue (§4.4).
type localVar struct {
	name     string
	depth    int
	captured bool
}

// loopCtx tracks the patch lists a break/continue inside the
// currently-compiling loop need, plus the scope depth to pop back to
// on exit (§4.4 "loop compilation").
type loopCtx struct {
	breakJumps     []int
	continueTarget int
	scopeDepth     int
	tryBase        int // len(activeTries) at loop entry; break/continue only detour through entries above this
}

// compiler is one single-pass AST->bytecode compiler frame: one per
// J* function being compiled, chained to its lexically enclosing
// compiler so upvalue resolution can walk outward (§4.4, mirroring
// clox's Compiler chain).
type compiler struct {
	vm        *VM
	module    *ObjModule
	enclosing *compiler

	fn    *ObjFunction
	chunk *Chunk

	locals     []localVar
	scopeDepth int
	upvalues   []upvalueRef

	loops    []loopCtx
	tryDepth int

	// activeTries tracks every try statement currently open at compile
	// time (outermost first), so a break/continue/return nested inside
	// one can emit the END_TRY + inlined ensure-body detour it needs
	// before actually transferring control (§4.4 "ensure on any exit
	// path").
	activeTries []*TryStmt

	// className/hasSuper track the class a method body is compiled
	// inside of, so `super` expressions can resolve without a runtime
	// lookup table (§4.4 "super").
	className string
	hasSuper  bool

	errs *CompileErrors
}

func newCompiler(vm *VM, module *ObjModule, enclosing *compiler, name string, arity int, vararg bool) *compiler {
	fn := &ObjFunction{
		Name:   vm.internString(name),
		Arity:  arity,
		Vararg: vararg,
		Module: module,
		Chunk:  newChunk(),
	}
	errs := &CompileErrors{}
	if enclosing != nil {
		errs = enclosing.errs
	}
	c := &compiler{vm: vm, module: module, enclosing: enclosing, fn: fn, chunk: fn.Chunk, errs: errs}
	// slot 0 is reserved for the receiver/callee (§4.5).
	c.locals = append(c.locals, localVar{name: "", depth: 0})
	return c
}

func (c *compiler) maxLocals() int {
	if v := c.vm.config.GetInt("compiler.max_locals"); v > 0 {
		return v
	}
	return 256
}

func (c *compiler) maxTryDepth() int {
	if v := c.vm.config.GetInt("compiler.max_try_depth"); v > 0 {
		return v
	}
	return 10
}

func (c *compiler) errorf(line int, format string, args ...any) {
	c.errs.add(line, format, args...)
}

func (c *compiler) emit(line int, b byte) int { return c.chunk.writeByte(b, line) }

func (c *compiler) emitOp(line int, op Op) int { return c.emit(line, byte(op)) }

func (c *compiler) emitU16(line int, v uint16) int { return c.chunk.writeU16(v, line) }

func (c *compiler) emitConstant(line int, v Value) {
	idx, err := c.chunk.addConstant(v)
	if err != nil {
		c.errorf(line, "%s", err.Error())
		return
	}
	c.emitOp(line, OpConstant)
	c.emitU16(line, idx)
}

// emitJump writes op followed by a placeholder u16 operand, returning
// the operand's offset so a later patchJump can fill in the real
// target once it is known (§4.4 "forward jump patch lists").
func (c *compiler) emitJump(line int, op Op) int {
	c.emitOp(line, op)
	return c.emitU16(line, 0xFFFF)
}

func (c *compiler) patchJump(at int) {
	c.chunk.patchU16(at, uint16(len(c.chunk.Code)))
}

func (c *compiler) emitLoop(line int, target int) {
	c.emitOp(line, OpLoop)
	c.emitU16(line, uint16(target))
}

// emitTryExits emits END_TRY for every try statement still open between
// the top of c.activeTries and index upTo (exclusive), innermost first,
// inlining a copy of its ensure body (if any) right after -- the detour
// a break/continue/return takes instead of falling through SETUP_TRY's
// own except/ensure dispatch (§4.4 "ensure on any exit path").  Each
// ensure body is recompiled with only the tries outside itself visible,
// so a return/break/continue inside an ensure block doesn't re-detour
// through the try it belongs to.
func (c *compiler) emitTryExits(line int, upTo int) {
	saved := c.activeTries
	for i := len(saved) - 1; i >= upTo; i-- {
		c.emitOp(line, OpEndTry)
		if saved[i].EnsureBody != nil {
			c.activeTries = saved[:i]
			c.compileStmt(saved[i].EnsureBody)
		}
	}
	c.activeTries = saved
}

func (c *compiler) beginScope() { c.scopeDepth++ }

// endScope pops every local declared at the scope being exited,
// emitting CLOSE_UPVALUE for ones captured by a nested closure and
// plain POP otherwise (§4.4, §3 upvalue-close contract).
func (c *compiler) endScope(line int) {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		last := c.locals[len(c.locals)-1]
		if last.captured {
			c.emitOp(line, OpCloseUpvalue)
		} else {
			c.emitOp(line, OpPop)
		}
		c.locals = c.locals[:len(c.locals)-1]
	}
}

// declareLocal adds name as a new local in the current scope, or
// records a compile error past max_locals; does nothing at global
// scope, where bindings are DEFINE_GLOBAL instead (§4.4).
func (c *compiler) declareLocal(line int, name string) {
	if c.scopeDepth == 0 {
		return
	}
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].depth < c.scopeDepth {
			break
		}
		if c.locals[i].name == name {
			c.errorf(line, "variable '%s' already declared in this scope", name)
			return
		}
	}
	if len(c.locals) >= c.maxLocals() {
		c.errorf(line, "too many local variables in function (max %d)", c.maxLocals())
		return
	}
	c.locals = append(c.locals, localVar{name: name, depth: c.scopeDepth})
}

// pushSyntheticLocal declares name as a local unconditionally, even at
// global scope, for compiler-internal slots: the " super" slot (a class
// body needs a real stack slot to hold the superclass value regardless
// of whether the class declaration itself is at module scope, §4.4
// "super") and the " iter"/" cursor" slots of a for loop.  The slot
// belongs to the current scope, so only popSyntheticLocal or the
// endScope of that scope pops it.
func (c *compiler) pushSyntheticLocal(name string) int {
	c.locals = append(c.locals, localVar{name: name, depth: c.scopeDepth})
	return len(c.locals) - 1
}

// popSyntheticLocal pops the stack slot pushSyntheticLocal reserved,
// closing its upvalue if some method captured it.
func (c *compiler) popSyntheticLocal(line int) {
	last := c.locals[len(c.locals)-1]
	if last.captured {
		c.emitOp(line, OpCloseUpvalue)
	} else {
		c.emitOp(line, OpPop)
	}
	c.locals = c.locals[:len(c.locals)-1]
}

// resolveLocal returns the stack-relative slot of name in this
// compiler's own locals, searching innermost-scope-first.
func (c *compiler) resolveLocal(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			return i, true
		}
	}
	return 0, false
}

// resolveUpvalue recursively resolves name against enclosing
// compilers, adding an upvalue entry to every compiler frame on the
// path and marking the owning local as captured (§4.4, §3).
func (c *compiler) resolveUpvalue(name string) (int, bool) {
	if c.enclosing == nil {
		return 0, false
	}
	if slot, ok := c.enclosing.resolveLocal(name); ok {
		c.enclosing.locals[slot].captured = true
		return c.addUpvalue(upvalueRef{IsLocal: true, Index: slot}), true
	}
	if idx, ok := c.enclosing.resolveUpvalue(name); ok {
		return c.addUpvalue(upvalueRef{IsLocal: false, Index: idx}), true
	}
	return 0, false
}

func (c *compiler) addUpvalue(ref upvalueRef) int {
	for i, existing := range c.upvalues {
		if existing == ref {
			return i
		}
	}
	c.upvalues = append(c.upvalues, ref)
	c.fn.NumUpvalues = len(c.upvalues)
	return len(c.upvalues) - 1
}
