package jstar

import "fmt"

// Raise allocates an instance of cls (looked up by name in the
// currently executing module, falling back to NameException if not
// found), sets its _err field to the formatted message, and starts
// unwinding at once -- the embedding API's jsrRaise (§6).  The instance
// is not left on top of the caller's stack: it is pushed where the
// catching handler resumes, or kept as the pending exception when no
// frame handles it.
func (vm *VM) Raise(cls string, format string, args ...any) {
	vm.raiseException(cls, fmt.Sprintf(format, args...))
}

// raiseException is the internal counterpart used by the interpreter
// itself (arithmetic errors, name lookups, type checks, …): it builds
// the exception Instance and immediately starts unwinding.
func (vm *VM) raiseException(clsName, message string) {
	exc := vm.makeException(clsName, message)
	vm.propagateException(exc)
}

// makeException looks up clsName in the current module (falling back
// to __core__, then to NameException per §6), allocates an Instance
// and sets `_err`.
func (vm *VM) makeException(clsName, message string) Value {
	name := vm.internString(clsName)
	var class *ObjClass

	if vm.frameCount > 0 && vm.currentFrame().closure != nil {
		if v, ok := vm.currentFrame().closure.Fn.Module.Globals.Get(name); ok && v.IsClass() {
			class = v.AsClass()
		}
	}
	if class == nil {
		if v, ok := vm.coreModule.Globals.Get(name); ok && v.IsClass() {
			class = v.AsClass()
		}
	}
	if class == nil {
		nameExcName := vm.internString(excNameException)
		v, _ := vm.coreModule.Globals.Get(nameExcName)
		class = v.AsClass()
		message = fmt.Sprintf("undefined exception class '%s': %s", clsName, message)
	}

	inst := gcAlloc(vm.gc, newInstance(class))
	inst.Fields.Set(vm.internString("_err"), vm.stringValue(message))
	inst.Fields.Set(vm.internString("_stacktrace"), FromObj(gcAlloc(vm.gc, newList(nil))))
	return FromObj(inst)
}

// appendStackTrace appends (function, line) to exc's _stacktrace list,
// per §4.5/§8 "the _stacktrace length equals the number of frames
// unwound."
func (vm *VM) appendStackTrace(exc Value, fr *callFrame) {
	if !exc.IsInstance() {
		return
	}
	inst := exc.AsInstance()
	key := vm.internString("_stacktrace")
	listVal, ok := inst.Fields.Get(key)
	if !ok || !listVal.IsList() {
		return
	}
	list := listVal.AsList()
	funcName := "<native>"
	line := -1
	if fr.closure != nil {
		funcName = string(fr.closure.Fn.Name.Bytes)
		line = fr.closure.Fn.Chunk.LineFor(fr.ip - 1)
	}
	entry := newTuple([]Value{vm.stringValue(funcName), Number(float64(line))})
	list.Items = append(list.Items, FromObj(gcAlloc(vm.gc, entry)))
}

// propagateException implements §4.5's unwinding algorithm: scan the
// current frame's active try-handler stack for a matching except or
// ensure block; if none, append a stacktrace entry, pop the frame and
// repeat; if every frame is exhausted, stash the exception as pending
// and report failure to the caller (top-level evaluate or a re-entrant
// host helper).
func (vm *VM) propagateException(exc Value) bool {
	for vm.frameCount > 0 {
		fr := vm.currentFrame()
		for len(fr.handlers) > 0 {
			h := fr.handlers[len(fr.handlers)-1]
			fr.handlers = fr.handlers[:len(fr.handlers)-1]
			vm.sp = h.stackDepth
			if h.hasExcept {
				if h.hasEnsure {
					// the except body is about to run outside of
					// SETUP_TRY's protection; re-install a handler for
					// just the ensure target so an exception raised
					// while running except still reaches it (compileTry
					// routes except's own normal completion into the
					// same ensure region, so ensure fires exactly once
					// either way).
					fr.handlers = append(fr.handlers, tryHandler{hasEnsure: true, ensureIP: h.ensureIP, stackDepth: h.stackDepth})
				}
				vm.push(exc)
				fr.ip = h.exceptIP
				return true
			}
			if h.hasEnsure {
				vm.push(exc)
				fr.ip = h.ensureIP
				return true
			}
		}
		vm.appendStackTrace(exc, fr)
		vm.closeUpvalues(fr.base)
		vm.frameCount--
		if vm.frameCount == 0 {
			break
		}
		vm.sp = fr.base
	}
	vm.pendingException = exc
	return false
}

// raiseTop implements the RAISE opcode: the Instance to throw is
// already on top of the stack (§4.5 "RAISE expects an Instance on
// top").
func (vm *VM) raiseTop() bool {
	exc := vm.pop()
	if !exc.IsInstance() {
		vm.raiseException(excTypeException, "can only raise an Exception instance")
		return false
	}
	return vm.propagateException(exc)
}

// captureUpvalue returns the open upvalue for the stack slot index, or
// creates one, inserting it into the VM's sorted open-upvalue list
// (spec.md §3 "multiple Closures capturing the same stack slot share a
// single Upvalue").
func (vm *VM) captureUpvalue(slot int) *ObjUpvalue {
	var prev *ObjUpvalue
	cur := vm.openUpvalues
	for cur != nil && cur.Slot > slot {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.Slot == slot {
		return cur
	}
	uv := gcAlloc(vm.gc, &ObjUpvalue{Location: &vm.stack[slot], Slot: slot})
	uv.Next = cur
	if prev == nil {
		vm.openUpvalues = uv
	} else {
		prev.Next = uv
	}
	return uv
}

// closeUpvalues closes every open upvalue at or above fromSlot,
// copying the live value out of the stack before the frame that owned
// it is popped (§3 "Upvalue ... transitions open→closed exactly
// once", DESIGN.md CLOSE_UPVALUE resolution).
func (vm *VM) closeUpvalues(fromSlot int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Slot >= fromSlot {
		uv := vm.openUpvalues
		uv.close()
		vm.openUpvalues = uv.Next
	}
}
