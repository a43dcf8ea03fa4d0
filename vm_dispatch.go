package jstar

import "fmt"

// run is the bytecode dispatch loop: spec.md §4.5's "fetch-decode-
// execute" core.  It keeps executing instructions across frame
// boundaries until vm.frameCount drops below target, which lets both
// the top-level entry point (target 0) and re-entrant host calls
// (target vm.frameCount at the moment of the call, see
// runNestedUntil) share one loop instead of recursing through Go's own
// call stack per J* call (§9 "Reentrant interpreter").
func (vm *VM) run(target int) bool {
	for vm.frameCount >= target {
		if vm.frameCount == 0 {
			return true
		}
		fr := vm.currentFrame()

		// A native frame has no bytecode of its own; it is pushed by
		// callNative and popped there on success or by
		// propagateException when the native raises.  run() finds one
		// on top only when it was entered from inside a native (a
		// re-entrant host call whose callee completed without a frame).
		if fr.closure == nil {
			return true
		}

		op := Op(vm.readByte(fr))
		switch op {
		case OpHalt:
			return true

		case OpConstant:
			vm.push(vm.readConstant(fr))

		case OpNull:
			vm.push(Null)
		case OpTrue:
			vm.push(Bool(true))
		case OpFalse:
			vm.push(Bool(false))
		case OpPop:
			vm.pop()
		case OpDup:
			vm.push(vm.peek(0))

		case OpGetLocal:
			slot := int(vm.readByte(fr))
			vm.push(vm.stack[fr.base+slot])
		case OpSetLocal:
			slot := int(vm.readByte(fr))
			vm.stack[fr.base+slot] = vm.peek(0)

		case OpGetUpvalue:
			idx := int(vm.readByte(fr))
			vm.push(fr.closure.Upvalues[idx].get())
		case OpSetUpvalue:
			idx := int(vm.readByte(fr))
			fr.closure.Upvalues[idx].set(vm.peek(0))
		case OpCloseUpvalue:
			vm.closeUpvalues(vm.sp - 1)
			vm.pop()

		case OpGetGlobal:
			name := vm.readConstant(fr).AsString()
			v, ok := fr.closure.Fn.Module.Globals.Get(name)
			if !ok {
				vm.raiseException(excNameException, fmt.Sprintf("name '%s' is not defined", name.Bytes))
				if !vm.unwindOrReturn(target) {
					return false
				}
				continue
			}
			vm.push(v)
		case OpSetGlobal:
			name := vm.readConstant(fr).AsString()
			if _, ok := fr.closure.Fn.Module.Globals.Get(name); !ok {
				vm.raiseException(excNameException, fmt.Sprintf("name '%s' is not defined", name.Bytes))
				if !vm.unwindOrReturn(target) {
					return false
				}
				continue
			}
			fr.closure.Fn.Module.Globals.Set(name, vm.peek(0))
		case OpDefineGlobal:
			name := vm.readConstant(fr).AsString()
			fr.closure.Fn.Module.Globals.Set(name, vm.pop())

		case OpGetAttr:
			name := vm.readConstant(fr).AsString()
			receiver := vm.pop()
			v, ok := vm.getAttr(receiver, name)
			if !ok {
				vm.raiseException(excNameException, fmt.Sprintf("'%s' object has no attribute '%s'", vm.typeName(receiver), name.Bytes))
				if !vm.unwindOrReturn(target) {
					return false
				}
				continue
			}
			vm.push(v)
		case OpSetAttr:
			name := vm.readConstant(fr).AsString()
			value := vm.pop()
			receiver := vm.pop()
			if !vm.setAttr(receiver, name, value) {
				if !vm.unwindOrReturn(target) {
					return false
				}
				continue
			}
			vm.push(value)

		case OpGetIndex:
			if !vm.getIndex() {
				if !vm.unwindOrReturn(target) {
					return false
				}
				continue
			}
		case OpSetIndex:
			if !vm.setIndex() {
				if !vm.unwindOrReturn(target) {
					return false
				}
				continue
			}

		case OpAdd, OpSub, OpMul, OpDiv, OpMod:
			if !vm.binaryArith(op) {
				if !vm.unwindOrReturn(target) {
					return false
				}
				continue
			}
		case OpNeg:
			if !vm.negate() {
				if !vm.unwindOrReturn(target) {
					return false
				}
				continue
			}
		case OpNot:
			vm.push(Bool(vm.pop().IsFalsy()))
		case OpEq:
			if !vm.equals(false) {
				if !vm.unwindOrReturn(target) {
					return false
				}
				continue
			}
		case OpNeq:
			if !vm.equals(true) {
				if !vm.unwindOrReturn(target) {
					return false
				}
				continue
			}
		case OpLt, OpLe, OpGt, OpGe:
			if !vm.compareOrdered(op) {
				if !vm.unwindOrReturn(target) {
					return false
				}
				continue
			}

		case OpJump:
			dest := vm.readU16(fr)
			fr.ip = int(dest)
		case OpJumpIfFalse:
			dest := vm.readU16(fr)
			if vm.pop().IsFalsy() {
				fr.ip = int(dest)
			}
		case OpJumpIfFalseNoPop:
			dest := vm.readU16(fr)
			if vm.peek(0).IsFalsy() {
				fr.ip = int(dest)
			}
		case OpJumpIfTrueNoPop:
			dest := vm.readU16(fr)
			if !vm.peek(0).IsFalsy() {
				fr.ip = int(dest)
			}
		case OpLoop:
			dest := vm.readU16(fr)
			fr.ip = int(dest)

		case OpCall:
			argc := int(vm.readByte(fr))
			calleeSlot := vm.sp - argc - 1
			if !vm.callValue(calleeSlot, argc) {
				if !vm.unwindOrReturn(target) {
					return false
				}
				continue
			}
		case OpInvoke:
			name := vm.readConstant(fr).AsString()
			argc := int(vm.readByte(fr))
			if !vm.invoke(name, argc) {
				if !vm.unwindOrReturn(target) {
					return false
				}
				continue
			}

		case OpReturn:
			result := vm.pop()
			vm.closeUpvalues(fr.base)
			vm.frameCount--
			vm.sp = fr.base
			vm.push(result)

		case OpNewClass:
			name := vm.readConstant(fr).AsString()
			class := gcAlloc(vm.gc, newClass(name, nil))
			vm.push(FromObj(class))
		case OpInherit:
			superVal := vm.pop()
			classVal := vm.peek(0)
			if !superVal.IsClass() {
				vm.raiseException(excTypeException, "superclass must be a Class")
				if !vm.unwindOrReturn(target) {
					return false
				}
				continue
			}
			super := superVal.AsClass()
			class := classVal.AsClass()
			class.Super = super
			super.Methods.CopyInto(class.Methods)
		case OpDefMethod:
			name := vm.readConstant(fr).AsString()
			method := vm.pop()
			class := vm.peek(0).AsClass()
			class.Methods.Set(name, method)

		case OpMakeClosure:
			fn := vm.readConstant(fr).AsFunction()
			closure := gcAlloc(vm.gc, newClosure(fn))
			for i := 0; i < fn.NumUpvalues; i++ {
				isLocal := vm.readByte(fr) != 0
				idx := int(vm.readByte(fr))
				if isLocal {
					closure.Upvalues[i] = vm.captureUpvalue(fr.base + idx)
				} else {
					closure.Upvalues[i] = fr.closure.Upvalues[idx]
				}
			}
			vm.push(FromObj(closure))

		case OpNewList:
			n := int(vm.readU16(fr))
			items := make([]Value, n)
			copy(items, vm.stack[vm.sp-n:vm.sp])
			vm.sp -= n
			vm.push(FromObj(gcAlloc(vm.gc, newList(items))))
		case OpNewTuple:
			n := int(vm.readU16(fr))
			items := make([]Value, n)
			copy(items, vm.stack[vm.sp-n:vm.sp])
			vm.sp -= n
			vm.push(FromObj(gcAlloc(vm.gc, newTuple(items))))
		case OpNewRange:
			step := vm.pop()
			stop := vm.pop()
			start := vm.pop()
			if !start.IsNumber() || !stop.IsNumber() || !step.IsNumber() {
				vm.raiseException(excTypeException, "range bounds must be numbers")
				if !vm.unwindOrReturn(target) {
					return false
				}
				continue
			}
			r := newRange(start.AsNumber(), stop.AsNumber(), step.AsNumber())
			vm.push(FromObj(gcAlloc(vm.gc, r)))

		case OpSetupTry:
			exceptTarget := vm.readU16(fr)
			ensureTarget := vm.readU16(fr)
			h := tryHandler{stackDepth: vm.sp}
			if exceptTarget != 0 {
				h.hasExcept = true
				h.exceptIP = int(exceptTarget)
			}
			if ensureTarget != 0 {
				h.hasEnsure = true
				h.ensureIP = int(ensureTarget)
			}
			fr.handlers = append(fr.handlers, h)
		case OpEndTry:
			if len(fr.handlers) > 0 {
				fr.handlers = fr.handlers[:len(fr.handlers)-1]
			}
		case OpRaise:
			if !vm.raiseTop() {
				if !vm.unwindOrReturn(target) {
					return false
				}
				continue
			}

		case OpEndEnsure:
			// the shared ensure-region epilogue (compileTry): the value
			// left by the normal/except/return/break/continue detours or
			// by SETUP_TRY's ensure target is either a null sentinel (no
			// exception pending, just fall through to whatever follows
			// the try statement) or the actual pending Instance to
			// re-raise once the ensure block itself has run.
			v := vm.pop()
			if v.IsInstance() {
				if !vm.propagateException(v) {
					if !vm.unwindOrReturn(target) {
						return false
					}
					continue
				}
			}

		case OpPrint:
			v := vm.pop()
			vm.stdout("%s\n", vm.stringify(v))

		case OpSuperGetAttr:
			name := vm.readConstant(fr).AsString()
			class := vm.pop().AsClass()
			instance := vm.pop()
			method, ok := class.Method(name)
			if !ok {
				vm.raiseException(excNameException, fmt.Sprintf("'%s' object has no attribute '%s'", class.Name.Bytes, name.Bytes))
				if !vm.unwindOrReturn(target) {
					return false
				}
				continue
			}
			bm := gcAlloc(vm.gc, &ObjBoundMethod{Receiver: instance, Method: method.AsObject()})
			vm.push(FromObj(bm))
		case OpSuperInvoke:
			name := vm.readConstant(fr).AsString()
			argc := int(vm.readByte(fr))
			class := vm.pop().AsClass()
			method, ok := class.Method(name)
			if !ok {
				vm.raiseException(excNameException, fmt.Sprintf("'%s' object has no attribute '%s'", class.Name.Bytes, name.Bytes))
				if !vm.unwindOrReturn(target) {
					return false
				}
				continue
			}
			calleeSlot := vm.sp - argc - 1
			if !vm.callBound(vm.stack[calleeSlot], method, calleeSlot, argc) {
				if !vm.unwindOrReturn(target) {
					return false
				}
				continue
			}

		default:
			vm.raiseException(excTypeException, fmt.Sprintf("unknown opcode %d", op))
			if !vm.unwindOrReturn(target) {
				return false
			}
		}
	}
	return true
}

// unwindOrReturn is called right after an opcode handler reports
// failure: propagateException has already run inside raiseException,
// so this just checks whether unwinding found a handler at or above
// target. If it unwound past target (into the caller's frames), or
// unwound every frame without finding a handler, the call reports
// failure to its caller instead of continuing.
func (vm *VM) unwindOrReturn(target int) bool {
	return vm.frameCount > 0 && vm.frameCount >= target
}

// runNestedUntil is the re-entrant entry point used by operator-method
// dispatch, the iterator protocol and embedding-API calls (§9): it
// keeps running until the frame count drops back to target, the
// depth at which the nested call was initiated, then leaves the
// result on top of the stack for the caller to pop.
func (vm *VM) runNestedUntil(target int) bool {
	return vm.run(target)
}

// getIndex implements GET_INDEX for List, Tuple, String and Range
// (spec.md §4.5, "Index semantics"): for List, Tuple and String a
// negative index counts from the end; a Range index is not normalized,
// it maps to Start+index*Step and must land inside the range.
// Out-of-range raises IndexOutOfBoundException.
func (vm *VM) getIndex() bool {
	idx := vm.pop()
	recv := vm.pop()

	if !idx.IsNumber() {
		vm.raiseException(excTypeException, fmt.Sprintf("index must be a Number, got '%s'", vm.typeName(idx)))
		return false
	}
	n := int(idx.AsNumber())

	switch {
	case recv.IsList():
		items := recv.AsList().Items
		i, ok := normalizeIndex(n, len(items))
		if !ok {
			vm.raiseException(excIndexOutOfBoundException, fmt.Sprintf("list index %d out of range", n))
			return false
		}
		vm.push(items[i])
		return true

	case recv.IsTuple():
		items := recv.AsTuple().Items
		i, ok := normalizeIndex(n, len(items))
		if !ok {
			vm.raiseException(excIndexOutOfBoundException, fmt.Sprintf("tuple index %d out of range", n))
			return false
		}
		vm.push(items[i])
		return true

	case recv.IsString():
		s := recv.AsString()
		i, ok := normalizeIndex(n, s.Len())
		if !ok {
			vm.raiseException(excIndexOutOfBoundException, fmt.Sprintf("string index %d out of range", n))
			return false
		}
		vm.push(vm.stringValue(string(s.Bytes[i])))
		return true

	case recv.IsRange():
		r := recv.AsRange()
		v := r.Start + float64(n)*r.Step
		if !r.Contains(v) {
			vm.raiseException(excIndexOutOfBoundException, fmt.Sprintf("range index %d out of range", n))
			return false
		}
		vm.push(Number(v))
		return true

	default:
		vm.raiseException(excTypeException, fmt.Sprintf("'%s' object is not indexable", vm.typeName(recv)))
		return false
	}
}

// setIndex implements SET_INDEX, defined only for List (spec.md §4.5:
// "Tuple, String and Range are immutable").
func (vm *VM) setIndex() bool {
	value := vm.pop()
	idx := vm.pop()
	recv := vm.pop()

	if !recv.IsList() {
		vm.raiseException(excTypeException, fmt.Sprintf("'%s' object does not support item assignment", vm.typeName(recv)))
		return false
	}
	if !idx.IsNumber() {
		vm.raiseException(excTypeException, fmt.Sprintf("index must be a Number, got '%s'", vm.typeName(idx)))
		return false
	}
	list := recv.AsList()
	i, ok := normalizeIndex(int(idx.AsNumber()), len(list.Items))
	if !ok {
		vm.raiseException(excIndexOutOfBoundException, fmt.Sprintf("list index %d out of range", int(idx.AsNumber())))
		return false
	}
	list.Items[i] = value
	vm.push(value)
	return true
}

func normalizeIndex(i, length int) (int, bool) {
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, false
	}
	return i, true
}

// stringify renders a Value for PRINT, using the user-overridable
// __string__ method when the value is an Instance that defines one
// (§4.5 "PRINT"), falling back to Value.String() otherwise.
func (vm *VM) stringify(v Value) string {
	if v.IsInstance() {
		inst := v.AsInstance()
		if method, ok := inst.Class.Method(vm.internString("__string__")); ok {
			vm.EnsureStack(1)
			base := vm.sp
			vm.push(v)
			if vm.callBound(v, method, base, 0) && vm.runNestedUntil(vm.frameCount) {
				result := vm.pop()
				if result.IsString() {
					return string(result.AsString().Bytes)
				}
				return result.String()
			}
			// method call failed; fall through to default rendering
			vm.sp = base
		}
	}
	return v.String()
}
