package jstar

import "fmt"

const (
	coreModuleName = "__core__"
	mainModuleName = "__main__"
)

// argAt returns the n-th argument of the Native currently executing,
// relative to slot 1 of the current frame -- slot 0 is the receiver
// (null for a plain function call), matching §4.5 "the native sees n
// arguments starting at relative slot 1 and a receiver at slot 0."
func (vm *VM) argAt(n int) Value {
	return vm.stack[vm.currentFrame().base+1+n]
}

// receiver returns the receiver in slot 0 of the current native call.
func (vm *VM) receiver() Value {
	return vm.stack[vm.currentFrame().base]
}

// setReturn replaces the callee slot with v and drops every argument
// above it, the same effect OpReturn has for scripted calls (§4.5
// "Native returns true with one result on top of the stack").
func (vm *VM) setReturn(v Value) {
	fr := vm.currentFrame()
	vm.stack[fr.base] = v
	vm.sp = fr.base + 1
}

func (vm *VM) typeName(v Value) string {
	switch {
	case v.IsNull():
		return "Null"
	case v.IsBool():
		return "Bool"
	case v.IsNumber():
		return "Number"
	case v.IsString():
		return "String"
	case v.IsList():
		return "List"
	case v.IsTuple():
		return "Tuple"
	case v.IsRange():
		return "Range"
	case v.IsClosure(), v.IsNative(), v.IsBoundMethod():
		return "Function"
	case v.IsClass():
		return "Class"
	case v.IsModule():
		return "Module"
	case v.IsInstance():
		return string(v.AsInstance().Class.Name.Bytes)
	default:
		return "Object"
	}
}

func (vm *VM) stringValue(s string) Value {
	return FromObj(vm.newString(s))
}

// callValue implements CALL n's callee-kind dispatch (§4.5):
//   - Closure: push a new frame
//   - Native: invoke directly, host-style
//   - Class: allocate an Instance and invoke `new`
//   - BoundMethod: rewrite the callee slot to the bound receiver and
//     call the underlying method
//
// calleeSlot is the stack index the callee occupies (top-argc-1).
func (vm *VM) callValue(calleeSlot, argc int) (ok bool) {
	callee := vm.stack[calleeSlot]
	switch {
	case callee.IsClosure():
		return vm.callClosure(callee.AsClosure(), calleeSlot, argc)

	case callee.IsNative():
		return vm.callNative(callee.AsNative(), calleeSlot, argc)

	case callee.IsClass():
		class := callee.AsClass()
		inst := gcAlloc(vm.gc, newInstance(class))
		vm.stack[calleeSlot] = FromObj(inst)
		ctor, hasCtor := class.Method(vm.internString("new"))
		if !hasCtor {
			if argc != 0 {
				vm.raiseException(excTypeException, fmt.Sprintf("%s() takes no arguments", class.Name.Bytes))
				return false
			}
			vm.sp = calleeSlot + 1
			return true
		}
		return vm.callBound(FromObj(inst), ctor, calleeSlot, argc)

	case callee.IsBoundMethod():
		bm := callee.AsBoundMethod()
		vm.stack[calleeSlot] = bm.Receiver
		return vm.callBound(bm.Receiver, methodValue(bm.Method), calleeSlot, argc)

	default:
		vm.raiseException(excTypeException, fmt.Sprintf("'%s' object is not callable", vm.typeName(callee)))
		return false
	}
}

func methodValue(o Obj) Value {
	switch m := o.(type) {
	case *ObjClosure:
		return FromObj(m)
	case *ObjNative:
		return FromObj(m)
	default:
		return Null
	}
}

// callBound calls method with receiver already placed in calleeSlot.
func (vm *VM) callBound(receiver Value, method Value, calleeSlot, argc int) bool {
	if method.IsClosure() {
		return vm.callClosure(method.AsClosure(), calleeSlot, argc)
	}
	return vm.callNative(method.AsNative(), calleeSlot, argc)
}

func (vm *VM) callClosure(closure *ObjClosure, calleeSlot, argc int) bool {
	fn := closure.Fn
	if argc != fn.Arity {
		if !(fn.Vararg && argc >= fn.Arity) {
			vm.raiseException(excTypeException, fmt.Sprintf(
				"%s() takes %d arguments but %d were given", fn.Name.Bytes, fn.Arity, argc))
			return false
		}
	}
	if vm.frameCount >= maxFrames {
		vm.raiseException(excStackOverflowError, "stack overflow")
		return false
	}
	// Fill missing slots for arity mismatch isn't reachable for exact
	// arity functions. For a vararg function the extra arguments stay
	// on the stack as plain slots above the declared parameters; they
	// are not collected into a List.
	fr := &vm.frames[vm.frameCount]
	fr.closure = closure
	fr.ip = 0
	fr.base = calleeSlot
	fr.handlers = fr.handlers[:0]
	vm.frameCount++
	return true
}

func (vm *VM) callNative(native *ObjNative, calleeSlot, argc int) bool {
	if native.Arity >= 0 && argc != native.Arity {
		vm.raiseException(excTypeException, fmt.Sprintf(
			"%s() takes %d arguments but %d were given", native.Name.Bytes, native.Arity, argc))
		return false
	}
	if vm.frameCount >= maxFrames {
		vm.raiseException(excStackOverflowError, "stack overflow")
		return false
	}
	// Natives get a synthetic frame so argAt/setReturn/currentFrame
	// work uniformly; it never executes bytecode so ip/handlers are
	// unused.
	fr := &vm.frames[vm.frameCount]
	fr.closure = nil
	fr.base = calleeSlot
	fr.handlers = fr.handlers[:0]
	vm.frameCount++
	vm.EnsureStack(minNativeStackSize)

	ok := native.Fn(vm)

	// On failure raiseException has already unwound this frame (a native
	// frame has no handlers), so only a successful call pops it here.
	if ok {
		vm.frameCount--
	}
	return ok
}

// minNativeStackSize mirrors JSTAR_MIN_NATIVE_STACK_SZ from
// original_source/src/include/jstar.h: the minimum free stack space
// the VM guarantees before invoking a Native (§ SPEC_FULL.md
// "Supplemented Features").
const minNativeStackSize = 20

// invoke implements INVOKE name, n (§4.5): attribute lookup on the
// receiver shadows fields over methods; a field holding a function is
// called unbound, a method is called with the receiver in slot 0.
func (vm *VM) invoke(name *ObjString, argc int) bool {
	receiverSlot := vm.sp - argc - 1
	receiver := vm.stack[receiverSlot]

	if receiver.IsList() || receiver.IsTuple() || receiver.IsRange() {
		if argc != 1 {
			vm.raiseException(excTypeException, fmt.Sprintf(
				"'%s' expected 1 argument, got %d", name.Bytes, argc))
			return false
		}
		cursor := vm.stack[vm.sp-1]
		result, matched, ok := vm.builtinIterMethod(receiver, name, cursor)
		if !matched {
			vm.raiseException(excNameException, fmt.Sprintf(
				"'%s' object has no attribute '%s'", vm.typeName(receiver), name.Bytes))
			return false
		}
		if !ok {
			return false
		}
		vm.sp = receiverSlot
		vm.push(result)
		return true
	}

	if receiver.IsInstance() {
		inst := receiver.AsInstance()
		if field, ok := inst.Fields.Get(name); ok {
			vm.stack[receiverSlot] = field
			return vm.callValue(receiverSlot, argc)
		}
		method, ok := inst.Class.Method(name)
		if !ok {
			vm.raiseException(excNameException, fmt.Sprintf(
				"'%s' object has no attribute '%s'", inst.Class.Name.Bytes, name.Bytes))
			return false
		}
		return vm.callBound(receiver, method, receiverSlot, argc)
	}

	if receiver.IsModule() {
		mod := receiver.AsModule()
		val, ok := mod.Globals.Get(name)
		if !ok {
			vm.raiseException(excNameException, fmt.Sprintf("module has no attribute '%s'", name.Bytes))
			return false
		}
		vm.stack[receiverSlot] = val
		return vm.callValue(receiverSlot, argc)
	}

	if receiver.IsClass() {
		class := receiver.AsClass()
		method, ok := class.Method(name)
		if !ok {
			vm.raiseException(excNameException, fmt.Sprintf("class '%s' has no method '%s'", class.Name.Bytes, name.Bytes))
			return false
		}
		return vm.callBound(receiver, method, receiverSlot, argc)
	}

	vm.raiseException(excTypeException, fmt.Sprintf("'%s' object has no attribute '%s'", vm.typeName(receiver), name.Bytes))
	return false
}

// getAttr implements GET_ATTR: field lookup shadows method lookup; a
// resolved method becomes a BoundMethod (§3 "BoundMethod").
func (vm *VM) getAttr(receiver Value, name *ObjString) (Value, bool) {
	switch {
	case receiver.IsInstance():
		inst := receiver.AsInstance()
		if field, ok := inst.Fields.Get(name); ok {
			return field, true
		}
		if method, ok := inst.Class.Method(name); ok {
			bm := gcAlloc(vm.gc, &ObjBoundMethod{Receiver: receiver, Method: method.AsObject()})
			return FromObj(bm), true
		}
		return Value{}, false

	case receiver.IsModule():
		return receiver.AsModule().Globals.Get(name)

	case receiver.IsClass():
		class := receiver.AsClass()
		if method, ok := class.Method(name); ok {
			bm := gcAlloc(vm.gc, &ObjBoundMethod{Receiver: receiver, Method: method.AsObject()})
			return FromObj(bm), true
		}
		return Value{}, false

	default:
		return Value{}, false
	}
}

// setAttr implements SET_ATTR: only instances and modules carry a
// mutable namespace.
func (vm *VM) setAttr(receiver Value, name *ObjString, value Value) bool {
	switch {
	case receiver.IsInstance():
		receiver.AsInstance().Fields.Set(name, value)
		return true
	case receiver.IsModule():
		receiver.AsModule().Globals.Set(name, value)
		return true
	default:
		vm.raiseException(excTypeException, fmt.Sprintf("'%s' object has no settable attributes", vm.typeName(receiver)))
		return false
	}
}
