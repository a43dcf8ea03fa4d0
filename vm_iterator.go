package jstar

// Iter and Next give host code (natives, the embedding API) a way to
// drive the same threaded __iter__(prev)/__next__(prev) protocol the
// FOR_STMT lowering in compiler_control.go compiles into bytecode for,
// without hand-rolling the re-entrant call sequence at every call site
// (§4.5, §9 "Reentrant interpreter", original_source/src/include/
// jstar.h's jsrIter/jsrNext).
//
// cursor starts at Null and is threaded back in on every call, exactly
// as the compiled loop does with its hidden " cursor" local:
//
//	cursor := Null
//	for {
//	    cursor = vm.Iter(slot, cursor)
//	    if cursor.IsFalsy() {
//	        break
//	    }
//	    v := vm.Next(slot, cursor)
//	    ...
//	}
func (vm *VM) Iter(slot int, cursor Value) Value {
	return vm.callIteratorMethod(slot, "__iter__", cursor)
}

// Next calls __next__(cursor) on the iterable at slot and returns the
// value that cursor (as produced by the most recent Iter call) names.
func (vm *VM) Next(slot int, cursor Value) Value {
	return vm.callIteratorMethod(slot, "__next__", cursor)
}

func (vm *VM) callIteratorMethod(slot int, method string, cursor Value) Value {
	// List/Tuple/Range have no method table for CallMethod to find; they
	// take the same builtin branch invoke() takes for a compiled loop.
	if recv := vm.stack[slot]; recv.IsList() || recv.IsTuple() || recv.IsRange() {
		result, _, ok := vm.builtinIterMethod(recv, vm.internString(method), cursor)
		if !ok {
			return Null
		}
		return result
	}
	vm.EnsureStack(2)
	base := vm.sp
	vm.push(vm.stack[slot])
	vm.push(cursor)
	if !vm.CallMethod(method, base, 1) {
		return Null
	}
	return vm.pop()
}

// builtinIterMethod implements the threaded __iter__(prev)/__next__(prev)
// protocol directly on the three builtin collection kinds (List, Tuple,
// Range), the same protocol compileFor lowers `for x in iterable` to.
// These kinds are never ObjInstance values with a script-defined Class,
// so invoke's Class.Method lookup can never find a method on them; this
// is the builtin-kind branch invoke() takes instead (§4.5, vm_call.go).
//
// The cursor for List/Tuple is the previous element's index as a
// Number (Null means "not started yet"); for Range it is the previous
// element's value. Threading the cursor through the call rather than
// storing it on the receiver (as an earlier revision of this file did
// via ObjList.Pos/ObjTuple.Pos/ObjRange.Cur) means the same collection
// value can be walked by more than one loop at once, matching
// jsrIter/jsrNext's externally-held iterator state.
//
// matched reports whether name named one of the two recognized
// iterator methods at all -- invoke() raises NameException itself when
// it doesn't, the same as an unresolved Instance method. ok reports
// whether the call succeeded; on failure the exception has already
// been raised by this function (IndexOutOfBoundException on __next__
// called with a stale/invalid cursor) and invoke() must not raise
// again.
//
// Strings are deliberately excluded: ObjString is interned (spec.md
// §3), and iterating one here would need no mutable state anyway since
// the cursor is threaded externally -- they simply don't implement the
// protocol, matching spec.md's Non-goals for string indexing beyond
// what's named there.
func (vm *VM) builtinIterMethod(receiver Value, name *ObjString, cursor Value) (result Value, matched bool, ok bool) {
	switch {
	case receiver.IsList():
		return vm.listIterMethod(receiver.AsList(), name, cursor)
	case receiver.IsTuple():
		return vm.tupleIterMethod(receiver.AsTuple(), name, cursor)
	case receiver.IsRange():
		return vm.rangeIterMethod(receiver.AsRange(), name, cursor)
	default:
		return Value{}, false, false
	}
}

// nextIndex maps a List/Tuple cursor value to the next index to visit:
// Null (not started) maps to 0, otherwise one past the previous index.
func nextIndex(cursor Value) int {
	if cursor.IsNull() {
		return 0
	}
	return int(cursor.AsNumber()) + 1
}

func (vm *VM) listIterMethod(l *ObjList, name *ObjString, cursor Value) (Value, bool, bool) {
	switch string(name.Bytes) {
	case "__iter__":
		idx := nextIndex(cursor)
		if idx >= len(l.Items) {
			return Null, true, true
		}
		return Number(float64(idx)), true, true
	case "__next__":
		idx := int(cursor.AsNumber())
		if idx < 0 || idx >= len(l.Items) {
			vm.raiseException(excIndexOutOfBoundException, "iterator exhausted")
			return Value{}, true, false
		}
		return l.Items[idx], true, true
	default:
		return Value{}, false, false
	}
}

func (vm *VM) tupleIterMethod(t *ObjTuple, name *ObjString, cursor Value) (Value, bool, bool) {
	switch string(name.Bytes) {
	case "__iter__":
		idx := nextIndex(cursor)
		if idx >= len(t.Items) {
			return Null, true, true
		}
		return Number(float64(idx)), true, true
	case "__next__":
		idx := int(cursor.AsNumber())
		if idx < 0 || idx >= len(t.Items) {
			vm.raiseException(excIndexOutOfBoundException, "iterator exhausted")
			return Value{}, true, false
		}
		return t.Items[idx], true, true
	default:
		return Value{}, false, false
	}
}

func (vm *VM) rangeIterMethod(r *ObjRange, name *ObjString, cursor Value) (Value, bool, bool) {
	switch string(name.Bytes) {
	case "__iter__":
		var next float64
		if cursor.IsNull() {
			next = r.Start
		} else {
			next = cursor.AsNumber() + r.Step
		}
		if !r.Contains(next) {
			return Null, true, true
		}
		return Number(next), true, true
	case "__next__":
		if cursor.IsNull() || !r.Contains(cursor.AsNumber()) {
			vm.raiseException(excIndexOutOfBoundException, "iterator exhausted")
			return Value{}, true, false
		}
		return cursor, true, true
	default:
		return Value{}, false, false
	}
}
