package jstar

import "fmt"

// PushString pushes s as a String value, interning it if short enough
// -- the embedding API's jsrPushString (§6).
func (vm *VM) PushString(s string) {
	vm.push(vm.stringValue(s))
}

// PushNumber, PushBoolean and PushNull round out the embedding API's
// primitive push helpers (§6).
func (vm *VM) PushNumber(n float64) { vm.push(Number(n)) }
func (vm *VM) PushBoolean(b bool)   { vm.push(Bool(b)) }
func (vm *VM) PushNull()            { vm.push(Null) }
func (vm *VM) PushValue(v Value)    { vm.push(v) }

// Pop discards the top of the stack, matching jsrPop.
func (vm *VM) Pop() { vm.pop() }

// Peek returns the value `distance` slots below the top without
// removing it, matching jsrPeek.
func (vm *VM) Peek(distance int) Value { return vm.peek(distance) }

// Top returns the value on top of the stack.
func (vm *VM) Top() Value { return vm.peek(0) }

// GetString is a checked accessor: it returns the *ObjString at the
// given stack slot, or raises TypeException (which unwinds at once, see
// Raise) and returns nil.
func (vm *VM) GetString(slot int) *ObjString {
	v := vm.stack[slot]
	if !v.IsString() {
		vm.raiseException(excTypeException, fmt.Sprintf("expected a String, got '%s'", vm.typeName(v)))
		return nil
	}
	return v.AsString()
}

// GetNumber is the Number counterpart of GetString.
func (vm *VM) GetNumber(slot int) (float64, bool) {
	v := vm.stack[slot]
	if !v.IsNumber() {
		vm.raiseException(excTypeException, fmt.Sprintf("expected a Number, got '%s'", vm.typeName(v)))
		return 0, false
	}
	return v.AsNumber(), true
}

// Call invokes the callable at stack slot `calleeSlot` with argc
// arguments already pushed above it, running the dispatch loop
// re-entrantly until control returns to this call's depth (§9
// "Reentrant interpreter", the host-facing counterpart of
// vm_arith.go's internal operator dispatch).
func (vm *VM) Call(calleeSlot, argc int) bool {
	depth := vm.frameCount
	if !vm.callValue(calleeSlot, argc) {
		return false
	}
	if vm.frameCount <= depth {
		// callNative already ran to completion; nothing to re-enter.
		return true
	}
	return vm.runNestedUntil(depth)
}

// CallMethod looks up name on the receiver already sitting at
// calleeSlot and invokes it the same way Call does, matching jsrCallMethod.
func (vm *VM) CallMethod(name string, calleeSlot, argc int) bool {
	receiver := vm.stack[calleeSlot]
	method, ok := vm.getAttr(receiver, vm.internString(name))
	if !ok {
		vm.raiseException(excNameException, fmt.Sprintf("'%s' object has no method '%s'", vm.typeName(receiver), name))
		return false
	}
	vm.stack[calleeSlot] = method
	return vm.Call(calleeSlot, argc)
}

// Equals implements the re-entrant host-facing equality check used by
// collection natives that need __eq__ semantics without hand-rolling
// the dispatch themselves (§9).
func (vm *VM) Equals(a, b Value) bool {
	vm.EnsureStack(2)
	base := vm.sp
	vm.push(a)
	vm.push(b)
	if !vm.equals(false) {
		return false
	}
	result := vm.pop().AsBool()
	vm.sp = base
	return result
}

// Evaluate compiles and runs program as the __main__ module, returning
// the EvalResult code the CLI maps to a process exit status (§6
// jsrEvalModule).  program is an already-parsed AST: lexing/parsing is
// out of scope here (spec.md §1 Non-goals), so the host front-end is
// expected to hand Evaluate a tree, the same way tests hand-construct
// one directly.
func (vm *VM) Evaluate(program *Program) EvalResult {
	return vm.EvaluateModule(mainModuleName, program)
}

// EvaluateModule compiles program under moduleName, registers the
// module (seeding its globals from __core__ per §4.6), and runs its
// top-level code.
func (vm *VM) EvaluateModule(moduleName string, program *Program) EvalResult {
	name := vm.internString(moduleName)
	mod, _ := vm.ImportModule(name)

	fn, errs := Compile(vm, mod, program)
	if errs.HasErrors() {
		for _, e := range errs.Errors {
			vm.stderr("%s\n", e.Error())
		}
		return CompileErr
	}

	closure := gcAlloc(vm.gc, newClosure(fn))
	vm.push(FromObj(closure))
	if !vm.callClosure(closure, vm.sp-1, 0) {
		vm.reportPendingException()
		return RuntimeErr
	}
	if !vm.run(0) {
		vm.reportPendingException()
		return RuntimeErr
	}
	if vm.sp > 0 {
		vm.pop()
	}
	return EvalSuccess
}

func (vm *VM) reportPendingException() {
	exc := vm.pendingException
	vm.pendingException = Value{}
	if !exc.IsInstance() {
		return
	}
	inst := exc.AsInstance()
	msg := "<no message>"
	if v, ok := inst.Fields.Get(vm.internString("_err")); ok && v.IsString() {
		msg = string(v.AsString().Bytes)
	}
	vm.stderr("Traceback:\n")
	if v, ok := inst.Fields.Get(vm.internString("_stacktrace")); ok && v.IsList() {
		for _, frame := range v.AsList().Items {
			if !frame.IsTuple() || len(frame.AsTuple().Items) != 2 {
				continue
			}
			fn := frame.AsTuple().Items[0]
			line := frame.AsTuple().Items[1]
			vm.stderr("    %s at line %s\n", fn.String(), line.String())
		}
	}
	vm.stderr("%s: %s\n", inst.Class.Name.Bytes, msg)
}

// InitCommandLineArgs exposes argv to scripts as the "args" global of
// __core__, matching jsrInitCommandLineArgs (§6); modules created after
// the call get it through the globals they are seeded with from __core__.
func (vm *VM) InitCommandLineArgs(args []string) {
	items := make([]Value, len(args))
	for i, a := range args {
		items[i] = vm.stringValue(a)
	}
	list := gcAlloc(vm.gc, newList(items))
	vm.coreModule.Globals.Set(vm.internString("args"), FromObj(list))
}

// AddImportPath records an additional module directory in
// vm.importPaths (§4.6).  Nothing in this package reads that list:
// filesystem search is out of scope here (spec.md Non-goals), and
// ImportModule consults only the in-memory module registry.
func (vm *VM) AddImportPath(path string) {
	vm.importPaths = append(vm.importPaths, path)
}
