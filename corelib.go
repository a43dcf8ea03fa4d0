package jstar

// bootstrapCore builds and registers __core__ during VM construction
// (spec.md §4.6): it defines the exception class hierarchy every other
// module's globals are pre-seeded from, plus a handful of always-
// available natives.
func (vm *VM) bootstrapCore() {
	name := vm.internString(coreModuleName)
	core := newModule(name)
	vm.coreModule = core
	vm.modules.Set(name, FromObj(core))

	exception := vm.defineExceptionClass(core, excException, nil)
	vm.registerMethod(exception, "new", -1, natExceptionNew)
	vm.defineExceptionClass(core, excTypeException, exception)
	vm.defineExceptionClass(core, excNameException, exception)
	vm.defineExceptionClass(core, excImportException, exception)
	vm.defineExceptionClass(core, excIndexOutOfBoundException, exception)
	vm.defineExceptionClass(core, excStackOverflowError, exception)
	vm.defineExceptionClass(core, excArithmeticException, exception)

	vm.registerNative(core, "type", 1, natType)
	vm.registerNative(core, "len", 1, natLen)
}

// defineExceptionClass creates a bare Class (no script-defined methods
// beyond what instance construction needs) and installs it as a
// __core__ global, so `raise ExceptionName(...)` can find it by name
// (§6 jsrRaise "lookup by name in current module").
func (vm *VM) defineExceptionClass(core *ObjModule, name string, super *ObjClass) *ObjClass {
	interned := vm.internString(name)
	class := gcAlloc(vm.gc, newClass(interned, super))
	core.Globals.Set(interned, FromObj(class))
	return class
}

func (vm *VM) registerNative(mod *ObjModule, name string, arity int, fn NativeFn) {
	interned := vm.internString(name)
	n := gcAlloc(vm.gc, &ObjNative{Name: interned, Arity: arity, Fn: fn, Module: mod})
	mod.Globals.Set(interned, FromObj(n))
}

// registerMethod installs a native directly into class's method table,
// bypassing the module-globals indirection registerNative/RegisterNatives
// use: bootstrapCore already holds the *ObjClass defineExceptionClass
// returned, so it needs no lookup of the class by name in mod.Globals
// (the lookup RegisterNatives' regMethod branch performs).
func (vm *VM) registerMethod(class *ObjClass, name string, arity int, fn NativeFn) {
	interned := vm.internString(name)
	n := gcAlloc(vm.gc, &ObjNative{Name: interned, Arity: arity, Fn: fn, Module: vm.coreModule})
	class.Methods.Set(interned, FromObj(n))
}

// natExceptionNew is Exception's constructor: it accepts an optional
// message argument (defaulting to the empty string) and seeds the
// _err/_stacktrace fields every raised Instance needs, matching
// makeException's host-raised counterpart (vm_exception.go) so a
// script-level `raise SomeException("msg")` instance carries the same
// shape as a host-raised one.
func natExceptionNew(vm *VM) bool {
	fr := vm.currentFrame()
	argc := vm.sp - fr.base - 1
	inst := vm.receiver().AsInstance()

	msg := ""
	if argc >= 1 {
		v := vm.argAt(0)
		if v.IsString() {
			msg = string(v.AsString().Bytes)
		} else {
			msg = vm.stringify(v)
		}
	}
	inst.Fields.Set(vm.internString("_err"), vm.stringValue(msg))
	inst.Fields.Set(vm.internString("_stacktrace"), FromObj(gcAlloc(vm.gc, newList(nil))))
	vm.setReturn(FromObj(inst))
	return true
}

// seedModuleGlobals copies __core__'s globals into a freshly created
// module, per §4.6 step 4 "merge __core__'s globals."
func (vm *VM) seedModuleGlobals(mod *ObjModule) {
	vm.coreModule.Globals.Each(func(key *ObjString, value Value) {
		mod.Globals.Set(key, value)
	})
}

// natType implements the `type(x)` builtin: returns x's class, or a
// plain string naming the primitive kind for non-instance values.
func natType(vm *VM) bool {
	v := vm.argAt(0)
	if v.IsInstance() {
		vm.setReturn(FromObj(v.AsInstance().Class))
		return true
	}
	vm.setReturn(vm.stringValue(vm.typeName(v)))
	return true
}

// natLen implements `len(x)` for strings, lists and tuples, raising
// TypeException otherwise.
func natLen(vm *VM) bool {
	v := vm.argAt(0)
	switch {
	case v.IsString():
		vm.setReturn(Number(float64(v.AsString().Len())))
		return true
	case v.IsList():
		vm.setReturn(Number(float64(len(v.AsList().Items))))
		return true
	case v.IsTuple():
		vm.setReturn(Number(float64(len(v.AsTuple().Items))))
		return true
	default:
		vm.Raise(excTypeException, "object of type '%s' has no len()", vm.typeName(v))
		return false
	}
}
