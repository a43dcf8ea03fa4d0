package jstar

// ImportModule resolves name against the VM's module registry,
// returning the cached *ObjModule and fresh=false if already loaded,
// or creating and registering (but not yet populating) a new one with
// fresh=true. Both results are returned to the Go caller; nothing is
// pushed on the VM stack (DESIGN.md Open Question resolution): the
// caller is responsible for compiling/running the module body when
// fresh is true.
//
// Real filesystem search for .jsr sources is out of scope (spec.md
// Non-goals "module loader filesystem search"); this only manages the
// in-memory registry a host front-end would consult before handing
// source text to EvaluateModule.  Paths added with AddImportPath are
// not consulted.
func (vm *VM) ImportModule(name *ObjString) (*ObjModule, bool) {
	if v, ok := vm.modules.Get(name); ok && v.IsModule() {
		return v.AsModule(), false
	}
	mod := newModule(name)
	vm.seedModuleGlobals(mod)
	vm.modules.Set(name, FromObj(mod))
	return mod, true
}

// GetModule looks up an already-registered module by name without
// creating it, matching jsrGetModule's lookup-only contract (§6).
func (vm *VM) GetModule(name string) (*ObjModule, bool) {
	v, ok := vm.modules.Get(vm.internString(name))
	if !ok || !v.IsModule() {
		return nil, false
	}
	return v.AsModule(), true
}
