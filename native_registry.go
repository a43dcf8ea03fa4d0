package jstar

// RegKind tags a NativeReg entry, matching JStarNativeReg's
// REG_FUNCTION/REG_METHOD/REG_SENTINEL tagged union from
// original_source/src/include/jstar.h (§ SPEC_FULL.md "Supplemented
// Features").
type RegKind int

const (
	regFunction RegKind = iota
	regMethod
	regSentinel
)

// NativeReg is one entry of a native registration table: either a
// module-level function or a method on a named class, consumed by
// RegisterNatives the same way JSR_REGFUNC/JSR_REGMETH/JSR_REGEND
// built a sentinel-terminated C array.
type NativeReg struct {
	Kind  RegKind
	Class string // set for regMethod
	Name  string
	Arity int
	Fn    NativeFn
}

func RegFunc(name string, arity int, fn NativeFn) NativeReg {
	return NativeReg{Kind: regFunction, Name: name, Arity: arity, Fn: fn}
}

func RegMethod(class, name string, arity int, fn NativeFn) NativeReg {
	return NativeReg{Kind: regMethod, Class: class, Name: name, Arity: arity, Fn: fn}
}

// RegisterNatives installs every entry of regs into mod: module-level
// functions become module globals, methods are installed on the named
// class's method table (the class must already be a global in mod,
// e.g. defined by a preceding script-level `class` declaration) (§6).
func (vm *VM) RegisterNatives(mod *ObjModule, regs []NativeReg) {
	for _, r := range regs {
		switch r.Kind {
		case regFunction:
			vm.registerNative(mod, r.Name, r.Arity, r.Fn)
		case regMethod:
			classVal, ok := mod.Globals.Get(vm.internString(r.Class))
			if !ok || !classVal.IsClass() {
				continue
			}
			class := classVal.AsClass()
			native := gcAlloc(vm.gc, &ObjNative{
				Name:   vm.internString(r.Name),
				Arity:  r.Arity,
				Fn:     r.Fn,
				Module: mod,
			})
			class.Methods.Set(vm.internString(r.Name), FromObj(native))
		}
	}
}
