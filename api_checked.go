package jstar

import "fmt"

// CheckNumber/CheckString/CheckInstance are the "checked accessor"
// half of the embedding API (§6): instead of panicking on a type
// mismatch they raise TypeException the same way a bytecode-level
// operand-type error does, and report ok=false so a Native can return
// immediately with the exception already propagating.
func (vm *VM) CheckNumber(slot int, what string) (float64, bool) {
	v := vm.stack[slot]
	if !v.IsNumber() {
		vm.Raise(excTypeException, "%s must be a Number, got '%s'", what, vm.typeName(v))
		return 0, false
	}
	return v.AsNumber(), true
}

func (vm *VM) CheckString(slot int, what string) (*ObjString, bool) {
	v := vm.stack[slot]
	if !v.IsString() {
		vm.Raise(excTypeException, "%s must be a String, got '%s'", what, vm.typeName(v))
		return nil, false
	}
	return v.AsString(), true
}

func (vm *VM) CheckInstance(slot int, class *ObjClass, what string) (*ObjInstance, bool) {
	v := vm.stack[slot]
	if !v.IsInstance() || !v.AsInstance().Class.IsSubclassOf(class) {
		vm.Raise(excTypeException, fmt.Sprintf("%s must be a %s", what, class.Name.Bytes))
		return nil, false
	}
	return v.AsInstance(), true
}

// IsInstance reports whether the value at slot is an instance of
// class or one of its subclasses, supplementing jsrIs from
// original_source's jstar.h (§ SPEC_FULL.md "Supplemented Features").
func (vm *VM) IsInstance(slot int, class *ObjClass) bool {
	v := vm.stack[slot]
	return v.IsInstance() && v.AsInstance().Class.IsSubclassOf(class)
}
