package jstar

import "fmt"

// operatorMethodNames maps each overloadable arithmetic/comparison
// opcode to the instance method name the interpreter falls back to
// when the left operand isn't a number (§4.5 "Operand semantics").
var operatorMethodNames = map[Op]string{
	OpAdd: "__add__",
	OpSub: "__sub__",
	OpMul: "__mul__",
	OpDiv: "__div__",
	OpMod: "__mod__",
	OpLt:  "__lt__",
	OpLe:  "__le__",
	OpGt:  "__gt__",
	OpGe:  "__ge__",
}

// binaryArith pops two operands and pushes the result of applying op,
// handling the numeric fast path directly and routing anything else to
// an overloadable operator method on the left operand's class (§4.5).
func (vm *VM) binaryArith(op Op) bool {
	b := vm.pop()
	a := vm.pop()

	if a.IsNumber() && b.IsNumber() {
		x, y := a.AsNumber(), b.AsNumber()
		switch op {
		case OpAdd:
			vm.push(Number(x + y))
		case OpSub:
			vm.push(Number(x - y))
		case OpMul:
			vm.push(Number(x * y))
		case OpDiv:
			if y == 0 {
				vm.raiseException(excArithmeticException, "division by zero")
				return false
			}
			vm.push(Number(x / y))
		case OpMod:
			if y == 0 {
				vm.raiseException(excArithmeticException, "modulo by zero")
				return false
			}
			vm.push(Number(arithMod(x, y)))
		}
		return true
	}

	if op == OpAdd && a.IsString() && b.IsString() {
		vm.push(vm.stringValue(string(a.AsString().Bytes) + string(b.AsString().Bytes)))
		return true
	}
	if op == OpAdd && a.IsList() && b.IsList() {
		al, bl := a.AsList(), b.AsList()
		merged := make([]Value, 0, len(al.Items)+len(bl.Items))
		merged = append(merged, al.Items...)
		merged = append(merged, bl.Items...)
		vm.push(FromObj(gcAlloc(vm.gc, newList(merged))))
		return true
	}

	return vm.dispatchOperatorMethod(op, a, b)
}

func arithMod(x, y float64) float64 {
	r := x - y*float64(int64(x/y))
	return r
}

// dispatchOperatorMethod routes an unhandled arithmetic/comparison
// opcode to a.__op__(b) when a is an Instance defining it, per §4.5.
func (vm *VM) dispatchOperatorMethod(op Op, a, b Value) bool {
	name, ok := operatorMethodNames[op]
	if !ok || !a.IsInstance() {
		vm.raiseException(excTypeException, fmt.Sprintf(
			"unsupported operand type(s) for %s: '%s' and '%s'", name, vm.typeName(a), vm.typeName(b)))
		return false
	}
	inst := a.AsInstance()
	method, found := inst.Class.Method(vm.internString(name))
	if !found {
		vm.raiseException(excTypeException, fmt.Sprintf(
			"'%s' object has no method '%s'", inst.Class.Name.Bytes, name))
		return false
	}

	vm.EnsureStack(2)
	base := vm.sp
	vm.push(a)
	vm.push(b)
	if !vm.callBound(a, method, base, 1) {
		return false
	}
	return vm.runNestedUntil(vm.frameCount)
}

// negate implements unary '-': numeric fast path, no operator-method
// fallback defined by spec.md for unary minus beyond numbers.
func (vm *VM) negate() bool {
	v := vm.pop()
	if !v.IsNumber() {
		vm.raiseException(excTypeException, fmt.Sprintf("bad operand type for unary -: '%s'", vm.typeName(v)))
		return false
	}
	vm.push(Number(-v.AsNumber()))
	return true
}

// compareOrdered implements <, <=, >, >= which work only on numbers
// (§4.5), falling back to the same overloadable operator methods as
// arithmetic for instances.
func (vm *VM) compareOrdered(op Op) bool {
	b := vm.pop()
	a := vm.pop()
	if a.IsNumber() && b.IsNumber() {
		x, y := a.AsNumber(), b.AsNumber()
		var result bool
		switch op {
		case OpLt:
			result = x < y
		case OpLe:
			result = x <= y
		case OpGt:
			result = x > y
		case OpGe:
			result = x >= y
		}
		vm.push(Bool(result))
		return true
	}
	return vm.dispatchOperatorMethod(op, a, b)
}

// equals implements == / != (§4.5): structural for null/bool/number/
// interned-string, __eq__ dispatch for other objects, else identity.
func (vm *VM) equals(negate bool) bool {
	b := vm.pop()
	a := vm.pop()
	eq, handled := a.StructuralEquals(b)
	if handled {
		vm.push(Bool(eq != negate))
		return true
	}
	if a.IsInstance() {
		inst := a.AsInstance()
		if method, ok := inst.Class.Method(vm.internString("__eq__")); ok {
			vm.EnsureStack(2)
			base := vm.sp
			vm.push(a)
			vm.push(b)
			if !vm.callBound(a, method, base, 1) {
				return false
			}
			if !vm.runNestedUntil(vm.frameCount) {
				return false
			}
			result := vm.pop()
			isEq := !result.IsFalsy()
			vm.push(Bool(isEq != negate))
			return true
		}
	}
	vm.push(Bool(a.Identity(b) != negate))
	return true
}
