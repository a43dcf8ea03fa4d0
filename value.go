package jstar

import "fmt"

// Kind tags the variant carried by a Value.  Null, Bool and Number are
// carried inline; Handle wraps an opaque host pointer that the GC never
// traces; Object indexes into the managed heap.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindHandle
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindHandle:
		return "handle"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the uniform tagged cell described in §3 of the spec: every
// slot on the VM stack, every local, every field is one of these.  We
// use a tag+payload struct rather than NaN-boxing a 64bit float -- Go
// gives us no clean way to punch pointers into a float's bit pattern
// without defeating the garbage collector's own pointer scanning, and
// the struct is still small enough to pass and copy cheaply.
type Value struct {
	kind   Kind
	num    float64
	obj    Obj
	handle any
}

// Null is the canonical null value.
var Null = Value{kind: KindNull}

func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.num = 1
	}
	return v
}

func Number(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

func Handle(h any) Value {
	return Value{kind: KindHandle, handle: h}
}

func FromObj(o Obj) Value {
	return Value{kind: KindObject, obj: o}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsHandle() bool { return v.kind == KindHandle }
func (v Value) IsObject() bool { return v.kind == KindObject }

func (v Value) AsBool() bool      { return v.num != 0 }
func (v Value) AsNumber() float64 { return v.num }
func (v Value) AsHandle() any     { return v.handle }
func (v Value) AsObject() Obj     { return v.obj }

func (v Value) ObjKind() ObjKind {
	if v.obj == nil {
		return objKindNone
	}
	return v.obj.objKind()
}

func (v Value) IsObjKind(k ObjKind) bool {
	return v.kind == KindObject && v.obj != nil && v.obj.objKind() == k
}

func (v Value) IsString() bool      { return v.IsObjKind(ObjKindString) }
func (v Value) IsFunction() bool    { return v.IsObjKind(ObjKindFunction) }
func (v Value) IsClosure() bool     { return v.IsObjKind(ObjKindClosure) }
func (v Value) IsNative() bool      { return v.IsObjKind(ObjKindNative) }
func (v Value) IsClass() bool       { return v.IsObjKind(ObjKindClass) }
func (v Value) IsInstance() bool    { return v.IsObjKind(ObjKindInstance) }
func (v Value) IsModule() bool      { return v.IsObjKind(ObjKindModule) }
func (v Value) IsList() bool        { return v.IsObjKind(ObjKindList) }
func (v Value) IsTuple() bool       { return v.IsObjKind(ObjKindTuple) }
func (v Value) IsRange() bool       { return v.IsObjKind(ObjKindRange) }
func (v Value) IsBoundMethod() bool { return v.IsObjKind(ObjKindBoundMethod) }

func (v Value) AsString() *ObjString { return v.obj.(*ObjString) }
func (v Value) AsFunction() *ObjFunction { return v.obj.(*ObjFunction) }
func (v Value) AsClosure() *ObjClosure   { return v.obj.(*ObjClosure) }
func (v Value) AsNative() *ObjNative     { return v.obj.(*ObjNative) }
func (v Value) AsClass() *ObjClass       { return v.obj.(*ObjClass) }
func (v Value) AsInstance() *ObjInstance { return v.obj.(*ObjInstance) }
func (v Value) AsModule() *ObjModule     { return v.obj.(*ObjModule) }
func (v Value) AsList() *ObjList         { return v.obj.(*ObjList) }
func (v Value) AsTuple() *ObjTuple       { return v.obj.(*ObjTuple) }
func (v Value) AsRange() *ObjRange       { return v.obj.(*ObjRange) }
func (v Value) AsBoundMethod() *ObjBoundMethod { return v.obj.(*ObjBoundMethod) }

// IsFalsy implements the language's truthiness rule: null and false are
// falsy, everything else -- including 0 and the empty string -- is truthy.
func (v Value) IsFalsy() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return !v.AsBool()
	default:
		return false
	}
}

// StructuralEquals implements the non-overloadable half of §4.5's
// equality rule: null/bool/number/interned-string compare by value or
// pointer identity; any other object pair falls through to the caller,
// which is expected to dispatch to __eq__ or fall back to identity.
func (v Value) StructuralEquals(o Value) (equal bool, handled bool) {
	if v.kind != o.kind {
		return false, true
	}
	switch v.kind {
	case KindNull:
		return true, true
	case KindBool:
		return v.AsBool() == o.AsBool(), true
	case KindNumber:
		return v.num == o.num, true // NaN != NaN falls out of IEEE754 ==
	case KindHandle:
		return v.handle == o.handle, true
	case KindObject:
		if v.IsString() && o.IsString() {
			// Strings under the intern threshold are interned, so
			// pointer identity already implies byte equality; longer
			// strings are not interned, so we fall back to a byte
			// compare to keep the contract "equal bytes => equal".
			a, b := v.AsString(), o.AsString()
			if a == b {
				return true, true
			}
			return a.Hash == b.Hash && string(a.Bytes) == string(b.Bytes), true
		}
		return false, false
	default:
		return false, true
	}
}

// Identity reports pointer/value identity, used as the fallback for
// "==" on objects with no __eq__ override.
func (v Value) Identity(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == KindObject {
		return v.obj == o.obj
	}
	eq, _ := v.StructuralEquals(o)
	return eq
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.AsBool())
	case KindNumber:
		return formatNumber(v.num)
	case KindHandle:
		return fmt.Sprintf("<handle %p>", &v.handle)
	case KindObject:
		return v.obj.goString()
	default:
		return "<?>"
	}
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}
