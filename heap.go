package jstar

// ObjKind tags the variant of a heap object, mirroring the Kind enum of
// spec.md §3.
type ObjKind uint8

const (
	objKindNone ObjKind = iota
	ObjKindString
	ObjKindFunction
	ObjKindClosure
	ObjKindUpvalue
	ObjKindNative
	ObjKindClass
	ObjKindInstance
	ObjKindModule
	ObjKindList
	ObjKindTuple
	ObjKindRange
	ObjKindBoundMethod
	ObjKindBuffer
)

var objKindNames = map[ObjKind]string{
	ObjKindString:      "string",
	ObjKindFunction:    "function",
	ObjKindClosure:     "closure",
	ObjKindUpvalue:     "upvalue",
	ObjKindNative:      "native",
	ObjKindClass:       "class",
	ObjKindInstance:    "instance",
	ObjKindModule:      "module",
	ObjKindList:        "list",
	ObjKindTuple:       "tuple",
	ObjKindRange:       "range",
	ObjKindBoundMethod: "bound method",
	ObjKindBuffer:      "buffer",
}

func (k ObjKind) String() string {
	if s, ok := objKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ObjHeader is embedded by every heap object variant.  It carries the
// mark bit used by the collector and the intrusive link used by the
// allocator's object list (spec.md §3 "Heap objects share a header").
type ObjHeader struct {
	marked bool
	next   Obj
	size   int
}

func (h *ObjHeader) header() *ObjHeader { return h }

// Obj is implemented by every heap object kind.  traceChildren calls
// mark on every Value this object references, and mark recurses into
// that object's own children (§4.1's "Mark" phase); there is no
// separate grey worklist.
type Obj interface {
	objKind() ObjKind
	header() *ObjHeader
	traceChildren(mark func(Value))
	goString() string
}

