package jstar

// upvalueRef describes, at compile time, where a closure's upvalue
// slot is wired from: either an enclosing local (IsLocal true, Index is
// a stack slot relative to the enclosing frame's base) or an enclosing
// upvalue (IsLocal false, Index is the enclosing closure's upvalue
// index).  Emitted as the operand pairs following MAKE_CLOSURE (§4.4).
type upvalueRef struct {
	IsLocal bool
	Index   int
}

// ObjFunction is a compiled function prototype: name, arity, upvalue
// count, its Chunk and the Module it was compiled against (§3).
type ObjFunction struct {
	ObjHeader
	Name        *ObjString
	Arity       int
	Vararg      bool
	NumUpvalues int
	Chunk       *Chunk
	Module      *ObjModule
	upvalues    []upvalueRef
}

func (f *ObjFunction) objKind() ObjKind { return ObjKindFunction }

func (f *ObjFunction) traceChildren(mark func(Value)) {
	if f.Name != nil {
		mark(FromObj(f.Name))
	}
	if f.Module != nil {
		mark(FromObj(f.Module))
	}
	if f.Chunk != nil {
		for _, c := range f.Chunk.Constants {
			if c.IsObject() {
				mark(c)
			}
		}
	}
}

func (f *ObjFunction) goString() string {
	if f.Name == nil {
		return "<anon@fn>"
	}
	return "<fn " + string(f.Name.Bytes) + ">"
}

// NativeFn is a host function exposed to scripts, matching
// JStarNative's `bool (*)(VM*)` signature from original_source's
// jstar.h: it returns true with a single result on top of the stack,
// or false after raising an exception, which by then has already been
// unwound to its handler (see Raise; §4.5, §6).
type NativeFn func(vm *VM) bool

// ObjNative wraps a host function pointer with the bookkeeping needed
// to call it uniformly with Closures (§3).
type ObjNative struct {
	ObjHeader
	Name   *ObjString
	Arity  int
	Fn     NativeFn
	Module *ObjModule
}

func (n *ObjNative) objKind() ObjKind { return ObjKindNative }

func (n *ObjNative) traceChildren(mark func(Value)) {
	if n.Name != nil {
		mark(FromObj(n.Name))
	}
	if n.Module != nil {
		mark(FromObj(n.Module))
	}
}

func (n *ObjNative) goString() string {
	if n.Name == nil {
		return "<native fn>"
	}
	return "<native " + string(n.Name.Bytes) + ">"
}

// ObjUpvalue is either open (Location points into the live stack) or
// closed (Closed owns a copy of the captured value).  The transition
// from open to closed happens exactly once, at the CLOSE_UPVALUE
// opcode emitted when the captured local's scope exits (§3, DESIGN.md).
type ObjUpvalue struct {
	ObjHeader
	Location *Value
	Slot     int // stack index Location refers to, while open
	Closed   Value
	Next     *ObjUpvalue // intrusive list of open upvalues, sorted by stack slot
}

func (u *ObjUpvalue) objKind() ObjKind { return ObjKindUpvalue }

func (u *ObjUpvalue) traceChildren(mark func(Value)) {
	if u.Location != nil {
		if u.Location.IsObject() {
			mark(*u.Location)
		}
	} else if u.Closed.IsObject() {
		mark(u.Closed)
	}
}

func (u *ObjUpvalue) goString() string { return "<upvalue>" }

func (u *ObjUpvalue) isOpen() bool { return u.Location != nil }

func (u *ObjUpvalue) get() Value {
	if u.Location != nil {
		return *u.Location
	}
	return u.Closed
}

func (u *ObjUpvalue) set(v Value) {
	if u.Location != nil {
		*u.Location = v
		return
	}
	u.Closed = v
}

func (u *ObjUpvalue) close() {
	if u.Location == nil {
		return
	}
	u.Closed = *u.Location
	u.Location = nil
}

// ObjBoundMethod is produced by attribute lookup on an instance when
// the resolved name is a method: the receiver and the method are
// bundled so a later CALL sees the receiver in slot 0 (§3, §4.5).
type ObjBoundMethod struct {
	ObjHeader
	Receiver Value
	Method   Obj // *ObjClosure or *ObjNative
}

func (b *ObjBoundMethod) objKind() ObjKind { return ObjKindBoundMethod }

func (b *ObjBoundMethod) traceChildren(mark func(Value)) {
	if b.Receiver.IsObject() {
		mark(b.Receiver)
	}
	mark(FromObj(b.Method))
}

func (b *ObjBoundMethod) goString() string { return "<bound method>" }
