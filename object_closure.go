package jstar

// ObjClosure pairs a Function prototype with the fixed-length vector of
// upvalues captured at the point the MAKE_CLOSURE instruction ran (§3).
type ObjClosure struct {
	ObjHeader
	Fn       *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) objKind() ObjKind { return ObjKindClosure }

func (c *ObjClosure) traceChildren(mark func(Value)) {
	mark(FromObj(c.Fn))
	for _, uv := range c.Upvalues {
		mark(FromObj(uv))
	}
}

func (c *ObjClosure) goString() string { return c.Fn.goString() }

func newClosure(fn *ObjFunction) *ObjClosure {
	return &ObjClosure{Fn: fn, Upvalues: make([]*ObjUpvalue, fn.NumUpvalues)}
}
