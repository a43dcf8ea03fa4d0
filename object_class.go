package jstar

// ObjClass is a name, an optional superclass and a method table.  The
// method table is populated at class-definition time and, for
// inheritance, by copying the superclass's table into the subclass's
// at INHERIT time (spec.md §3, §4.4) rather than delegating to the
// superclass at dispatch time -- this keeps method lookup a single
// hash probe at the cost of a copy per subclass creation.
type ObjClass struct {
	ObjHeader
	Name    *ObjString
	Super   *ObjClass
	Methods *hashTable
}

func newClass(name *ObjString, super *ObjClass) *ObjClass {
	c := &ObjClass{Name: name, Super: super, Methods: newHashTable()}
	if super != nil {
		super.Methods.CopyInto(c.Methods)
	}
	return c
}

func (c *ObjClass) objKind() ObjKind { return ObjKindClass }

func (c *ObjClass) traceChildren(mark func(Value)) {
	mark(FromObj(c.Name))
	if c.Super != nil {
		mark(FromObj(c.Super))
	}
	c.Methods.traceChildren(mark)
}

func (c *ObjClass) goString() string { return "<class " + string(c.Name.Bytes) + ">" }

// Method looks up a method by interned name, searching only this
// class's own (already-inherited-by-copy) table -- a single probe.
func (c *ObjClass) Method(name *ObjString) (Value, bool) {
	return c.Methods.Get(name)
}

// IsSubclassOf walks the (short) superclass chain by identity,
// supplementing jsrIs from original_source/jstar.h (§ SPEC_FULL.md).
func (c *ObjClass) IsSubclassOf(other *ObjClass) bool {
	for cur := c; cur != nil; cur = cur.Super {
		if cur == other {
			return true
		}
	}
	return false
}

// ObjInstance pairs a Class pointer with a per-instance field table
// (spec.md §3).  Field lookups shadow method lookups (§4.5 INVOKE).
type ObjInstance struct {
	ObjHeader
	Class  *ObjClass
	Fields *hashTable
}

func newInstance(class *ObjClass) *ObjInstance {
	return &ObjInstance{Class: class, Fields: newHashTable()}
}

func (i *ObjInstance) objKind() ObjKind { return ObjKindInstance }

func (i *ObjInstance) traceChildren(mark func(Value)) {
	mark(FromObj(i.Class))
	i.Fields.traceChildren(mark)
}

func (i *ObjInstance) goString() string { return "<instance of " + string(i.Class.Name.Bytes) + ">" }
