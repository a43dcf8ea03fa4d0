package jstar

// ObjModule is a named global namespace.  Modules are themselves
// values, registered in the VM's module map (spec.md §3, §4.6).
type ObjModule struct {
	ObjHeader
	Name    *ObjString
	Globals *hashTable
}

func newModule(name *ObjString) *ObjModule {
	return &ObjModule{Name: name, Globals: newHashTable()}
}

func (m *ObjModule) objKind() ObjKind { return ObjKindModule }

func (m *ObjModule) traceChildren(mark func(Value)) {
	mark(FromObj(m.Name))
	m.Globals.traceChildren(mark)
}

func (m *ObjModule) goString() string { return "<module " + string(m.Name.Bytes) + ">" }
