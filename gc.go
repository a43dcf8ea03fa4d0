package jstar

// initialHeapBytes is the allocation threshold before the first cycle
// ever runs (spec.md §3 "Lifecycle", §4.1 "initial 10 MiB").
const initialHeapBytes = 10 * 1024 * 1024

// GC implements the mark-sweep collector of spec.md §4.1: stop-the-
// world, three phases (mark, weak-intern sweep, sweep), heap-grow
// threshold that doubles every cycle.  It is non-moving because Values
// are held by pointer in host-visible structures and the embedding API
// hands out interior pointers (get_string) that must stay stable
// between collections (§4.1 "Rationale").
type GC struct {
	objects        Obj
	bytesAllocated int
	nextGC         int
	disabled       bool

	intern *internTable

	// roots is the explicit root stack spec.md §9 recommends in place
	// of a disableGC bracket: compiler and interpreter push partially
	// built values here while wiring them together, and pop once they
	// are reachable through a real root (locals, globals, etc.).
	roots []Value

	vm *VM
}

func newGC(vm *VM) *GC {
	return &GC{
		nextGC: initialHeapBytes,
		intern: newInternTable(),
		vm:     vm,
	}
}

// PushRoot pins v so a GC triggered by a subsequent allocation cannot
// free it before it is wired into a real root (spec.md §9 "Compiler
// roots").
func (gc *GC) PushRoot(v Value) {
	gc.roots = append(gc.roots, v)
}

// PopRoot releases the most recently pushed root.
func (gc *GC) PopRoot() {
	gc.roots = gc.roots[:len(gc.roots)-1]
}

// Disable brackets multi-step object construction the same way the
// source's disableGC does (kept alongside the root stack per
// DESIGN.md's Open Question resolution: the compiler favors explicit
// roots, but host code doing bulk allocation may still want this).
func (gc *GC) Disable(disabled bool) {
	gc.disabled = disabled
}

// approxSize is a best-effort accounting of an object's heap footprint
// used purely to drive the grow-threshold heuristic; it need not be
// exact, only monotonic in the object's actual size.
func approxSize(o Obj) int {
	const headerSize = 32
	switch v := o.(type) {
	case *ObjString:
		return headerSize + len(v.Bytes)
	case *ObjList:
		return headerSize + len(v.Items)*24
	case *ObjTuple:
		return headerSize + len(v.Items)*24
	case *ObjFunction:
		sz := headerSize
		if v.Chunk != nil {
			sz += len(v.Chunk.Code) + len(v.Chunk.Constants)*24
		}
		return sz
	case *ObjBuffer:
		return headerSize + v.Len()
	default:
		return headerSize
	}
}

// gcAlloc links obj into the object list, accounts for its size, and
// triggers a collection if the threshold is crossed (spec.md §4.1
// "Allocation path").  It is generic so every allocation site keeps its
// concrete type instead of having to downcast out of Obj.
func gcAlloc[T Obj](gc *GC, obj T) T {
	sz := approxSize(obj)
	h := obj.header()
	h.size = sz
	h.next = gc.objects
	gc.objects = obj
	gc.bytesAllocated += sz
	if gc.bytesAllocated > gc.nextGC && !gc.disabled {
		gc.Collect()
	}
	return obj
}

// Collect runs one full stop-the-world cycle: mark every reachable
// object from the root set, prune the weak intern table, then sweep
// the intrusive object list (spec.md §4.1).
func (gc *GC) Collect() {
	gc.markRoots()
	gc.intern.sweep()
	gc.sweep()
	gc.nextGC = gc.bytesAllocated * 2
	if gc.nextGC < initialHeapBytes {
		gc.nextGC = initialHeapBytes
	}
}

func (gc *GC) mark(v Value) {
	if !v.IsObject() || v.AsObject() == nil {
		return
	}
	o := v.AsObject()
	if o.header().marked {
		return
	}
	o.header().marked = true
	o.traceChildren(gc.mark)
}

// markRoots enumerates every root named by spec.md §3 "Lifecycle": the
// live stack, every active frame's locals (already covered by the
// shared stack slice), open upvalues, the module registry, the pinned
// root stack, and -- while a compiler is running -- its reachable
// state via the same root stack.
func (gc *GC) markRoots() {
	for _, root := range gc.roots {
		gc.mark(root)
	}
	if gc.vm == nil {
		return
	}
	for _, v := range gc.vm.stack[:gc.vm.sp] {
		gc.mark(v)
	}
	for uv := gc.vm.openUpvalues; uv != nil; uv = uv.Next {
		gc.mark(FromObj(uv))
	}
	for _, fr := range gc.vm.frames[:gc.vm.frameCount] {
		if fr.closure != nil {
			gc.mark(FromObj(fr.closure))
		}
	}
	if gc.vm.modules != nil {
		gc.vm.modules.traceChildren(gc.mark)
	}
}

// sweep frees every unmarked object on the intrusive list and clears
// the mark bit on survivors (spec.md §4.1 "Sweep").
func (gc *GC) sweep() {
	var (
		prev Obj
		cur  = gc.objects
	)
	for cur != nil {
		h := cur.header()
		next := h.next
		if h.marked {
			h.marked = false
			prev = cur
		} else {
			gc.bytesAllocated -= h.size
			if prev == nil {
				gc.objects = next
			} else {
				prev.header().next = next
			}
		}
		cur = next
	}
}
