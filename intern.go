package jstar

// internTable is the VM's single global string intern table (spec.md
// §3: "exactly one String object exists per byte sequence" up to
// internThreshold).  It is weak: entries are not traced during mark,
// and unreachable ones are pruned before the main sweep (§4.1 "Intern
// table sweep"), so literals don't live forever just because they were
// once interned.
//
// It cannot reuse hashtable.go's htEntry/find, which probes by
// *ObjString pointer identity -- the whole point of interning is
// producing that pointer from raw bytes in the first place, so probing
// here compares by (hash, bytes) instead.
type internTable struct {
	entries []*ObjString
	count   int
}

const internInitialCapacity = 16

func newInternTable() *internTable {
	return &internTable{}
}

func (t *internTable) grow() {
	newCap := internInitialCapacity
	if len(t.entries) > 0 {
		newCap = len(t.entries) * 2
	}
	old := t.entries
	t.entries = make([]*ObjString, newCap)
	t.count = 0
	for _, s := range old {
		if s != nil {
			t.insertRaw(s)
		}
	}
}

func (t *internTable) insertRaw(s *ObjString) {
	mask := uint32(len(t.entries) - 1)
	idx := s.Hash & mask
	for t.entries[idx] != nil {
		idx = (idx + 1) & mask
	}
	t.entries[idx] = s
	t.count++
}

// Find returns the interned string matching bytes/hash, if any.
func (t *internTable) Find(bytes []byte, hash uint32) *ObjString {
	if len(t.entries) == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	idx := hash & mask
	for {
		s := t.entries[idx]
		if s == nil {
			return nil
		}
		if s.Hash == hash && string(s.Bytes) == string(bytes) {
			return s
		}
		idx = (idx + 1) & mask
	}
}

// Intern returns the canonical *ObjString for bytes, allocating and
// inserting a new one on miss.  Strings longer than internThreshold
// are never interned and always allocate fresh (§3).
func (t *internTable) intern(gc *GC, bytes []byte) *ObjString {
	hash := fnv1a32(bytes)
	if len(bytes) <= internThreshold {
		if existing := t.Find(bytes, hash); existing != nil {
			return existing
		}
	}
	s := gcAlloc(gc, newObjString(bytes))
	if len(bytes) <= internThreshold {
		if float64(t.count+1) > float64(len(t.entries))*htLoadFactor {
			t.grow()
		}
		t.insertRaw(s)
	}
	return s
}

// sweep drops every entry whose String is not marked, *before* the
// general sweep frees the underlying objects (§4.1: "before freeing").
// The survivors are reinserted into a fresh array of the same size, so
// no emptied slot breaks the linear-probe chain of a later entry.
func (t *internTable) sweep() {
	old := t.entries
	t.entries = make([]*ObjString, len(old))
	t.count = 0
	for _, s := range old {
		if s != nil && s.header().marked {
			t.insertRaw(s)
		}
	}
}
