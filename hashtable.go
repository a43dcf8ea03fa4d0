package jstar

// hashTable is the open-addressed, string-keyed map described in
// spec.md §4.2: linear probing, power-of-two capacity, load factor
// 0.75, tombstones for deletion.  It backs the interning table, module
// globals, class method tables and instance field tables.  Because
// keys are always interned *ObjString pointers, equality during
// probing is pointer equality -- a single comparison, no byte compare.
type hashTable struct {
	entries []htEntry
	count   int // live entries + tombstones, used against the load factor
	live    int // live entries only
}

type htEntry struct {
	key   *ObjString // nil: empty slot; tombstoneKey: deleted slot
	value Value
}

// tombstoneKey marks a deleted slot so probe chains stay intact, per
// spec.md's "Tombstone" glossary entry.
var tombstoneKey = &ObjString{}

const htInitialCapacity = 8
const htLoadFactor = 0.75

func newHashTable() *hashTable {
	return &hashTable{}
}

func (t *hashTable) Len() int { return t.live }

func (t *hashTable) Get(key *ObjString) (Value, bool) {
	if len(t.entries) == 0 {
		return Value{}, false
	}
	e := t.find(key)
	if e.key == nil || e.key == tombstoneKey {
		return Value{}, false
	}
	return e.value, true
}

func (t *hashTable) Set(key *ObjString, value Value) (isNew bool) {
	if float64(t.count+1) > float64(len(t.entries))*htLoadFactor {
		t.grow()
	}
	e := t.find(key)
	isNew = e.key == nil || e.key == tombstoneKey
	if e.key == nil {
		t.count++ // a reused tombstone is already counted
	}
	e.key = key
	e.value = value
	if isNew {
		t.live++
	}
	return isNew
}

func (t *hashTable) Delete(key *ObjString) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.find(key)
	if e.key == nil || e.key == tombstoneKey {
		return false
	}
	e.key = tombstoneKey
	e.value = Value{}
	t.live--
	return true
}

// find returns a pointer into t.entries to either the matching live
// entry, an empty slot suitable for insertion, or the first tombstone
// seen along the probe chain (so repeated inserts reuse tombstones).
func (t *hashTable) find(key *ObjString) *htEntry {
	mask := uint32(len(t.entries) - 1)
	idx := key.Hash & mask
	var tombstone *htEntry
	for {
		e := &t.entries[idx]
		switch {
		case e.key == nil:
			if tombstone != nil {
				return tombstone
			}
			return e
		case e.key == tombstoneKey:
			if tombstone == nil {
				tombstone = e
			}
		case e.key == key:
			return e
		}
		idx = (idx + 1) & mask
	}
}

func (t *hashTable) grow() {
	newCap := htInitialCapacity
	if len(t.entries) > 0 {
		newCap = len(t.entries) * 2
	}
	old := t.entries
	t.entries = make([]htEntry, newCap)
	t.count = 0
	t.live = 0
	for _, e := range old {
		if e.key == nil || e.key == tombstoneKey {
			continue
		}
		t.Set(e.key, e.value)
	}
}

// CopyInto copies every live entry from t into dst, used by class
// creation to implement "inherit by copy" (spec.md §3, §4.4): a
// subclass's method table starts as a full copy of its superclass's so
// dispatch is always a single probe.
func (t *hashTable) CopyInto(dst *hashTable) {
	for _, e := range t.entries {
		if e.key == nil || e.key == tombstoneKey {
			continue
		}
		dst.Set(e.key, e.value)
	}
}

// Each calls fn for every live entry. fn must not mutate the table.
func (t *hashTable) Each(fn func(key *ObjString, value Value)) {
	for _, e := range t.entries {
		if e.key == nil || e.key == tombstoneKey {
			continue
		}
		fn(e.key, e.value)
	}
}

// traceChildren marks every live key and value, per §4.1's "every
// key/value in the modules map" and the analogous rule for class
// method tables and instance field tables.
func (t *hashTable) traceChildren(mark func(Value)) {
	t.Each(func(key *ObjString, value Value) {
		mark(FromObj(key))
		if value.IsObject() {
			mark(value)
		}
	})
}
