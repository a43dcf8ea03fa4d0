package jstar

// internThreshold is the maximum byte length a string may have and
// still be interned, per spec.md §3.
const internThreshold = 256

// ObjString is an immutable byte sequence with a precomputed FNV-1a
// hash.  Strings at or under internThreshold are canonicalized through
// the VM's intern table so that string equality for them is pointer
// equality.
type ObjString struct {
	ObjHeader
	Bytes []byte
	Hash  uint32
}

func (s *ObjString) objKind() ObjKind { return ObjKindString }

func (s *ObjString) traceChildren(mark func(Value)) {}

func (s *ObjString) goString() string { return string(s.Bytes) }

func (s *ObjString) Len() int { return len(s.Bytes) }

// fnv1a32 implements the 32bit FNV-1a hash named by spec.md §3.  It is
// hand-rolled rather than taken from stdlib hash/fnv so the hash can be
// computed inline into the object header without an io.Writer round
// trip (see DESIGN.md).
func fnv1a32(b []byte) uint32 {
	const (
		offsetBasis uint32 = 2166136261
		prime       uint32 = 16777619
	)
	h := offsetBasis
	for _, c := range b {
		h ^= uint32(c)
		h *= prime
	}
	return h
}

func newObjString(bytes []byte) *ObjString {
	b := make([]byte, len(bytes))
	copy(b, bytes)
	return &ObjString{Bytes: b, Hash: fnv1a32(b)}
}
