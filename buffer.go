package jstar

import "bytes"

// ObjBuffer is the growable byte builder described in §4.7: it owns
// its bytes through the GC-allocated heap but stays unreachable from
// any root until PushBuffer converts it into a String and clears the
// builder.  It is allocated like any other heap object so the GC's
// object-list bookkeeping stays uniform, even though nothing roots it
// until the host decides to keep it (typically by leaving it on the
// stack while appending to it).
//
// Internally it wraps bytes.Buffer: no pack library specializes a
// "growable byte builder that becomes a GC object," so this stays on
// the standard library by necessity rather than by default (DESIGN.md).
type ObjBuffer struct {
	ObjHeader
	buf bytes.Buffer
}

func newBuffer() *ObjBuffer {
	return &ObjBuffer{}
}

func (b *ObjBuffer) objKind() ObjKind { return ObjKindBuffer }

func (b *ObjBuffer) traceChildren(mark func(Value)) {}

func (b *ObjBuffer) goString() string { return "<buffer>" }

func (b *ObjBuffer) WriteByte(c byte) { b.buf.WriteByte(c) }

func (b *ObjBuffer) WriteString(s string) { b.buf.WriteString(s) }

func (b *ObjBuffer) Len() int { return b.buf.Len() }

func (b *ObjBuffer) Bytes() []byte { return b.buf.Bytes() }

func (b *ObjBuffer) Reset() { b.buf.Reset() }

// NewBuffer allocates a buffer through the VM's heap so it participates
// in the same allocation-triggers-GC bookkeeping as any other object.
func (vm *VM) NewBuffer() *ObjBuffer {
	return gcAlloc(vm.gc, newBuffer())
}

// BufferWriteByte appends a single byte to buf.
func (vm *VM) BufferWriteByte(buf *ObjBuffer, c byte) { buf.WriteByte(c) }

// BufferWriteString appends s to buf.
func (vm *VM) BufferWriteString(buf *ObjBuffer, s string) { buf.WriteString(s) }

// BufferPush converts buf into an (interned, if short enough) String,
// pushes it on the stack, and clears buf so it can be reused or
// collected (§4.7: "push converts it into a String and clears the
// builder").
func (vm *VM) BufferPush(buf *ObjBuffer) {
	vm.PushString(string(buf.Bytes()))
	buf.Reset()
}
