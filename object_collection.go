package jstar

import "fmt"

// ObjList is a dynamically resized contiguous Value array (spec.md §3).
type ObjList struct {
	ObjHeader
	Items []Value
}

func newList(items []Value) *ObjList {
	return &ObjList{Items: items}
}

func (l *ObjList) objKind() ObjKind { return ObjKindList }

func (l *ObjList) traceChildren(mark func(Value)) {
	for _, v := range l.Items {
		if v.IsObject() {
			mark(v)
		}
	}
}

func (l *ObjList) goString() string { return fmt.Sprintf("<list len=%d>", len(l.Items)) }

// ObjTuple is a fixed-length Value array (spec.md §3).
type ObjTuple struct {
	ObjHeader
	Items []Value
}

func newTuple(items []Value) *ObjTuple {
	return &ObjTuple{Items: items}
}

func (t *ObjTuple) objKind() ObjKind { return ObjKindTuple }

func (t *ObjTuple) traceChildren(mark func(Value)) {
	for _, v := range t.Items {
		if v.IsObject() {
			mark(v)
		}
	}
}

func (t *ObjTuple) goString() string { return fmt.Sprintf("<tuple len=%d>", len(t.Items)) }

// ObjRange holds start/stop/step numbers (spec.md §3). Iteration state
// (the current cursor) is threaded externally through the __iter__/
// __next__ protocol rather than stored here, so a Range value can be
// walked by more than one loop at once.
type ObjRange struct {
	ObjHeader
	Start, Stop, Step float64
}

func newRange(start, stop, step float64) *ObjRange {
	return &ObjRange{Start: start, Stop: stop, Step: step}
}

func (r *ObjRange) objKind() ObjKind { return ObjKindRange }

func (r *ObjRange) traceChildren(mark func(Value)) {}

func (r *ObjRange) goString() string {
	return fmt.Sprintf("<range %g..%g step %g>", r.Start, r.Stop, r.Step)
}

// Contains reports whether n lies within the half-open [Start, Stop)
// interval walked by Step (Step may be negative for a descending
// range).
func (r *ObjRange) Contains(n float64) bool {
	if r.Step > 0 {
		return n >= r.Start && n < r.Stop
	}
	return n <= r.Start && n > r.Stop
}
