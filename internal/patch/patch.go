// Package patch implements the overlay-patch op-chain: compiling a
// slash-delimited path and an optional new value into a linked list of
// edit instructions, and applying that chain against a value.Value tree to
// produce a structurally-shared modified copy. See internal/value for the
// tree representation the chain operates on.
package patch

import (
	"github.com/genhoi/unit/internal/arena"
	"github.com/genhoi/unit/internal/value"
)

// Action tags what an Op does to the member it targets.
type Action uint8

const (
	// Pass descends into a nested object; Ctx holds the sub-chain for the
	// next path segment.
	Pass Action = iota
	// Create inserts a new member; Ctx holds the value.Member to append.
	Create
	// Replace substitutes a member's value in place; Ctx holds the
	// replacement value.Value.
	Replace
	// Delete removes a member; Ctx is unused.
	Delete
)

// Op is one link of the chain compiled from a path. Index is the target
// member's position in its parent object (meaningless for Create, which
// always appends). Next threads sibling ops at the same nesting level,
// supporting multiple edits compiled into one batch via Merge.
type Op struct {
	Index  int
	Action Action
	Ctx    any
	Next   *Op
}

// Status reports the outcome of Compile.
type Status uint8

const (
	// OK means the op-chain was built and Apply can be called with it.
	OK Status = iota
	// Declined means the path does not resolve against root and cannot be
	// created (an intermediate segment is missing, or a delete targets a
	// member that does not exist). This is not an error: callers interpret
	// it as a negative result, not a fault.
	Declined
)

// Compile walks path segment by segment against root and builds the
// corresponding op-chain. val == nil compiles a delete; otherwise it
// compiles a create-or-replace depending on whether the terminal member
// already exists. An empty path is declined: the root itself is never a
// patch target, only its members.
func Compile(root value.Value, val *value.Value, path string, a *arena.Arena) (*Op, Status) {
	segs := value.Segments(path)
	if len(segs) == 0 {
		return nil, Declined
	}
	return compileSegs(root, segs, val, a)
}

func compileSegs(cur value.Value, segs []string, val *value.Value, a *arena.Arena) (*Op, Status) {
	if cur.Kind() != value.Object {
		return nil, Declined
	}
	seg := segs[0]
	idx := cur.IndexOfMember(seg)

	if len(segs) > 1 {
		if idx < 0 {
			return nil, Declined
		}
		child := cur.MemberAt(idx).Value
		nested, status := compileSegs(child, segs[1:], val, a)
		if status != OK {
			return nil, status
		}
		return &Op{Index: idx, Action: Pass, Ctx: nested}, OK
	}

	if val == nil {
		if idx < 0 {
			return nil, Declined
		}
		return &Op{Index: idx, Action: Delete}, OK
	}
	if idx >= 0 {
		return &Op{Index: idx, Action: Replace, Ctx: *val}, OK
	}
	name := value.NewString(a, seg)
	return &Op{Action: Create, Ctx: value.Member{Name: name, Value: *val}}, OK
}

// Merge combines two op-chains compiled against the same root into one
// batch, threading the second through Next wherever the two chains target
// distinct members and recursively merging their Ctx chains wherever both
// are PASS ops at the same index. The merged chain keeps ops in ascending
// member index with Create ops last, the order Apply walks them in. Merge
// assumes a and b were compiled against disjoint or non-conflicting paths;
// two ops at the same index other than two PASS ops are not supported, and
// Apply panics on such a chain.
func Merge(a, b *Op) *Op {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.Action == Pass && b.Action == Pass && a.Index == b.Index {
		merged := *a
		merged.Ctx = Merge(a.Ctx.(*Op), b.Ctx.(*Op))
		merged.Next = Merge(a.Next, b.Next)
		return &merged
	}
	if b.Action != Create && (a.Action == Create || b.Index < a.Index) {
		a, b = b, a
	}
	merged := *a
	merged.Next = Merge(a.Next, b)
	return &merged
}
