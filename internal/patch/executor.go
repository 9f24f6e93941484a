package patch

import (
	"errors"

	"github.com/genhoi/unit/internal/arena"
	"github.com/genhoi/unit/internal/value"
)

// ErrNotObject is returned by Apply when an op-chain (other than a nil,
// no-op chain) targets a value that is not an object. Op paths only ever
// address object members, so a well-formed chain from Compile never
// triggers this; it exists as a defensive check against hand-built chains.
var ErrNotObject = errors.New("patch: op-chain targets a non-object value")

// Apply executes op against root, producing a new tree that shares every
// subtree the op-chain did not touch. A nil op is the identity: root is
// returned unchanged and nothing is allocated, which is what makes a
// PASS-only chain's identity property (and disjoint-path associativity)
// hold — untouched members are copied by value, not walked.
func Apply(root value.Value, op *Op, a *arena.Arena) (value.Value, error) {
	if op == nil {
		return root, nil
	}
	if root.Kind() != value.Object {
		return value.Value{}, ErrNotObject
	}
	return applyObject(root, op, a)
}

func applyObject(src value.Value, op *Op, a *arena.Arena) (value.Value, error) {
	count := src.Len()
	for cur := op; cur != nil; cur = cur.Next {
		switch cur.Action {
		case Create:
			count++
		case Delete:
			count--
		}
	}

	dst := make([]value.Member, 0, count)
	s := 0
	members := src.Members()

	for cur := op; cur != nil; cur = cur.Next {
		switch cur.Action {
		case Pass:
			dst = append(dst, members[s:cur.Index]...)
			m := members[cur.Index]
			nested, err := applyObject(m.Value, cur.Ctx.(*Op), a)
			if err != nil {
				return value.Value{}, err
			}
			dst = append(dst, value.Member{Name: m.Name, Value: nested})
			s = cur.Index + 1
		case Replace:
			dst = append(dst, members[s:cur.Index]...)
			m := members[cur.Index]
			dst = append(dst, value.Member{Name: m.Name, Value: cur.Ctx.(value.Value)})
			s = cur.Index + 1
		case Delete:
			dst = append(dst, members[s:cur.Index]...)
			s = cur.Index + 1
		case Create:
			dst = append(dst, members[s:]...)
			s = len(members)
			dst = append(dst, cur.Ctx.(value.Member))
		}
	}
	dst = append(dst, members[s:]...)

	return value.NewObject(a, dst), nil
}
