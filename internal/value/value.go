// Package value implements the in-memory JSON value tree: a tagged-sum type
// with a short-string optimization, built and read without ever freeing an
// individual node — the tree lives as long as the arena.Arena it was built
// in. See internal/arena for the allocator, parser.go for bytes→tree,
// printer.go for tree→bytes, and path.go for /a/b/c lookups.
package value

import "github.com/genhoi/unit/internal/arena"

// Kind tags the active variant of a Value. Number is reserved: the
// tokenizer never produces it because fractional/exponent forms are
// rejected at parse time (see parser.go).
type Kind uint8

const (
	Null Kind = iota
	Bool
	Int
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "invalid"
	}
}

// ShortStringMax is the inline capacity of the short-string variant.
// Strings decoded to this length or shorter never touch the arena.
const ShortStringMax = 14

// accountedValueSize and accountedMemberSize are the bytes charged against
// an Arena's usage counter for each contiguous Value/Member allocated via
// NewArray/NewObject. A []Value/[]Member slot is backed by ordinary Go heap
// memory rather than arena bytes, so these constants exist purely so that
// a caller can observe "no extra allocation happened" by diffing
// arena.Used() before and after a patch.
const (
	accountedValueSize  = 48
	accountedMemberSize = 96
)

// Value is a tagged sum: null, bool, int, (reserved) number, string, array,
// or object. Member name Values are always String (short or heap); array
// and object payloads are immutable once constructed, matching spec
// invariant (iv) — mutation happens by building a new tree via patch.Apply.
type Value struct {
	kind     Kind
	b        bool
	i        int64
	shortLen int8 // -1 => heap string; 0..ShortStringMax => short string length
	short    [ShortStringMax]byte
	str      string
	arr      []Value
	obj      []Member
}

// Member is an object entry: an insertion-ordered (name, value) pair. Name
// is always a String-kind Value (short or heap), never any other variant.
type Member struct {
	Name  Value
	Value Value
}

// NullValue is the singleton null value.
var NullValue = Value{kind: Null}

// NewBool returns a boolean value.
func NewBool(b bool) Value { return Value{kind: Bool, b: b} }

// NewInt returns a signed 64-bit integer value.
func NewInt(i int64) Value { return Value{kind: Int, i: i} }

// NewString builds a String value, choosing the inline short-string
// representation for decoded lengths up to ShortStringMax and a heap
// allocation (via a) otherwise. This is the boundary testable property 5
// depends on.
func NewString(a *arena.Arena, s string) Value {
	if len(s) <= ShortStringMax {
		v := Value{kind: String, shortLen: int8(len(s))}
		copy(v.short[:], s)
		return v
	}
	buf := a.Get(len(s))
	copy(buf, s)
	return Value{kind: String, shortLen: -1, str: string(buf)}
}

// NewArray builds an Array value of exactly len(elems) slots, copying elems
// into arena-accounted storage.
func NewArray(a *arena.Arena, elems []Value) Value {
	arr := make([]Value, len(elems))
	copy(arr, elems)
	a.Account(len(arr) * accountedValueSize)
	return Value{kind: Array, arr: arr}
}

// NewObject builds an Object value of exactly len(members) slots, preserving
// the given insertion order.
func NewObject(a *arena.Arena, members []Member) Value {
	obj := make([]Member, len(members))
	copy(obj, members)
	a.Account(len(obj) * accountedMemberSize)
	return Value{kind: Object, obj: obj}
}

// Kind reports the value's active variant.
func (v Value) Kind() Kind { return v.kind }

// Bool returns the boolean payload; only meaningful when Kind() == Bool.
func (v Value) Bool() bool { return v.b }

// Int returns the integer payload; only meaningful when Kind() == Int.
func (v Value) Int() int64 { return v.i }

// IsShortString reports whether a String value is using the inline
// representation.
func (v Value) IsShortString() bool { return v.kind == String && v.shortLen >= 0 }

// Str returns the decoded string payload; only meaningful when Kind() ==
// String.
func (v Value) Str() string {
	if v.shortLen >= 0 {
		return string(v.short[:v.shortLen])
	}
	return v.str
}

// Len returns the number of elements (Array) or members (Object).
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.arr)
	case Object:
		return len(v.obj)
	default:
		return 0
	}
}

// Index returns the i'th array element. Only meaningful when Kind() ==
// Array; panics like a slice index out of range otherwise.
func (v Value) Index(i int) Value { return v.arr[i] }

// Elements returns the array's backing slice. Callers must not mutate it;
// arrays are immutable once constructed.
func (v Value) Elements() []Value { return v.arr }

// MemberAt returns the i'th object member in insertion order.
func (v Value) MemberAt(i int) Member { return v.obj[i] }

// Members returns the object's backing slice. Callers must not mutate it.
func (v Value) Members() []Member { return v.obj }

// Get returns the value of the member named name, and whether it was found.
// Name comparison is byte-exact against either string representation.
func (v Value) Get(name string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}
	for _, m := range v.obj {
		if m.Name.Str() == name {
			return m.Value, true
		}
	}
	return Value{}, false
}

// IndexOfMember returns the member index named name within an Object value,
// or -1 if absent.
func (v Value) IndexOfMember(name string) int {
	if v.kind != Object {
		return -1
	}
	for i, m := range v.obj {
		if m.Name.Str() == name {
			return i
		}
	}
	return -1
}
