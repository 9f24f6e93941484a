package value

// Equal reports whether a and b are structurally equal: same kind, same
// scalar payload, or (for arrays/objects) same length with every
// element/member recursively equal in the same order. Used by tests to
// check the patch identity property (a PASS-only op-chain must produce a
// tree structurally equal to its input).
func Equal(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case Null:
		return true
	case Bool:
		return a.Bool() == b.Bool()
	case Int:
		return a.Int() == b.Int()
	case String:
		return a.Str() == b.Str()
	case Array:
		if a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			if !Equal(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	case Object:
		if a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			ma, mb := a.MemberAt(i), b.MemberAt(i)
			if ma.Name.Str() != mb.Name.Str() {
				return false
			}
			if !Equal(ma.Value, mb.Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
