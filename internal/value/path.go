package value

import "strings"

// Segments splits a patch/lookup path ("/a/b/c") into its slash-delimited
// segments. An empty path yields no segments (selects the root). No
// escaping of '/' within a segment is supported, matching the external
// path syntax.
func Segments(path string) []string {
	if path == "" {
		return nil
	}
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// Get resolves a slash-delimited path against root. An empty path returns
// root itself. Walking into a non-object, or a missing member, returns
// (Value{}, false).
func Get(root Value, path string) (Value, bool) {
	cur := root
	for _, seg := range Segments(path) {
		if cur.Kind() != Object {
			return Value{}, false
		}
		v, ok := cur.Get(seg)
		if !ok {
			return Value{}, false
		}
		cur = v
	}
	return cur, true
}
