package registry

import "strings"

// NamespaceDelimiter separates a namespace crate name from its children,
// as in "foo/bar". The delimiter is replaced with FileSafeDelimiter in URL
// path segments.
const (
	NamespaceDelimiter = "/"
	FileSafeDelimiter  = "~"
)

// CanonicalName folds a crate name into its lookup form: lowercase, with
// `_` and `-` treated as the same separator. Uniqueness and all by-name
// queries operate on this form.
func CanonicalName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "_", "-")
}

// EncodeFileSafeName renders a crate name for use in a URL path segment.
func EncodeFileSafeName(name string) string {
	return strings.ReplaceAll(name, NamespaceDelimiter, FileSafeDelimiter)
}

// DecodeFileSafeName reverses EncodeFileSafeName.
func DecodeFileSafeName(name string) string {
	return strings.ReplaceAll(name, FileSafeDelimiter, NamespaceDelimiter)
}

// ParentName returns the immediate namespace of a crate name, or "" when
// the name is not namespaced. "foo/bar/baz" -> "foo/bar".
func ParentName(name string) string {
	idx := strings.LastIndex(name, NamespaceDelimiter)
	if idx <= 0 {
		return ""
	}
	return name[:idx]
}

// AncestorNames returns every namespace above a crate name, nearest first.
// "foo/bar/baz" -> ["foo/bar", "foo"]. Namespace depth is client input, so
// the walk is a bounded loop over the name rather than a pointer chase.
func AncestorNames(name string) []string {
	var ancestors []string
	for parent := ParentName(name); parent != ""; parent = ParentName(parent) {
		ancestors = append(ancestors, parent)
	}
	return ancestors
}
