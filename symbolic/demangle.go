package symbolic

import (
	"strings"

	"github.com/ianlancetaylor/demangle"
)

// Demangle renders a compiler-mangled symbol in human form. Names the
// demangler does not recognize (Go symbols among them) pass through
// untouched.
func Demangle(name string) string {
	if name == "" {
		return ""
	}
	return demangle.Filter(name)
}

// BaseName returns the path component after the last slash.
func BaseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// DirName returns everything up to and including the last slash, or the
// empty string for a bare name.
func DirName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[:i+1]
	}
	return ""
}

// AfterFirstPath strips the first path component, used to shorten
// prefix-mapped source paths for display.
func AfterFirstPath(path string) string {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
