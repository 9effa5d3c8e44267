// Package symbolic resolves program counters to human-readable function
// names and source locations. Resolution is best-effort: any field of a
// result may be empty, and no failure ever propagates to the caller.
package symbolic

import (
	"os"
	"path/filepath"
)

// Frame is a fully resolved stack frame.
type Frame struct {
	Function string // demangled
	Library  string
	Source   string
	Line     uint32
	Column   uint32
}

// Resolve maps a frame the crashed process annotated with dynamic symbol
// information. symbol is the raw (possibly mangled) name, library the image
// path, offset the pc relative to the image base, pc the absolute counter
// and exe the canonical path of the main executable.
func Resolve(symbol, library string, offset uint32, pc uint64, exe string) Frame {
	target := uint64(offset)
	src, line, col, fn, _ := lookup(displayPath(library, exe), target, symbol == "")
	if src == "" && fn == "" && library == exe && pc != target {
		// statically linked images can carry debug info keyed on the
		// absolute counter
		src, line, col, fn, _ = lookup(displayPath(library, exe), pc, symbol == "")
	}
	if symbol == "" {
		symbol = fn
	}
	return Frame{
		Function: Demangle(symbol),
		Library:  library,
		Source:   src,
		Line:     line,
		Column:   col,
	}
}

// ResolvePC maps a bare counter against the main executable. Used for
// frames the crashed process could not attribute to any loaded image.
func ResolvePC(pc uint64, exe string) Frame {
	src, line, col, fn, _ := lookup(displayPath(exe, exe), pc, true)
	if fn == "" && src == "" {
		return Frame{}
	}
	return Frame{
		Function: Demangle(fn),
		Library:  exe,
		Source:   src,
		Line:     line,
		Column:   col,
	}
}

// displayPath substitutes the canonical executable path when the image name
// the dynamic loader reported is a bare basename of the main executable.
func displayPath(library, exe string) string {
	if library == "" {
		return exe
	}
	if library == exe {
		return exe
	}
	if !filepath.IsAbs(library) && filepath.Base(exe) == filepath.Base(library) {
		return exe
	}
	return library
}

// CurrentExecutable returns the canonical path of the running binary, with
// symlinks resolved. Falls back to the supplied candidate when the runtime
// cannot tell.
func CurrentExecutable(candidate string) string {
	path, err := os.Executable()
	if err != nil {
		path = candidate
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	if path == "" {
		return candidate
	}
	return path
}
