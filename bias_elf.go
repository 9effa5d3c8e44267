//go:build !darwin

package crashy

import (
	"debug/elf"
	"reflect"
	"runtime"
)

// computeLoadBias measures how far the executable is loaded from its link
// address by comparing the runtime address of a known function against its
// own symbol table entry. Zero for non-PIE binaries; for PIE binaries the
// bias turns absolute counters into file-relative offsets the symbolicator
// can use.
func computeLoadBias(exe string) uint64 {
	pc := uint64(reflect.ValueOf(GenerateDumpOnCrash).Pointer())
	fn := runtime.FuncForPC(uintptr(pc))
	if fn == nil {
		return 0
	}
	name := fn.Name()

	f, err := elf.Open(exe)
	if err != nil {
		return 0
	}
	defer f.Close()
	syms, err := f.Symbols()
	if err != nil {
		return 0
	}
	for _, s := range syms {
		if s.Name == name {
			return pc - s.Value
		}
	}
	return 0
}
