//go:build !darwin

package symbolic

import (
	"debug/dwarf"
	"debug/elf"
	"io"
)

// lookup scans the DWARF of the image at path for the source line and, when
// wantFunc is set, the subprogram covering target. Missing debug info or a
// parse failure yields all-empty results.
func lookup(path string, target uint64, wantFunc bool) (src string, line, col uint32, fn string, fnOffset uint32) {
	f, err := elf.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	d, err := f.DWARF()
	if err != nil {
		return
	}

	r := d.Reader()
	for {
		cu, err := r.Next()
		if err != nil || cu == nil {
			return
		}
		if cu.Tag != dwarf.TagCompileUnit {
			continue
		}
		if src == "" {
			src, line, col = lookupLine(d, cu, target)
		}
		if wantFunc && fn == "" {
			fn, fnOffset = lookupSubprogram(r, target)
		} else {
			r.SkipChildren()
		}
		if src != "" && (!wantFunc || fn != "") {
			return
		}
	}
}

// lookupLine walks the compilation unit's line program for the entry with
// the largest address not past target, requiring target to fall before the
// next entry. Ties are broken by the smallest distance to target.
func lookupLine(d *dwarf.Data, cu *dwarf.Entry, target uint64) (string, uint32, uint32) {
	lr, err := d.LineReader(cu)
	if err != nil || lr == nil {
		return "", 0, 0
	}

	var (
		prev      dwarf.LineEntry
		havePrev  bool
		match     dwarf.LineEntry
		haveMatch bool
		matchDist uint64
	)
	for {
		var e dwarf.LineEntry
		if err := lr.Next(&e); err != nil {
			if err != io.EOF {
				return "", 0, 0
			}
			break
		}
		if havePrev && prev.Address <= target && target < e.Address {
			dist := target - prev.Address
			if !haveMatch || dist < matchDist {
				match = prev
				matchDist = dist
				haveMatch = true
			}
		}
		if e.EndSequence {
			havePrev = false
			continue
		}
		prev = e
		havePrev = true
	}
	if !haveMatch || match.File == nil {
		return "", 0, 0
	}
	col := uint32(0)
	if match.Column >= 1 {
		col = uint32(match.Column)
	}
	return match.File.Name, uint32(match.Line), col
}

// lookupSubprogram walks the unit's DIEs for the first subprogram whose
// [low_pc, high_pc) covers target. high_pc arrives either as an absolute
// address or as an offset (unsigned or signed constant class) added to
// low_pc, depending on the producer.
func lookupSubprogram(r *dwarf.Reader, target uint64) (string, uint32) {
	for {
		e, err := r.Next()
		if err != nil || e == nil {
			return "", 0
		}
		if e.Tag == dwarf.TagCompileUnit {
			// ran into the next unit; let the caller handle it
			r.Seek(e.Offset)
			return "", 0
		}
		if e.Tag != dwarf.TagSubprogram {
			continue
		}

		low, ok := e.Val(dwarf.AttrLowpc).(uint64)
		if !ok {
			continue
		}
		var high uint64
		switch v := e.Val(dwarf.AttrHighpc).(type) {
		case uint64:
			// address class: absolute end of the subprogram
			high = v
		case int64:
			// constant class: offset from low_pc, signed forms included
			high = uint64(int64(low) + v)
		default:
			continue
		}
		if low > target || high == 0 || target >= high {
			continue
		}
		name, _ := e.Val(dwarf.AttrName).(string)
		if name == "" {
			continue
		}
		return name, uint32(target - low)
	}
}
