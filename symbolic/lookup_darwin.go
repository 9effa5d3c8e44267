//go:build darwin

package symbolic

import (
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// atosLocation matches the trailing "(file.ext:123)" of an atos line.
var atosLocation = regexp.MustCompile(`\(([^:()]+):(\d+)\)\s*$`)

// lookup has no DWARF reader on macOS; it shells out to atos and parses the
// "function (in image) (filename:line)" form. The reporter is free to exec:
// it is not a signal context.
func lookup(path string, target uint64, wantFunc bool) (src string, line, col uint32, fn string, fnOffset uint32) {
	out, err := exec.Command("/usr/bin/atos",
		"-o", path,
		fmt.Sprintf("0x%x", target)).Output()
	if err != nil {
		return
	}
	text := strings.TrimSpace(string(out))
	if text == "" || strings.HasPrefix(text, "0x") {
		return
	}
	if m := atosLocation.FindStringSubmatch(text); m != nil {
		src = m[1]
		if n, err := strconv.ParseUint(m[2], 10, 32); err == nil {
			line = uint32(n)
		}
		text = strings.TrimSpace(text[:len(text)-len(m[0])])
	}
	if wantFunc {
		if i := strings.Index(text, " (in "); i > 0 {
			text = text[:i]
		}
		fn = strings.TrimSpace(text)
	}
	return
}
