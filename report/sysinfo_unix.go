//go:build linux || freebsd || darwin || netbsd || openbsd

package report

import (
	"bytes"
	"strings"

	"golang.org/x/sys/unix"
)

type hostInfo struct {
	Name    string
	Release string
	Machine string
	Node    string
	Model   string
}

func utsString(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field)
}

func systemInfo() hostInfo {
	var uts unix.Utsname
	info := hostInfo{}
	if err := unix.Uname(&uts); err == nil {
		info.Name = utsString(uts.Sysname[:])
		info.Release = utsString(uts.Release[:])
		info.Machine = utsString(uts.Machine[:])
		info.Node = utsString(uts.Nodename[:])
	}
	info.Model = machineModel()
	return info
}

// scrubModel cleans up vendor noise in a raw model string.
func scrubModel(model string) string {
	var b strings.Builder
	for _, r := range model {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteRune(' ')
		case strings.ContainsRune("()[]-_.@/", r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	out := b.String()
	for _, junk := range []string{"(R)", "(TM)", "CPU"} {
		out = strings.ReplaceAll(out, junk, "")
	}
	for strings.Contains(out, "  ") {
		out = strings.ReplaceAll(out, "  ", " ")
	}
	return strings.TrimSpace(out)
}
