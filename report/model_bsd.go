//go:build freebsd || darwin

package report

import "golang.org/x/sys/unix"

// machineModel asks the kernel for the hardware model; FreeBSD reports the
// processor type, Darwin the Mac model name.
func machineModel() string {
	model, err := unix.Sysctl("hw.model")
	if err != nil {
		return ""
	}
	return scrubModel(model)
}
