// Package report implements the out-of-process half of the crash pipeline:
// it ingests the TLV stream written by the crashed process, symbolicates the
// frames, renders the record and hands the payload to the configured sender.
package report

import (
	"syscall"

	"github.com/bvgastel/crashy/symbolic"
)

// SendFormat selects the payload the reporter produces.
type SendFormat uint8

const (
	SendNone SendFormat = iota
	SendPlainText
	SendJSONSentry
)

// Config is the subset of the crash options the reporter process owns.
type Config struct {
	Format            SendFormat
	Prepare           func(SendFormat)
	Sender            func(SendFormat, string) bool
	Release           string
	Dist              string
	Environment       string
	Command           string
	Path              string
	CurrentExecutable string
	ReportUsername    bool
}

// SignalCause carries the fatal signal and, for memory faults, the address.
type SignalCause struct {
	Number  uint32
	Address uint64
}

// ExceptionCause carries an uncaught exception's mangled type name and its
// rendered description.
type ExceptionCause struct {
	TypeName    string
	Description string
}

// AssertCause carries a violated assertion.
type AssertCause struct {
	Function    string
	File        string
	Line        uint32
	Condition   string
	Explanation string
}

// Crumb is one breadcrumb as received over the wire.
type Crumb struct {
	Level   string
	Time    uint64
	Message string
}

// Record is a materialized crash report. Exactly one cause is set. Frames
// are innermost-first as captured.
type Record struct {
	Signal    *SignalCause
	Exception *ExceptionCause
	Assert    *AssertCause

	Context     string
	Frames      []symbolic.Frame
	Breadcrumbs []Crumb
}

var signalText = map[uint32]string{
	uint32(syscall.SIGILL):  "Illegal instruction",
	uint32(syscall.SIGABRT): "Aborted",
	uint32(syscall.SIGFPE):  "Floating point exception",
	uint32(syscall.SIGBUS):  "Bus error",
	uint32(syscall.SIGSEGV): "Segmentation fault",
	uint32(syscall.SIGTRAP): "Trace/breakpoint trap",
}

// SignalDescription renders a signal number the way strsignal(3) would.
func SignalDescription(number uint32) string {
	if text, ok := signalText[number]; ok {
		return text
	}
	return syscall.Signal(number).String()
}

// faultAddressSignal reports whether the signal carries a meaningful fault
// address.
func faultAddressSignal(number uint32) bool {
	return number == uint32(syscall.SIGSEGV) || number == uint32(syscall.SIGBUS)
}
