package crashy

import (
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/bvgastel/crashy/unwind"
	"github.com/bvgastel/crashy/wire"
)

// maxStackTrace bounds every crash trace.
const maxStackTrace = 32

// faultSignals are the dispositions the machinery claims. They are restored
// to their defaults the moment a handler is entered, so a secondary fault
// core-dumps instead of recursing.
var faultSignals = []os.Signal{syscall.SIGSEGV, syscall.SIGBUS, syscall.SIGABRT}

var signalFilter = []string{
	"github.com/bvgastel/crashy.deliverSignal",
	"github.com/bvgastel/crashy.watchSignals",
}

var panicFilter = []string{
	"github.com/bvgastel/crashy.DumpOnPanic",
	"github.com/bvgastel/crashy.reportPanic",
	"github.com/bvgastel/crashy.reportFaultPanic",
	"runtime.gopanic",
	"runtime.panicmem",
	"runtime.sigpanic",
}

func installHandlers() {
	// arms the goroutine that called GenerateDumpOnCrash, normally main;
	// other goroutines arm themselves via EnableFaultPanics or Go
	EnableFaultPanics()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, faultSignals...)
	go watchSignals(ch)
}

// EnableFaultPanics turns synchronous memory faults on the calling
// goroutine into runtime panics carrying the fault address, which
// DumpOnPanic reports as their signal. The setting is per goroutine: a
// goroutine that never called this (directly, via GenerateDumpOnCrash, or
// by being started with Go) crashes the runtime on a fault before any
// handler runs.
func EnableFaultPanics() {
	debug.SetPanicOnFault(true)
}

// Go starts fn on a new goroutine with the crash machinery armed: fault
// panics are enabled for that goroutine and an unrecovered panic in fn is
// reported before the process aborts.
func Go(fn func()) {
	go func() {
		defer DumpOnPanic()
		EnableFaultPanics()
		fn()
	}()
}

func disableCrashReporting() {
	signal.Reset(faultSignals...)
}

func watchSignals(ch <-chan os.Signal) {
	sig := <-ch
	number, _ := sig.(syscall.Signal)
	deliverSignal(uint32(number), 0)
}

// deliverSignal handles an asynchronously delivered fatal signal. The
// interrupted goroutine keeps running; the trace is taken from the watcher,
// so after filtering little more than the watcher's runtime entry frame
// remains, but the cause, context and breadcrumbs still go out.
func deliverSignal(number uint32, faultAddress uint64) {
	disableCrashReporting()

	v := newFrameVisitor(signalFilter, emitSymbolToReporter, emitPCToReporter)
	if reporterLink == nil {
		fmt.Fprintf(os.Stderr, "=== CRASH ===\n%s (%d) on address 0x%x.\n",
			signalName(number), number, faultAddress)
		v.emitSymbol = emitSymbolRaw
		v.emitPC = emitPCRaw
	} else {
		w := crashWriter
		w.Tag(wire.Start)
		w.Tag(wire.Signal)
		w.Uint32(number)
		w.Uint64(faultAddress)
	}
	unwind.Trace(v.visit, 0, maxStackTrace)
	finishReport()
}

// DumpOnPanic reports an otherwise-unrecovered panic and aborts. Install it
// with defer at the top of main (and of any goroutine whose death should be
// reported):
//
//	defer crashy.DumpOnPanic()
//
// Panics caused by memory faults are reported as their signal; everything
// else is reported as an uncaught exception, rendered through ConvertPanic
// when the host configured it.
//
// Fault trapping is per goroutine: GenerateDumpOnCrash arms only the
// goroutine it ran on, so a goroutine watched with DumpOnPanic must also
// call EnableFaultPanics at its start (or be launched with Go, which does
// both) for faults to carry an address instead of killing the runtime.
func DumpOnPanic() {
	recovered := recover()
	if recovered == nil {
		return
	}
	reportPanic(recovered)
}

// addresser is implemented by the runtime's fault errors when
// SetPanicOnFault is active.
type addresser interface {
	Addr() uintptr
}

func reportPanic(recovered interface{}) {
	disableCrashReporting()

	if fault, ok := recovered.(addresser); ok {
		reportFaultPanic(uint64(fault.Addr()))
		return
	}

	typeName, description := describePanic(recovered)
	v := newFrameVisitor(panicFilter, emitSymbolToReporter, emitPCToReporter)
	if reporterLink == nil {
		fmt.Fprintf(os.Stderr, "=== CRASH ===\nUncaught %s exception: %s\n", typeName, description)
		v.emitSymbol = emitSymbolRaw
		v.emitPC = emitPCRaw
	} else {
		w := crashWriter
		w.Tag(wire.Start)
		w.Tag(wire.UncaughtException)
		w.String(description)
		w.String(typeName)
	}
	unwind.Trace(v.visit, 0, maxStackTrace)
	finishReport()
}

func reportFaultPanic(faultAddress uint64) {
	v := newFrameVisitor(panicFilter, emitSymbolToReporter, emitPCToReporter)
	number := uint32(syscall.SIGSEGV)
	if reporterLink == nil {
		fmt.Fprintf(os.Stderr, "=== CRASH ===\n%s (%d) on address 0x%x.\n",
			signalName(number), number, faultAddress)
		v.emitSymbol = emitSymbolRaw
		v.emitPC = emitPCRaw
	} else {
		w := crashWriter
		w.Tag(wire.Start)
		w.Tag(wire.Signal)
		w.Uint32(number)
		w.Uint64(faultAddress)
	}
	unwind.Trace(v.visit, 0, maxStackTrace)
	finishReport()
}

// describePanic renders a recovered value as (type name, description). The
// host's ConvertPanic runs first and may itself panic without consequence.
func describePanic(recovered interface{}) (typeName, description string) {
	typeName = fmt.Sprintf("%T", recovered)
	if convert := crashOptions.ConvertPanic; convert != nil {
		description = safeConvert(convert, recovered)
	}
	if description == "" {
		if err, ok := recovered.(error); ok {
			description = err.Error()
		} else {
			description = fmt.Sprint(recovered)
		}
	}
	return typeName, description
}

func safeConvert(convert func(interface{}) string, recovered interface{}) (out string) {
	defer func() {
		recover()
	}()
	return convert(recovered)
}

func signalName(number uint32) string {
	return syscall.Signal(number).String()
}

// finishReport flushes context and breadcrumbs, closes the pipe, waits for
// the reporter to deliver, and aborts so debuggers get a core dump. It
// never returns.
func finishReport() {
	if reporterLink == nil {
		abort()
	}
	w := crashWriter
	if crashOptions.GetContext != nil {
		w.Tag(wire.Context)
		w.String(crashOptions.GetContext())
	}
	if crashOptions.GetBreadcrumbs != nil {
		for {
			crumb, ok := crashOptions.GetBreadcrumbs()
			if !ok {
				break
			}
			w.Tag(wire.Breadcrumb)
			w.String(crumb.Level)
			w.Uint64(crumb.Time)
			w.BreadcrumbMessage(crumb.Message)
		}
	}
	w.Tag(wire.Finish)
	reporterLink.Close()
	reapReporter()
	abort()
}

// abort raises SIGABRT with its default disposition restored.
func abort() {
	signal.Reset(syscall.SIGABRT)
	syscall.Kill(syscall.Getpid(), syscall.SIGABRT)
	// the kill can only fail if the signal is blocked somehow; spin so
	// this function still never returns
	for {
		time.Sleep(time.Second)
	}
}
