package crashy

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bvgastel/crashy/unwind"
	"github.com/bvgastel/crashy/wire"
)

var assertFilter = []string{
	"github.com/bvgastel/crashy.CrashAssert",
	"github.com/bvgastel/crashy.crashAssertAt",
	"github.com/bvgastel/crashy.Ensure",
	"github.com/bvgastel/crashy.EnsureText",
	"github.com/bvgastel/crashy.Expect",
	"github.com/bvgastel/crashy.ExpectText",
}

var assertBusy atomic.Bool

// enterFatal admits exactly one thread of execution into the assertion
// path.
func enterFatal() bool {
	return !assertBusy.Swap(true)
}

// CrashAssert reports an assertion violation and never returns. A second
// entrant sleeps forever rather than produce an interleaved record or
// cascade into another fault.
func CrashAssert(function, file string, line int, condition, explanation string) {
	crashAssertAt(function, file, line, condition, explanation)
}

func crashAssertAt(function, file string, line int, condition, explanation string) {
	if !enterFatal() {
		for {
			time.Sleep(time.Second)
		}
	}
	disableCrashReporting()

	v := newFrameVisitor(assertFilter, emitSymbolToReporter, emitPCToReporter)
	if reporterLink == nil {
		fmt.Fprintf(os.Stderr, "=== CRASH ===\nAssertion violation in %s [%s:%d]: %s.\n",
			function, file, line, condition)
		v.emitSymbol = emitSymbolRaw
		v.emitPC = emitPCRaw
	} else {
		w := crashWriter
		w.Tag(wire.Start)
		w.Tag(wire.Assert)
		w.String(function)
		w.String(file)
		w.Uint32(uint32(line))
		w.String(condition)
		w.String(explanation)
	}
	unwind.Trace(v.visit, 0, maxStackTrace)
	finishReport()
}

// callerLocation names the function and source position of the assertion
// site, skip frames above the caller of the exported helper.
func callerLocation(skip int) (function, file string, line int) {
	pc, path, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "", "", 0
	}
	file = filepath.Base(path)
	if fn := runtime.FuncForPC(pc); fn != nil {
		function = fn.Name()
		if i := strings.LastIndexByte(function, '.'); i >= 0 {
			function = function[i+1:]
		}
	}
	return function, file, line
}

// Ensure crashes with an assertion record when cond is false. condition is
// the source text of the checked expression.
func Ensure(cond bool, condition string) {
	if cond {
		return
	}
	function, file, line := callerLocation(1)
	crashAssertAt(function, file, line, condition, "")
}

// EnsureText is Ensure with an explanation attached to the record.
func EnsureText(cond bool, condition, explanation string) {
	if cond {
		return
	}
	function, file, line := callerLocation(1)
	crashAssertAt(function, file, line, condition, explanation)
}
