package crashy

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/bvgastel/crashy/symbolic"
	"github.com/bvgastel/crashy/unwind"
	"github.com/bvgastel/crashy/wire"
)

type emitSymbolFunc func(symbol, library string, offset uint32, pc uintptr)
type emitPCFunc func(pc uintptr)

// frameVisitor routes each unwound counter either to a symbol emitter or a
// raw-pc emitter, applying the skip-until-match prefix filter. The filter
// hides the crash machinery's own frames at the top of every trace; the
// matched frame itself is discarded too.
type frameVisitor struct {
	filter         []string
	skipUntilMatch bool
	emitSymbol     emitSymbolFunc
	emitPC         emitPCFunc
}

func newFrameVisitor(filter []string, emitSymbol emitSymbolFunc, emitPC emitPCFunc) *frameVisitor {
	return &frameVisitor{
		filter:         filter,
		skipUntilMatch: true,
		emitSymbol:     emitSymbol,
		emitPC:         emitPC,
	}
}

// display decides whether a named frame is shown. Names on the filter list
// are always discarded; anonymous filtering state advances on match.
func (v *frameVisitor) display(name string) bool {
	if len(v.filter) == 0 {
		return true
	}
	for _, f := range v.filter {
		if name == f {
			v.skipUntilMatch = false
			return false
		}
	}
	return !v.skipUntilMatch
}

// displayAnonymous decides whether a frame without symbol information is
// shown.
func (v *frameVisitor) displayAnonymous() bool {
	return len(v.filter) > 0 && !v.skipUntilMatch
}

// stopSymbol reports whether a frame marks the program's top-level entry,
// after which unwinding is pointless.
func stopSymbol(name string) bool {
	return strings.HasPrefix(name, "main") || strings.HasPrefix(name, "GlobalDispatcherRun")
}

// visit emits one frame and reports whether the walk should stop. Frames at
// or above the program's top-level entry points end the trace.
func (v *frameVisitor) visit(pc uintptr) bool {
	fn := runtime.FuncForPC(pc)
	if fn != nil {
		name := fn.Name()
		if !v.display(name) {
			return false
		}
		v.emitSymbol(name, currentExecutable, uint32(uint64(pc)-loadBias), pc)
		return stopSymbol(name)
	}
	if !v.displayAnonymous() {
		return false
	}
	v.emitPC(pc)
	return false
}

// wire emitters, used when the reporter link is up

func emitSymbolToReporter(symbol, library string, offset uint32, pc uintptr) {
	w := crashWriter
	w.Tag(wire.Library)
	w.String(symbol)
	w.String(library)
	w.Uint32(offset)
	w.Uint64(uint64(pc))
}

func emitPCToReporter(pc uintptr) {
	w := crashWriter
	w.Tag(wire.PC)
	w.Uint64(uint64(pc))
}

// raw emitters, the stderr fallback when the link is down

func emitSymbolRaw(symbol, library string, offset uint32, pc uintptr) {
	fmt.Fprintf(os.Stderr, "~~> %s in %s+0x%x (0x%x)\n",
		symbolic.Demangle(symbol), symbolic.BaseName(library), offset, pc)
}

func emitPCRaw(pc uintptr) {
	fmt.Fprintf(os.Stderr, "~~> 0x%x\n", pc)
}

// live emitters, for call-stack printing without a crash

func emitSymbolLive(symbol, library string, offset uint32, pc uintptr) {
	frame := symbolic.Resolve(symbol, library, offset, uint64(pc), currentExecutable)
	if frame.Source != "" {
		fmt.Fprintf(os.Stderr, "~~> %s in %s+0x%x [%s:%d]\n",
			frame.Function, symbolic.BaseName(frame.Library), offset, frame.Source, frame.Line)
		return
	}
	emitSymbolRaw(symbol, library, offset, pc)
}

// PrintCurrentCallStack writes a symbolicated trace of the calling
// goroutine to standard error without crashing. It returns the unused part
// of the frame budget.
func PrintCurrentCallStack(maxFrames int) int {
	v := newFrameVisitor(
		[]string{"github.com/bvgastel/crashy.PrintCurrentCallStack"},
		emitSymbolLive,
		emitPCRaw,
	)
	return unwind.Trace(v.visit, 0, maxFrames)
}
