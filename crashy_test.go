package crashy

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCommandLine(t *testing.T) {
	var o Options
	o.SetCommandLine([]string{"./tester", "2", "with space"})
	assert.Equal(t, `"./tester" "2" "with space"`, o.Command)
	assert.Equal(t, "./tester", o.CurrentExecutable)
}

func TestSetCommandLineEmpty(t *testing.T) {
	var o Options
	o.SetCommandLine(nil)
	assert.Equal(t, "", o.Command)
	assert.Equal(t, "", o.CurrentExecutable)
}

func collectVisits(v *frameVisitor, names []string) []string {
	var emitted []string
	v.emitSymbol = func(symbol, _ string, _ uint32, _ uintptr) {
		emitted = append(emitted, symbol)
	}
	v.emitPC = func(uintptr) {
		emitted = append(emitted, "")
	}
	for _, name := range names {
		if name == "" {
			if v.displayAnonymous() {
				v.emitPC(0)
			}
			continue
		}
		if !v.display(name) {
			continue
		}
		v.emitSymbol(name, "", 0, 0)
		if stopSymbol(name) {
			break
		}
	}
	return emitted
}

func TestFilterSkipsUntilMatch(t *testing.T) {
	v := newFrameVisitor([]string{"pkg.handler"}, nil, nil)
	emitted := collectVisits(v, []string{"pkg.inner", "pkg.handler", "pkg.user", "pkg.caller"})
	// everything before and including the first match is discarded
	assert.Equal(t, []string{"pkg.user", "pkg.caller"}, emitted)
}

func TestFilterDropsListedFramesAlways(t *testing.T) {
	v := newFrameVisitor([]string{"pkg.a", "pkg.b"}, nil, nil)
	emitted := collectVisits(v, []string{"pkg.a", "pkg.user", "pkg.b", "pkg.more"})
	assert.Equal(t, []string{"pkg.user", "pkg.more"}, emitted)
}

func TestAnonymousFramesHeldUntilMatch(t *testing.T) {
	v := newFrameVisitor([]string{"pkg.handler"}, nil, nil)
	emitted := collectVisits(v, []string{"", "pkg.handler", "", "pkg.user"})
	assert.Equal(t, []string{"", "pkg.user"}, emitted)
}

func TestNoFilterShowsEverythingNamed(t *testing.T) {
	v := newFrameVisitor(nil, nil, nil)
	emitted := collectVisits(v, []string{"pkg.a", "pkg.b"})
	assert.Equal(t, []string{"pkg.a", "pkg.b"}, emitted)
}

func TestTerminationOnTopLevelSymbols(t *testing.T) {
	assert.True(t, stopSymbol("main.main"))
	assert.True(t, stopSymbol("main.run"))
	assert.True(t, stopSymbol("GlobalDispatcherRun"))
	assert.False(t, stopSymbol("runtime.main"))
	assert.False(t, stopSymbol("pkg.mainish")) // only a prefix of the symbol counts
}

func TestTerminationCutsTrailingFrames(t *testing.T) {
	v := newFrameVisitor(nil, nil, nil)
	emitted := collectVisits(v, []string{"pkg.crash", "main.main", "runtime.main", "runtime.goexit"})
	assert.Equal(t, []string{"pkg.crash", "main.main"}, emitted)
}

func TestEnterFatalAdmitsOne(t *testing.T) {
	assertBusy.Store(false)
	t.Cleanup(func() { assertBusy.Store(false) })

	require.True(t, enterFatal())
	assert.False(t, enterFatal())
	assert.False(t, enterFatal())
}

func TestCallerLocation(t *testing.T) {
	function, file, line := callerLocation(0)
	assert.Equal(t, "TestCallerLocation", function)
	assert.Equal(t, "crashy_test.go", file)
	assert.Greater(t, line, 0)
}

func TestComputeLoadBiasIsStable(t *testing.T) {
	exe := SetCurrentExecutable("")
	require.NotEmpty(t, exe)
	assert.Equal(t, computeLoadBias(exe), computeLoadBias(exe))
}

func TestGoRunsOnArmedGoroutine(t *testing.T) {
	done := make(chan struct{})
	armed := false
	Go(func() {
		// SetPanicOnFault returns the goroutine's previous setting
		armed = debug.SetPanicOnFault(true)
		close(done)
	})
	<-done
	assert.True(t, armed)
}

func TestDescribePanic(t *testing.T) {
	typeName, description := describePanic(42)
	assert.Equal(t, "int", typeName)
	assert.Equal(t, "42", description)
}

func TestDescribePanicUsesConverter(t *testing.T) {
	crashOptions.ConvertPanic = func(recovered interface{}) string {
		if n, ok := recovered.(int); ok && n == 42 {
			return "number: 42"
		}
		return ""
	}
	t.Cleanup(func() { crashOptions.ConvertPanic = nil })

	typeName, description := describePanic(42)
	assert.Equal(t, "int", typeName)
	assert.Equal(t, "number: 42", description)
}

func TestDescribePanicSurvivesConverterPanic(t *testing.T) {
	crashOptions.ConvertPanic = func(interface{}) string {
		panic("converter broke")
	}
	t.Cleanup(func() { crashOptions.ConvertPanic = nil })

	typeName, description := describePanic("boom")
	assert.Equal(t, "string", typeName)
	assert.Equal(t, "boom", description)
}
