package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bvgastel/crashy/crashd/event"
)

func reportWithFrames(frames ...event.Frame) *event.Report {
	// stored order is outermost-first
	reversed := make([]event.Frame, len(frames))
	for i, f := range frames {
		reversed[len(frames)-1-i] = f
	}
	return &event.Report{
		Event: event.Event{
			Exception: event.Exception{Values: []event.ExceptionValue{{
				Stacktrace: &event.Stacktrace{Frames: reversed},
			}}},
		},
	}
}

func TestSignatureAndSourceTakesInnermostFrame(t *testing.T) {
	report := reportWithFrames(
		event.Frame{Function: "main.crash", Filename: "/work/tester.go", Lineno: 27},
		event.Frame{Function: "main.main"},
	)

	stage := &SignatureAndSource{}
	stop := stage.Process(report)
	assert.False(t, stop)
	assert.Equal(t, "main.crash", report.Signature)
	assert.Equal(t, "/work/tester.go:27", report.Source)
}

func TestSignatureAndSourceWithoutFrames(t *testing.T) {
	report := &event.Report{}
	stage := &SignatureAndSource{}
	assert.False(t, stage.Process(report))
	assert.Empty(t, report.Signature)
}

func TestRxSkipsBlacklistedFrames(t *testing.T) {
	report := reportWithFrames(
		event.Frame{Function: "runtime.gopanic"},
		event.Frame{Function: "mylib.Wrap", Filename: "/lib/wrap.go", Lineno: 5},
		event.Frame{Function: "main.logic", Filename: "/work/logic.go", Lineno: 12},
	)

	stage := NewRx([]string{"^runtime\\.", "^mylib\\."})
	require.Len(t, stage.Regexps, 2)

	stop := stage.Process(report)
	assert.True(t, stop)
	assert.Equal(t, "main.logic", report.Signature)
	assert.Equal(t, "/work/logic.go:12", report.Source)
}

func TestRxFallsBackToInnermost(t *testing.T) {
	report := reportWithFrames(
		event.Frame{Function: "runtime.gopanic", Filename: "/go/panic.go", Lineno: 1},
		event.Frame{Function: "runtime.main"},
	)

	stage := NewRx([]string{"^runtime\\."})
	stop := stage.Process(report)
	assert.True(t, stop)
	assert.Equal(t, "runtime.gopanic", report.Signature)
}

func TestRxWithoutRegexpsPasses(t *testing.T) {
	report := reportWithFrames(event.Frame{Function: "main.logic"})
	stage := NewRx(nil)
	assert.False(t, stage.Process(report))
	assert.Empty(t, report.Signature)
}

func TestRxIgnoresBrokenRegexp(t *testing.T) {
	stage := NewRx([]string{"([", "^ok$"})
	assert.Len(t, stage.Regexps, 1)
}
