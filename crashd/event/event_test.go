package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleEvent = `{
	"event_id": "deadbeefdeadbeefdeadbeefdeadbeef",
	"timestamp": 1700000000,
	"platform": "c",
	"level": "fatal",
	"environment": "staging",
	"exception": {"values": [{
		"mechanism": {"type": "signalhandler", "handled": false,
			"data": {"relevant_address": "0x42"}},
		"type": "Segmentation fault",
		"value": "Segmentation fault (11) on address 0x42.",
		"thread_id": "my-context",
		"stacktrace": {"frames": [
			{"function": "main.main"},
			{"function": "main.crash", "filename": "/work/tester.go", "lineno": 27}
		]},
		"user": {"id": 1000}
	}]},
	"breadcrumbs": {"values": [
		{"message": "breadcrumb 0", "timestamp": 42, "level": "error"}
	]}
}`

func TestFromJson(t *testing.T) {
	e := FromJson([]byte(sampleEvent))
	require.NotNil(t, e)
	assert.Equal(t, "deadbeefdeadbeefdeadbeefdeadbeef", e.EventId)
	assert.Equal(t, "signalhandler", e.CrashType())
	assert.Equal(t, "0x42", e.Address())
}

func TestFromJsonRejectsGarbage(t *testing.T) {
	assert.Nil(t, FromJson([]byte("not json")))
	assert.Nil(t, FromJson([]byte(`{"timestamp": 1}`)), "event id is mandatory")
}

func TestCrashingFramesAreInnermostFirst(t *testing.T) {
	e := FromJson([]byte(sampleEvent))
	require.NotNil(t, e)

	frames := e.CrashingFrames()
	require.Len(t, frames, 2)
	assert.Equal(t, "main.crash", frames[0].Function)
	assert.Equal(t, "main.main", frames[1].Function)
}

func TestNewReport(t *testing.T) {
	e := FromJson([]byte(sampleEvent))
	require.NotNil(t, e)

	r := NewReport(e)
	assert.Equal(t, "signalhandler", r.CrashKind)
	assert.NotEmpty(t, r.DateAdded)
	assert.Empty(t, r.Signature, "signature comes from the pipeline")
}

func TestSourceOf(t *testing.T) {
	assert.Equal(t, "/work/tester.go:27",
		SourceOf(Frame{Filename: "/work/tester.go", Lineno: 27}))
}
